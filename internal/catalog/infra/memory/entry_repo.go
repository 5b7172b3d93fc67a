package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
)

// EntryRepo keeps the catalog in process memory.
type EntryRepo struct {
	mu        sync.RWMutex
	nextID    int64
	byID      map[int64]domain.Entry
	byBarcode map[string]int64
}

func NewEntryRepo() *EntryRepo {
	return &EntryRepo{
		byID:      make(map[int64]domain.Entry),
		byBarcode: make(map[string]int64),
	}
}

func (r *EntryRepo) Create(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byBarcode[e.Barcode]; ok {
		e.ID = id
	} else {
		r.nextID++
		e.ID = r.nextID
		r.byBarcode[e.Barcode] = e.ID
	}
	r.byID[e.ID] = e
	return e, nil
}

func (r *EntryRepo) FindByID(ctx context.Context, id int64) (domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return domain.Entry{}, app.ErrNotFound
	}
	return e, nil
}

func (r *EntryRepo) ListAvailable(ctx context.Context) ([]domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Entry, 0, len(r.byID))
	for _, e := range r.byID {
		if e.Available() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
