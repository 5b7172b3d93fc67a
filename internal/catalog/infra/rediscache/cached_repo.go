package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// CachedRepo puts a read-through cache in front of FindByID. Writes go to
// the wrapped repo first and then drop the cached copy.
type CachedRepo struct {
	next    app.EntryRepo
	client  *redis.Client
	log     *slog.Logger
	baseTTL time.Duration
}

func NewCachedRepo(next app.EntryRepo, client *redis.Client, log *slog.Logger) *CachedRepo {
	return &CachedRepo{
		next:    next,
		client:  client,
		log:     log,
		baseTTL: 5 * time.Minute,
	}
}

func (r *CachedRepo) Create(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	created, err := r.next.Create(ctx, e)
	if err != nil {
		return domain.Entry{}, err
	}
	if err := r.client.Del(ctx, cacheKey(created.ID)).Err(); err != nil {
		r.log.Warn("catalog cache invalidate failed", slog.Int64("entry_id", created.ID), slog.Any("err", err))
	}
	return created, nil
}

func (r *CachedRepo) FindByID(ctx context.Context, id int64) (domain.Entry, error) {
	e, err := r.get(ctx, id)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("catalog cache get failed", slog.Int64("entry_id", id), slog.Any("err", err))
	}

	e, err = r.next.FindByID(ctx, id)
	if err != nil {
		return domain.Entry{}, err
	}

	if err := r.set(ctx, e); err != nil {
		r.log.Warn("catalog cache set failed", slog.Int64("entry_id", id), slog.Any("err", err))
	}
	return e, nil
}

// ListAvailable is not cached; stock changes too often for it to be useful.
func (r *CachedRepo) ListAvailable(ctx context.Context) ([]domain.Entry, error) {
	return r.next.ListAvailable(ctx)
}

func (r *CachedRepo) get(ctx context.Context, id int64) (domain.Entry, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Entry{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("redis get failed: %w", err)
	}

	var e domain.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return domain.Entry{}, fmt.Errorf("unmarshal entry failed: %w", err)
	}
	return e, nil
}

func (r *CachedRepo) set(ctx context.Context, e domain.Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry failed: %w", err)
	}

	jitter := time.Duration(rand.IntN(60)) * time.Second
	if err := r.client.Set(ctx, cacheKey(e.ID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id int64) string {
	return fmt.Sprintf("catalog:entry:%d", id)
}
