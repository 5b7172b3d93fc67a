package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidInput = domain.ErrInvalidInput
	ErrNotFound     = errors.New("not found")
)

type Service struct {
	repo  EntryRepo
	group singleflight.Group
}

func NewService(repo EntryRepo) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateEntryInput carries money as decimal strings the way clients send it.
type CreateEntryInput struct {
	Name      string
	UnitPrice string
	VATRate   string
	Category  string
	Stock     int
	Barcode   string
}

func (s *Service) CreateEntry(ctx context.Context, in CreateEntryInput) (domain.Entry, error) {
	price, err := money.Parse(in.UnitPrice)
	if err != nil {
		return domain.Entry{}, domain.Invalid("unit_price", err.Error())
	}
	rate, err := money.ParseRate(in.VATRate)
	if err != nil {
		return domain.Entry{}, domain.Invalid("vat_rate", err.Error())
	}

	e, err := domain.NewEntry(0, in.Name, price, rate, in.Category, in.Stock, in.Barcode)
	if err != nil {
		return domain.Entry{}, err
	}

	return s.repo.Create(ctx, e)
}

// GetEntry collapses concurrent lookups of the same id into one repository call.
func (s *Service) GetEntry(ctx context.Context, id int64) (domain.Entry, error) {
	if id <= 0 {
		return domain.Entry{}, domain.Invalid("id", "must be positive")
	}

	v, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return s.repo.FindByID(ctx, id)
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return v.(domain.Entry), nil
}

func (s *Service) ListAvailable(ctx context.Context) ([]domain.Entry, error) {
	return s.repo.ListAvailable(ctx)
}

// Seed upserts entries by barcode. It is safe to run on every start.
func (s *Service) Seed(ctx context.Context, entries []domain.Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, e := range entries {
		g.Go(func() error {
			if err := e.Validate(); err != nil {
				return fmt.Errorf("seed %q: %w", e.Barcode, err)
			}
			if _, err := s.repo.Create(ctx, e); err != nil {
				return fmt.Errorf("seed %q: %w", e.Barcode, err)
			}
			return nil
		})
	}

	return g.Wait()
}
