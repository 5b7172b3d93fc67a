package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dwikikusuma/supershop-pos/internal/cart/app"
	"github.com/dwikikusuma/supershop-pos/internal/cart/infra/memory"
	catalogapp "github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	catalogmem "github.com/dwikikusuma/supershop-pos/internal/catalog/infra/memory"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// newTestService seeds the default catalog and returns entry ids by name.
func newTestService(t *testing.T) (*app.Service, map[string]int64) {
	t.Helper()
	repo := catalogmem.NewEntryRepo()
	ids := make(map[string]int64)
	for _, e := range catalogapp.DefaultEntries() {
		created, err := repo.Create(context.Background(), e)
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		ids[created.Name] = created.ID
	}
	return app.NewService(catalogapp.NewService(repo), memory.NewCartStore()), ids
}

func TestCart_AddItem(t *testing.T) {
	ctx := context.Background()
	svc, ids := newTestService(t)
	milk, laptop := ids["Milk"], ids["Laptop"]

	t.Run("milk x2 -> 28.00", func(t *testing.T) {
		cart := svc.Open(ctx)
		cart, err := svc.AddItem(ctx, cart.ID(), milk, 2)
		if err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		if got := cart.GrandTotal().String(); got != "28.00" {
			t.Fatalf("expected 28.00, got %s", got)
		}
	})

	t.Run("unknown cart -> not found", func(t *testing.T) {
		_, err := svc.AddItem(ctx, uuid.NewString(), milk, 1)
		if !errors.Is(err, app.ErrCartNotFound) {
			t.Fatalf("expected ErrCartNotFound, got %v", err)
		}
	})

	t.Run("unknown entry -> not found", func(t *testing.T) {
		cart := svc.Open(ctx)
		_, err := svc.AddItem(ctx, cart.ID(), 999, 1)
		if !errors.Is(err, catalogapp.ErrNotFound) {
			t.Fatalf("expected catalog ErrNotFound, got %v", err)
		}
	})

	t.Run("zero quantity -> invalid", func(t *testing.T) {
		cart := svc.Open(ctx)
		_, err := svc.AddItem(ctx, cart.ID(), milk, 0)
		if !errors.Is(err, app.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("beyond stock -> insufficient", func(t *testing.T) {
		cart := svc.Open(ctx)
		_, err := svc.AddItem(ctx, cart.ID(), laptop, 6)
		if !errors.Is(err, app.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
		if cart.Len() != 0 {
			t.Fatalf("cart should stay empty")
		}
	})
}

func TestCart_RemoveClearClose(t *testing.T) {
	ctx := context.Background()
	svc, ids := newTestService(t)
	milk, bread := ids["Milk"], ids["Bread"]

	cart := svc.Open(ctx)
	if _, err := svc.AddItem(ctx, cart.ID(), milk, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AddItem(ctx, cart.ID(), bread, 1); err != nil {
		t.Fatal(err)
	}

	cart, err := svc.RemoveItem(ctx, cart.ID(), 0)
	if err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if cart.Len() != 1 || cart.Lines()[0].Entry.Name != "Bread" {
		t.Fatalf("unexpected lines: %+v", cart.Lines())
	}

	if _, err := svc.Clear(ctx, cart.ID()); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cart.Len() != 0 {
		t.Fatalf("expected empty cart")
	}

	if err := svc.Close(ctx, cart.ID()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := svc.Get(ctx, cart.ID()); !errors.Is(err, app.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound after close, got %v", err)
	}
}

func TestCart_ConcurrentAddItemIncrement(t *testing.T) {
	ctx := context.Background()
	svc, ids := newTestService(t)
	milk := ids["Milk"]

	cart := svc.Open(ctx)

	const N = 50
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			_, err := svc.AddItem(ctx, cart.ID(), milk, 1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddItem failed: %v", err)
	}

	lines := cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != N {
		t.Fatalf("expected one line with quantity=%d, got %+v", N, lines)
	}

	if _, err := svc.AddItem(context.Background(), cart.ID(), milk, 1); !errors.Is(err, app.ErrInsufficientStock) {
		t.Fatalf("51st milk should exceed stock, got %v", err)
	}
}
