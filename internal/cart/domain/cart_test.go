package domain

import (
	"math/rand/v2"
	"sync"
	"testing"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milk() catalog.Entry {
	return catalog.Entry{ID: 1, Name: "Milk", UnitPrice: money.MustParse("12.50"), VATRate: money.MustParseRate("0.12"), Category: "Dairy", Stock: 50, Barcode: "123456789012"}
}

func bread() catalog.Entry {
	return catalog.Entry{ID: 2, Name: "Bread", UnitPrice: money.MustParse("25.00"), VATRate: money.MustParseRate("0.12"), Category: "Bakery", Stock: 30, Barcode: "234567890123"}
}

func TestMilkScenario(t *testing.T) {
	c := New("till-1")
	require.NoError(t, c.AddItem(milk(), 2))

	assert.Equal(t, money.MustParse("25.00"), c.Subtotal())
	assert.Equal(t, money.MustParse("3.00"), c.VATTotal())
	assert.Equal(t, money.MustParse("28.00"), c.GrandTotal())
}

func TestAddItem_RejectsBadInput(t *testing.T) {
	c := New("till-1")

	t.Run("zero quantity -> invalid", func(t *testing.T) {
		err := c.AddItem(milk(), 0)
		assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	})

	t.Run("negative quantity -> invalid", func(t *testing.T) {
		err := c.AddItem(milk(), -3)
		assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	})

	t.Run("invalid entry -> invalid", func(t *testing.T) {
		broken := milk()
		broken.Name = ""
		err := c.AddItem(broken, 1)
		var ve *catalog.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "name", ve.Field)
	})

	assert.Zero(t, c.Len(), "failed adds leave the cart untouched")
}

func TestAddItem_MergePolicy(t *testing.T) {
	t.Run("same entry and price -> merged", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(milk(), 1))
		require.NoError(t, c.AddItem(bread(), 1))
		require.NoError(t, c.AddItem(milk(), 2))

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, "Milk", lines[0].Entry.Name)
		assert.Equal(t, 3, lines[0].Quantity)
		assert.Equal(t, "Bread", lines[1].Entry.Name)
	})

	t.Run("repriced entry -> new line", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(milk(), 1))

		repriced := milk()
		repriced.UnitPrice = money.MustParse("13.00")
		require.NoError(t, c.AddItem(repriced, 1))

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, money.MustParse("12.50"), lines[0].Entry.UnitPrice)
		assert.Equal(t, money.MustParse("13.00"), lines[1].Entry.UnitPrice)
	})
}

func TestAddItemInStock(t *testing.T) {
	c := New("till-1")
	laptop := catalog.Entry{ID: 3, Name: "Laptop", UnitPrice: money.MustParse("9999.99"), VATRate: money.MustParseRate("0.25"), Category: "Electronics", Stock: 5, Barcode: "345678901234"}

	require.NoError(t, c.AddItemInStock(laptop, 3))
	require.NoError(t, c.AddItemInStock(laptop, 2))

	err := c.AddItemInStock(laptop, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, c.Lines()[0].Quantity)
}

func TestRemoveItemAndClear(t *testing.T) {
	c := New("till-1")
	require.NoError(t, c.AddItem(milk(), 1))
	require.NoError(t, c.AddItem(bread(), 1))

	assert.ErrorIs(t, c.RemoveItem(2), catalog.ErrInvalidInput)
	assert.ErrorIs(t, c.RemoveItem(-1), catalog.ErrInvalidInput)

	require.NoError(t, c.RemoveItem(0))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Bread", lines[0].Entry.Name)
	assert.Equal(t, money.MustParse("28.00"), c.GrandTotal())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Equal(t, Totals{}, c.Totals())
}

func TestAddItem_RejectsOverflowingTotals(t *testing.T) {
	huge := catalog.Entry{ID: 9, Name: "Ship", UnitPrice: money.MustParse("50000000000000000.00"), VATRate: 0, Category: "Marine", Stock: 10, Barcode: "999"}

	t.Run("line total past int64 -> invalid", func(t *testing.T) {
		c := New("till-1")
		err := c.AddItem(huge, 2)
		assert.ErrorIs(t, err, catalog.ErrInvalidInput)
		assert.Zero(t, c.Len())
	})

	t.Run("merge past int64 -> invalid, line unchanged", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(huge, 1))
		assert.ErrorIs(t, c.AddItem(huge, 1), catalog.ErrInvalidInput)
		assert.Equal(t, 1, c.Lines()[0].Quantity)
	})

	t.Run("cart sum past int64 -> invalid", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(huge, 1))
		other := huge
		other.ID, other.Barcode = 10, "998"
		assert.ErrorIs(t, c.AddItem(other, 1), catalog.ErrInvalidInput)
		assert.Equal(t, huge.UnitPrice, c.GrandTotal())
	})
}

func TestConsume(t *testing.T) {
	t.Run("all consumed -> empty", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(milk(), 2))
		c.Consume(c.Lines())
		assert.Zero(t, c.Len())
	})

	t.Run("added since -> kept", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(milk(), 2))
		snapshot := c.Lines()

		require.NoError(t, c.AddItem(milk(), 1))
		require.NoError(t, c.AddItem(bread(), 1))
		c.Consume(snapshot)

		lines := c.Lines()
		require.Len(t, lines, 2)
		assert.Equal(t, 1, lines[0].Quantity)
		assert.Equal(t, "Bread", lines[1].Entry.Name)
	})

	t.Run("removed and re-added -> kept", func(t *testing.T) {
		c := New("till-1")
		require.NoError(t, c.AddItem(milk(), 2))
		snapshot := c.Lines()

		require.NoError(t, c.RemoveItem(0))
		require.NoError(t, c.AddItem(milk(), 1))
		c.Consume(snapshot)

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 1, lines[0].Quantity)
	})
}

func TestLinesIsACopy(t *testing.T) {
	c := New("till-1")
	require.NoError(t, c.AddItem(milk(), 1))

	lines := c.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestTotalsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	rates := []string{"0", "0.06", "0.12", "0.25"}

	for round := 0; round < 50; round++ {
		c := New("till-1")
		for i := 0; i < 1+rng.IntN(30); i++ {
			e := catalog.Entry{
				ID:        int64(1 + rng.IntN(8)),
				Name:      "Item",
				UnitPrice: money.Cents(rng.IntN(100000)),
				VATRate:   money.MustParseRate(rates[rng.IntN(len(rates))]),
				Category:  "Misc",
				Stock:     100,
				Barcode:   "0000",
			}
			require.NoError(t, c.AddItem(e, 1+rng.IntN(5)))
		}

		var sub, vat money.Cents
		for _, l := range c.Lines() {
			lineSub := l.Entry.UnitPrice * money.Cents(l.Quantity)
			sub += lineSub
			vat += l.Entry.VATRate.Apply(lineSub)
		}

		assert.Equal(t, sub, c.Subtotal())
		assert.Equal(t, vat, c.VATTotal())
		assert.Equal(t, c.Subtotal()+c.VATTotal(), c.GrandTotal())
	}
}

func TestConcurrentAdds(t *testing.T) {
	c := New("till-1")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.AddItem(milk(), 1); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 100, lines[0].Quantity)
}

func TestLockCheckoutSerialises(t *testing.T) {
	c := New("till-1")
	unlock := c.LockCheckout()

	acquired := make(chan struct{})
	go func() {
		release := c.LockCheckout()
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second checkout acquired the lock while the first held it")
	default:
	}

	unlock()
	<-acquired
}
