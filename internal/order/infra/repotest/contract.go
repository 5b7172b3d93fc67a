// Package repotest holds the behaviour every order repository must share.
package repotest

import (
	"context"
	"testing"
	"time"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/internal/order/app"
	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func header(t *testing.T) domain.Order {
	t.Helper()
	at := time.Date(2026, 10, 15, 14, 3, 7, 123456000, time.UTC)
	o, err := domain.NewOrder(money.MustParse("50.00"), money.MustParse("6.00"), "", at)
	require.NoError(t, err)
	return o
}

func item(orderID int64, pos int, name string, unit string, qty int) domain.OrderItem {
	price := money.MustParse(unit)
	return domain.OrderItem{
		OrderID:   orderID,
		Position:  pos,
		ProductID: int64(pos + 1),
		Name:      name,
		Quantity:  qty,
		UnitPrice: price,
		Subtotal:  price.Mul(qty),
		VATRate:   money.MustParseRate("0.12"),
	}
}

// Run exercises repo through the full header/item/compensation lifecycle.
func Run(t *testing.T, repo app.OrderRepo) {
	ctx := context.Background()

	t.Run("create assigns id and receipt number", func(t *testing.T) {
		first, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)
		second, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)

		assert.True(t, first.Committed())
		assert.Greater(t, second.ID, first.ID)
		assert.Greater(t, second.ReceiptNumber, first.ReceiptNumber)
		assert.Equal(t, domain.DefaultThankYouMessage, first.ThankYouMessage)
	})

	t.Run("items come back in position order", func(t *testing.T) {
		o, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)

		require.NoError(t, repo.AddOrderItem(ctx, item(o.ID, 1, "Bread", "25.00", 1)))
		require.NoError(t, repo.AddOrderItem(ctx, item(o.ID, 0, "Milk", "12.50", 2)))

		got, err := repo.GetOrder(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ReceiptNumber, got.ReceiptNumber)
		assert.True(t, o.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, money.MustParse("50.00"), got.TotalPrice)
		assert.Equal(t, money.MustParse("6.00"), got.TotalVAT)
		require.Len(t, got.Items, 2)
		assert.Equal(t, item(o.ID, 0, "Milk", "12.50", 2), got.Items[0])
		assert.Equal(t, item(o.ID, 1, "Bread", "25.00", 1), got.Items[1])
	})

	t.Run("delete removes header and items", func(t *testing.T) {
		o, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)
		require.NoError(t, repo.AddOrderItem(ctx, item(o.ID, 0, "Milk", "12.50", 1)))

		require.NoError(t, repo.DeleteOrderHeader(ctx, o.ID))

		_, err = repo.GetOrder(ctx, o.ID)
		assert.ErrorIs(t, err, app.ErrNotFound)

		next, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)
		assert.Greater(t, next.ReceiptNumber, o.ReceiptNumber, "receipt numbers are not reused")
	})

	t.Run("delete of unknown order is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.DeleteOrderHeader(ctx, 1<<40))
	})

	t.Run("item for unknown order fails", func(t *testing.T) {
		assert.Error(t, repo.AddOrderItem(ctx, item(1<<40, 0, "Milk", "12.50", 1)))
	})

	t.Run("inconsistent item is rejected", func(t *testing.T) {
		o, err := repo.CreateOrderHeader(ctx, header(t))
		require.NoError(t, err)

		bad := item(o.ID, 0, "Milk", "12.50", 2)
		bad.Subtotal = money.MustParse("12.50")
		assert.ErrorIs(t, repo.AddOrderItem(ctx, bad), catalog.ErrInvalidInput)
	})

	t.Run("unknown order -> not found", func(t *testing.T) {
		_, err := repo.GetOrder(ctx, 1<<40)
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}
