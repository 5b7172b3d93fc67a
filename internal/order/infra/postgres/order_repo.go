package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dwikikusuma/supershop-pos/internal/order/app"
	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

type OrderRepo struct {
	db *sql.DB
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) execTX(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

func (r *OrderRepo) CreateOrderHeader(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO orders (total_price_cents, total_vat_cents, thank_you_message, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, receipt_number, created_at`,
		int64(order.TotalPrice), int64(order.TotalVAT), order.ThankYouMessage, order.CreatedAt,
	).Scan(&order.ID, &order.ReceiptNumber, &order.CreatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	order.CreatedAt = order.CreatedAt.UTC()
	order.Items = nil
	return order, nil
}

func (r *OrderRepo) AddOrderItem(ctx context.Context, item domain.OrderItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_items
			(order_id, position, product_id, product_name, quantity, unit_price_cents, subtotal_cents, vat_rate_bp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.OrderID, item.Position, item.ProductID, item.Name, item.Quantity,
		int64(item.UnitPrice), int64(item.Subtotal), int64(item.VATRate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %d: %w", item.Position, err)
	}
	return nil
}

func (r *OrderRepo) DeleteOrderHeader(ctx context.Context, orderID int64) error {
	return r.execTX(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete items of order %d: %w", orderID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete order %d: %w", orderID, err)
		}
		return nil
	})
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	var (
		o          domain.Order
		price, vat int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, receipt_number, total_price_cents, total_vat_cents, thank_you_message, created_at
		FROM orders WHERE id = $1`, orderID,
	).Scan(&o.ID, &o.ReceiptNumber, &price, &vat, &o.ThankYouMessage, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}
	o.TotalPrice = money.Cents(price)
	o.TotalVAT = money.Cents(vat)
	o.CreatedAt = o.CreatedAt.UTC()

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, position, product_id, product_name, quantity, unit_price_cents, subtotal_cents, vat_rate_bp
		FROM order_items WHERE order_id = $1
		ORDER BY position`, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()

	o.Items = []domain.OrderItem{}
	for rows.Next() {
		var (
			it                   domain.OrderItem
			unit, subtotal, rate int64
		)
		if err := rows.Scan(&it.OrderID, &it.Position, &it.ProductID, &it.Name, &it.Quantity, &unit, &subtotal, &rate); err != nil {
			return domain.Order{}, err
		}
		it.UnitPrice = money.Cents(unit)
		it.Subtotal = money.Cents(subtotal)
		it.VATRate = money.Rate(rate)
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}
