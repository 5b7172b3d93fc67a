package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	"github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
)

const entryColumns = `id, name, unit_price_cents, vat_rate_bp, category, stock_quantity, barcode`

type EntryRepo struct {
	db *sql.DB
}

func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

func (r *EntryRepo) Create(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO catalog_entries (name, unit_price_cents, vat_rate_bp, category, stock_quantity, barcode)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (barcode) DO UPDATE SET
			name = EXCLUDED.name,
			unit_price_cents = EXCLUDED.unit_price_cents,
			vat_rate_bp = EXCLUDED.vat_rate_bp,
			category = EXCLUDED.category,
			stock_quantity = EXCLUDED.stock_quantity
		RETURNING `+entryColumns,
		e.Name, int64(e.UnitPrice), int64(e.VATRate), e.Category, e.Stock, e.Barcode,
	)
	return scanEntry(row)
}

func (r *EntryRepo) FindByID(ctx context.Context, id int64) (domain.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM catalog_entries WHERE id = $1`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, app.ErrNotFound
	}
	return e, err
}

func (r *EntryRepo) ListAvailable(ctx context.Context) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+`
		FROM catalog_entries
		WHERE stock_quantity > 0
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.Entry, error) {
	var (
		e          domain.Entry
		price, vat int64
	)
	if err := s.Scan(&e.ID, &e.Name, &price, &vat, &e.Category, &e.Stock, &e.Barcode); err != nil {
		return domain.Entry{}, err
	}
	e.UnitPrice = money.Cents(price)
	e.VATRate = money.Rate(vat)
	return e, nil
}
