package app

import (
	"context"
	"errors"

	catalog "github.com/dwikikusuma/supershop-pos/internal/catalog/domain"
	"github.com/dwikikusuma/supershop-pos/internal/order/domain"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrInvalidInput = catalog.ErrInvalidInput
)

type Service struct {
	repo     OrderRepo
	receipts ReceiptRenderer
}

func NewService(repo OrderRepo, receipts ReceiptRenderer) *Service {
	return &Service{repo: repo, receipts: receipts}
}

func (s *Service) GetOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	if orderID <= 0 {
		return domain.Order{}, catalog.Invalid("order_id", "must be positive")
	}
	return s.repo.GetOrder(ctx, orderID)
}

// Receipt re-renders the receipt of a stored order.
func (s *Service) Receipt(ctx context.Context, orderID int64) (string, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return s.receipts.Render(&order, order.Items)
}
