package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	cartapp "github.com/dwikikusuma/supershop-pos/internal/cart/app"
	cartdomain "github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	"github.com/dwikikusuma/supershop-pos/internal/checkout/app"
	"github.com/dwikikusuma/supershop-pos/internal/checkout/domain"
	orderdomain "github.com/dwikikusuma/supershop-pos/internal/order/domain"
	"github.com/dwikikusuma/supershop-pos/pkg/httpx"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const IdempotencyHeader = "Idempotency-Key"

type CartFinder interface {
	Get(ctx context.Context, cartID string) (*cartdomain.Cart, error)
}

type ReceiptRenderer interface {
	Render(order *orderdomain.Order, items []orderdomain.OrderItem) (string, error)
}

type Handler struct {
	carts    CartFinder
	svc      *app.Service
	receipts ReceiptRenderer
	log      *slog.Logger
}

func NewHandler(carts CartFinder, svc *app.Service, receipts ReceiptRenderer, log *slog.Logger) *Handler {
	return &Handler{carts: carts, svc: svc, receipts: receipts, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/carts/{id}/quote", h.quote)
	r.Post("/carts/{id}/checkout", h.checkout)
}

type quoteLineView struct {
	Position  int         `json:"position"`
	EntryID   int64       `json:"entry_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unit_price"`
	LineTotal money.Cents `json:"line_total"`
	VATRate   money.Rate  `json:"vat_rate"`
	VAT       money.Cents `json:"vat"`
}

type quoteView struct {
	Lines    []quoteLineView `json:"lines"`
	Subtotal money.Cents     `json:"subtotal"`
	VAT      money.Cents     `json:"vat"`
	Total    money.Cents     `json:"total"`
}

func toQuoteView(q domain.Quote) quoteView {
	v := quoteView{Lines: make([]quoteLineView, len(q.Lines)), Subtotal: q.Subtotal, VAT: q.VAT, Total: q.Total}
	for i, l := range q.Lines {
		v.Lines[i] = quoteLineView(l)
	}
	return v
}

type checkoutResponse struct {
	Order   orderdomain.Order `json:"order"`
	Receipt string            `json:"receipt"`
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toQuoteView(h.svc.Quote(cart)))
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	res, err := h.svc.Commit(r.Context(), cart, key)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	order := res.Order
	text, err := h.receipts.Render(&order, order.Items)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	httpx.WriteJSON(w, code, checkoutResponse{Order: order, Receipt: text})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.log, err, mapErr)
}

// mapErr keeps "nothing was stored" (4xx, 503) apart from "an order may be
// half stored" (DATA_LOSS).
func mapErr(err error) error {
	var ie *app.IntegrityError
	switch {
	case httpx.IsStatus(err):
		return err
	case errors.As(err, &ie):
		return status.Error(codes.DataLoss, fmt.Sprintf("order %d needs manual reconciliation", ie.OrderID))
	case errors.Is(err, app.ErrPersistence):
		return status.Error(codes.Unavailable, "order could not be stored, try again")
	case errors.Is(err, app.ErrEmptyCart):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, cartapp.ErrCartNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, cartapp.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request cancelled before the order was stored")
	}
	return status.Error(codes.Internal, "internal error")
}
