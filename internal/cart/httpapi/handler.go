package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dwikikusuma/supershop-pos/internal/cart/app"
	"github.com/dwikikusuma/supershop-pos/internal/cart/domain"
	catalogapp "github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	"github.com/dwikikusuma/supershop-pos/pkg/httpx"
	"github.com/dwikikusuma/supershop-pos/pkg/money"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Handler struct {
	svc *app.Service
	log *slog.Logger
}

func NewHandler(svc *app.Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/carts", h.open)
	r.Get("/carts/{id}", h.get)
	r.Delete("/carts/{id}", h.close)
	r.Post("/carts/{id}/items", h.addItem)
	r.Delete("/carts/{id}/items", h.clear)
	r.Delete("/carts/{id}/items/{index}", h.removeItem)
}

type lineView struct {
	Index     int         `json:"index"`
	EntryID   int64       `json:"entry_id"`
	Name      string      `json:"name"`
	Quantity  int         `json:"quantity"`
	UnitPrice money.Cents `json:"unit_price"`
	VATRate   money.Rate  `json:"vat_rate"`
	Subtotal  money.Cents `json:"subtotal"`
	VAT       money.Cents `json:"vat"`
}

type cartView struct {
	ID         string      `json:"id"`
	Lines      []lineView  `json:"lines"`
	Subtotal   money.Cents `json:"subtotal"`
	VAT        money.Cents `json:"vat"`
	GrandTotal money.Cents `json:"grand_total"`
}

// toView reads the lines once so totals always match the lines shown.
func toView(c *domain.Cart) cartView {
	lines := c.Lines()
	v := cartView{ID: c.ID(), Lines: make([]lineView, len(lines))}
	for i, l := range lines {
		v.Lines[i] = lineView{
			Index:     i,
			EntryID:   l.Entry.ID,
			Name:      l.Entry.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.Entry.UnitPrice,
			VATRate:   l.Entry.VATRate,
			Subtotal:  l.Subtotal(),
			VAT:       l.VAT(),
		}
	}
	t := domain.ComputeTotals(lines)
	v.Subtotal, v.VAT, v.GrandTotal = t.Subtotal, t.VAT, t.Grand
	return v
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	c := h.svc.Open(r.Context())
	h.log.InfoContext(r.Context(), "cart opened", "cart_id", c.ID())
	httpx.WriteJSON(w, http.StatusCreated, toView(c))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	EntryID  int64 `json:"entry_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.svc.AddItem(r.Context(), chi.URLParam(r, "id"), req.EntryID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, "index must be an integer"))
		return
	}

	c, err := h.svc.RemoveItem(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toView(c))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.log, err, mapErr)
}

func mapErr(err error) error {
	switch {
	case httpx.IsStatus(err):
		return err
	case errors.Is(err, app.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrCartNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, catalogapp.ErrNotFound):
		return status.Error(codes.NotFound, "catalog entry not found")
	case errors.Is(err, app.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}
