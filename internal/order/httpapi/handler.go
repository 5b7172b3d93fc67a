package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dwikikusuma/supershop-pos/internal/order/app"
	"github.com/dwikikusuma/supershop-pos/internal/order/infra/resilient"
	"github.com/dwikikusuma/supershop-pos/pkg/httpx"
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
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/receipt", h.receipt)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

// receipt reprints the stored order as plain text.
func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	text, err := h.svc.Receipt(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, "id must be an integer")
	}
	return id, nil
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
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, resilient.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, "order store unavailable")
	}
	return status.Error(codes.Internal, "internal error")
}
