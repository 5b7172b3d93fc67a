package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dwikikusuma/supershop-pos/internal/catalog/app"
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
	r.Get("/catalog", h.list)
	r.Post("/catalog", h.create)
	r.Get("/catalog/{id}", h.get)
}

type createEntryRequest struct {
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	VATRate   string `json:"vat_rate"`
	Category  string `json:"category"`
	Stock     int    `json:"stock"`
	Barcode   string `json:"barcode"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.svc.CreateEntry(r.Context(), app.CreateEntryInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		VATRate:   req.VATRate,
		Category:  req.Category,
		Stock:     req.Stock,
		Barcode:   req.Barcode,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.fail(w, r, status.Error(codes.InvalidArgument, "id must be an integer"))
		return
	}

	e, err := h.svc.GetEntry(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListAvailable(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.log, err, mapErr)
}

func mapErr(err error) error {
	if httpx.IsStatus(err) {
		return err
	}
	if errors.Is(err, app.ErrInvalidInput) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if errors.Is(err, app.ErrNotFound) {
		return status.Error(codes.NotFound, "catalog entry not found")
	}
	return status.Error(codes.Internal, "internal error")
}
