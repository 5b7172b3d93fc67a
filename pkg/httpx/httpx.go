// Package httpx renders gRPC status errors as JSON HTTP responses.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const maxBodyBytes = 1 << 20

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusFromGRPC returns the HTTP status, the upper-case code name and the
// client-facing message for err. Errors without a gRPC status are internal.
func StatusFromGRPC(err error) (int, string, string) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	switch st.Code() {
	case codes.OK:
		return http.StatusOK, "OK", st.Message()
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest, "INVALID_ARGUMENT", st.Message()
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", st.Message()
	case codes.AlreadyExists:
		return http.StatusConflict, "ALREADY_EXISTS", st.Message()
	case codes.FailedPrecondition, codes.Aborted:
		return http.StatusConflict, "FAILED_PRECONDITION", st.Message()
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", st.Message()
	case codes.Canceled:
		return http.StatusRequestTimeout, "CANCELED", st.Message()
	case codes.DataLoss:
		return http.StatusInternalServerError, "DATA_LOSS", st.Message()
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err with mapErr and writes the JSON error body. Server
// side failures are logged with the original cause.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, mapErr func(error) error) {
	code, name, msg := StatusFromGRPC(mapErr(err))
	if code >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("code", name),
			slog.Any("err", err),
		)
	}
	WriteJSON(w, code, ErrorBody{Error: ErrorDetail{Code: name, Message: msg}})
}

// DecodeJSON reads one JSON object and rejects unknown fields. Failures come
// back as InvalidArgument status errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return status.Error(codes.InvalidArgument, "request body is empty")
		}
		return status.Error(codes.InvalidArgument, fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return status.Error(codes.InvalidArgument, "request body must hold a single object")
	}
	return nil
}

// IsStatus reports whether err already carries a gRPC status.
func IsStatus(err error) bool {
	var se interface{ GRPCStatus() *status.Status }
	return errors.As(err, &se)
}
