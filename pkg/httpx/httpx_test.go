package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusFromGRPC(t *testing.T) {
	t.Run("InvalidArgument -> 400", func(t *testing.T) {
		err := status.Error(codes.InvalidArgument, "bad")
		gotStatus, gotCode, _ := StatusFromGRPC(err)
		if gotStatus != http.StatusBadRequest || gotCode != "INVALID_ARGUMENT" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("NotFound -> 404", func(t *testing.T) {
		err := status.Error(codes.NotFound, "missing")
		gotStatus, gotCode, _ := StatusFromGRPC(err)
		if gotStatus != http.StatusNotFound || gotCode != "NOT_FOUND" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("FailedPrecondition -> 409", func(t *testing.T) {
		err := status.Error(codes.FailedPrecondition, "cart is empty")
		gotStatus, gotCode, msg := StatusFromGRPC(err)
		if gotStatus != http.StatusConflict || gotCode != "FAILED_PRECONDITION" || msg != "cart is empty" {
			t.Fatalf("got (%d,%s,%s)", gotStatus, gotCode, msg)
		}
	})

	t.Run("Unavailable -> 503", func(t *testing.T) {
		err := status.Error(codes.Unavailable, "down")
		gotStatus, gotCode, _ := StatusFromGRPC(err)
		if gotStatus != http.StatusServiceUnavailable || gotCode != "UNAVAILABLE" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("DeadlineExceeded -> 503", func(t *testing.T) {
		err := status.Error(codes.DeadlineExceeded, "timeout")
		gotStatus, gotCode, _ := StatusFromGRPC(err)
		if gotStatus != http.StatusServiceUnavailable || gotCode != "UNAVAILABLE" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("DataLoss -> 500 DATA_LOSS", func(t *testing.T) {
		err := status.Error(codes.DataLoss, "order 7 needs manual reconciliation")
		gotStatus, gotCode, msg := StatusFromGRPC(err)
		if gotStatus != http.StatusInternalServerError || gotCode != "DATA_LOSS" || !strings.Contains(msg, "order 7") {
			t.Fatalf("got (%d,%s,%s)", gotStatus, gotCode, msg)
		}
	})

	t.Run("Internal -> message hidden", func(t *testing.T) {
		err := status.Error(codes.Internal, "pq: password authentication failed")
		_, _, msg := StatusFromGRPC(err)
		if msg != "internal error" {
			t.Fatalf("internal details leaked: %q", msg)
		}
	})

	t.Run("non-grpc error -> 500", func(t *testing.T) {
		err := errors.New("boom")
		gotStatus, gotCode, _ := StatusFromGRPC(err)
		if gotStatus != http.StatusInternalServerError || gotCode != "INTERNAL" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})
}

func TestWriteError(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders/9", nil)

	WriteError(rec, req, log, errors.New("order not found"), func(err error) error {
		return status.Error(codes.NotFound, err.Error())
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != "NOT_FOUND" || body.Error.Message != "order not found" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		EntryID int64 `json:"entry_id"`
	}

	t.Run("valid -> decoded", func(t *testing.T) {
		var p payload
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"entry_id": 3}`))
		if err := DecodeJSON(httptest.NewRecorder(), req, &p); err != nil || p.EntryID != 3 {
			t.Fatalf("got %+v, %v", p, err)
		}
	})

	for name, body := range map[string]string{
		"empty -> invalid":         ``,
		"unknown field -> invalid": `{"entry":3}`,
		"two objects -> invalid":   `{"entry_id":1}{"entry_id":2}`,
	} {
		t.Run(name, func(t *testing.T) {
			var p payload
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
		})
	}
}

func TestIsStatus(t *testing.T) {
	if IsStatus(errors.New("plain")) {
		t.Fatal("plain error has no status")
	}
	if !IsStatus(status.Error(codes.NotFound, "x")) {
		t.Fatal("status error not recognised")
	}
}
