package platformerrors

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestNewErrorCarriesRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	err := NewError(ctx, LayerHandler, ErrorTypeValidation, "bad input", nil)

	if err.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", err.RequestID)
	}
	if err.Type != ErrorTypeValidation || err.Layer != LayerHandler {
		t.Errorf("err = %+v", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewError(context.Background(), LayerRepository, ErrorTypeInternal, "wrapped", inner)

	if !errors.Is(err, inner) {
		t.Errorf("errors.Is(err, inner) = false, want true")
	}
}

func TestAsErrorPreservesExistingType(t *testing.T) {
	original := NewError(context.Background(), LayerDomain, ErrorTypeNotFound, "missing", nil)
	wrapped := AsError(context.Background(), LayerHandler, original, "lookup failed")

	if wrapped.Type != ErrorTypeNotFound {
		t.Errorf("Type = %v, want ErrorTypeNotFound", wrapped.Type)
	}
	if wrapped.Layer != LayerHandler {
		t.Errorf("Layer = %v, want LayerHandler", wrapped.Layer)
	}
}

func TestAsErrorDefaultsToInternal(t *testing.T) {
	wrapped := AsError(context.Background(), LayerHandler, errors.New("plain"), "failed")
	if wrapped.Type != ErrorTypeInternal {
		t.Errorf("Type = %v, want ErrorTypeInternal", wrapped.Type)
	}
}

func TestAsErrorNilReturnsNil(t *testing.T) {
	if AsError(context.Background(), LayerHandler, nil, "x") != nil {
		t.Error("AsError(nil) should return nil")
	}
}

func TestGetPlatformError(t *testing.T) {
	pe := NewError(context.Background(), LayerDomain, ErrorTypeConflict, "conflict", nil)
	if GetPlatformError(pe) != pe {
		t.Error("GetPlatformError() did not round-trip a *PlatformError")
	}
	if GetPlatformError(errors.New("plain")) != nil {
		t.Error("GetPlatformError() on a plain error should return nil")
	}
}

func TestErrorTypeToHTTPStatus(t *testing.T) {
	tests := map[ErrorType]int{
		ErrorTypeNotFound:     http.StatusNotFound,
		ErrorTypeValidation:   http.StatusBadRequest,
		ErrorTypeConflict:     http.StatusConflict,
		ErrorTypeUnauthorized: http.StatusUnauthorized,
		ErrorTypeForbidden:    http.StatusForbidden,
		ErrorTypeInternal:     http.StatusInternalServerError,
		ErrorType("unknown"):  http.StatusInternalServerError,
	}
	for errType, want := range tests {
		if got := ErrorTypeToHTTPStatus(errType); got != want {
			t.Errorf("ErrorTypeToHTTPStatus(%v) = %d, want %d", errType, got, want)
		}
	}
}
