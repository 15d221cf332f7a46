package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code string
		http int
	}{
		{"not found", NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad payload", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad id"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("slot taken"), CodeConflict, http.StatusConflict},
		{"out of window", OutOfWindow("too soon"), CodeOutOfWindow, http.StatusUnprocessableEntity},
		{"already cancelled", AlreadyCancelled("b-1"), CodeAlreadyCancelled, http.StatusConflict},
		{"invalid timezone", InvalidTimezone("Mars/Olympus"), CodeInvalidTimezone, http.StatusBadRequest},
		{"internal", Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("too slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("mongo"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode() != tt.http {
				t.Errorf("status = %d, want %d", tt.err.StatusCode(), tt.http)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("query failed", cause)

	if !errors.Is(err, cause) {
		t.Error("Internal should wrap its cause")
	}
}

func TestAsAppErrorPassthrough(t *testing.T) {
	original := Conflict("slot taken")
	wrapped := fmt.Errorf("creating booking: %w", original)

	got := AsAppError(wrapped)
	if got != original {
		t.Errorf("AsAppError should unwrap to the original AppError")
	}
}

func TestAsAppErrorFallback(t *testing.T) {
	got := AsAppError(errors.New("plain"))
	if got.Code != CodeInternal {
		t.Errorf("plain errors should map to %s, got %s", CodeInternal, got.Code)
	}
	if got.StatusCode() != http.StatusInternalServerError {
		t.Errorf("status = %d", got.StatusCode())
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("Booking"))
	if !IsCode(err, CodeNotFound) {
		t.Error("IsCode should see through wrapping")
	}
	if IsCode(err, CodeConflict) {
		t.Error("IsCode matched the wrong code")
	}
	if IsCode(nil, CodeNotFound) {
		t.Error("nil is not an AppError")
	}
}

func TestAlreadyCancelledDetails(t *testing.T) {
	err := AlreadyCancelled("b-42")
	if err.Details["id"] != "b-42" {
		t.Errorf("details = %v", err.Details)
	}
}
