package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Field("email", "required"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated(), http.StatusUnauthorized},
		{"forbidden", Forbidden("out_of_scope"), http.StatusForbidden},
		{"not found", NotFound("user"), http.StatusNotFound},
		{"conflict", Conflict("national id already registered", nil), http.StatusConflict},
		{"rate limited", RateLimited(), http.StatusTooManyRequests},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"foreign error", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", NotFound("branch")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("write conflict")
	err := Conflict("member was modified concurrently", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestError_MessageListsFieldsInOrder(t *testing.T) {
	err := Validation(map[string]string{"password": "too short", "email": "required"})
	msg := err.Error()
	if strings.Index(msg, "email") > strings.Index(msg, "password") {
		t.Errorf("fields not sorted in %q", msg)
	}
}

func TestIs(t *testing.T) {
	if !Is(Forbidden("no_authority"), KindForbidden) {
		t.Error("expected forbidden kind")
	}
	if Is(nil, KindInternal) {
		t.Error("nil error must not match any kind")
	}
}
