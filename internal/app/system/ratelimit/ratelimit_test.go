package ratelimit_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/ratelimit"
)

func TestLimiter_BurstThenBlock(t *testing.T) {
	l := ratelimit.Every(3, time.Hour)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d blocked within burst", i)
		}
	}
	if l.Allow("a") {
		t.Error("request over burst allowed")
	}
	if !l.Allow("b") {
		t.Error("other key blocked")
	}

	l.Reset("a")
	if !l.Allow("a") {
		t.Error("reset key still blocked")
	}
}

func TestMiddleware(t *testing.T) {
	l := ratelimit.Every(1, time.Hour)
	defer l.Close()
	h := l.Middleware("register")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("POST", "/register/basic", nil)
	req.RemoteAddr = "192.0.2.10:4000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestLoginLimiter(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()
	defer ll.Close()

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "198.51.100.1:1"
		if ok, _ := ll.Check(req, "A@example.com"); !ok {
			t.Fatalf("attempt %d blocked", i)
		}
	}
	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "198.51.100.2:1"
	if ok, reason := ll.Check(req, "a@example.com "); ok || reason == "" {
		t.Error("sixth attempt for the same email allowed")
	}

	ll.ResetEmail("a@example.com")
	if ok, _ := ll.Check(req, "a@example.com"); !ok {
		t.Error("email still blocked after reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"no port", nil, "192.0.2.9", "192.0.2.9"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			if got := ratelimit.ClientIP(r); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
