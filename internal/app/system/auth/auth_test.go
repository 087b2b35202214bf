package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/unionhub/internal/app/system/auth"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-that-is-at-least-32-chars"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	if err := sm.EnableBearerTokens(testSecret, time.Hour, "unionhub-test"); err != nil {
		t.Fatalf("EnableBearerTokens: %v", err)
	}
	return sm
}

type fakeFetcher map[string]*auth.SessionUser

func (f fakeFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser {
	return f[id]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}
}

func TestEnableBearerTokens_ShortSecret(t *testing.T) {
	sm := newTestSessionManager(t)
	if err := sm.EnableBearerTokens("short", time.Hour, ""); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestIssueAndParseToken(t *testing.T) {
	sm := newTestSessionManager(t)

	tok, exp, err := sm.IssueToken(&auth.SessionUser{ID: "abc123", Role: "user"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	claims, err := sm.ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "abc123" || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseToken_RejectsForeignSignature(t *testing.T) {
	issuer := newTestSessionManager(t)
	other := newTestSessionManager(t)
	if err := other.EnableBearerTokens(strings.Repeat("x", 40), time.Hour, "unionhub-test"); err != nil {
		t.Fatal(err)
	}

	tok, _, err := issuer.IssueToken(&auth.SessionUser{ID: "abc123"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ParseToken(tok); err == nil {
		t.Error("expected signature verification failure")
	}
}

func TestParseToken_RejectsExpired(t *testing.T) {
	sm := newTestSessionManager(t)
	if err := sm.EnableBearerTokens(testSecret, time.Nanosecond, "unionhub-test"); err != nil {
		t.Fatal(err)
	}
	tok, _, err := sm.IssueToken(&auth.SessionUser{ID: "abc123"})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := sm.ParseToken(tok); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestLoadSessionUser_Bearer(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{"u1": {ID: "u1", Role: "branch_manager", BranchID: "b1"}})

	tok, _, err := sm.IssueToken(&auth.SessionUser{ID: "u1"})
	if err != nil {
		t.Fatal(err)
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/users/u1", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.Role != "branch_manager" || got.BranchID != "b1" {
		t.Errorf("CurrentUser = %+v", got)
	}
}

func TestLoadSessionUser_DeactivatedUserIsAnonymous(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{}) // fetcher returns nil for deactivated accounts

	tok, _, err := sm.IssueToken(&auth.SessionUser{ID: "gone"})
	if err != nil {
		t.Fatal(err)
	}

	h := sm.LoadSessionUser(sm.RequireSignedIn(okHandler()))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoadSessionUser_Cookie(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{"u2": {ID: "u2", Role: "admin"}})

	signIn := httptest.NewRecorder()
	if err := sm.SignIn(signIn, httptest.NewRequest("POST", "/auth/login", nil), "u2"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signIn.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}

	var got *auth.SessionUser
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "u2" {
		t.Errorf("CurrentUser = %+v", got)
	}
}

func TestLoadSessionUser_TamperedCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(fakeFetcher{"u2": {ID: "u2", Role: "admin"}})

	h := sm.LoadSessionUser(sm.RequireSignedIn(okHandler()))
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)
	h := sm.RequireRole("admin", "superadmin")(okHandler())

	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &auth.SessionUser{ID: "1", Role: "user"}, http.StatusForbidden},
		{"admin", &auth.SessionUser{ID: "2", Role: "admin"}, http.StatusOK},
		{"superadmin uppercase", &auth.SessionUser{ID: "3", Role: "SuperAdmin"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("PATCH", "/users/1/role", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequireSignedIn_JSONBody(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(rec.Body.String(), `"code":"unauthenticated"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
