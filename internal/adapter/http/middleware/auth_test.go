package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/infrastructure/auth"
)

func newTestJWT(t *testing.T) *auth.JWTManager {
	t.Helper()
	return auth.NewJWTManager("test-secret", time.Hour)
}

func bearerFor(t *testing.T, mgr *auth.JWTManager, role domain.Role) string {
	t.Helper()
	token, _, err := mgr.Generate(&domain.User{ID: "u1", Email: "u1@example.com", Role: role})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func TestAuthMiddleware_PutsUserInContext(t *testing.T) {
	mgr := newTestJWT(t)

	var got *domain.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		got = user
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", bearerFor(t, mgr, domain.RoleBookkeeper))
	rr := httptest.NewRecorder()

	AuthMiddleware(mgr)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got == nil || got.Email != "u1@example.com" || got.Role != domain.RoleBookkeeper {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestAuthMiddleware_RejectsMissingAndBadTokens(t *testing.T) {
	mgr := newTestJWT(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a valid token")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			AuthMiddleware(mgr)(next).ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		minRole domain.Role
		want    int
	}{
		{"auditor can read", domain.RoleAuditor, domain.RoleAuditor, http.StatusOK},
		{"auditor cannot write", domain.RoleAuditor, domain.RoleBookkeeper, http.StatusForbidden},
		{"bookkeeper can write", domain.RoleBookkeeper, domain.RoleBookkeeper, http.StatusOK},
		{"bookkeeper is not admin", domain.RoleBookkeeper, domain.RoleAdmin, http.StatusForbidden},
		{"admin can do anything", domain.RoleAdmin, domain.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			req = req.WithContext(auth.WithUser(req.Context(), &domain.User{ID: "u1", Role: tt.role}))
			rr := httptest.NewRecorder()

			RequireRole(tt.minRole)(next).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestRequireRole_NoUser(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a user")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rr := httptest.NewRecorder()

	RequireRole(domain.RoleAuditor)(next).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
