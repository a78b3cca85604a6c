package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/cardledger/internal/domain"
	"github.com/iho/cardledger/internal/infrastructure/auth"
)

func TestAuthMiddleware(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	token, err := manager.Generate(&domain.User{ID: "owner-1", Role: domain.RoleOperator})
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantOwner  string
	}{
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusOK, wantOwner: "owner-1"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var owner string
			h := AuthMiddleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				owner = OwnerID(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			req.Header.Set(OwnerIDHeader, "spoofed")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if owner != tc.wantOwner {
				t.Fatalf("expected owner %q, got %q", tc.wantOwner, owner)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)
	viewerToken, _ := manager.Generate(&domain.User{ID: "owner-1", Role: domain.RoleViewer})
	adminToken, _ := manager.Generate(&domain.User{ID: "owner-1", Role: domain.RoleAdmin})

	h := AuthMiddleware(manager)(RequireRole(domain.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	for token, want := range map[string]int{viewerToken: http.StatusForbidden, adminToken: http.StatusOK} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/file_import", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != want {
			t.Fatalf("expected status %d, got %d", want, rr.Code)
		}
	}
}

func TestOptionalAuthFallsBackToOwnerHeader(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Minute)

	var owner string
	h := OptionalAuth(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner = OwnerID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	req.Header.Set(OwnerIDHeader, " owner-2 ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if owner != "owner-2" {
		t.Fatalf("expected header owner, got %q", owner)
	}
}
