package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finnrudolph/firmlens/internal/config"
	"github.com/finnrudolph/firmlens/internal/middleware"
	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
	monitoring.Init()
}

const testSecret = "test-secret-key-for-jwt-testing-32chars"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        8080,
			Env:         "test",
			CORSOrigins: []string{"*"},
		},
		JWT: config.JWTConfig{
			Secret:             testSecret,
			Issuer:             "firmlens",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
		Content: config.ContentConfig{
			PageSize:     12,
			HomeCacheTTL: 5 * time.Minute,
		},
	}
}

// newTestServer builds the full route tree without backing services.
// Handlers that touch the database are exercised only up to their
// parameter and auth checks.
func newTestServer() *APIServer {
	return NewAPIServer(testConfig(), nil, nil)
}

func signTestToken(role string, subject string) string {
	now := time.Now()
	claims := &middleware.Claims{
		UserID: uuid.New().String(),
		Role:   role,
		Email:  "test@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    "firmlens",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(testSecret))
	return tokenString
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %q", body["status"])
	}
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	srv := newTestServer()

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/companies/some-co/reviews"},
		{"PATCH", "/api/v1/reviews/" + uuid.New().String()},
		{"DELETE", "/api/v1/reviews/" + uuid.New().String()},
		{"GET", "/api/v1/admin/stats"},
		{"POST", "/api/v1/admin/companies"},
		{"POST", "/api/v1/admin/blog"},
		{"POST", "/api/v1/admin/faq"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}"))
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestAdminRoutes_RejectMembers(t *testing.T) {
	srv := newTestServer()
	token := signTestToken("member", "access")

	routes := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/admin/stats"},
		{"POST", "/api/v1/admin/companies"},
		{"DELETE", "/api/v1/admin/companies/" + uuid.New().String()},
		{"POST", "/api/v1/admin/blog"},
		{"DELETE", "/api/v1/admin/faq/" + uuid.New().String()},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s as member: expected 403, got %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestReviewMutations_RejectMalformedID(t *testing.T) {
	srv := newTestServer()
	token := signTestToken("member", "access")

	for _, method := range []string{"PATCH", "DELETE"} {
		req := httptest.NewRequest(method, "/api/v1/reviews/not-a-uuid", strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s with malformed ID: expected 400, got %d", method, w.Code)
		}
	}
}

func TestAdminMutations_RejectMalformedID(t *testing.T) {
	srv := newTestServer()
	token := signTestToken("admin", "access")

	routes := []struct {
		method string
		path   string
	}{
		{"PATCH", "/api/v1/admin/companies/nope"},
		{"DELETE", "/api/v1/admin/companies/nope"},
		{"POST", "/api/v1/admin/companies/nope/recompute"},
		{"PATCH", "/api/v1/admin/blog/nope"},
		{"DELETE", "/api/v1/admin/faq/nope"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s %s: expected 400, got %d", rt.method, rt.path, w.Code)
		}
	}
}

func TestCreateReview_RejectsInvalidBody(t *testing.T) {
	srv := newTestServer()
	token := signTestToken("member", "access")

	// Missing required fields fails binding before any lookup
	req := httptest.NewRequest("POST", "/api/v1/companies/some-co/reviews", strings.NewReader(`{"rating": 0}`))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for invalid body, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if _, ok := body["error"]; !ok {
		t.Error("Expected error envelope in response")
	}
}

func TestRequestID_PresentOnResponses(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header on response")
	}
}
