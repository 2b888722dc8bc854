package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-practice-api/config"
	"clinic-practice-api/internal/domain/entity"
	"clinic-practice-api/pkg/jwt"
	"clinic-practice-api/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
)

type memoryTokenStore struct {
	tokens map[string]bool
	err    error
}

func (s *memoryTokenStore) key(userID uuid.UUID, tokenID string, tokenType jwt.TokenType) string {
	return string(tokenType) + ":" + userID.String() + ":" + tokenID
}

func (s *memoryTokenStore) Store(_ context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType, _ time.Duration) error {
	s.tokens[s.key(userID, tokenID, tokenType)] = true
	return nil
}

func (s *memoryTokenStore) Exists(_ context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.tokens[s.key(userID, tokenID, tokenType)], nil
}

func (s *memoryTokenStore) Revoke(_ context.Context, userID uuid.UUID, tokenID string, tokenType jwt.TokenType) error {
	delete(s.tokens, s.key(userID, tokenID, tokenType))
	return nil
}

func (s *memoryTokenStore) RevokeAll(context.Context, uuid.UUID) error {
	s.tokens = map[string]bool{}
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newJWT() *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{
		Secret:        "middleware-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
}

// echoActor reports the actor the middleware placed in the context
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Header().Set("X-Actor", actor.UserID.String())
	w.WriteHeader(http.StatusNoContent)
})

func TestAuthenticate(t *testing.T) {
	jwtService := newJWT()
	store := &memoryTokenStore{tokens: map[string]bool{}}
	userID := uuid.New()

	access, accessID, err := jwtService.GenerateAccessToken(userID, "doc@example.com", entity.RoleIDDoctor)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	refresh, refreshID, err := jwtService.GenerateRefreshToken(userID, "doc@example.com", entity.RoleIDDoctor)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	_ = store.Store(context.Background(), userID, accessID, jwt.AccessToken, time.Minute)
	_ = store.Store(context.Background(), userID, refreshID, jwt.RefreshToken, time.Hour)

	handler := NewAuthMiddleware(quietLogger(), jwtService, store).Authenticate(echoActor)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: "Bearer " + access, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + access, wantStatus: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusNoContent && rec.Header().Get("X-Actor") != userID.String() {
				t.Errorf("actor = %q, want %s", rec.Header().Get("X-Actor"), userID)
			}
		})
	}

	t.Run("revoked", func(t *testing.T) {
		_ = store.Revoke(context.Background(), userID, accessID, jwt.AccessToken)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("store down", func(t *testing.T) {
		store.err = errors.New("redis: connection refused")
		defer func() { store.err = nil }()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		roleID     int
		wantStatus int
	}{
		{name: "staff admits assistant", guard: RequireStaff, roleID: entity.RoleIDAssistant, wantStatus: http.StatusNoContent},
		{name: "staff rejects patient", guard: RequireStaff, roleID: entity.RoleIDPatient, wantStatus: http.StatusForbidden},
		{name: "admin rejects doctor", guard: RequireAdmin, roleID: entity.RoleIDDoctor, wantStatus: http.StatusForbidden},
		{name: "owner admits doctor", guard: RequireAdminOrDoctor, roleID: entity.RoleIDDoctor, wantStatus: http.StatusNoContent},
		{name: "owner rejects assistant", guard: RequireAdminOrDoctor, roleID: entity.RoleIDAssistant, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), UserIDKey, uuid.New()))
			req = req.WithContext(context.WithValue(req.Context(), RoleIDKey, tt.roleID))
			rec := httptest.NewRecorder()
			tt.guard(echoActor).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	rec := httptest.NewRecorder()
	RequireStaff(echoActor).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no role status = %d, want 401", rec.Code)
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	m := NewRateLimitMiddleware(config.RateLimitConfig{RPS: 1, Burst: 2}, collector)
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := m.Handle(ok)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("burst exceeded status = %d, want 429", code)
	}
	if code := send("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", code)
	}

	now = now.Add(time.Second)
	if code := send("10.0.0.1"); code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", code)
	}

	if got := testutil.ToFloat64(collector.RateLimited); got != 1 {
		t.Errorf("rate limited counter = %v, want 1", got)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	if got := clientIP(req); got != "192.0.2.10" {
		t.Errorf("remote addr ip = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("forwarded ip = %q", got)
	}
}

func TestMetricsMiddleware_LabelsByRouteTemplate(t *testing.T) {
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	r := mux.NewRouter()
	r.HandleFunc("/appointments/{id}/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}).Methods(http.MethodPost)
	r.Use(NewMetricsMiddleware(collector).Handle)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/"+uuid.NewString()+"/start", nil))
	}

	got := testutil.ToFloat64(collector.RequestsTotal.WithLabelValues(http.MethodPost, "/appointments/{id}/start", "409"))
	if got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
}

func TestCORS_AllowedOrigins(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantAllow  string
		wantStatus int
	}{
		{name: "any origin", origins: []string{"*"}, origin: "https://elsewhere.example.com", method: http.MethodGet, wantAllow: "*", wantStatus: http.StatusOK},
		{name: "listed origin", origins: []string{"https://front.example.com/"}, origin: "https://front.example.com", method: http.MethodGet, wantAllow: "https://front.example.com", wantStatus: http.StatusOK},
		{name: "unlisted origin", origins: []string{"https://front.example.com"}, origin: "https://evil.example.com", method: http.MethodGet, wantAllow: "", wantStatus: http.StatusOK},
		{name: "preflight", origins: []string{"https://front.example.com"}, origin: "https://front.example.com", method: http.MethodOptions, wantAllow: "https://front.example.com", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCORSMiddleware(config.CORSConfig{AllowedOrigins: tt.origins}).Handle(ok)
			req := httptest.NewRequest(tt.method, "/api/v1/clinics", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow origin = %q, want %q", got, tt.wantAllow)
			}
			if tt.wantAllow != "" && rec.Header().Get("Access-Control-Expose-Headers") != corsExposedHeaders {
				t.Errorf("rate limit headers not exposed: %q", rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}
