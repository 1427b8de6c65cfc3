package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vending-api/internal/apperrors"
	"vending-api/internal/models"
	"vending-api/internal/services"
)

type stubTokens struct{}

func (stubTokens) ValidateToken(token string) (*services.Claims, error) {
	switch token {
	case "good":
		return &services.Claims{UserID: 1}, nil
	case "gone":
		return &services.Claims{UserID: 2}, nil
	case "broken":
		return &services.Claims{UserID: 3}, nil
	}
	return nil, errors.New("invalid token")
}

type stubActors struct{}

func (stubActors) ResolveActor(_ context.Context, userID int) (*models.Actor, error) {
	switch userID {
	case 1:
		return &models.Actor{ID: 1, Username: "user1", Role: models.RoleBuyer}, nil
	case 2:
		return nil, apperrors.NotFound("User")
	}
	return nil, errors.New("connection refused")
}

func actorEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if actor := GetActor(r); actor != nil {
			w.Write([]byte(actor.Username))
			return
		}
		w.Write([]byte("anonymous"))
	})
}

func TestAuthentication(t *testing.T) {
	handler := Authentication(stubTokens{}, stubActors{}, zerolog.Nop())(actorEcho())

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "no header", header: "", status: http.StatusOK, body: "anonymous"},
		{name: "valid token", header: "Bearer good", status: http.StatusOK, body: "user1"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK, body: "user1"},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "missing token", header: "Bearer", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "deleted user", header: "Bearer gone", status: http.StatusUnauthorized},
		{name: "store failure", header: "Bearer broken", status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	handler := NewRateLimiter(0.001, 2).Middleware()(actorEcho())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	var seen string
	handler := RequestLogging(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRequestValidation(t *testing.T) {
	handler := RequestValidation()(actorEcho())

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorHandlingRecoversPanic(t *testing.T) {
	handler := ErrorHandling(zerolog.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestPerformanceMonitoringSetsResponseTime(t *testing.T) {
	handler := PerformanceMonitoring(zerolog.Nop())(actorEcho())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Response-Time"))
}
