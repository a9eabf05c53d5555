package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/handlers"
	"github.com/ammerola/pharmabook-be/internal/handlers/middleware"
	"github.com/ammerola/pharmabook-be/internal/pkg/logger"
	"github.com/ammerola/pharmabook-be/internal/pkg/metrics"
	"github.com/ammerola/pharmabook-be/test/helpers"
	"github.com/ammerola/pharmabook-be/test/mocks"
)

func testServer(t *testing.T, billing ports.BillingService) http.Handler {
	t.Helper()
	ctrl := gomock.NewController(t)
	cfg := helpers.LoadTestConfig()
	cfg.Security.JWTSecret = helpers.TestJWTSecret
	cfg.Server.EnableMetrics = true
	log := logger.NewLogger(&logger.LogConfig{Level: "error", Format: "json", Output: "stderr"})

	deps := &dependencies{
		metrics:     metrics.New(nil),
		billHandler: handlers.NewBillHandler(billing, log.Logger),
		medicineHandler: handlers.NewMedicineHandler(
			mocks.NewMockCatalogService(ctrl),
			mocks.NewMockFileStorage(ctrl),
			mocks.NewMockTaskEnqueuer(ctrl),
			nil,
			t.TempDir(),
			1<<20,
			log.Logger,
		),
		healthHandler: handlers.NewHealthHandler(nil, nil, cfg, log.Logger),
	}
	return setupHTTPServer(cfg, deps, log).Handler
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	srv := testServer(t, mocks.NewMockBillingService(gomock.NewController(t)))

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRoutes_APIRequiresToken(t *testing.T) {
	srv := testServer(t, mocks.NewMockBillingService(gomock.NewController(t)))

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/bills"},
		{http.MethodGet, "/api/v1/bills"},
		{http.MethodGet, "/api/v1/bills/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/medicines"},
		{http.MethodGet, "/api/v1/medicines/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/medicines/import"},
		{http.MethodGet, "/api/v1/medicines/import/abc"},
	}
	for _, rt := range routes {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, rt.method+" "+rt.path)
	}
}

func TestRoutes_TokenScopesOwner(t *testing.T) {
	owner := uuid.New()
	billing := mocks.NewMockBillingService(gomock.NewController(t))
	billing.EXPECT().
		ListBills(gomock.Any(), owner, gomock.Any()).
		Return(&ports.BillPage{Bills: []*domain.Bill{}, Page: 1, PageSize: 20}, nil)

	token, err := middleware.SignToken([]byte(helpers.TestJWTSecret),
		domain.Identity{UserID: owner, Role: "owner"},
		jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	req.Header.Set(middleware.AuthTokenHeader, token)
	rec := httptest.NewRecorder()
	testServer(t, billing).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
