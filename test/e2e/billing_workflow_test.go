//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/pharmabook-be/internal/adapters/db"
	redis_a "github.com/ammerola/pharmabook-be/internal/adapters/redis_adapter"
	"github.com/ammerola/pharmabook-be/internal/core/domain"
	"github.com/ammerola/pharmabook-be/internal/core/ports"
	"github.com/ammerola/pharmabook-be/internal/core/services"
	"github.com/ammerola/pharmabook-be/internal/handlers"
	"github.com/ammerola/pharmabook-be/internal/handlers/middleware"
	"github.com/ammerola/pharmabook-be/test/helpers"
)

type BillingE2ESuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
	owner     uuid.UUID
	token     string
}

func (s *BillingE2ESuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *BillingE2ESuite) TearDownSuite() {
	s.server.Close()
}

func (s *BillingE2ESuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
	s.owner = uuid.New()
	s.token = s.tokenFor(s.owner)
}

func (s *BillingE2ESuite) TestCompleteBillingWorkflow() {
	// 1. Stock intake: 100 tablets, 50 per strip of 10
	med := s.addStock("B-001", 100)

	// 2. Bill 23 tablets
	resp := s.makeRequest(s.token, "POST", "/bills", s.billBody("Jane", med.ID, "B-001", 23))
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var bill domain.Bill
	s.decodeResponse(resp, &bill)
	s.True(bill.TotalAmount.Equal(decimal.NewFromInt(115)), bill.TotalAmount.String())
	s.Require().Len(bill.Items, 1)
	s.Equal(2, bill.Items[0].Strips)
	s.Equal(3, bill.Items[0].Tablets)
	s.Equal("Paracetamol 500mg", bill.Items[0].MedicineName)

	// 3. Stock is decremented
	s.Equal(77, s.batchQuantity(med.ID, "B-001"))

	// 4. The bill reads back (cache miss, then cache hit)
	for i := 0; i < 2; i++ {
		resp = s.makeRequest(s.token, "GET", "/bills/"+bill.ID.String(), nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var got domain.Bill
		s.decodeResponse(resp, &got)
		s.Equal(bill.ID, got.ID)
		s.True(got.TotalAmount.Equal(bill.TotalAmount))
	}

	// 5. And is listed
	resp = s.makeRequest(s.token, "GET", "/bills?page=1&pageSize=10", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var page ports.BillPage
	s.decodeResponse(resp, &page)
	s.EqualValues(1, page.TotalCount)
	s.Equal(10, page.PageSize)
	s.Require().Len(page.Bills, 1)
	s.Equal(bill.ID, page.Bills[0].ID)
}

func (s *BillingE2ESuite) TestInsufficientStockLeavesQuantity() {
	med := s.addStock("B-001", 10)

	resp := s.makeRequest(s.token, "POST", "/bills", s.billBody("Jane", med.ID, "B-001", 11))
	s.Require().Equal(http.StatusConflict, resp.StatusCode)

	var errResp handlers.ErrorResponse
	s.decodeResponse(resp, &errResp)
	s.Equal("insufficient_stock", errResp.Kind)
	s.Equal("B-001", errResp.BatchNumber)
	s.Equal(med.ID.String(), errResp.MedicineID)
	s.False(errResp.Retryable)

	s.Equal(10, s.batchQuantity(med.ID, "B-001"))
}

func (s *BillingE2ESuite) TestConcurrentBillsExactlyOneWins() {
	med := s.addStock("B-001", 100)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp := s.makeRequest(s.token, "POST", "/bills", s.billBody(fmt.Sprintf("Customer %d", n), med.ID, "B-001", 60))
			resp.Body.Close()
			mu.Lock()
			codes = append(codes, resp.StatusCode)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	s.ElementsMatch([]int{http.StatusCreated, http.StatusConflict}, codes)
	s.Equal(40, s.batchQuantity(med.ID, "B-001"))
}

func (s *BillingE2ESuite) TestOwnersAreIsolated() {
	med := s.addStock("B-001", 100)

	resp := s.makeRequest(s.token, "POST", "/bills", s.billBody("Jane", med.ID, "B-001", 5))
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var bill domain.Bill
	s.decodeResponse(resp, &bill)

	other := s.tokenFor(uuid.New())

	resp = s.makeRequest(other, "GET", "/bills/"+bill.ID.String(), nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.makeRequest(other, "POST", "/bills", s.billBody("Mallory", med.ID, "B-001", 5))
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	s.Equal(95, s.batchQuantity(med.ID, "B-001"))
}

func (s *BillingE2ESuite) TestRequiresToken() {
	resp := s.makeRequest("", "GET", "/bills", nil)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *BillingE2ESuite) TestHealthCheck() {
	resp, err := s.client.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var health handlers.HealthStatus
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&health))
	s.Equal("healthy", health.Status)
	s.Contains(health.Services, "database")
	s.Contains(health.Services, "redis")
}

func (s *BillingE2ESuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cfg := helpers.LoadTestConfig()
	database := s.testDB.Database
	cache := redis_a.NewCache(s.testRedis.Client, time.Hour, logger)

	ledger := services.NewLedger(db.NewTxManager(database, logger), logger)
	billing := services.NewBillingService(ledger, db.NewBillRepository(database, logger), cache, nil, nil,
		services.BillingOptions{ConflictRetries: 2, RetryBackoff: 10 * time.Millisecond, MaxItems: 100},
		logger)
	catalog := services.NewCatalogService(db.NewCatalogRepository(database, logger), nil, logger)

	bills := handlers.NewBillHandler(billing, logger)
	medicines := handlers.NewMedicineHandler(catalog, nil, nil, nil, s.T().TempDir(), 1<<20, logger)
	health := handlers.NewHealthHandler([]handlers.Dependency{
		{Name: "database", Checker: database, Critical: true},
		{Name: "redis", Checker: cache},
	}, nil, cfg, logger)

	auth := middleware.Authenticate([]byte(helpers.TestJWTSecret), logger)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("POST /api/v1/bills", auth(http.HandlerFunc(bills.CreateBill)))
	mux.Handle("GET /api/v1/bills", auth(http.HandlerFunc(bills.ListBills)))
	mux.Handle("GET /api/v1/bills/{id}", auth(http.HandlerFunc(bills.GetBill)))
	mux.Handle("POST /api/v1/medicines", auth(http.HandlerFunc(medicines.AddStock)))
	mux.Handle("GET /api/v1/medicines/{id}", auth(http.HandlerFunc(medicines.GetMedicine)))

	return httptest.NewServer(middleware.Chain(mux, middleware.RequestID(""), middleware.Recovery(logger)))
}

func (s *BillingE2ESuite) tokenFor(owner uuid.UUID) string {
	token, err := middleware.SignToken([]byte(helpers.TestJWTSecret),
		domain.Identity{UserID: owner, Role: "owner"},
		jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	s.Require().NoError(err)
	return token
}

func (s *BillingE2ESuite) addStock(batch string, tablets int) *domain.Medicine {
	resp := s.makeRequest(s.token, "POST", "/medicines", map[string]interface{}{
		"name":            "Paracetamol 500mg",
		"company":         "Acme Pharma",
		"batchNumber":     batch,
		"manufactureDate": "2026-01-01",
		"expiryDate":      "2028-01-01",
		"quantity":        tablets,
		"price":           "50",
		"isStripBased":    true,
		"tabletsPerStrip": 10,
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var med domain.Medicine
	s.decodeResponse(resp, &med)
	return &med
}

func (s *BillingE2ESuite) batchQuantity(medicineID uuid.UUID, batch string) int {
	resp := s.makeRequest(s.token, "GET", "/medicines/"+medicineID.String(), nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var med domain.Medicine
	s.decodeResponse(resp, &med)
	b := med.FindBatch(batch)
	s.Require().NotNil(b)
	return b.Quantity
}

func (s *BillingE2ESuite) billBody(customer string, medicineID uuid.UUID, batch string, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"customerName": customer,
		"items": []map[string]interface{}{
			{"medicineId": medicineID, "batchNumber": batch, "quantity": quantity},
		},
	}
}

func (s *BillingE2ESuite) makeRequest(token, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthTokenHeader, token)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *BillingE2ESuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}

func TestBillingE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(BillingE2ESuite))
}
