package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/schoolworks/feeledger/internal/config"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFeeService struct {
	collectResp *feecollectiondomain.CollectFeeResponse
	collectErr  error
	lastReq     feecollectiondomain.CollectFeeRequest
}

func (s *stubFeeService) GetStudentFeeStatus(context.Context, snowflake.ID, snowflake.ID, string) (*feecollectiondomain.StudentFeeStatus, error) {
	return nil, studentdomain.ErrStudentNotFound
}

func (s *stubFeeService) ValidateFeeCollection(context.Context, feecollectiondomain.ValidateFeeRequest) (*feecollectiondomain.ValidationResult, error) {
	return &feecollectiondomain.ValidationResult{Valid: true}, nil
}

func (s *stubFeeService) CollectFee(_ context.Context, req feecollectiondomain.CollectFeeRequest) (*feecollectiondomain.CollectFeeResponse, error) {
	s.lastReq = req
	return s.collectResp, s.collectErr
}

func (s *stubFeeService) CollectOneTimeFee(context.Context, feecollectiondomain.CollectOneTimeFeeRequest) (*feecollectiondomain.CollectOneTimeFeeResponse, error) {
	return nil, nil
}

func (s *stubFeeService) GetAccountantDashboard(context.Context, snowflake.ID) (*feecollectiondomain.AccountantDashboard, error) {
	return &feecollectiondomain.AccountantDashboard{}, nil
}

func (s *stubFeeService) GetFinancialReports(context.Context, snowflake.ID, time.Time, time.Time) (*feecollectiondomain.FinancialReport, error) {
	return &feecollectiondomain.FinancialReport{}, nil
}

func (s *stubFeeService) GetDefaulters(context.Context, snowflake.ID) ([]feecollectiondomain.DefaulterRow, error) {
	return []feecollectiondomain.DefaulterRow{}, nil
}

func (s *stubFeeService) GetStudentsByGradeSection(context.Context, snowflake.ID, string, string, string) ([]feecollectiondomain.StudentFeeSummary, error) {
	return []feecollectiondomain.StudentFeeSummary{}, nil
}

func newTestServer(t *testing.T, svc feecollectiondomain.Service) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Server{
		engine:  gin.New(),
		log:     zap.NewNop(),
		cfg:     config.Config{RateLimitRequests: 1000, RateLimitWindow: time.Minute},
		feeSvc:  svc,
		node:    node,
		limiter: newRateLimiter(1000, time.Minute),
	}
	s.RegisterRoutes()
	return s
}

func TestCollectFeeHandlerHappyPath(t *testing.T) {
	stub := &stubFeeService{
		collectResp: &feecollectiondomain.CollectFeeResponse{Success: true},
	}
	s := newTestServer(t, stub)

	body, _ := json.Marshal(map[string]any{
		"student_id":     "101",
		"school_id":      "201",
		"academic_year":  "2024-2025",
		"month":          4,
		"amount":         1500,
		"payment_method": "cash",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/fees/collect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, snowflake.ID(101), stub.lastReq.StudentID)
	require.Equal(t, snowflake.ID(201), stub.lastReq.SchoolID)
	require.Equal(t, 4, stub.lastReq.Month)
	require.Equal(t, int64(1500), stub.lastReq.Amount)

	var payload struct {
		Data feecollectiondomain.CollectFeeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.True(t, payload.Data.Success)
}

func TestCollectFeeHandlerRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t, &stubFeeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/fees/collect", bytes.NewReader([]byte(`{"month":`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollectFeeHandlerMapsValidationError(t *testing.T) {
	stub := &stubFeeService{
		collectErr: &feecollectiondomain.ValidationError{Messages: []string{"April is already fully paid"}},
	}
	s := newTestServer(t, stub)

	body, _ := json.Marshal(map[string]any{
		"student_id":     "101",
		"school_id":      "201",
		"month":          4,
		"amount":         1000,
		"payment_method": "cash",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/fees/collect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "April is already fully paid")
}

func TestStudentStatusHandlerMapsNotFound(t *testing.T) {
	s := newTestServer(t, &stubFeeService{})

	req := httptest.NewRequest(http.MethodGet, "/api/fees/students/101/status?school_id=201", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	s := &Server{
		engine:  gin.New(),
		log:     zap.NewNop(),
		cfg:     config.Config{RateLimitRequests: 2, RateLimitWindow: time.Minute},
		feeSvc:  &stubFeeService{},
		node:    node,
		limiter: newRateLimiter(2, time.Minute),
	}
	s.RegisterRoutes()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/fees/defaulters?school_id=201", nil)
		rec := httptest.NewRecorder()
		s.engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/fees/defaulters?school_id=201", nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}
