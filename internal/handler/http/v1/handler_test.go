package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/incident_dashboard/internal/config"
	"github.com/shenikar/incident_dashboard/internal/export"
	"github.com/shenikar/incident_dashboard/internal/models"
	"github.com/shenikar/incident_dashboard/internal/query"
	"github.com/shenikar/incident_dashboard/internal/repository"
	"github.com/shenikar/incident_dashboard/internal/repository/seed"
	"github.com/shenikar/incident_dashboard/internal/service"
	"github.com/shenikar/incident_dashboard/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testAPIKey = "test-api-key"

var (
	authHeader = map[string]string{"X-API-Key": testAPIKey}
	testTime   = time.Date(2024, 5, 1, 11, 45, 0, 0, time.UTC)
)

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	return logger
}

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T, cfg *config.Config) (*mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	if cfg == nil {
		cfg = &config.Config{APIKeys: []string{testAPIKey}}
	}
	handler := NewHandler(mockService, silentLogger(), cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router.Group("/api/v1"))

	return mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	assert.Equal(t, problemContentType, w.Header().Get("Content-Type"))
	var p ProblemDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	return p
}

func sampleIncident() *models.Incident {
	return &models.Incident{
		ID:        "d-001",
		Type:      "theft",
		Severity:  models.SeverityMedium,
		Status:    models.StatusOpen,
		Longitude: 72.8777,
		Latitude:  19.076,
		CreatedAt: testTime,
	}
}

func fallbackServed() models.Served {
	return models.Served{Fallback: true, Backend: models.BackendError}
}

func TestListIncidents_ParsesFilter(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	expectedFilter := query.ParseFilter(query.Params{Statuses: []string{"open", "triaged"}, Limit: "2", Sort: "asc"}, query.ListLimits)

	mockService.EXPECT().
		ListIncidents(gomock.Any(), expectedFilter).
		Return(&models.PageResult{Page: models.Page{Items: []*models.Incident{sampleIncident()}, NextCursor: &testTime}, Served: models.Served{Backend: models.BackendReady}}, nil).
		Times(1)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents?status=open&status=triaged&limit=2&sort=ASC", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(DemoModeHeader))
	assert.JSONEq(t, `{
		"items": [{"id":"d-001","type":"theft","severity":"medium","status":"open","coords":[72.8777,19.076],"createdAt":"2024-05-01T11:45:00.000Z"}],
		"nextCursor": "2024-05-01T11:45:00.000Z"
	}`, w.Body.String())
}

func TestListIncidents_FallbackHeader(t *testing.T) {
	mockService, router := newTestHandler(t, nil)

	mockService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).
		Return(&models.PageResult{Served: fallbackServed()}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, w.Body.String())
}

func TestListIncidents_ServiceError(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Return(nil, errors.New("fallback store broken"))

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, decodeProblem(t, w).Code)
}

func TestExportIncidents_CSVDefault(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	items := []*models.Incident{sampleIncident()}

	mockService.EXPECT().
		ExportIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f query.Filter) (*models.PageResult, error) {
			assert.Equal(t, 500, f.Limit)
			return &models.PageResult{Page: models.Page{Items: items}, Served: fallbackServed()}, nil
		})

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/export", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "incidents.csv")
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.Equal(t, export.CSV(items), w.Body.String())
}

func TestExportIncidents_LimitClamped(t *testing.T) {
	mockService, router := newTestHandler(t, nil)

	mockService.EXPECT().
		ExportIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f query.Filter) (*models.PageResult, error) {
			assert.Equal(t, 1000, f.Limit)
			return &models.PageResult{}, nil
		})

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/export?limit=5000&format=json", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"nextCursor":null}`, w.Body.String())
}

func TestExportIncidents_GeoJSON(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().ExportIncidents(gomock.Any(), gomock.Any()).
		Return(&models.PageResult{Page: models.Page{Items: []*models.Incident{sampleIncident()}}}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/export?format=geojson", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), `"FeatureCollection"`)
	assert.Contains(t, w.Body.String(), `"id":"d-001"`)
}

func TestExportIncidents_UnsupportedFormat(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().ExportIncidents(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/export?format=xlsx", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, decodeProblem(t, w).Code)
}

func TestExportIncidents_RateLimited(t *testing.T) {
	mockService, router := newTestHandler(t, &config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1})
	mockService.EXPECT().ExportIncidents(gomock.Any(), gomock.Any()).Return(&models.PageResult{}, nil).Times(1)

	first := makeRequest(router, http.MethodGet, "/api/v1/incidents/export", nil)
	second := makeRequest(router, http.MethodGet, "/api/v1/incidents/export", nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, CodeRateLimited, decodeProblem(t, second).Code)
}

func TestGetStats_Success(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	stats := models.Stats{Total: 3, ByStatus: map[string]int64{"open": 3}, BySeverity: map[string]int64{"high": 3}}

	mockService.EXPECT().GetStats(gomock.Any(), gomock.Any()).
		Return(&models.StatsResult{Stats: stats, Served: fallbackServed()}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/stats?severity=high", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.JSONEq(t, `{"total":3,"byStatus":{"open":3},"bySeverity":{"high":3}}`, w.Body.String())
}

func TestGetIncident_Success(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().GetIncident(gomock.Any(), "d-001").
		Return(&models.IncidentResult{Incident: sampleIncident(), Served: fallbackServed()}, nil)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/d-001", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "d-001", resp.ID)
	assert.Equal(t, [2]float64{72.8777, 19.076}, resp.Coords)
}

func TestGetIncident_NotFound(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().GetIncident(gomock.Any(), "missing").
		Return(nil, errors.Join(errors.New("service: could not get incident"), models.ErrNotFound))

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	p := decodeProblem(t, w)
	assert.Equal(t, CodeNotFound, p.Code)
	assert.Equal(t, "Incident not found", p.Detail)
	assert.Equal(t, 404, p.Status)
}

func TestCreateIncident_Success(t *testing.T) {
	mockService, router := newTestHandler(t, nil)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) (*models.IncidentResult, error) {
			assert.Equal(t, "sos", inc.Type)
			assert.Equal(t, models.SeverityHigh, inc.Severity)
			assert.Equal(t, 0.0, inc.Latitude)
			assert.Equal(t, -122.4, inc.Longitude)
			created := *inc
			created.ID = "d-123456"
			created.Status = models.StatusOpen
			created.CreatedAt = testTime
			return &models.IncidentResult{Incident: &created, Served: fallbackServed()}, nil
		}).Times(1)

	body := `{"type":"sos","severity":"high","location":{"lat":0,"lon":-122.4}}`
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", strings.NewReader(body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.JSONEq(t, `{"id":"d-123456","status":"open","createdAt":"2024-05-01T11:45:00.000Z"}`, w.Body.String())
}

func TestCreateIncident_LongFreeFormType(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	longType := strings.Repeat("chemical-spill-", 10)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Incident) (*models.IncidentResult, error) {
			assert.Equal(t, longType, inc.Type)
			created := *inc
			created.ID = "d-654321"
			created.CreatedAt = testTime
			return &models.IncidentResult{Incident: &created, Served: fallbackServed()}, nil
		})

	body := `{"type":"` + longType + `","severity":"low","location":{"lat":1,"lon":2}}`
	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", strings.NewReader(body), authHeader)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", bytes.NewBufferString(`{"type": "sos"`), authHeader)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, decodeProblem(t, w).Code)
}

func TestCreateIncident_ValidationError(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	bodies := []string{
		`{"type":"sos","severity":"high"}`,
		`{"type":"sos","severity":"high","location":{"lat":1}}`,
		`{"severity":"high","location":{"lat":1,"lon":2}}`,
		`{"type":"sos","severity":"extreme","location":{"lat":1,"lon":2}}`,
	}
	for _, body := range bodies {
		w := makeRequest(router, http.MethodPost, "/api/v1/incidents", strings.NewReader(body), authHeader)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		p := decodeProblem(t, w)
		assert.Equal(t, CodeBadRequest, p.Code)
		assert.Equal(t, "Missing required fields", p.Detail)
	}
}

func TestUpdateIncident_Success(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	updated := sampleIncident()
	updated.Status = models.StatusClosed

	mockService.EXPECT().UpdateStatus(gomock.Any(), "d-001", models.StatusClosed).
		Return(&models.IncidentResult{Incident: updated, Served: models.Served{Backend: models.BackendReady}}, nil)

	w := makeRequest(router, http.MethodPatch, "/api/v1/incidents/d-001", strings.NewReader(`{"status":"closed"}`), authHeader)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(DemoModeHeader))
	assert.Contains(t, w.Body.String(), `"status":"closed"`)
}

func TestUpdateIncident_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       io.Reader
		sent       models.Status
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"invalid status", strings.NewReader(`{"status":"resolved"}`), "resolved", models.ErrInvalidStatus, http.StatusBadRequest, CodeInvalidStatus},
		{"no fields", strings.NewReader(`{}`), "", models.ErrNoFields, http.StatusBadRequest, CodeNoFields},
		{"empty body", nil, "", models.ErrNoFields, http.StatusBadRequest, CodeNoFields},
		{"not found", strings.NewReader(`{"status":"open"}`), models.StatusOpen, models.ErrNotFound, http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, router := newTestHandler(t, nil)
			mockService.EXPECT().UpdateStatus(gomock.Any(), "d-001", tt.sent).Return(nil, tt.serviceErr)

			w := makeRequest(router, http.MethodPatch, "/api/v1/incidents/d-001", tt.body, authHeader)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeProblem(t, w).Code)
		})
	}
}

func TestBulkDemo(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().SeedDemo(gomock.Any(), 5).Return(5, nil)
	mockService.EXPECT().SeedDemo(gomock.Any(), 80).Return(50, nil)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/_bulk_demo", nil, authHeader)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.JSONEq(t, `{"added":5}`, w.Body.String())

	w = makeRequest(router, http.MethodPost, "/api/v1/incidents/_bulk_demo", strings.NewReader(`{"count":80}`), authHeader)
	assert.JSONEq(t, `{"added":50}`, w.Body.String())
}

func TestBulkDemo_NotImplemented(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().SeedDemo(gomock.Any(), gomock.Any()).Return(0, models.ErrNotImplemented)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/_bulk_demo", nil, authHeader)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, CodeNotImplemented, decodeProblem(t, w).Code)
}

func TestHealthCheck_Success(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().Health(gomock.Any()).Return(models.Health{Durable: models.BackendNotConfigured, FallbackRecords: 8})

	w := makeRequest(router, http.MethodGet, "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","durable":"not-configured","fallbackRecords":8}`, w.Body.String())
}

func TestAPIKeyAuthMiddleware_Bearer(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().UpdateStatus(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.IncidentResult{Incident: sampleIncident()}, nil)

	w := makeRequest(router, http.MethodPatch, "/api/v1/incidents/d-001", strings.NewReader(`{"status":"open"}`),
		map[string]string{"Authorization": "Bearer " + testAPIKey})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents", strings.NewReader(`{}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, decodeProblem(t, w).Code)
}

func TestAPIKeyAuthMiddleware_InvalidKey(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().SeedDemo(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/_bulk_demo", nil, map[string]string{"X-API-Key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid API key", decodeProblem(t, w).Detail)
}

func TestAPIKeyAuthMiddleware_DisabledWithoutKeys(t *testing.T) {
	mockService, router := newTestHandler(t, &config.Config{})
	mockService.EXPECT().SeedDemo(gomock.Any(), 5).Return(5, nil)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents/_bulk_demo", nil)

	assert.Equal(t, http.StatusCreated, w.Code)
}

// newDemoRouter собирает настоящий сервис без базы: все ответы идут из резервного хранилища
func newDemoRouter(t *testing.T) *gin.Engine {
	t.Helper()
	incidents, err := seed.Demo(time.Now())
	require.NoError(t, err)

	cfg := &config.Config{DBQueryTimeout: time.Second}
	svc := service.NewIncidentService(
		repository.NewPostgresRepository(nil, nil, 0),
		repository.NewMemoryStore(incidents),
		silentLogger(), cfg, nil, nil,
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc, silentLogger(), cfg).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestDemoMode_OpenLimitTwo(t *testing.T) {
	router := newDemoRouter(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents?status=open&limit=2", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))

	var page export.PageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "d-007", page.Items[0].ID)
	assert.Equal(t, "d-001", page.Items[1].ID)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, page.Items[1].CreatedAt, *page.NextCursor)

	// следующая страница по курсору
	w = makeRequest(router, http.MethodGet, "/api/v1/incidents?status=open&limit=2&created_before="+*page.NextCursor, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "d-005", page.Items[0].ID)
	assert.Equal(t, "d-002", page.Items[1].ID)
}

func TestDemoMode_CreateThenFetch(t *testing.T) {
	router := newDemoRouter(t)

	w := makeRequest(router, http.MethodPost, "/api/v1/incidents",
		strings.NewReader(`{"type":"hazard","severity":"low","location":{"lat":1.5,"lon":2.5}}`))
	require.Equal(t, http.StatusCreated, w.Code)

	var created CreateIncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Regexp(t, `^d-\d{6}$`, created.ID)

	w = makeRequest(router, http.MethodGet, "/api/v1/incidents/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"coords":[2.5,1.5]`)

	w = makeRequest(router, http.MethodGet, "/api/v1/incidents/stats", nil)
	assert.Contains(t, w.Body.String(), `"total":9`)
}

func TestDemoMode_NotFoundIsTagged(t *testing.T) {
	router := newDemoRouter(t)

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/d-999999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.Equal(t, CodeNotFound, decodeProblem(t, w).Code)

	w = makeRequest(router, http.MethodPatch, "/api/v1/incidents/d-999999", strings.NewReader(`{"status":"closed"}`))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "true", w.Header().Get(DemoModeHeader))
	assert.Equal(t, CodeNotFound, decodeProblem(t, w).Code)
}

func TestGetIncident_DurableNotFoundIsNotTagged(t *testing.T) {
	mockService, router := newTestHandler(t, nil)
	mockService.EXPECT().GetIncident(gomock.Any(), "6f1c2b7e-3a52-4d8e-9a40-0f3b8c1d2e55").
		Return(&models.IncidentResult{Served: models.Served{Backend: models.BackendReady}}, fmt.Errorf("wrapped: %w", models.ErrNotFound))

	w := makeRequest(router, http.MethodGet, "/api/v1/incidents/6f1c2b7e-3a52-4d8e-9a40-0f3b8c1d2e55", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, w.Header().Get(DemoModeHeader))
}
