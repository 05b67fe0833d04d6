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
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
	"github.com/shenikar/civic_issue_map/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type testDeps struct {
	issues  *mocks.MockIssueService
	groups  *mocks.MockGroupService
	chat    *mocks.MockChatService
	users   *mocks.MockUserService
	limiter *fakeLimiter
}

// fakeLimiter запоминает ключи и отвечает заданным решением
type fakeLimiter struct {
	denied     bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return false, 0, l.err
	}
	if l.denied {
		return false, l.retryAfter, nil
	}
	return true, 0, nil
}

// newTestHandler создает новый экземпляр Handler с мокированными сервисами
func newTestHandler(t *testing.T) (*Handler, testDeps, *gin.Engine) {
	ctrl := gomock.NewController(t)
	deps := testDeps{
		issues:  mocks.NewMockIssueService(ctrl),
		groups:  mocks.NewMockGroupService(ctrl),
		chat:    mocks.NewMockChatService(ctrl),
		users:   mocks.NewMockUserService(ctrl),
		limiter: &fakeLimiter{},
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		APIKeys: []string{"test-api-key"},
	}

	services := Services{Issues: deps.issues, Groups: deps.groups, Chat: deps.chat, Users: deps.users}
	handler := NewHandler(services, deps.limiter, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return handler, deps, router
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

func jsonBody(t *testing.T, v any) io.Reader {
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(data)
}

func strPtr(s string) *string { return &s }

func TestListIssues_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	created := time.UnixMilli(1700000000000)
	issues := []*models.Issue{
		{ID: "i2", Title: "Overflowing bin", Category: models.CategoryWaste, Coords: []float64{77.21, 28.64}, CreatedAt: models.NewMillis(created)},
		{ID: "i1", Title: "Untitled", Category: models.CategoryUnverified},
	}

	deps.issues.EXPECT().ListIssues(gomock.Any()).Return(issues, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []IssueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "i2", resp[0].ID)
	assert.Equal(t, []float64{77.21, 28.64}, resp[0].Coords)
	assert.Equal(t, int64(1700000000000), resp[0].CreatedAt)
	assert.Equal(t, "waste", resp[0].Category)
}

func TestListIssues_ServiceError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().ListIssues(gomock.Any()).Return(nil, errors.New("db down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestGetIssue_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().GetIssue(gomock.Any(), id).Return(&models.Issue{ID: id, Title: "Leak"}, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues/"+id, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IssueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
}

func TestGetIssue_InvalidID(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().GetIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/issues/invalid-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid issue ID")
}

func TestGetIssue_NotFound(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().GetIssue(gomock.Any(), id).Return(nil, fmt.Errorf("service: %w", models.ErrNotFound)).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues/"+id, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "issue not found")
}

func TestGetIssue_ServiceError(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().GetIssue(gomock.Any(), id).Return(nil, errors.New("connection reset")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues/"+id, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateIssue_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	reqBody := CreateIssueRequest{
		Title:    "Overflowing bin",
		Coords:   []float64{77.21, 28.64},
		ImageURL: strPtr("https://img.example/bin.jpg"),
	}

	deps.issues.EXPECT().
		CreateIssue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, issue *models.Issue) error {
			assert.Equal(t, "Overflowing bin", issue.Title)
			assert.Equal(t, []float64{77.21, 28.64}, issue.Coords)
			require.NotNil(t, issue.ImageURL)
			// Сервис присваивает идентификатор и категорию
			issue.ID = "new-id"
			issue.Category = models.CategoryWaste
			issue.CreatedAt = models.NewMillis(time.UnixMilli(1700000000000))
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/issues", jsonBody(t, reqBody), map[string]string{UserIDHeader: "u1"})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp IssueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new-id", resp.ID)
	assert.Equal(t, "waste", resp.Category)
	assert.Equal(t, []string{"u1"}, deps.limiter.keys)
}

func TestCreateIssue_InvalidJSON(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().CreateIssue(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/issues", bytes.NewBufferString(`{"title": "test"`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIssue_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		body    CreateIssueRequest
		message string
	}{
		{
			name:    "нет координат",
			body:    CreateIssueRequest{Title: "No pin"},
			message: "Error:Field validation for 'Coords' failed on the 'required' tag",
		},
		{
			name:    "координаты вне диапазона",
			body:    CreateIssueRequest{Coords: []float64{200, 28.64}},
			message: "Error:Field validation for 'Coords' failed on the 'coords' tag",
		},
		{
			name:    "одна координата",
			body:    CreateIssueRequest{Coords: []float64{77.21}},
			message: "Error:Field validation for 'Coords' failed on the 'coords' tag",
		},
		{
			name:    "неизвестная категория",
			body:    CreateIssueRequest{Coords: []float64{77.21, 28.64}, Category: "graffiti"},
			message: "Error:Field validation for 'Category' failed on the 'oneof' tag",
		},
		{
			name:    "некорректная ссылка",
			body:    CreateIssueRequest{Coords: []float64{77.21, 28.64}, ImageURL: strPtr("not a url")},
			message: "Error:Field validation for 'ImageURL' failed on the 'url' tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, deps, router := newTestHandler(t)
			deps.issues.EXPECT().CreateIssue(gomock.Any(), gomock.Any()).Times(0)

			w := makeRequest(router, "POST", "/api/v1/issues", jsonBody(t, tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}

func TestCreateIssue_ServiceError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().CreateIssue(gomock.Any(), gomock.Any()).Return(errors.New("insert failed")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/issues", jsonBody(t, CreateIssueRequest{Coords: []float64{77.21, 28.64}}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestCreateIssue_RateLimited(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.limiter.denied = true
	deps.limiter.retryAfter = 90 * time.Second

	deps.issues.EXPECT().CreateIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/issues", jsonBody(t, CreateIssueRequest{Coords: []float64{77.21, 28.64}}), map[string]string{UserIDHeader: "u1"})

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestCreateIssue_RateLimiterError(t *testing.T) {
	_, deps, router := newTestHandler(t)
	deps.limiter.err = errors.New("redis down")

	deps.issues.EXPECT().CreateIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/issues", jsonBody(t, CreateIssueRequest{Coords: []float64{77.21, 28.64}}))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, deps.limiter.keys, 1)
	assert.Contains(t, deps.limiter.keys[0], "ip:")
}

func TestDeleteIssue_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), id).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/"+id, nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDeleteIssue_InvalidID(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/invalid-uuid", nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid issue ID")
}

func TestDeleteIssue_NotFound(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), id).Return(fmt.Errorf("service: %w", models.ErrNotFound)).Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/"+id, nil, map[string]string{"X-API-Key": "test-api-key"})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeImage_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().
		AnalyzeImage(gomock.Any(), "https://img.example/1.jpg").
		Return(&models.Classification{Category: models.CategoryWater, Confidence: 0.75}, nil).
		Times(1)

	w := makeRequest(router, "POST", "/api/v1/analyze", bytes.NewBufferString(`{"image_url":"https://img.example/1.jpg"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ClassificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "water", resp.Category)
	assert.Equal(t, 0.75, resp.Confidence)
	assert.Equal(t, []string{}, resp.Labels)
}

func TestAnalyzeImage_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "не настроен", err: service.ErrClassifierUnavailable, status: http.StatusServiceUnavailable},
		{name: "ошибка модели", err: fmt.Errorf("service: %w: %w", service.ErrClassification, errors.New("timeout")), status: http.StatusBadGateway},
		{name: "прочее", err: errors.New("unexpected"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, deps, router := newTestHandler(t)
			deps.issues.EXPECT().AnalyzeImage(gomock.Any(), gomock.Any()).Return(nil, tt.err).Times(1)

			w := makeRequest(router, "POST", "/api/v1/analyze", bytes.NewBufferString(`{"image_url":"https://img.example/1.jpg"}`))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAnalyzeImage_ValidationError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().AnalyzeImage(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/analyze", bytes.NewBufferString(`{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamIssues_SendsSnapshots(t *testing.T) {
	_, deps, router := newTestHandler(t)
	snapshots := make(chan []*models.Issue, 2)
	snapshots <- []*models.Issue{{ID: "i1", Category: models.CategoryWaste}}
	snapshots <- []*models.Issue{{ID: "i1"}, {ID: "i2"}}
	close(snapshots)

	deps.issues.EXPECT().StreamIssues(gomock.Any()).Return((<-chan []*models.Issue)(snapshots), nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues/stream", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	body := w.Body.String()
	assert.Equal(t, 2, bytes.Count([]byte(body), []byte("event:snapshot")))
	assert.Contains(t, body, `"id":"i2"`)
}

func TestStreamIssues_SubscribeError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().StreamIssues(gomock.Any()).Return(nil, errors.New("redis down")).Times(1)

	w := makeRequest(router, "GET", "/api/v1/issues/stream", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthCheck_Success(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIKeyAuthMiddleware_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), id).Return(nil).Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/"+id, nil, map[string]string{"Authorization": "Bearer test-api-key"})

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPIKeyAuthMiddleware_MissingKey(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "API key required")
}

func TestAPIKeyAuthMiddleware_InvalidKey(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.issues.EXPECT().DeleteIssue(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/admin/issues/"+uuid.NewString(), nil, map[string]string{"X-API-Key": "wrong-key"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:5173"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
