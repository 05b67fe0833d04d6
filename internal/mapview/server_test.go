package mapview

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/shenikar/civic_issue_map/internal/mapsync"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, styleLoaded bool) (*Server, *mapsync.MemorySurface, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	surface := mapsync.NewMemorySurface(styleLoaded)
	srv := NewServer(surface, logger.Discard())
	router := gin.New()
	srv.RegisterRoutes(router)
	return srv, surface, router
}

func makeRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleIssues() []*models.Issue {
	return []*models.Issue{
		{ID: "i1", Title: "Trash", Category: models.CategoryWaste, Coords: []float64{77.21, 28.64}},
		{ID: "i2", Title: "Leak", Category: models.CategoryWater, Coords: []float64{77.30, 28.70}},
	}
}

func TestServer_SourceAndStyle(t *testing.T) {
	srv, _, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodGet, "/sources/civic-issues.geojson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, fc.Features, 2)

	w = makeRequest(router, http.MethodGet, "/style.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var style struct {
		Version int `json:"version"`
		Layers  []struct {
			ID string `json:"id"`
		} `json:"layers"`
		Sources map[string]json.RawMessage `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &style))
	assert.Equal(t, 8, style.Version)
	require.Len(t, style.Layers, 1)
	assert.Equal(t, mapsync.CircleLayerID, style.Layers[0].ID)
	assert.Contains(t, style.Sources, mapsync.SourceID)
}

func TestServer_SourceNotReady(t *testing.T) {
	_, _, router := newTestServer(t, false)

	w := makeRequest(router, http.MethodGet, "/sources/civic-issues.geojson", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_PutFilters(t *testing.T) {
	srv, surface, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodPut, "/filters", `{"waste": false}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"waste": false}`, w.Body.String())
	data, ok := surface.SourceData(mapsync.SourceID)
	require.True(t, ok)
	require.Len(t, data.Features, 1)
	assert.Equal(t, "i2", data.Features[0].Properties["id"])
}

func TestServer_PutFiltersUnknownCategory(t *testing.T) {
	_, _, router := newTestServer(t, true)

	w := makeRequest(router, http.MethodPut, "/filters", `{"potholes": true}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error": "unknown category: potholes"}`, w.Body.String())
}

func TestServer_PutHeatmap(t *testing.T) {
	srv, surface, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodPut, "/heatmap", `{"enabled": true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"enabled": true}`, w.Body.String())
	assert.Equal(t, []string{mapsync.HeatLayerID, mapsync.CircleLayerID}, surface.LayerIDs())

	w = makeRequest(router, http.MethodPut, "/heatmap", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = makeRequest(router, http.MethodGet, "/heatmap", "")
	assert.JSONEq(t, `{"enabled": true}`, w.Body.String())
}

func TestServer_ClickSelectsIssue(t *testing.T) {
	srv, _, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodGet, "/selection", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = makeRequest(router, http.MethodPost, "/click", `{"lon": 77.2101, "lat": 28.6401}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Hits      int           `json:"hits"`
		Selection *models.Issue `json:"selection"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Hits)
	require.NotNil(t, resp.Selection)
	assert.Equal(t, "i1", resp.Selection.ID)
	assert.Equal(t, []float64{77.21, 28.64}, resp.Selection.Coords)

	w = makeRequest(router, http.MethodGet, "/selection", "")
	require.Equal(t, http.StatusOK, w.Code)
	var selected models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &selected))
	assert.Equal(t, "i1", selected.ID)
	assert.Equal(t, models.CategoryWaste, selected.Category)

	w = makeRequest(router, http.MethodDelete, "/selection", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := srv.Selection()
	assert.False(t, ok)
}

func TestServer_ClickMissOmitsSelection(t *testing.T) {
	srv, _, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodPost, "/click", `{"lon": 77.2101, "lat": 28.6401}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = makeRequest(router, http.MethodPost, "/click", `{"lon": 10, "lat": 10}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(0), resp["hits"])
	assert.Nil(t, resp["selection"])

	// Прежний выбор сохраняется
	selected, ok := srv.Selection()
	require.True(t, ok)
	assert.Equal(t, "i1", selected.ID)
}

func TestServer_ClickValidation(t *testing.T) {
	_, _, router := newTestServer(t, true)

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing lat", body: `{"lon": 10}`},
		{name: "lon out of range", body: `{"lon": 190, "lat": 10}`},
		{name: "negative radius", body: `{"lon": 10, "lat": 10, "radius": -1}`},
		{name: "malformed", body: `{"lon":`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := makeRequest(router, http.MethodPost, "/click", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestServer_Hover(t *testing.T) {
	srv, _, router := newTestServer(t, true)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodPost, "/hover", `{"inside": true}`)
	assert.JSONEq(t, `{"cursor": "pointer"}`, w.Body.String())

	w = makeRequest(router, http.MethodPost, "/hover", `{"inside": false}`)
	assert.JSONEq(t, `{"cursor": ""}`, w.Body.String())
}

func TestServer_DeferredStyleLoad(t *testing.T) {
	srv, surface, router := newTestServer(t, false)
	srv.Sync().SetIssues(sampleIssues())

	w := makeRequest(router, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status": "ok", "style_loaded": false}`, w.Body.String())

	surface.LoadStyle()

	w = makeRequest(router, http.MethodGet, "/sources/civic-issues.geojson", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
