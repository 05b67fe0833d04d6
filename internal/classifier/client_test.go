package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feature(class string, confidence float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{77.2, 28.6})
	f.Properties["class"] = class
	if confidence > 0 {
		f.Properties["confidence"] = confidence
	}
	return f
}

func newTestClassifier(t *testing.T, handler http.HandlerFunc) *HTTPClassifier {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		ClassifierURL:     server.URL + "/",
		ClassifierAPIKey:  "secret",
		ClassifierTimeout: time.Second,
	}
	return New(cfg, logger.Discard()).(*HTTPClassifier)
}

func TestNew_WithoutURL(t *testing.T) {
	assert.Nil(t, New(&config.Config{}, logger.Discard()))
}

func TestClassify_FeatureArray(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://img.example/1.jpg", req["image_url"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]*geojson.Feature{
			feature("waste", 0),
			feature("waste", 0),
			feature("water", 0),
		})
	})

	result, err := c.Classify(context.Background(), "https://img.example/1.jpg")

	require.NoError(t, err)
	assert.Equal(t, models.CategoryWaste, result.Category)
	assert.InDelta(t, 2.0/3.0, result.Confidence, 1e-9)
	assert.Equal(t, []string{"waste", "water"}, result.Labels)
}

func TestClassify_FeatureCollection(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		fc := geojson.NewFeatureCollection()
		fc.Append(feature("rooftop", 0.87))
		data, _ := fc.MarshalJSON()
		_, _ = w.Write(data)
	})

	result, err := c.Classify(context.Background(), "https://img.example/roof.jpg")

	require.NoError(t, err)
	assert.Equal(t, models.CategoryRooftop, result.Category)
	assert.InDelta(t, 0.87, result.Confidence, 1e-9)
}

func TestClassify_EmptyResponse(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	result, err := c.Classify(context.Background(), "https://img.example/1.jpg")

	require.NoError(t, err)
	assert.Equal(t, models.CategoryUnverified, result.Category)
	assert.Zero(t, result.Confidence)
}

func TestClassify_UnexpectedStatus(t *testing.T) {
	c := newTestClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result, err := c.Classify(context.Background(), "https://img.example/1.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestSummarize_UnknownClassesIgnored(t *testing.T) {
	result := Summarize([]*geojson.Feature{
		feature("graffiti", 0),
		feature("vegetation", 0),
		nil,
	})

	assert.Equal(t, models.CategoryVegetation, result.Category)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, []string{"graffiti", "vegetation"}, result.Labels)
}

func TestSummarize_TieResolvedByCategoryOrder(t *testing.T) {
	result := Summarize([]*geojson.Feature{
		feature("water", 0),
		feature("waste", 0),
	})

	assert.Equal(t, models.CategoryWaste, result.Category)
}
