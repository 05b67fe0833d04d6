package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
	"github.com/sirupsen/logrus"
)

const (
	predictPath  = "/predict"
	apiKeyHeader = "X-API-Key"
	maxBodyBytes = 4 << 20
)

// ErrUnexpectedStatus - модель ответила не 2xx
var ErrUnexpectedStatus = errors.New("classifier returned unexpected status")

type predictRequest struct {
	ImageURL string `json:"image_url"`
}

// HTTPClassifier вызывает внешнюю модель, которая возвращает размеченные области
// изображения в виде GeoJSON-объектов с полем properties.class
type HTTPClassifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// New возвращает nil, если CLASSIFIER_URL не задан: сервис проблем считает
// классификатор недоступным и сохраняет проблемы как unverified
func New(cfg *config.Config, logger *logrus.Logger) service.Classifier {
	if cfg.ClassifierURL == "" {
		return nil
	}
	return &HTTPClassifier{
		baseURL: strings.TrimRight(cfg.ClassifierURL, "/"),
		apiKey:  cfg.ClassifierAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.ClassifierTimeout,
		},
		logger: logger,
	}
}

// Classify отправляет ссылку на изображение и сводит ответ к одной категории
func (c *HTTPClassifier) Classify(ctx context.Context, imageURL string) (*models.Classification, error) {
	body, err := json.Marshal(predictRequest{ImageURL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+predictPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call classifier: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	features, err := decodeFeatures(raw)
	if err != nil {
		return nil, err
	}

	result := Summarize(features)
	c.logger.WithFields(logrus.Fields{
		"image_url":  imageURL,
		"features":   len(features),
		"category":   result.Category,
		"confidence": result.Confidence,
	}).Debug("Image classified")
	return result, nil
}

// decodeFeatures принимает как массив объектов, так и FeatureCollection
func decodeFeatures(raw []byte) ([]*geojson.Feature, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		fc, err := geojson.UnmarshalFeatureCollection(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to decode classifier feature collection: %w", err)
		}
		return fc.Features, nil
	}

	var features []*geojson.Feature
	if err := json.Unmarshal(trimmed, &features); err != nil {
		return nil, fmt.Errorf("failed to decode classifier features: %w", err)
	}
	return features, nil
}

// Summarize выбирает категорию большинства среди известных классов.
// Confidence - доля голосов победителя либо максимальная уверенность модели для него,
// если модель ее сообщает. Без известных классов результат unverified.
func Summarize(features []*geojson.Feature) *models.Classification {
	votes := make(map[models.Category]int)
	best := make(map[models.Category]float64)
	labels := make([]string, 0)
	seen := make(map[string]bool)
	known := 0

	for _, f := range features {
		if f == nil {
			continue
		}
		label := f.Properties.MustString("class", "")
		if label == "" {
			continue
		}
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}

		category, ok := models.ParseCategory(label)
		if !ok || category == models.CategoryUnverified {
			continue
		}
		known++
		votes[category]++
		if conf := f.Properties.MustFloat64("confidence", 0); conf > best[category] {
			best[category] = conf
		}
	}

	result := &models.Classification{Category: models.CategoryUnverified, Labels: labels}
	if known == 0 {
		return result
	}

	// Порядок перебора фиксирован, чтобы ничья решалась одинаково
	for _, category := range models.Categories {
		if votes[category] > votes[result.Category] {
			result.Category = category
		}
	}

	result.Confidence = float64(votes[result.Category]) / float64(known)
	if conf := best[result.Category]; conf > 0 {
		result.Confidence = conf
	}
	return result
}
