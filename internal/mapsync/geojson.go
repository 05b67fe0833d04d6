package mapsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/shenikar/civic_issue_map/internal/models"
)

var ErrNotPoint = errors.New("feature geometry is not a point")

func categoryOf(issue *models.Issue) models.Category {
	if issue.Category == "" {
		return models.CategoryUnverified
	}
	return issue.Category
}

// FilterVisible оставляет проблемы с корректными координатами, чья категория
// не выключена фильтром. Категории без записи в фильтре видимы
func FilterVisible(issues []*models.Issue, filters models.FilterState) []*models.Issue {
	out := make([]*models.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue == nil || !issue.HasValidCoords() {
			continue
		}
		if !filters.Visible(categoryOf(issue)) {
			continue
		}
		out = append(out, issue)
	}
	return out
}

// BuildFeatureCollection строит точечные объекты; проблемы без корректных координат пропускаются
func BuildFeatureCollection(issues []*models.Issue) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, issue := range issues {
		if issue == nil || !issue.HasValidCoords() {
			continue
		}

		f := geojson.NewFeature(orb.Point{issue.Lon(), issue.Lat()})
		f.ID = issue.ID

		imageURL := ""
		if issue.ImageURL != nil {
			imageURL = *issue.ImageURL
		}
		createdAt := ""
		if !issue.CreatedAt.IsZero() {
			createdAt = issue.CreatedAt.UTC().Format(time.RFC3339Nano)
		}

		f.Properties = geojson.Properties{
			"id":          issue.ID,
			"title":       issue.Title,
			"description": issue.Description,
			"imageUrl":    imageURL,
			"category":    string(categoryOf(issue)),
			"createdAt":   createdAt,
		}
		fc.Append(f)
	}
	return fc
}

// IssueFromFeature восстанавливает проблему из объекта, по которому кликнули.
// Координаты берутся из геометрии
func IssueFromFeature(f *geojson.Feature) (models.Issue, error) {
	if f == nil {
		return models.Issue{}, fmt.Errorf("empty feature")
	}
	point, ok := f.Geometry.(orb.Point)
	if !ok {
		return models.Issue{}, fmt.Errorf("%w: %T", ErrNotPoint, f.Geometry)
	}

	issue := models.Issue{
		ID:          stringProp(f.Properties, "id"),
		Title:       stringProp(f.Properties, "title"),
		Description: stringProp(f.Properties, "description"),
		Category:    models.Category(stringProp(f.Properties, "category")),
		Coords:      []float64{point.Lon(), point.Lat()},
	}
	if issue.ID == "" {
		if id, ok := f.ID.(string); ok {
			issue.ID = id
		}
	}
	if imageURL := stringProp(f.Properties, "imageUrl"); imageURL != "" {
		issue.ImageURL = &imageURL
	}
	issue.CreatedAt = timeProp(f.Properties, "createdAt")
	issue.ApplyDefaults()
	return issue, nil
}

// stringProp читает свойство как строку; прочие значения сериализуются в JSON
func stringProp(p geojson.Properties, key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(raw)
	}
}

// timeProp принимает RFC3339 или миллисекунды Unix
func timeProp(p geojson.Properties, key string) models.Millis {
	switch v := p[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return models.NewMillis(t)
		}
	case float64:
		return models.NewMillis(time.UnixMilli(int64(v)))
	}
	return models.Millis{}
}
