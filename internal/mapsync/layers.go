package mapsync

import "github.com/shenikar/civic_issue_map/internal/models"

const (
	SourceID      = "civic-issues"
	CircleLayerID = "civic-issues-circles"
	HeatLayerID   = "civic-issues-heat"

	DefaultColor = "#CBD5E1"
)

var categoryColors = []struct {
	category models.Category
	color    string
}{
	{models.CategoryWaste, "#EF4444"},
	{models.CategoryWater, "#3B82F6"},
	{models.CategoryVegetation, "#22C55E"},
	{models.CategoryRooftop, "#F59E0B"},
}

// радиус точки по уровню масштаба: zoom, radius
var radiusStops = [][2]float64{{5, 4}, {12, 8}, {16, 14}}

// ColorFor возвращает цвет маркера категории
func ColorFor(c models.Category) string {
	for _, cc := range categoryColors {
		if cc.category == c {
			return cc.color
		}
	}
	return DefaultColor
}

func circleLayer() Layer {
	match := []any{"match", []any{"get", "category"}}
	for _, cc := range categoryColors {
		match = append(match, string(cc.category), cc.color)
	}
	match = append(match, DefaultColor)

	radius := []any{"interpolate", []any{"linear"}, []any{"zoom"}}
	for _, stop := range radiusStops {
		radius = append(radius, stop[0], stop[1])
	}

	return Layer{
		ID:     CircleLayerID,
		Type:   "circle",
		Source: SourceID,
		Paint: map[string]any{
			"circle-color":        match,
			"circle-radius":       radius,
			"circle-stroke-width": 1,
			"circle-stroke-color": "rgba(255,255,255,0.25)",
		},
	}
}

func heatLayer() Layer {
	return Layer{
		ID:      HeatLayerID,
		Type:    "heatmap",
		Source:  SourceID,
		MaxZoom: 16,
		Paint: map[string]any{
			"heatmap-weight":    1,
			"heatmap-intensity": []any{"interpolate", []any{"linear"}, []any{"zoom"}, 0, 0.5, 15, 1.5},
			"heatmap-radius":    []any{"interpolate", []any{"linear"}, []any{"zoom"}, 0, 8, 15, 40},
			"heatmap-opacity":   0.75,
			"heatmap-color": []any{
				"interpolate", []any{"linear"}, []any{"heatmap-density"},
				0, "rgba(0,0,0,0)",
				0.2, "rgb(34,197,94)",
				0.5, "rgb(250,204,21)",
				0.8, "rgb(239,68,68)",
			},
		},
	}
}
