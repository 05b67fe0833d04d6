// Package mapsync сводит список проблем, фильтры и флаг тепловой карты
// к источнику и слоям поверхности отрисовки карты
package mapsync

import (
	"errors"

	"github.com/paulmach/orb/geojson"
)

var (
	ErrStyleNotLoaded = errors.New("style is not loaded yet")
	ErrSourceExists   = errors.New("source already exists")
	ErrSourceNotFound = errors.New("source not found")
	ErrLayerExists    = errors.New("layer already exists")
	ErrLayerNotFound  = errors.New("layer not found")
)

type EventType string

const (
	EventClick      EventType = "click"
	EventMouseEnter EventType = "mouseenter"
	EventMouseLeave EventType = "mouseleave"
)

const (
	CursorPointer = "pointer"
	CursorDefault = ""
)

// Event - событие слоя; Features упорядочены от ближайшего к точке касания
type Event struct {
	Type     EventType
	LayerID  string
	Features []*geojson.Feature
}

type EventHandler func(Event)

// Layer - описание слоя в формате стиля MapLibre
type Layer struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Source  string         `json:"source"`
	MaxZoom float64        `json:"maxzoom,omitempty"`
	Paint   map[string]any `json:"paint,omitempty"`
}

// Surface - поверхность отрисовки: реестр источников и слоев с обработчиками событий.
// Изменяющие методы возвращают ErrStyleNotLoaded, пока стиль не загружен
type Surface interface {
	IsStyleLoaded() bool
	// OnStyleLoad регистрирует одноразовый вызов после загрузки стиля
	OnStyleLoad(fn func())

	HasSource(id string) bool
	AddSource(id string, data *geojson.FeatureCollection) error
	SetSourceData(id string, data *geojson.FeatureCollection) error

	HasLayer(id string) bool
	// AddLayer добавляет слой под слоем beforeID; пустой beforeID кладет слой наверх
	AddLayer(layer Layer, beforeID string) error
	RemoveLayer(id string) error

	On(event EventType, layerID string, handler EventHandler)
	SetCursor(cursor string)
}
