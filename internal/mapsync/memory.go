package mapsync

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const styleVersion = 8

// Style - фрагмент стиля MapLibre: источники и слои в порядке отрисовки
type Style struct {
	Version int                    `json:"version"`
	Sources map[string]StyleSource `json:"sources"`
	Layers  []Layer                `json:"layers"`
}

type StyleSource struct {
	Type string                     `json:"type"`
	Data *geojson.FeatureCollection `json:"data"`
}

type handlerKey struct {
	event   EventType
	layerID string
}

// MemorySurface - поверхность в памяти. Хранит источники, слои снизу вверх,
// обработчики и курсор. Обработчики и хуки вызываются без удержания блокировки
type MemorySurface struct {
	mu          sync.Mutex
	styleLoaded bool
	loadHooks   []func()
	sources     map[string]*geojson.FeatureCollection
	layers      []Layer
	handlers    map[handlerKey][]EventHandler
	cursor      string
	revision    uint64
}

func NewMemorySurface(styleLoaded bool) *MemorySurface {
	return &MemorySurface{
		styleLoaded: styleLoaded,
		sources:     make(map[string]*geojson.FeatureCollection),
		handlers:    make(map[handlerKey][]EventHandler),
	}
}

// LoadStyle отмечает стиль загруженным и вызывает накопленные хуки
func (s *MemorySurface) LoadStyle() {
	s.mu.Lock()
	s.styleLoaded = true
	hooks := s.loadHooks
	s.loadHooks = nil
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (s *MemorySurface) IsStyleLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.styleLoaded
}

func (s *MemorySurface) OnStyleLoad(fn func()) {
	s.mu.Lock()
	if s.styleLoaded {
		s.mu.Unlock()
		go fn()
		return
	}
	s.loadHooks = append(s.loadHooks, fn)
	s.mu.Unlock()
}

func (s *MemorySurface) HasSource(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sources[id]
	return ok
}

func (s *MemorySurface) AddSource(id string, data *geojson.FeatureCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.styleLoaded {
		return ErrStyleNotLoaded
	}
	if _, ok := s.sources[id]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, id)
	}
	s.sources[id] = data
	s.revision++
	return nil
}

func (s *MemorySurface) SetSourceData(id string, data *geojson.FeatureCollection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.styleLoaded {
		return ErrStyleNotLoaded
	}
	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	s.sources[id] = data
	return nil
}

// SourceData возвращает текущие данные источника
func (s *MemorySurface) SourceData(id string) (*geojson.FeatureCollection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sources[id]
	return data, ok
}

func (s *MemorySurface) HasLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layerIndex(id) >= 0
}

func (s *MemorySurface) AddLayer(layer Layer, beforeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.styleLoaded {
		return ErrStyleNotLoaded
	}
	if s.layerIndex(layer.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrLayerExists, layer.ID)
	}
	if _, ok := s.sources[layer.Source]; !ok {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, layer.Source)
	}

	if beforeID == "" {
		s.layers = append(s.layers, layer)
	} else {
		idx := s.layerIndex(beforeID)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrLayerNotFound, beforeID)
		}
		s.layers = slices.Insert(s.layers, idx, layer)
	}
	s.revision++
	return nil
}

func (s *MemorySurface) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.styleLoaded {
		return ErrStyleNotLoaded
	}
	idx := s.layerIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	s.layers = slices.Delete(s.layers, idx, idx+1)
	s.revision++
	return nil
}

// LayerIDs возвращает идентификаторы слоев снизу вверх
func (s *MemorySurface) LayerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.layers))
	for i, l := range s.layers {
		ids[i] = l.ID
	}
	return ids
}

// Revision растет при каждом изменении реестра источников и слоев
func (s *MemorySurface) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *MemorySurface) On(event EventType, layerID string, handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := handlerKey{event: event, layerID: layerID}
	s.handlers[key] = append(s.handlers[key], handler)
}

// HandlerCount - число обработчиков события на слое
func (s *MemorySurface) HandlerCount(event EventType, layerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[handlerKey{event: event, layerID: layerID}])
}

func (s *MemorySurface) SetCursor(cursor string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
}

func (s *MemorySurface) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Dispatch вызывает обработчики события слоя
func (s *MemorySurface) Dispatch(ev Event) {
	s.mu.Lock()
	handlers := slices.Clone(s.handlers[handlerKey{event: ev.Type, layerID: ev.LayerID}])
	s.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Click находит точки источника слоя в радиусе radiusMeters от at и, если
// что-то найдено, отправляет click с объектами от ближайшего. Возвращает число попаданий
func (s *MemorySurface) Click(layerID string, at orb.Point, radiusMeters float64) int {
	features := s.hitTest(layerID, at, radiusMeters)
	if len(features) == 0 {
		return 0
	}
	s.Dispatch(Event{Type: EventClick, LayerID: layerID, Features: features})
	return len(features)
}

// Hover имитирует наведение и уход указателя со слоя
func (s *MemorySurface) Hover(layerID string, inside bool) {
	ev := Event{Type: EventMouseLeave, LayerID: layerID}
	if inside {
		ev.Type = EventMouseEnter
	}
	s.Dispatch(ev)
}

func (s *MemorySurface) hitTest(layerID string, at orb.Point, radiusMeters float64) []*geojson.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.layerIndex(layerID)
	if idx < 0 {
		return nil
	}
	data := s.sources[s.layers[idx].Source]
	if data == nil {
		return nil
	}

	type hit struct {
		feature  *geojson.Feature
		distance float64
	}
	var hits []hit
	for _, f := range data.Features {
		point, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		if d := geo.Distance(at, point); d <= radiusMeters {
			hits = append(hits, hit{feature: f, distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	out := make([]*geojson.Feature, len(hits))
	for i, h := range hits {
		out[i] = h.feature
	}
	return out
}

// Style возвращает стиль с текущими источниками и слоями
func (s *MemorySurface) Style() Style {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := Style{
		Version: styleVersion,
		Sources: make(map[string]StyleSource, len(s.sources)),
		Layers:  slices.Clone(s.layers),
	}
	for id, data := range s.sources {
		style.Sources[id] = StyleSource{Type: "geojson", Data: data}
	}
	if style.Layers == nil {
		style.Layers = []Layer{}
	}
	return style
}

func (s *MemorySurface) layerIndex(id string) int {
	return slices.IndexFunc(s.layers, func(l Layer) bool { return l.ID == id })
}
