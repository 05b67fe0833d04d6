package mapsync

import (
	"errors"
	"slices"
	"sync"

	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

// SelectFunc получает проблему, по которой кликнул пользователь
type SelectFunc func(models.Issue)

// Sync приводит поверхность к текущим входным данным. Ошибки поверхности
// логируются и не возвращаются; синхронизация повторяется при следующем
// изменении входа или после загрузки стиля
type Sync struct {
	surface Surface
	logger  *logrus.Logger

	mu          sync.Mutex
	issues      []*models.Issue
	filters     models.FilterState
	heatmap     bool
	onSelect    SelectFunc
	bound       map[string]bool
	hookPending bool
	lastErr     error
}

func New(surface Surface, logger *logrus.Logger, onSelect SelectFunc) *Sync {
	return &Sync{
		surface:  surface,
		logger:   logger,
		filters:  models.DefaultFilters(),
		onSelect: onSelect,
		bound:    make(map[string]bool),
	}
}

// Update задает все входы сразу
func (s *Sync) Update(issues []*models.Issue, filters models.FilterState, heatmap bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = slices.Clone(issues)
	s.filters = filters.Clone()
	s.heatmap = heatmap
	s.syncLocked()
}

func (s *Sync) SetIssues(issues []*models.Issue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = slices.Clone(issues)
	s.syncLocked()
}

func (s *Sync) SetFilters(filters models.FilterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = filters.Clone()
	s.syncLocked()
}

func (s *Sync) SetHeatmap(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heatmap = enabled
	s.syncLocked()
}

// SetSelectHandler заменяет обработчик выбора; уже привязанный click вызовет новый
func (s *Sync) SetSelectHandler(fn SelectFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = fn
}

func (s *Sync) Filters() models.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

func (s *Sync) Heatmap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heatmap
}

// Err возвращает ошибку последней синхронизации; nil, если она прошла успешно
func (s *Sync) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Sync) syncLocked() {
	if !s.surface.IsStyleLoaded() {
		s.lastErr = ErrStyleNotLoaded
		s.logger.Debug("Map style is not loaded yet, deferring layer sync")
		s.deferUntilLoaded()
		return
	}

	err := s.applyLocked()
	s.lastErr = err
	if err == nil {
		return
	}

	s.logger.WithError(err).WithField("source", SourceID).Warn("Failed to sync map layers")
	if errors.Is(err, ErrStyleNotLoaded) {
		s.deferUntilLoaded()
	}
}

// deferUntilLoaded держит не больше одного хука загрузки стиля
func (s *Sync) deferUntilLoaded() {
	if s.hookPending {
		return
	}
	s.hookPending = true
	s.surface.OnStyleLoad(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.hookPending = false
		s.syncLocked()
	})
}

// applyLocked выполняет каждый шаг независимо и собирает ошибки
func (s *Sync) applyLocked() error {
	var errs []error

	data := BuildFeatureCollection(FilterVisible(s.issues, s.filters))
	if s.surface.HasSource(SourceID) {
		if err := s.surface.SetSourceData(SourceID, data); err != nil {
			errs = append(errs, err)
		}
	} else if err := s.surface.AddSource(SourceID, data); err != nil {
		errs = append(errs, err)
	}

	if !s.surface.HasLayer(CircleLayerID) {
		if err := s.surface.AddLayer(circleLayer(), ""); err != nil {
			errs = append(errs, err)
		}
	}

	switch hasHeat := s.surface.HasLayer(HeatLayerID); {
	case s.heatmap && !hasHeat:
		beforeID := ""
		if s.surface.HasLayer(CircleLayerID) {
			beforeID = CircleLayerID
		}
		if err := s.surface.AddLayer(heatLayer(), beforeID); err != nil {
			errs = append(errs, err)
		}
	case !s.heatmap && hasHeat:
		if err := s.surface.RemoveLayer(HeatLayerID); err != nil {
			errs = append(errs, err)
		}
	}

	s.bindHandlersLocked()
	return errors.Join(errs...)
}

// bindHandlersLocked вешает обработчики на слой точек один раз
func (s *Sync) bindHandlersLocked() {
	if s.bound[CircleLayerID] {
		return
	}
	s.bound[CircleLayerID] = true

	s.surface.On(EventClick, CircleLayerID, s.handleClick)
	s.surface.On(EventMouseEnter, CircleLayerID, func(Event) { s.surface.SetCursor(CursorPointer) })
	s.surface.On(EventMouseLeave, CircleLayerID, func(Event) { s.surface.SetCursor(CursorDefault) })
}

func (s *Sync) handleClick(ev Event) {
	if len(ev.Features) == 0 {
		return
	}
	issue, err := IssueFromFeature(ev.Features[0])
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read clicked feature")
		return
	}

	s.mu.Lock()
	fn := s.onSelect
	s.mu.Unlock()

	if fn != nil {
		fn(issue)
	}
}
