// Package mapview - HTTP-мост к карте в памяти: отдает стиль и данные слоя,
// принимает фильтры, переключение тепловой карты и клики
package mapview

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb"
	"github.com/shenikar/civic_issue_map/internal/mapsync"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	geoJSONContentType = "application/geo+json"
	defaultClickRadius = 25.0
)

type Server struct {
	surface  *mapsync.MemorySurface
	sync     *mapsync.Sync
	logger   *logrus.Logger
	validate *validator.Validate

	mu        sync.Mutex
	selection *models.Issue
}

// NewServer создает мост и синхронизатор слоев, выбор которого сохраняется в мосте
func NewServer(surface *mapsync.MemorySurface, logger *logrus.Logger) *Server {
	s := &Server{
		surface:  surface,
		logger:   logger,
		validate: validator.New(),
	}
	s.sync = mapsync.New(surface, logger, s.setSelection)
	return s
}

// Sync - синхронизатор, в который подаются обновления ленты
func (s *Server) Sync() *mapsync.Sync {
	return s.sync
}

// Selection возвращает последнюю выбранную проблему
func (s *Server) Selection() (models.Issue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return models.Issue{}, false
	}
	return *s.selection, true
}

func (s *Server) setSelection(issue models.Issue) {
	s.mu.Lock()
	s.selection = &issue
	s.mu.Unlock()

	s.logger.WithField("issue_id", issue.ID).Info("Issue selected on map")
}

func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/style.json", s.getStyle)
	r.GET("/sources/"+mapsync.SourceID+".geojson", s.getSource)

	r.GET("/filters", s.getFilters)
	r.PUT("/filters", s.putFilters)
	r.GET("/heatmap", s.getHeatmap)
	r.PUT("/heatmap", s.putHeatmap)

	r.POST("/click", s.click)
	r.POST("/hover", s.hover)
	r.GET("/selection", s.getSelection)
	r.DELETE("/selection", s.clearSelection)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "style_loaded": s.surface.IsStyleLoaded()})
	})
}

func (s *Server) bindAndValidate(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		s.logger.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if err := s.validate.Struct(input); err != nil {
		s.logger.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) getStyle(c *gin.Context) {
	c.JSON(http.StatusOK, s.surface.Style())
}

func (s *Server) getSource(c *gin.Context) {
	data, ok := s.surface.SourceData(mapsync.SourceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "source is not ready"})
		return
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode source data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Data(http.StatusOK, geoJSONContentType, raw)
}

func (s *Server) getFilters(c *gin.Context) {
	c.JSON(http.StatusOK, s.sync.Filters())
}

func (s *Server) putFilters(c *gin.Context) {
	var input map[string]bool
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	filters := make(models.FilterState, len(input))
	for name, visible := range input {
		category, ok := models.ParseCategory(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + name})
			return
		}
		filters[category] = visible
	}

	s.sync.SetFilters(filters)
	c.JSON(http.StatusOK, s.sync.Filters())
}

type heatmapRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (s *Server) getHeatmap(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": s.sync.Heatmap()})
}

func (s *Server) putHeatmap(c *gin.Context) {
	var input heatmapRequest
	if !s.bindAndValidate(c, &input) {
		return
	}

	s.sync.SetHeatmap(*input.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": s.sync.Heatmap()})
}

type clickRequest struct {
	Lon    *float64 `json:"lon" validate:"required,min=-180,max=180"`
	Lat    *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Radius float64  `json:"radius" validate:"omitempty,gt=0,max=5000"`
}

type clickResponse struct {
	Hits      int           `json:"hits"`
	Selection *models.Issue `json:"selection"`
}

func (s *Server) click(c *gin.Context) {
	var input clickRequest
	if !s.bindAndValidate(c, &input) {
		return
	}

	radius := input.Radius
	if radius == 0 {
		radius = defaultClickRadius
	}
	hits := s.surface.Click(mapsync.CircleLayerID, orb.Point{*input.Lon, *input.Lat}, radius)

	// Промах не меняет выбор и не возвращает прежний
	resp := clickResponse{Hits: hits}
	if hits > 0 {
		if selection, ok := s.Selection(); ok {
			resp.Selection = &selection
		}
	}
	c.JSON(http.StatusOK, resp)
}

type hoverRequest struct {
	Inside bool `json:"inside"`
}

func (s *Server) hover(c *gin.Context) {
	var input hoverRequest
	if !s.bindAndValidate(c, &input) {
		return
	}

	s.surface.Hover(mapsync.CircleLayerID, input.Inside)
	c.JSON(http.StatusOK, gin.H{"cursor": s.surface.Cursor()})
}

func (s *Server) getSelection(c *gin.Context) {
	selection, ok := s.Selection()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, selection)
}

func (s *Server) clearSelection(c *gin.Context) {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
	c.Status(http.StatusNoContent)
}
