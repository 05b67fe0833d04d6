package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
)

// @Summary Get all issues
// @Description Get the full collection of issues, newest first
// @Tags Issues
// @Accept json
// @Produce json
// @Success 200 {array} IssueResponse
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /issues [get]
func (h *Handler) listIssues(c *gin.Context) {
	log := h.logger.WithField("method", "listIssues")

	issues, err := h.issueService.ListIssues(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list issues from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ModelsToIssueResponses(issues))
}

// @Summary Get issue by ID
// @Description Get a single issue by its ID
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} IssueResponse
// @Failure 400 {object} map[string]string "Invalid issue ID"
// @Failure 404 {object} map[string]string "Issue not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /issues/{id} [get]
func (h *Handler) getIssue(c *gin.Context) {
	id, ok := parseID(c, "issue")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "getIssue").WithField("id", id)

	issue, err := h.issueService.GetIssue(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "issue not found")
		return
	}
	c.JSON(http.StatusOK, ModelToIssueResponse(issue))
}

// @Summary Create a new issue
// @Description Report a new issue. The category is inferred from the image when omitted. Rate-limited per X-User-ID.
// @Tags Issues
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Reporter ID used for rate limiting"
// @Param issue body CreateIssueRequest true "Issue creation request"
// @Success 201 {object} IssueResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 429 {object} map[string]interface{} "Rate limit exceeded"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /issues [post]
func (h *Handler) createIssue(c *gin.Context) {
	var input CreateIssueRequest
	log := h.logger.WithField("method", "createIssue")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	model := DTOToIssueModel(input)
	if err := h.issueService.CreateIssue(c.Request.Context(), model); err != nil {
		log.WithError(err).Error("Failed to create issue in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToIssueResponse(model))
}

// @Summary Delete an issue
// @Description Delete an issue together with its groups and messages. Requires API key.
// @Tags Admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Issue ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid issue ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Issue not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /admin/issues/{id} [delete]
func (h *Handler) deleteIssue(c *gin.Context) {
	id, ok := parseID(c, "issue")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "deleteIssue").WithField("id", id)

	if err := h.issueService.DeleteIssue(c.Request.Context(), id); err != nil {
		respondServiceError(c, log, err, "issue not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Stream issue snapshots
// @Description Server-sent events: a "snapshot" event with the full collection on connect and after every change
// @Tags Issues
// @Produce text/event-stream
// @Success 200 {array} IssueResponse "snapshot event payload"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /issues/stream [get]
func (h *Handler) streamIssues(c *gin.Context) {
	log := h.logger.WithField("method", "streamIssues")

	snapshots, err := h.issueService.StreamIssues(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to subscribe to issues")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	streamEvents(c, log, snapshots, eventSnapshot, func(issues []*models.Issue) any {
		return ModelsToIssueResponses(issues)
	})
}

// @Summary Classify an image
// @Description Run the image classifier and return the inferred category
// @Tags Analysis
// @Accept json
// @Produce json
// @Param request body AnalyzeRequest true "Image to classify"
// @Success 200 {object} ClassificationResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 502 {object} map[string]string "Classifier failed"
// @Failure 503 {object} map[string]string "Classifier not configured"
// @Router /analyze [post]
func (h *Handler) analyzeImage(c *gin.Context) {
	var input AnalyzeRequest
	log := h.logger.WithField("method", "analyzeImage")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	result, err := h.issueService.AnalyzeImage(c.Request.Context(), input.ImageURL)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClassifierUnavailable):
			log.Warn("Classifier is not configured")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image classifier unavailable"})
		case errors.Is(err, service.ErrClassification):
			log.WithError(err).Warn("Classifier failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "image classification failed"})
		default:
			log.WithError(err).Error("Failed to analyze image")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, ModelToClassificationResponse(result))
}
