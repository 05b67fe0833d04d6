package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/civic_issue_map/internal/models"
)

// @Summary List group messages
// @Description Chat history of a group, oldest first
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {array} MessageResponse
// @Failure 400 {object} map[string]string "Invalid group ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups/{id}/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	id, ok := parseID(c, "group")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "listMessages").WithField("id", id)

	msgs, err := h.chatService.ListMessages(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Error("Failed to list messages from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ModelsToMessageResponses(msgs))
}

// @Summary Send a message
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param message body SendMessageRequest true "Message"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} map[string]string "Invalid group ID or request body"
// @Failure 404 {object} map[string]string "Group not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups/{id}/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	id, ok := parseID(c, "group")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "sendMessage").WithField("id", id)

	var input SendMessageRequest
	if !h.bindAndValidate(c, log, &input) {
		return
	}

	msg := DTOToMessageModel(id, input)
	if err := h.chatService.SendMessage(c.Request.Context(), msg); err != nil {
		respondServiceError(c, log, err, "group not found")
		return
	}
	c.JSON(http.StatusCreated, ModelToMessageResponse(msg))
}

// @Summary Stream group messages
// @Description Server-sent events: one "message" event per new message in the group
// @Tags Chat
// @Produce text/event-stream
// @Param id path string true "Group ID"
// @Success 200 {object} MessageResponse "message event payload"
// @Failure 400 {object} map[string]string "Invalid group ID"
// @Failure 404 {object} map[string]string "Group not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /groups/{id}/stream [get]
func (h *Handler) streamMessages(c *gin.Context) {
	id, ok := parseID(c, "group")
	if !ok {
		return
	}
	log := h.logger.WithField("method", "streamMessages").WithField("id", id)

	msgs, err := h.chatService.StreamMessages(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, log, err, "group not found")
		return
	}

	streamEvents(c, log, msgs, eventMessage, func(msg *models.ChatMessage) any {
		return ModelToMessageResponse(msg)
	})
}
