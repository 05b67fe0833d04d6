package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Register a display name
// @Description Create a user with the given display name. Blank names become "Anonymous", long names are truncated to 16 characters.
// @Tags Users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "Display name"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /users [post]
func (h *Handler) createUser(c *gin.Context) {
	var input CreateUserRequest
	log := h.logger.WithField("method", "createUser")

	if !h.bindAndValidate(c, log, &input) {
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), input.Username)
	if err != nil {
		log.WithError(err).Error("Failed to create user in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, ModelToUserResponse(user))
}
