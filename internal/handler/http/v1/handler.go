package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/ratelimit"
	"github.com/shenikar/civic_issue_map/internal/service"
	"github.com/sirupsen/logrus"
)

// Services - сервисы, которые обслуживает API
type Services struct {
	Issues service.IssueService
	Groups service.GroupService
	Chat   service.ChatService
	Users  service.UserService
}

type Handler struct {
	issueService service.IssueService
	groupService service.GroupService
	chatService  service.ChatService
	userService  service.UserService
	limiter      ratelimit.Limiter
	logger       *logrus.Logger
	validate     *validator.Validate
	cfg          *config.Config
}

// NewHandler создает обработчики API. limiter может быть nil: тогда создание проблем не ограничивается
func NewHandler(services Services, limiter ratelimit.Limiter, logger *logrus.Logger, cfg *config.Config) *Handler {
	validate := validator.New()
	// Пара [lon, lat] в допустимых пределах
	_ = validate.RegisterValidation("coords", func(fl validator.FieldLevel) bool {
		coords, ok := fl.Field().Interface().([]float64)
		return ok && models.ValidCoords(coords)
	})

	return &Handler{
		issueService: services.Issues,
		groupService: services.Groups,
		chatService:  services.Chat,
		userService:  services.Users,
		limiter:      limiter,
		logger:       logger,
		validate:     validate,
		cfg:          cfg,
	}
}

// bindAndValidate разбирает тело запроса и проверяет его; при ошибке ответ уже отправлен
func (h *Handler) bindAndValidate(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// parseID проверяет UUID из пути; kind попадает в текст ошибки
func parseID(c *gin.Context, kind string) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + kind + " ID"})
		return "", false
	}
	return id.String(), true
}

// respondServiceError переводит ошибку сервиса в HTTP-ответ
func respondServiceError(c *gin.Context, log *logrus.Entry, err error, notFound string) {
	if errors.Is(err, models.ErrNotFound) {
		log.WithError(err).Warn("Requested entity not found")
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	log.WithError(err).Error("Service call failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
