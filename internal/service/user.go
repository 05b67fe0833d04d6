package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	anonymousUsername = "Anonymous"
	maxUsernameLength = 16
)

type userService struct {
	repo   UserRepository
	logger *logrus.Logger
}

func NewUserService(repo UserRepository, logger *logrus.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// CreateUser регистрирует отображаемое имя. Пустое имя заменяется на Anonymous,
// слишком длинное обрезается
func (s *userService) CreateUser(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{
		ID:        uuid.NewString(),
		Username:  NormalizeUsername(username),
		CreatedAt: models.NewMillis(time.Now().UTC()),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.WithError(err).Error("Failed to create user in repository")
		return nil, fmt.Errorf("service: could not create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User created")
	return user, nil
}

// NormalizeUsername приводит имя к допустимому виду
func NormalizeUsername(username string) string {
	clean := strings.TrimSpace(username)
	if clean == "" {
		return anonymousUsername
	}
	if utf8.RuneCountInString(clean) > maxUsernameLength {
		clean = string([]rune(clean)[:maxUsernameLength])
	}
	return clean
}
