// Package session - явная неизменяемая личность пользователя клиентских утилит
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/shenikar/civic_issue_map/internal/models"
)

var ErrNoIdentity = errors.New("session has no user id")

// Session создается один раз при старте и передается явно
type Session struct {
	userID   string
	username string
}

func New(userID, username string) (Session, error) {
	if userID == "" {
		return Session{}, ErrNoIdentity
	}
	return Session{userID: userID, username: username}, nil
}

// Registrar регистрирует пользователя по отображаемому имени
type Registrar interface {
	CreateUser(ctx context.Context, username string) (*models.User, error)
}

// Establish регистрирует пользователя и возвращает сессию с именем,
// нормализованным сервером
func Establish(ctx context.Context, registrar Registrar, username string) (Session, error) {
	user, err := registrar.CreateUser(ctx, username)
	if err != nil {
		return Session{}, fmt.Errorf("failed to register user: %w", err)
	}
	return New(user.ID, user.Username)
}

func (s Session) UserID() string   { return s.userID }
func (s Session) Username() string { return s.username }
func (s Session) IsZero() bool     { return s.userID == "" }

// SenderName - имя для сообщений чата; nil, если имя не задано
func (s Session) SenderName() *string {
	if s.username == "" {
		return nil
	}
	name := s.username
	return &name
}
