package service

import (
	"context"
	"errors"

	"github.com/shenikar/civic_issue_map/internal/models"
)

//go:generate mockgen -source=service.go -destination=mocks/mock_service.go -package=mocks

var (
	// ErrClassifierUnavailable - классификатор изображений не настроен
	ErrClassifierUnavailable = errors.New("image classifier is not configured")
	// ErrClassification - классификатор вернул ошибку
	ErrClassification = errors.New("image classification failed")
)

// IssueRepository определяет контракт для работы с бд проблем
type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	List(ctx context.Context) ([]*models.Issue, error)
	Delete(ctx context.Context, id string) error
	GetListFromCache(ctx context.Context) ([]*models.Issue, error)
	SetListCache(ctx context.Context, issues []*models.Issue) error
	InvalidateListCache(ctx context.Context) error
}

// GroupRepository определяет контракт для работы с группами и участниками
type GroupRepository interface {
	ListByIssue(ctx context.Context, issueID string) ([]*models.Group, error)
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
}

// MessageRepository определяет контракт для хранения сообщений чата
type MessageRepository interface {
	ListByGroup(ctx context.Context, groupID string) ([]*models.ChatMessage, error)
	Create(ctx context.Context, msg *models.ChatMessage) error
}

// UserRepository определяет контракт для хранения пользователей
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

// Classifier классифицирует изображение проблемы
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (*models.Classification, error)
}

// Broadcaster рассылает изменения подписчикам в реальном времени
type Broadcaster interface {
	PublishIssues(ctx context.Context, issues []*models.Issue) error
	SubscribeIssues(ctx context.Context) (<-chan []*models.Issue, error)
	PublishMessage(ctx context.Context, msg *models.ChatMessage) error
	SubscribeMessages(ctx context.Context, groupID string) (<-chan *models.ChatMessage, error)
}

// IssueService определяет контракт бизнес-логики для проблем
type IssueService interface {
	ListIssues(ctx context.Context) ([]*models.Issue, error)
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	CreateIssue(ctx context.Context, issue *models.Issue) error
	DeleteIssue(ctx context.Context, id string) error
	AnalyzeImage(ctx context.Context, imageURL string) (*models.Classification, error)
	StreamIssues(ctx context.Context) (<-chan []*models.Issue, error)
}

// GroupService определяет контракт для групп обсуждения
type GroupService interface {
	ListGroups(ctx context.Context, issueID string) ([]*models.Group, error)
	CreateGroup(ctx context.Context, issueID, name, creatorID string) (*models.Group, error)
	JoinGroup(ctx context.Context, groupID, userID string) (*models.Group, error)
	LeaveGroup(ctx context.Context, groupID, userID string) (*models.Group, error)
}

// ChatService определяет контракт для чата группы
type ChatService interface {
	ListMessages(ctx context.Context, groupID string) ([]*models.ChatMessage, error)
	SendMessage(ctx context.Context, msg *models.ChatMessage) error
	StreamMessages(ctx context.Context, groupID string) (<-chan *models.ChatMessage, error)
}

// UserService определяет контракт для регистрации отображаемого имени
type UserService interface {
	CreateUser(ctx context.Context, username string) (*models.User, error)
}
