package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/webhook"
	"github.com/sirupsen/logrus"
)

type issueService struct {
	repo        IssueRepository
	classifier  Classifier
	broadcaster Broadcaster
	webhooks    webhook.WebhookPublisher
	logger      *logrus.Logger
	cfg         *config.Config
	now         func() time.Time

	// cacheMu защищает cacheGen. Поколение растет при каждом изменении,
	// кеш пишется только снимком, прочитанным в текущем поколении
	cacheMu  sync.Mutex
	cacheGen uint64
}

// NewIssueService создает сервис проблем. classifier может быть nil:
// тогда новые проблемы сохраняются без автоматической категории.
func NewIssueService(repo IssueRepository, classifier Classifier, broadcaster Broadcaster, webhooks webhook.WebhookPublisher, logger *logrus.Logger, cfg *config.Config) IssueService {
	return &issueService{
		repo:        repo,
		classifier:  classifier,
		broadcaster: broadcaster,
		webhooks:    webhooks,
		logger:      logger,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ListIssues возвращает все проблемы, сначала новые. Читает из кеша, при промахе - из бд
func (s *issueService) ListIssues(ctx context.Context) ([]*models.Issue, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "issue",
		"method":  "ListIssues",
	})

	cached, err := s.repo.GetListFromCache(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to read issues from cache, falling back to database")
	} else if cached != nil {
		log.WithField("count", len(cached)).Debug("Issues served from cache")
		return cached, nil
	}

	gen := s.cacheGeneration()
	issues, err := s.repo.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list issues from repository")
		return nil, fmt.Errorf("service: could not list issues: %w", err)
	}

	s.fillCache(ctx, gen, issues, log)

	log.WithField("count", len(issues)).Debug("Issues listed successfully")
	return issues, nil
}

// GetIssue получает проблему по ID
func (s *issueService) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithField("issue_id", id).WithError(err).Warn("Failed to get issue from repository")
		return nil, fmt.Errorf("service: could not get issue: %w", err)
	}
	return issue, nil
}

// CreateIssue сохраняет новую проблему, обновляет кеш и оповещает подписчиков
func (s *issueService) CreateIssue(ctx context.Context, issue *models.Issue) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "issue",
		"method":  "CreateIssue",
		"title":   issue.Title,
	})
	log.Info("Attempting to create a new issue")

	issue.ID = uuid.NewString()
	issue.CreatedAt = models.NewMillis(s.now())

	if issue.Category == "" && issue.ImageURL != nil && *issue.ImageURL != "" {
		issue.Category = s.annotate(ctx, *issue.ImageURL, log)
	}
	issue.ApplyDefaults()

	if err := s.repo.Create(ctx, issue); err != nil {
		log.WithError(err).Error("Failed to create issue in repository")
		return fmt.Errorf("service: could not create issue: %w", err)
	}
	log = log.WithField("issue_id", issue.ID)

	s.afterChange(ctx, log)
	if err := s.webhooks.Publish(ctx, webhook.NewIssueEvent(webhook.EventIssueCreated, issue, s.now())); err != nil {
		log.WithError(err).Warn("Failed to publish issue.created webhook")
	}

	log.WithField("category", issue.Category).Info("Issue created successfully")
	return nil
}

// DeleteIssue удаляет проблему (администрирование)
func (s *issueService) DeleteIssue(ctx context.Context, id string) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "issue",
		"method":   "DeleteIssue",
		"issue_id": id,
	})
	log.Info("Attempting to delete issue")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent issue")
		return fmt.Errorf("service: issue with id %s not found for delete: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete issue in repository")
		return fmt.Errorf("service: could not delete issue: %w", err)
	}

	s.afterChange(ctx, log)
	if err := s.webhooks.Publish(ctx, webhook.NewIssueEvent(webhook.EventIssueDeleted, existing, s.now())); err != nil {
		log.WithError(err).Warn("Failed to publish issue.deleted webhook")
	}

	log.Info("Issue deleted successfully")
	return nil
}

// AnalyzeImage классифицирует изображение; ошибки классификатора возвращаются вызывающему
func (s *issueService) AnalyzeImage(ctx context.Context, imageURL string) (*models.Classification, error) {
	if s.classifier == nil {
		return nil, ErrClassifierUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ClassifierTimeout)
	defer cancel()

	result, err := s.classifier.Classify(ctx, imageURL)
	if err != nil {
		s.logger.WithField("image_url", imageURL).WithError(err).Warn("Image classification failed")
		return nil, fmt.Errorf("service: %w: %w", ErrClassification, err)
	}
	return result, nil
}

// StreamIssues возвращает канал полных снимков: сначала текущий, затем по одному на изменение.
// Канал закрывается при отмене ctx или обрыве подписки.
func (s *issueService) StreamIssues(ctx context.Context) (<-chan []*models.Issue, error) {
	// Подписываемся до чтения снимка, чтобы не потерять изменение между ними
	updates, err := s.broadcaster.SubscribeIssues(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: could not subscribe to issues: %w", err)
	}

	initial, err := s.ListIssues(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []*models.Issue, 1)
	out <- initial
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-updates:
				if !ok {
					return
				}
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// annotate - классификация по принципу best-effort: любая ошибка дает unverified
func (s *issueService) annotate(ctx context.Context, imageURL string, log *logrus.Entry) models.Category {
	result, err := s.AnalyzeImage(ctx, imageURL)
	if err != nil {
		if errors.Is(err, ErrClassifierUnavailable) {
			log.Debug("Classifier not configured, saving issue as unverified")
		} else {
			log.WithError(err).Warn("Image analysis failed, saving issue as unverified")
		}
		return models.CategoryUnverified
	}
	return result.Category
}

// afterChange перечитывает коллекцию, обновляет кеш и публикует снимок.
// Ошибки только логируются: запись уже сохранена, клиенты догонят опросом.
func (s *issueService) afterChange(ctx context.Context, log *logrus.Entry) {
	s.cacheMu.Lock()
	s.cacheGen++
	gen := s.cacheGen
	s.cacheMu.Unlock()

	if err := s.repo.InvalidateListCache(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate issues cache")
	}

	issues, err := s.repo.List(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to reload issues after change")
		return
	}
	s.fillCache(ctx, gen, issues, log)
	if err := s.broadcaster.PublishIssues(ctx, issues); err != nil {
		log.WithError(err).Warn("Failed to publish issues snapshot")
	}
}

func (s *issueService) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fillCache пишет снимок в кеш, если с момента его чтения не было изменений
func (s *issueService) fillCache(ctx context.Context, gen uint64, issues []*models.Issue, log *logrus.Entry) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if gen != s.cacheGen {
		log.Debug("Issues changed during read, skipping stale cache fill")
		return
	}
	if err := s.repo.SetListCache(ctx, issues); err != nil {
		log.WithError(err).Warn("Failed to cache issues")
	}
}
