package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service/mocks"
	"github.com/shenikar/civic_issue_map/internal/webhook"
	webhook_mocks "github.com/shenikar/civic_issue_map/internal/webhook/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type issueServiceDeps struct {
	repo        *mocks.MockIssueRepository
	classifier  *mocks.MockClassifier
	broadcaster *mocks.MockBroadcaster
	webhooks    *webhook_mocks.MockWebhookPublisher
}

// newTestIssueService - вспомогательная функция для создания инстанса сервиса с моками.
func newTestIssueService(t *testing.T, withClassifier bool) (*issueService, issueServiceDeps) {
	ctrl := gomock.NewController(t)
	deps := issueServiceDeps{
		repo:        mocks.NewMockIssueRepository(ctrl),
		broadcaster: mocks.NewMockBroadcaster(ctrl),
		webhooks:    webhook_mocks.NewMockWebhookPublisher(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{ClassifierTimeout: time.Second}

	var classifier Classifier
	if withClassifier {
		deps.classifier = mocks.NewMockClassifier(ctrl)
		classifier = deps.classifier
	}

	svc := NewIssueService(deps.repo, classifier, deps.broadcaster, deps.webhooks, logger, cfg)
	return svc.(*issueService), deps
}

// expectAfterChange - ожидания перечитывания коллекции после изменения
func expectAfterChange(ctx context.Context, deps issueServiceDeps, snapshot []*models.Issue) {
	deps.repo.EXPECT().InvalidateListCache(ctx).Return(nil).Times(1)
	deps.repo.EXPECT().List(ctx).Return(snapshot, nil).Times(1)
	deps.repo.EXPECT().SetListCache(ctx, snapshot).Return(nil).Times(1)
	deps.broadcaster.EXPECT().PublishIssues(ctx, snapshot).Return(nil).Times(1)
}

func TestListIssues_FromCache(t *testing.T) {
	// Подготовка
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	cached := []*models.Issue{{ID: "i1", Title: "Из кеша"}}

	// Ожидания
	deps.repo.EXPECT().GetListFromCache(ctx).Return(cached, nil).Times(1)

	// Действие
	issues, err := service.ListIssues(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, cached, issues)
}

func TestListIssues_FromDB(t *testing.T) {
	// Подготовка
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	stored := []*models.Issue{{ID: "i1"}, {ID: "i2"}}

	// Ожидания
	// 1. Промах кеша
	deps.repo.EXPECT().GetListFromCache(ctx).Return(nil, nil).Times(1)
	// 2. Чтение из БД
	deps.repo.EXPECT().List(ctx).Return(stored, nil).Times(1)
	// 3. Запись в кеш
	deps.repo.EXPECT().SetListCache(ctx, stored).Return(nil).Times(1)

	// Действие
	issues, err := service.ListIssues(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, stored, issues)
}

func TestListIssues_CacheErrorFallsBackToDB(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	stored := []*models.Issue{{ID: "i1"}}

	deps.repo.EXPECT().GetListFromCache(ctx).Return(nil, errors.New("redis down")).Times(1)
	deps.repo.EXPECT().List(ctx).Return(stored, nil).Times(1)
	deps.repo.EXPECT().SetListCache(ctx, stored).Return(errors.New("redis down")).Times(1)

	issues, err := service.ListIssues(ctx)

	require.NoError(t, err)
	assert.Equal(t, stored, issues)
}

func TestListIssues_StaleReadDoesNotOverwriteCache(t *testing.T) {
	// Подготовка
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	issue := &models.Issue{Category: models.CategoryWater, Coords: []float64{77.3, 28.7}}
	stale := []*models.Issue{{ID: "i1"}}
	fresh := []*models.Issue{issue, {ID: "i1"}}

	// Ожидания
	// 1. Читатель промахивается мимо кеша и читает бд.
	// Пока он держит старый список, проходит создание новой проблемы
	deps.repo.EXPECT().GetListFromCache(ctx).Return(nil, nil).Times(1)
	gomock.InOrder(
		deps.repo.EXPECT().List(ctx).DoAndReturn(func(ctx context.Context) ([]*models.Issue, error) {
			assert.NoError(t, service.CreateIssue(ctx, issue))
			return stale, nil
		}).Times(1),
		deps.repo.EXPECT().List(ctx).Return(fresh, nil).Times(1),
	)
	deps.repo.EXPECT().Create(ctx, issue).Return(nil).Times(1)
	deps.repo.EXPECT().InvalidateListCache(ctx).Return(nil).Times(1)
	// 2. В кеш попадает только свежий список
	deps.repo.EXPECT().SetListCache(ctx, fresh).Return(nil).Times(1)
	deps.broadcaster.EXPECT().PublishIssues(ctx, fresh).Return(nil).Times(1)
	deps.webhooks.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	// Действие
	issues, err := service.ListIssues(ctx)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, stale, issues)
}

func TestListIssues_RepositoryError(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()

	deps.repo.EXPECT().GetListFromCache(ctx).Return(nil, nil).Times(1)
	deps.repo.EXPECT().List(ctx).Return(nil, fmt.Errorf("connection refused")).Times(1)

	issues, err := service.ListIssues(ctx)

	require.Error(t, err)
	assert.Nil(t, issues)
	assert.ErrorContains(t, err, "could not list issues")
}

func TestCreateIssue_Success(t *testing.T) {
	// Подготовка
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	issue := &models.Issue{
		Category: models.CategoryWaste,
		Coords:   []float64{77.21, 28.64},
	}
	snapshot := []*models.Issue{issue}

	// Ожидания
	deps.repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, inc *models.Issue) error {
			// Сервис присваивает ID, время и заголовок по умолчанию до записи
			assert.NotEmpty(t, inc.ID)
			assert.False(t, inc.CreatedAt.IsZero())
			assert.Equal(t, models.DefaultTitle, inc.Title)
			return nil
		}).Times(1)
	expectAfterChange(ctx, deps, snapshot)
	deps.webhooks.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(_ context.Context, event webhook.WebhookEvent) {
			assert.Equal(t, webhook.EventIssueCreated, event.Type)
			assert.Equal(t, issue.ID, event.IssueID)
		}).Return(nil).Times(1)

	// Действие
	err := service.CreateIssue(ctx, issue)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, models.CategoryWaste, issue.Category)
}

func TestCreateIssue_ClassifiesImage(t *testing.T) {
	service, deps := newTestIssueService(t, true)
	ctx := context.Background()
	img := "https://img.example/leak.jpg"
	issue := &models.Issue{Title: "Протечка", Coords: []float64{77.2, 28.6}, ImageURL: &img}

	deps.classifier.EXPECT().
		Classify(gomock.Any(), img).
		Return(&models.Classification{Category: models.CategoryWater, Confidence: 0.9}, nil).
		Times(1)
	deps.repo.EXPECT().Create(ctx, issue).Return(nil).Times(1)
	expectAfterChange(ctx, deps, []*models.Issue{issue})
	deps.webhooks.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	err := service.CreateIssue(ctx, issue)

	require.NoError(t, err)
	assert.Equal(t, models.CategoryWater, issue.Category)
}

func TestCreateIssue_ClassifierFailureSavesUnverified(t *testing.T) {
	service, deps := newTestIssueService(t, true)
	ctx := context.Background()
	img := "https://img.example/blurry.jpg"
	issue := &models.Issue{Coords: []float64{77.2, 28.6}, ImageURL: &img}

	// Ошибка классификатора не блокирует сохранение
	deps.classifier.EXPECT().Classify(gomock.Any(), img).Return(nil, errors.New("timeout")).Times(1)
	deps.repo.EXPECT().Create(ctx, issue).Return(nil).Times(1)
	expectAfterChange(ctx, deps, []*models.Issue{issue})
	deps.webhooks.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	err := service.CreateIssue(ctx, issue)

	require.NoError(t, err)
	assert.Equal(t, models.CategoryUnverified, issue.Category)
}

func TestCreateIssue_ExplicitCategorySkipsClassifier(t *testing.T) {
	service, deps := newTestIssueService(t, true)
	ctx := context.Background()
	img := "https://img.example/roof.jpg"
	issue := &models.Issue{Category: models.CategoryRooftop, Coords: []float64{77.2, 28.6}, ImageURL: &img}

	deps.classifier.EXPECT().Classify(gomock.Any(), gomock.Any()).Times(0)
	deps.repo.EXPECT().Create(ctx, issue).Return(nil).Times(1)
	expectAfterChange(ctx, deps, []*models.Issue{issue})
	deps.webhooks.EXPECT().Publish(ctx, gomock.Any()).Return(nil).Times(1)

	require.NoError(t, service.CreateIssue(ctx, issue))
	assert.Equal(t, models.CategoryRooftop, issue.Category)
}

func TestCreateIssue_RepositoryError(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	issue := &models.Issue{Coords: []float64{77.2, 28.6}}

	deps.repo.EXPECT().Create(ctx, issue).Return(errors.New("insert failed")).Times(1)
	deps.broadcaster.EXPECT().PublishIssues(gomock.Any(), gomock.Any()).Times(0)
	deps.webhooks.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(0)

	err := service.CreateIssue(ctx, issue)

	require.Error(t, err)
	assert.ErrorContains(t, err, "could not create issue")
}

func TestCreateIssue_BroadcastFailureIsNotFatal(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	issue := &models.Issue{Coords: []float64{77.2, 28.6}}
	snapshot := []*models.Issue{issue}

	deps.repo.EXPECT().Create(ctx, issue).Return(nil).Times(1)
	deps.repo.EXPECT().InvalidateListCache(ctx).Return(errors.New("redis down")).Times(1)
	deps.repo.EXPECT().List(ctx).Return(snapshot, nil).Times(1)
	deps.repo.EXPECT().SetListCache(ctx, snapshot).Return(errors.New("redis down")).Times(1)
	deps.broadcaster.EXPECT().PublishIssues(ctx, snapshot).Return(errors.New("redis down")).Times(1)
	deps.webhooks.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("redis down")).Times(1)

	require.NoError(t, service.CreateIssue(ctx, issue))
}

func TestDeleteIssue_Success(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()
	existing := &models.Issue{ID: "i1", Category: models.CategoryWaste}

	deps.repo.EXPECT().GetByID(ctx, "i1").Return(existing, nil).Times(1)
	deps.repo.EXPECT().Delete(ctx, "i1").Return(nil).Times(1)
	expectAfterChange(ctx, deps, []*models.Issue{})
	deps.webhooks.EXPECT().
		Publish(ctx, gomock.Any()).
		Do(func(_ context.Context, event webhook.WebhookEvent) {
			assert.Equal(t, webhook.EventIssueDeleted, event.Type)
			assert.Equal(t, "i1", event.IssueID)
		}).Return(nil).Times(1)

	require.NoError(t, service.DeleteIssue(ctx, "i1"))
}

func TestDeleteIssue_NotFound(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx := context.Background()

	deps.repo.EXPECT().GetByID(ctx, "missing").Return(nil, fmt.Errorf("issue missing: %w", models.ErrNotFound)).Times(1)
	deps.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	err := service.DeleteIssue(ctx, "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorContains(t, err, "not found for delete")
}

func TestAnalyzeImage_NoClassifier(t *testing.T) {
	service, _ := newTestIssueService(t, false)

	result, err := service.AnalyzeImage(context.Background(), "https://img.example/1.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
}

func TestAnalyzeImage_Failure(t *testing.T) {
	service, deps := newTestIssueService(t, true)

	deps.classifier.EXPECT().Classify(gomock.Any(), "https://img.example/1.jpg").Return(nil, errors.New("bad gateway")).Times(1)

	result, err := service.AnalyzeImage(context.Background(), "https://img.example/1.jpg")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrClassification)
}

func TestStreamIssues_InitialSnapshotThenUpdates(t *testing.T) {
	service, deps := newTestIssueService(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initial := []*models.Issue{{ID: "i1"}}
	updated := []*models.Issue{{ID: "i1"}, {ID: "i2"}}
	updates := make(chan []*models.Issue, 1)

	deps.broadcaster.EXPECT().SubscribeIssues(ctx).Return((<-chan []*models.Issue)(updates), nil).Times(1)
	deps.repo.EXPECT().GetListFromCache(ctx).Return(initial, nil).Times(1)

	stream, err := service.StreamIssues(ctx)
	require.NoError(t, err)

	assert.Equal(t, initial, <-stream)
	updates <- updated
	assert.Equal(t, updated, <-stream)

	close(updates)
	_, ok := <-stream
	assert.False(t, ok)
}
