package feed

import (
	"context"
	"time"

	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPollInterval = 3 * time.Second
	DefaultBackoff      = time.Second
	maxBackoff          = 30 * time.Second
)

// Fetcher загружает всю коллекцию
type Fetcher interface {
	ListIssues(ctx context.Context) ([]*models.Issue, error)
}

// Subscriber держит поток снимков, пока ctx не отменен или поток не оборвался
type Subscriber interface {
	StreamIssues(ctx context.Context, fn func([]*models.Issue)) error
}

type polling struct {
	fetcher  Fetcher
	interval time.Duration
}

// Polling запрашивает коллекцию сразу и затем каждые interval.
// Следующий запрос уходит только после завершения предыдущего
func Polling(fetcher Fetcher, interval time.Duration) Strategy {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &polling{fetcher: fetcher, interval: interval}
}

func (p *polling) Name() string { return "poll" }

func (p *polling) Run(ctx context.Context, apply func([]*models.Issue), log *logrus.Entry) {
	for {
		issues, err := p.fetcher.ListIssues(ctx)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			log.WithError(err).Warn("Failed to fetch issues, keeping previous snapshot")
		default:
			apply(issues)
		}

		if !sleep(ctx, p.interval) {
			return
		}
	}
}

type streaming struct {
	subscriber Subscriber
	backoff    time.Duration
}

// Streaming подписывается на поток снимков и переподключается с растущей
// задержкой после обрыва. Задержка сбрасывается после первого снимка
func Streaming(subscriber Subscriber, backoff time.Duration) Strategy {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &streaming{subscriber: subscriber, backoff: backoff}
}

func (s *streaming) Name() string { return "stream" }

func (s *streaming) Run(ctx context.Context, apply func([]*models.Issue), log *logrus.Entry) {
	delay := s.backoff
	for {
		delivered := false
		err := s.subscriber.StreamIssues(ctx, func(issues []*models.Issue) {
			delivered = true
			apply(issues)
		})
		if ctx.Err() != nil {
			return
		}
		if delivered {
			delay = s.backoff
		}

		log.WithError(err).WithField("retry_in", delay.String()).Warn("Issue stream interrupted, keeping previous snapshot")
		if !sleep(ctx, delay) {
			return
		}
		delay = min(delay*2, maxBackoff)
	}
}

// sleep ждет d или отмены контекста; false, если контекст отменен
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
