// Package feed держит локальную копию коллекции проблем, обновляемую опросом или потоком
package feed

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyStarted = errors.New("feed already started")
	ErrStopped        = errors.New("feed stopped")
)

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Strategy доставляет полные снимки коллекции в apply, пока ctx не отменен
type Strategy interface {
	Name() string
	Run(ctx context.Context, apply func([]*models.Issue), log *logrus.Entry)
}

// Observer получает собственную копию нового снимка
type Observer func([]*models.Issue)

// Feed - зеркало коллекции проблем. Снимок заменяется целиком на каждом
// успешном обновлении; ошибки оставляют последний удачный снимок
type Feed struct {
	strategy Strategy
	logger   *logrus.Logger

	mu        sync.Mutex
	state     state
	issues    []*models.Issue
	observers map[int]Observer
	nextID    int
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(strategy Strategy, logger *logrus.Logger) *Feed {
	return &Feed{
		strategy:  strategy,
		logger:    logger,
		observers: make(map[int]Observer),
	}
}

// Start запускает стратегию. Повторный запуск и запуск после Stop возвращают ошибку
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case stateRunning:
		return ErrAlreadyStarted
	case stateStopped:
		return ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	f.state = stateRunning

	log := f.logger.WithField("strategy", f.strategy.Name())
	log.Info("Starting issue feed")

	done := f.done
	go func() {
		defer close(done)
		f.strategy.Run(runCtx, f.apply, log)
		log.Info("Issue feed stopped")
	}()
	return nil
}

// Stop отменяет стратегию и ждет ее завершения. Результаты, пришедшие после
// Stop, отбрасываются. Повторный вызов ничего не делает
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.state != stateRunning {
		f.state = stateStopped
		f.mu.Unlock()
		return
	}
	f.state = stateStopped
	f.cancel()
	done := f.done
	f.mu.Unlock()

	<-done
}

// Snapshot возвращает копию последнего удачного снимка
func (f *Feed) Snapshot() []*models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.issues)
}

// Subscribe регистрирует наблюдателя; возвращенная функция снимает подписку
func (f *Feed) Subscribe(fn Observer) func() {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.observers[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.observers, id)
			f.mu.Unlock()
		})
	}
}

// apply фиксирует снимок, если лента еще жива, и уведомляет наблюдателей
func (f *Feed) apply(issues []*models.Issue) {
	snapshot := Dedupe(issues)

	f.mu.Lock()
	if f.state != stateRunning {
		f.mu.Unlock()
		return
	}
	f.issues = snapshot
	observers := make([]Observer, 0, len(f.observers))
	for _, fn := range f.observers {
		observers = append(observers, fn)
	}
	f.mu.Unlock()

	for _, fn := range observers {
		fn(slices.Clone(snapshot))
	}
}

// Dedupe убирает повторы по id, оставляя первое вхождение и сохраняя порядок
func Dedupe(issues []*models.Issue) []*models.Issue {
	seen := make(map[string]struct{}, len(issues))
	out := make([]*models.Issue, 0, len(issues))
	for _, issue := range issues {
		if issue == nil {
			continue
		}
		if _, ok := seen[issue.ID]; ok {
			continue
		}
		seen[issue.ID] = struct{}{}
		out = append(out, issue)
	}
	return out
}
