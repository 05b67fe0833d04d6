// Package chatsync держит локальную ленту сообщений группы. Сообщения приходят
// из ответов на отправку, опроса и потока и хранятся один раз по id
package chatsync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shenikar/civic_issue_map/internal/config"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/session"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyMessage   = errors.New("message text is empty")
	ErrAlreadyFollows = errors.New("room is already followed")
)

const (
	DefaultPollInterval = 3 * time.Second
	streamBackoff       = time.Second
	maxStreamBackoff    = 30 * time.Second
)

// Source - API чата группы
type Source interface {
	ListMessages(ctx context.Context, groupID string) ([]*models.ChatMessage, error)
	SendMessage(ctx context.Context, groupID, senderID, text string, senderName *string) (*models.ChatMessage, error)
	StreamMessages(ctx context.Context, groupID string, fn func(*models.ChatMessage)) error
}

type Room struct {
	groupID string
	source  Source
	logger  *logrus.Entry

	mu        sync.Mutex
	messages  []*models.ChatMessage
	seen      map[string]struct{}
	observers map[int]func(*models.ChatMessage)
	nextID    int
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRoom(groupID string, source Source, logger *logrus.Logger) *Room {
	return &Room{
		groupID:   groupID,
		source:    source,
		logger:    logger.WithField("group_id", groupID),
		seen:      make(map[string]struct{}),
		observers: make(map[int]func(*models.ChatMessage)),
	}
}

func (r *Room) GroupID() string { return r.groupID }

// Load подтягивает историю сообщений
func (r *Room) Load(ctx context.Context) error {
	msgs, err := r.source.ListMessages(ctx, r.groupID)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	r.Merge(msgs...)
	return nil
}

// Send отправляет сообщение от имени сессии. При ошибке локальная лента не меняется
func (r *Room) Send(ctx context.Context, sess session.Session, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if sess.IsZero() {
		return nil, session.ErrNoIdentity
	}

	msg, err := r.source.SendMessage(ctx, r.groupID, sess.UserID(), text, sess.SenderName())
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	r.Merge(msg)
	return msg, nil
}

// Merge добавляет неизвестные сообщения и возвращает добавленные.
// Лента упорядочена по времени создания, при равенстве - по порядку поступления
func (r *Room) Merge(msgs ...*models.ChatMessage) []*models.ChatMessage {
	r.mu.Lock()
	var added []*models.ChatMessage
	for _, msg := range msgs {
		if msg == nil || msg.ID == "" || msg.GroupID != "" && msg.GroupID != r.groupID {
			continue
		}
		if _, ok := r.seen[msg.ID]; ok {
			continue
		}
		r.seen[msg.ID] = struct{}{}
		r.messages = append(r.messages, msg)
		added = append(added, msg)
	}
	if len(added) > 0 {
		sort.SliceStable(r.messages, func(i, j int) bool {
			return r.messages[i].CreatedAt.Before(r.messages[j].CreatedAt.Time)
		})
	}
	observers := make([]func(*models.ChatMessage), 0, len(r.observers))
	for _, fn := range r.observers {
		observers = append(observers, fn)
	}
	r.mu.Unlock()

	for _, msg := range added {
		for _, fn := range observers {
			fn(msg)
		}
	}
	return added
}

// Messages возвращает копию ленты
func (r *Room) Messages() []*models.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages)
}

// Subscribe вызывает fn для каждого нового сообщения
func (r *Room) Subscribe(fn func(*models.ChatMessage)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.observers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// Follow запускает получение новых сообщений опросом или потоком.
// Останавливается через Stop или отмену ctx
func (r *Room) Follow(ctx context.Context, mode string, interval time.Duration) error {
	if err := config.ValidateMode(mode); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return ErrAlreadyFollows
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done

	go func() {
		defer close(done)
		if mode == config.FeedModeStream {
			r.stream(runCtx)
			return
		}
		r.poll(runCtx, interval)
	}()
	return nil
}

// Stop прекращает получение и ждет завершения
func (r *Room) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Room) poll(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	for {
		msgs, err := r.source.ListMessages(ctx, r.groupID)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			r.logger.WithError(err).Warn("Failed to poll messages")
		default:
			r.Merge(msgs...)
		}

		if !sleep(ctx, interval) {
			return
		}
	}
}

func (r *Room) stream(ctx context.Context) {
	delay := streamBackoff
	for {
		// сообщения, пропущенные между переподключениями
		if err := r.Load(ctx); err != nil && ctx.Err() == nil {
			r.logger.WithError(err).Warn("Failed to refresh messages before subscribing")
		}

		delivered := false
		err := r.source.StreamMessages(ctx, r.groupID, func(msg *models.ChatMessage) {
			delivered = true
			r.Merge(msg)
		})
		if ctx.Err() != nil {
			return
		}
		if delivered {
			delay = streamBackoff
		}

		r.logger.WithError(err).WithField("retry_in", delay.String()).Warn("Message stream interrupted")
		if !sleep(ctx, delay) {
			return
		}
		delay = min(delay*2, maxStreamBackoff)
	}
}

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
