package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shenikar/civic_issue_map/internal/models"
)

const (
	eventSnapshot = "snapshot"
	eventMessage  = "message"
)

// ErrStreamClosed - сервер закрыл поток без ошибки
var ErrStreamClosed = errors.New("stream closed by server")

// Event - событие Server-Sent Events
type Event struct {
	Type string
	Data string
}

// EventScanner читает события SSE. Комментарии и неизвестные поля пропускаются,
// несколько строк data склеиваются через перевод строки
type EventScanner struct {
	reader  *bufio.Reader
	current Event
	err     error
}

func NewEventScanner(r io.Reader) *EventScanner {
	return &EventScanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

// Next переходит к следующему событию; false в конце потока или при ошибке
func (s *EventScanner) Next() bool {
	if s.err != nil {
		return false
	}

	var (
		eventType string
		data      []string
		hasData   bool
	)
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && line == "" {
			s.err = err
			if errors.Is(err, io.EOF) && hasData {
				s.current = Event{Type: eventType, Data: strings.Join(data, "\n")}
				return true
			}
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				s.current = Event{Type: eventType, Data: strings.Join(data, "\n")}
				return true
			}
			eventType = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
			hasData = true
		}
	}
}

func (s *EventScanner) Event() Event {
	return s.current
}

// Err возвращает ошибку чтения; nil при штатном EOF
func (s *EventScanner) Err() error {
	if errors.Is(s.err, io.EOF) {
		return nil
	}
	return s.err
}

// StreamIssues подписывается на снимки коллекции и вызывает fn на каждый.
// Блокирует до отмены ctx (возвращает ctx.Err()) или обрыва потока
func (c *Client) StreamIssues(ctx context.Context, fn func([]*models.Issue)) error {
	return c.stream(ctx, "/issues/stream", func(ev Event) error {
		if ev.Type != eventSnapshot {
			return nil
		}
		var issues []*models.Issue
		if err := json.Unmarshal([]byte(ev.Data), &issues); err != nil {
			return fmt.Errorf("failed to decode snapshot event: %w", err)
		}
		fn(issues)
		return nil
	})
}

// StreamMessages подписывается на новые сообщения группы
func (c *Client) StreamMessages(ctx context.Context, groupID string, fn func(*models.ChatMessage)) error {
	return c.stream(ctx, "/groups/"+url.PathEscape(groupID)+"/stream", func(ev Event) error {
		if ev.Type != eventMessage {
			return nil
		}
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
			return fmt.Errorf("failed to decode message event: %w", err)
		}
		fn(&msg)
		return nil
	})
}

func (c *Client) stream(ctx context.Context, path string, handle func(Event) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.MethodGet, path); err != nil {
		return err
	}

	scanner := NewEventScanner(resp.Body)
	for scanner.Next() {
		if err := handle(scanner.Event()); err != nil {
			c.logger.WithError(err).WithField("path", path).Warn("Skipping malformed stream event")
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return ErrStreamClosed
}
