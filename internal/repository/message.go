package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) service.MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение чата
func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, group_id, sender_id, sender_name, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, msg.ID, msg.GroupID, msg.SenderID, msg.SenderName, msg.Text, msg.CreatedAt.Time)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByGroup возвращает историю группы по возрастанию времени
func (r *MessageRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.ChatMessage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, group_id, sender_id, sender_name, text, created_at
		FROM messages
		WHERE group_id = $1
		ORDER BY created_at ASC, id ASC;
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	msgs := make([]*models.ChatMessage, 0)
	for rows.Next() {
		var (
			msg       models.ChatMessage
			createdAt time.Time
		)
		if err := rows.Scan(&msg.ID, &msg.GroupID, &msg.SenderID, &msg.SenderName, &msg.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.CreatedAt = models.NewMillis(createdAt)
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return msgs, nil
}
