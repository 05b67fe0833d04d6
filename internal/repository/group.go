package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
)

type GroupRepository struct {
	db *pgxpool.Pool
}

func NewGroupRepository(db *pgxpool.Pool) service.GroupRepository {
	return &GroupRepository{db: db}
}

// Участники агрегируются в порядке вступления
const selectGroupColumns = `
	SELECT
		g.id,
		g.issue_id,
		g.name,
		g.created_by,
		g.created_at,
		COALESCE(
			ARRAY_AGG(m.user_id ORDER BY m.joined_at) FILTER (WHERE m.user_id IS NOT NULL),
			'{}'
		) AS members
	FROM groups g
	LEFT JOIN group_members m ON m.group_id = g.id
`

// Create создает группу и записывает начальных участников в одной транзакции
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx, `
		INSERT INTO groups (id, issue_id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`, group.ID, group.IssueID, group.Name, group.CreatedBy, group.CreatedAt.Time)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	for _, member := range group.Members {
		if _, err := tx.Exec(ctx, insertMemberQuery, group.ID, member); err != nil {
			return fmt.Errorf("failed to add initial group member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit group: %w", err)
	}
	return nil
}

// GetByID возвращает группу с участниками
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	row := r.db.QueryRow(ctx, selectGroupColumns+` WHERE g.id = $1 GROUP BY g.id;`, id)
	group, err := scanGroup(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group by id: %w", err)
	}
	return group, nil
}

// ListByIssue возвращает группы проблемы в порядке создания
func (r *GroupRepository) ListByIssue(ctx context.Context, issueID string) ([]*models.Group, error) {
	rows, err := r.db.Query(ctx,
		selectGroupColumns+` WHERE g.issue_id = $1 GROUP BY g.id ORDER BY g.created_at;`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group row: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return groups, nil
}

const insertMemberQuery = `
	INSERT INTO group_members (group_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (group_id, user_id) DO NOTHING;
`

// AddMember добавляет участника; повторная вставка игнорируется
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) error {
	if _, err := r.db.Exec(ctx, insertMemberQuery, groupID, userID); err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}
	return nil
}

// RemoveMember удаляет участника, если он есть
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2;`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	return nil
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	var (
		group     models.Group
		createdAt time.Time
	)
	if err := row.Scan(&group.ID, &group.IssueID, &group.Name, &group.CreatedBy, &createdAt, &group.Members); err != nil {
		return nil, err
	}
	group.NormalizeMembers()
	group.CreatedAt = models.NewMillis(createdAt)
	return &group, nil
}
