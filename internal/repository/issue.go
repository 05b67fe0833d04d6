package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/shenikar/civic_issue_map/internal/service"
)

const issuesCacheKey = "issues:all"

type IssueRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIssueRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IssueRepository {
	return &IssueRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

const selectIssueColumns = `
	SELECT
		id,
		title,
		description,
		category,
		ST_X(location::geometry) AS longitude,
		ST_Y(location::geometry) AS latitude,
		image_url,
		created_at
	FROM issues
`

// Create создает новую запись о проблеме в бд. Точка без валидных координат сохраняется как NULL
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	var lon, lat *float64
	if issue.HasValidCoords() {
		x, y := issue.Lon(), issue.Lat()
		lon, lat = &x, &y
	}

	query := `
		INSERT INTO issues (id, title, description, category, location, image_url, created_at)
		VALUES (
			$1, $2, $3, $4,
			CASE WHEN $5::float8 IS NULL THEN NULL
				ELSE ST_SetSRID(ST_MakePoint($5, $6), 4326)::geography END,
			$7, $8
		);
	`
	_, err := r.db.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		string(issue.Category),
		lon,
		lat,
		issue.ImageURL,
		issue.CreatedAt.Time,
	)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

// GetByID возвращает проблему по ее UUID
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	row := r.db.QueryRow(ctx, selectIssueColumns+` WHERE id = $1;`, id)
	issue, err := scanIssue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("issue with id %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get issue by id: %w", err)
	}
	return issue, nil
}

// List возвращает все проблемы, сначала новые
func (r *IssueRepository) List(ctx context.Context) ([]*models.Issue, error) {
	rows, err := r.db.Query(ctx, selectIssueColumns+` ORDER BY created_at DESC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}
	defer rows.Close()

	issues := make([]*models.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return issues, nil
}

// Delete удаляет проблему вместе с ее группами и чатами
func (r *IssueRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM issues WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("issue with id %s not found for delete: %w", id, models.ErrNotFound)
	}
	return nil
}

// GetListFromCache пытается получить список проблем из Redis. Промах - (nil, nil)
func (r *IssueRepository) GetListFromCache(ctx context.Context) ([]*models.Issue, error) {
	val, err := r.redisClient.Get(ctx, issuesCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get issues from cache: %w", err)
	}

	issues := make([]*models.Issue, 0)
	if err := json.Unmarshal(val, &issues); err != nil {
		return nil, fmt.Errorf("failed to unmarshal issues from cache: %w", err)
	}
	return issues, nil
}

// SetListCache сохраняет список проблем в Redis
func (r *IssueRepository) SetListCache(ctx context.Context, issues []*models.Issue) error {
	if issues == nil {
		issues = []*models.Issue{}
	}
	val, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("failed to marshal issues for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, issuesCacheKey, val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set issues in cache: %w", err)
	}
	return nil
}

// InvalidateListCache удаляет список проблем из Redis кэша
func (r *IssueRepository) InvalidateListCache(ctx context.Context) error {
	if err := r.redisClient.Del(ctx, issuesCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate issues cache: %w", err)
	}
	return nil
}

func scanIssue(row pgx.Row) (*models.Issue, error) {
	var (
		issue     models.Issue
		category  string
		lon, lat  *float64
		createdAt time.Time
	)
	err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&category,
		&lon,
		&lat,
		&issue.ImageURL,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	issue.Category = models.Category(category)
	if lon != nil && lat != nil {
		issue.Coords = []float64{*lon, *lat}
	}
	issue.CreatedAt = models.NewMillis(createdAt)
	return &issue, nil
}
