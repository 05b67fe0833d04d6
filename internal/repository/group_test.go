package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Тесты хранилища идут против настоящей postgres со схемой из migrations
const testDatabaseEnv = "CIVIC_TEST_DATABASE_URL"

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(testDatabaseEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDatabaseEnv)
	}

	migrationURL := strings.Replace(dsn, "postgres://", "pgx5://", 1)
	migrationURL = strings.Replace(migrationURL, "postgresql://", "pgx5://", 1)
	m, err := migrate.New("file://../../migrations", migrationURL)
	require.NoError(t, err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err)
	}
	_, _ = m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// newTestGroup создает проблему и пустую группу, удаляемые после теста
func newTestGroup(t *testing.T, pool *pgxpool.Pool) *models.Group {
	t.Helper()
	ctx := context.Background()

	issueID := uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO issues (id, title) VALUES ($1, 'Membership test');`, issueID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM issues WHERE id = $1;`, issueID)
	})

	group := &models.Group{
		ID:        uuid.NewString(),
		IssueID:   issueID,
		Name:      "Cleanup",
		Members:   []string{"u0"},
		CreatedAt: models.NewMillis(time.Now().UTC()),
	}
	require.NoError(t, NewGroupRepository(pool).Create(ctx, group))
	return group
}

func TestGroupRepository_AddMemberTwiceStoresOnce(t *testing.T) {
	pool := newTestPool(t)
	repo := NewGroupRepository(pool)
	group := newTestGroup(t, pool)
	ctx := context.Background()

	require.NoError(t, repo.AddMember(ctx, group.ID, "u1"))
	require.NoError(t, repo.AddMember(ctx, group.ID, "u1"))

	var rows int
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND user_id = $2;`, group.ID, "u1").Scan(&rows)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)

	stored, err := repo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u0", "u1"}, stored.Members)
}

func TestGroupRepository_RemoveMember(t *testing.T) {
	pool := newTestPool(t)
	repo := NewGroupRepository(pool)
	group := newTestGroup(t, pool)
	ctx := context.Background()

	require.NoError(t, repo.AddMember(ctx, group.ID, "u1"))
	require.NoError(t, repo.RemoveMember(ctx, group.ID, "u1"))
	require.NoError(t, repo.RemoveMember(ctx, group.ID, "stranger"))

	stored, err := repo.GetByID(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u0"}, stored.Members)
}

func TestGroupRepository_GetByIDNotFound(t *testing.T) {
	pool := newTestPool(t)

	_, err := NewGroupRepository(pool).GetByID(context.Background(), uuid.NewString())

	assert.ErrorIs(t, err, models.ErrNotFound)
}
