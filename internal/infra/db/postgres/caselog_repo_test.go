package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase("chestlogic"),
		tcpostgres.WithUsername("chest"),
		tcpostgres.WithPassword("secret"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// createTable mirrors the hosted table: identity id, store-side created_at.
func createTable(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	_, err := db.Exec(fmt.Sprintf(`
CREATE TABLE %s (
  id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  created_at timestamptz NOT NULL DEFAULT clock_timestamp(),
  user_input text NOT NULL,
  ai_output text NOT NULL,
  admin_feedback text
)`, table))
	require.NoError(t, err)
}

func TestCaseLogRepository(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	newRepo := func(t *testing.T, table string) *CaseLogRepository {
		createTable(t, db, table)
		return NewCaseLogRepository(db, table)
	}

	t.Run("insert returns store-assigned columns", func(t *testing.T) {
		repo := newRepo(t, "logs_insert")
		before := time.Now().Add(-time.Minute)

		rec, err := repo.Insert(ctx, "52/M, cough. Findings: GGOs.", "T")

		require.NoError(t, err)
		assert.Equal(t, domain.RecordID("1"), rec.ID)
		assert.True(t, rec.CreatedAt.After(before), "created_at %s", rec.CreatedAt)
		assert.Equal(t, "52/M, cough. Findings: GGOs.", rec.UserInput)
		assert.Equal(t, "T", rec.AIOutput)
	})

	t.Run("list is newest first", func(t *testing.T) {
		repo := newRepo(t, "logs_order")
		var ids []domain.RecordID
		for _, in := range []string{"first", "second", "third"} {
			rec, err := repo.Insert(ctx, in, "out-"+in)
			require.NoError(t, err)
			ids = append(ids, rec.ID)
		}

		recs, err := repo.ListAll(ctx)

		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, []domain.RecordID{ids[2], ids[1], ids[0]},
			[]domain.RecordID{recs[0].ID, recs[1].ID, recs[2].ID})
		for i := 1; i < len(recs); i++ {
			assert.True(t, recs[i-1].CreatedAt.After(recs[i].CreatedAt))
		}
	})

	t.Run("empty table", func(t *testing.T) {
		repo := newRepo(t, "logs_empty")

		recs, err := repo.ListAll(ctx)

		require.NoError(t, err)
		assert.Empty(t, recs)
	})

	t.Run("null feedback reads as empty", func(t *testing.T) {
		repo := newRepo(t, "logs_null")
		_, err := repo.Insert(ctx, "case", "out")
		require.NoError(t, err)

		recs, err := repo.ListAll(ctx)

		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "", recs[0].AdminFeedback)
	})

	t.Run("feedback touches only the target", func(t *testing.T) {
		repo := newRepo(t, "logs_feedback")
		a, err := repo.Insert(ctx, "a", "out-a")
		require.NoError(t, err)
		b, err := repo.Insert(ctx, "b", "out-b")
		require.NoError(t, err)

		require.NoError(t, repo.UpdateFeedback(ctx, a.ID, "Correct dx."))
		require.NoError(t, repo.UpdateFeedback(ctx, "999", "ignored"))

		recs, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		byID := map[domain.RecordID]*domain.Record{recs[0].ID: recs[0], recs[1].ID: recs[1]}
		assert.Equal(t, "Correct dx.", byID[a.ID].AdminFeedback)
		assert.Equal(t, "out-a", byID[a.ID].AIOutput)
		assert.Equal(t, "", byID[b.ID].AdminFeedback)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, NewCaseLogRepository(db, "").Ping(ctx))
	})
}
