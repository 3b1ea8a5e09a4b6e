package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func TestWithParseTime(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{"plain", "chest:secret@tcp(db:3306)/chestlogic"},
		{"explicit false", "chest:secret@tcp(db:3306)/chestlogic?parseTime=false"},
		{"already set", "chest:secret@tcp(db:3306)/chestlogic?parseTime=true&charset=utf8mb4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := withParseTime(tt.dsn)
			require.NoError(t, err)
			assert.Contains(t, got, "parseTime=true")
			assert.True(t, strings.HasPrefix(got, "chest:secret@tcp(db:3306)/chestlogic"), got)
		})
	}
}

func TestWithParseTime_BadDSN(t *testing.T) {
	_, err := withParseTime("not a dsn")
	require.Error(t, err)
}

// startMySQL returns a connection built from the container's plain DSN,
// which carries no parseTime option of its own.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping mysql container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("chestlogic"),
		tcmysql.WithUsername("chest"),
		tcmysql.WithPassword("secret"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	require.NotContains(t, dsn, "parseTime")

	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTable(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	_, err := db.Exec(fmt.Sprintf(`
CREATE TABLE %s (
  id CHAR(36) PRIMARY KEY,
  created_at DATETIME(6) NOT NULL,
  user_input TEXT NOT NULL,
  ai_output TEXT NOT NULL,
  admin_feedback TEXT NULL
)`, table))
	require.NoError(t, err)
}

func TestCaseLogRepository(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()

	newRepo := func(t *testing.T, table string) *CaseLogRepository {
		createTable(t, db, table)
		clock := &stepClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), step: time.Minute}
		return NewCaseLogRepository(db, table, clock)
	}

	t.Run("insert assigns id and timestamp", func(t *testing.T) {
		repo := newRepo(t, "logs_insert")

		rec, err := repo.Insert(ctx, "52/M, cough. Findings: GGOs.", "T")

		require.NoError(t, err)
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), rec.CreatedAt)

		recs, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, rec.ID, recs[0].ID)
		assert.True(t, rec.CreatedAt.Equal(recs[0].CreatedAt), "got %s", recs[0].CreatedAt)
		assert.Equal(t, "52/M, cough. Findings: GGOs.", recs[0].UserInput)
		assert.Equal(t, "T", recs[0].AIOutput)
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
		require.NoError(t, repo.UpdateFeedback(ctx, "no-such-id", "ignored"))

		recs, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		byID := map[domain.RecordID]*domain.Record{recs[0].ID: recs[0], recs[1].ID: recs[1]}
		assert.Equal(t, "Correct dx.", byID[a.ID].AdminFeedback)
		assert.Equal(t, "out-a", byID[a.ID].AIOutput)
		assert.Equal(t, "", byID[b.ID].AdminFeedback)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, NewCaseLogRepository(db, "", nil).Ping(ctx))
	})
}
