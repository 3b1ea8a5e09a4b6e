package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/chestlogic/internal/application"
	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// CaseLogRepository is the local/dev store. created_at is kept as unix nanos
// so ordering does not depend on text formatting.
type CaseLogRepository struct {
	db    *sql.DB
	table string
	clock application.Clock
}

func NewCaseLogRepository(db *sql.DB, table string, clock application.Clock) *CaseLogRepository {
	if table == "" {
		table = domain.DefaultTable
	}
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &CaseLogRepository{db: db, table: table, clock: clock}
}

// EnsureSchema creates the table when it does not exist yet.
func (r *CaseLogRepository) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id             TEXT PRIMARY KEY,
  created_at     INTEGER NOT NULL,
  user_input     TEXT NOT NULL,
  ai_output      TEXT NOT NULL,
  admin_feedback TEXT
);`, r.table)
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *CaseLogRepository) Insert(ctx context.Context, userInput, aiOutput string) (*domain.Record, error) {
	rec := &domain.Record{
		ID:        domain.RecordID(uuid.NewString()),
		CreatedAt: r.clock.Now().UTC(),
		UserInput: userInput,
		AIOutput:  aiOutput,
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, user_input, ai_output) VALUES (?,?,?,?)`, r.table)
	if _, err := r.db.ExecContext(ctx, q, string(rec.ID), rec.CreatedAt.UnixNano(), userInput, aiOutput); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *CaseLogRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	q := fmt.Sprintf(`
SELECT id, created_at, user_input, ai_output, admin_feedback
FROM %s
ORDER BY created_at DESC, rowid DESC;`, r.table)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var id string
		var created int64
		var feedback sql.NullString
		if err := rows.Scan(&id, &created, &rec.UserInput, &rec.AIOutput, &feedback); err != nil {
			return nil, err
		}
		rec.ID = domain.RecordID(id)
		rec.CreatedAt = time.Unix(0, created).UTC()
		rec.AdminFeedback = feedback.String
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *CaseLogRepository) UpdateFeedback(ctx context.Context, id domain.RecordID, feedback string) error {
	q := fmt.Sprintf(`UPDATE %s SET admin_feedback=? WHERE id=?`, r.table)
	_, err := r.db.ExecContext(ctx, q, feedback, string(id))
	return err
}

func (r *CaseLogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
