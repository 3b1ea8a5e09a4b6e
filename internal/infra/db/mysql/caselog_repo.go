package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/chestlogic/internal/application"
	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// CaseLogRepository stores records in a table with
// id CHAR(36) and created_at DATETIME(6).
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

// Insert writes the record in one statement. MySQL has no RETURNING, so id and
// created_at are assigned here rather than read back.
func (r *CaseLogRepository) Insert(ctx context.Context, userInput, aiOutput string) (*domain.Record, error) {
	rec := &domain.Record{
		ID:        domain.RecordID(uuid.NewString()),
		CreatedAt: r.clock.Now().UTC().Truncate(time.Microsecond),
		UserInput: userInput,
		AIOutput:  aiOutput,
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, created_at, user_input, ai_output) VALUES (?,?,?,?)`, r.table)
	if _, err := r.db.ExecContext(ctx, q, string(rec.ID), rec.CreatedAt, userInput, aiOutput); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAll returns every record ordered by created_at desc
func (r *CaseLogRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	q := fmt.Sprintf(`
SELECT id, created_at, user_input, ai_output, admin_feedback
FROM %s
ORDER BY created_at DESC;`, r.table)

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var id string
		var feedback sql.NullString
		if err := rows.Scan(&id, &rec.CreatedAt, &rec.UserInput, &rec.AIOutput, &feedback); err != nil {
			return nil, err
		}
		rec.ID = domain.RecordID(id)
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
