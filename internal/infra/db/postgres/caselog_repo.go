package postgres

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// CaseLogRepository expects the table to assign id and created_at by default
// (identity or gen_random_uuid(), and now()).
type CaseLogRepository struct {
	db    *sql.DB
	table string
}

func NewCaseLogRepository(db *sql.DB, table string) *CaseLogRepository {
	if table == "" {
		table = domain.DefaultTable
	}
	return &CaseLogRepository{db: db, table: table}
}

// Insert creates one record and reads back the store-assigned columns
func (r *CaseLogRepository) Insert(ctx context.Context, userInput, aiOutput string) (*domain.Record, error) {
	q := fmt.Sprintf(`
INSERT INTO %s (user_input, ai_output)
VALUES ($1, $2)
RETURNING id, created_at;`, r.table)

	// id may be bigint identity or uuid, scan through a string either way
	var id string
	rec := &domain.Record{UserInput: userInput, AIOutput: aiOutput}
	if err := r.db.QueryRowContext(ctx, q, userInput, aiOutput).Scan(&id, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.ID = domain.RecordID(id)
	return rec, nil
}

// ListAll returns every record, newest first
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

// UpdateFeedback overwrites admin_feedback; an unknown id updates nothing
func (r *CaseLogRepository) UpdateFeedback(ctx context.Context, id domain.RecordID, feedback string) error {
	q := fmt.Sprintf(`UPDATE %s SET admin_feedback = $1 WHERE id = $2;`, r.table)
	_, err := r.db.ExecContext(ctx, q, feedback, string(id))
	return err
}

func (r *CaseLogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
