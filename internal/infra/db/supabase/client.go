// Package supabase talks to a Supabase project's PostgREST endpoint.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// CaseLogRepository implements the case log port over the REST API.
type CaseLogRepository struct {
	baseURL string
	key     string
	table   string
	hc      *http.Client
	logger  *zap.Logger
}

// NewCaseLogRepository builds a repository for projectURL (https://<ref>.supabase.co).
// A nil client means http.DefaultClient; a nil logger discards.
func NewCaseLogRepository(projectURL, key, table string, hc *http.Client, logger *zap.Logger) *CaseLogRepository {
	if table == "" {
		table = domain.DefaultTable
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaseLogRepository{
		baseURL: strings.TrimRight(projectURL, "/") + "/rest/v1/",
		key:     key,
		table:   table,
		hc:      hc,
		logger:  logger,
	}
}

// row is the wire shape of one table row. ids may be numeric or uuid.
type row struct {
	ID            json.RawMessage `json:"id"`
	CreatedAt     string          `json:"created_at"`
	UserInput     string          `json:"user_input"`
	AIOutput      string          `json:"ai_output"`
	AdminFeedback *string         `json:"admin_feedback"`
}

// record converts the row. An unreadable created_at is logged and left zero
// so one bad row does not hide the rest.
func (r row) record(logger *zap.Logger) *domain.Record {
	rec := &domain.Record{
		ID:        domain.RecordID(rawID(r.ID)),
		UserInput: r.UserInput,
		AIOutput:  r.AIOutput,
	}
	if r.AdminFeedback != nil {
		rec.AdminFeedback = *r.AdminFeedback
	}
	if r.CreatedAt != "" {
		t, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			logger.Warn("unreadable created_at", zap.String("id", string(rec.ID)), zap.Error(err))
		} else {
			rec.CreatedAt = t
		}
	}
	return rec
}

func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	v := strings.TrimSpace(string(raw))
	if v == "null" {
		return ""
	}
	return v
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts timestamptz and timestamp renderings.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("supabase: unrecognised created_at %q", s)
}

// Insert posts one row and asks for it back so the store-assigned fields are known.
func (r *CaseLogRepository) Insert(ctx context.Context, userInput, aiOutput string) (*domain.Record, error) {
	body := map[string]string{"user_input": userInput, "ai_output": aiOutput}
	var rows []row
	if err := r.do(ctx, http.MethodPost, nil, body, "return=representation", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		// representation disabled by a policy: keep what we sent
		return &domain.Record{UserInput: userInput, AIOutput: aiOutput}, nil
	}
	return rows[0].record(r.logger), nil
}

// ListAll selects every row ordered by created_at desc.
func (r *CaseLogRepository) ListAll(ctx context.Context) ([]*domain.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")

	var rows []row
	if err := r.do(ctx, http.MethodGet, q, nil, "", &rows); err != nil {
		return nil, err
	}
	out := make([]*domain.Record, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.record(r.logger))
	}
	return out, nil
}

// UpdateFeedback patches admin_feedback on the row matching id.
func (r *CaseLogRepository) UpdateFeedback(ctx context.Context, id domain.RecordID, feedback string) error {
	q := url.Values{}
	q.Set("id", "eq."+string(id))
	body := map[string]string{"admin_feedback": feedback}
	return r.do(ctx, http.MethodPatch, q, body, "return=minimal", nil)
}

// Ping issues the cheapest select the table allows.
func (r *CaseLogRepository) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	var rows []json.RawMessage
	return r.do(ctx, http.MethodGet, q, nil, "", &rows)
}

func (r *CaseLogRepository) do(ctx context.Context, method string, query url.Values, body any, prefer string, out any) error {
	endpoint := r.baseURL + r.table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := r.hc.Do(req)
	if err != nil {
		return fmt.Errorf("supabase %s %s: %w", method, r.table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Method: method, Table: r.table, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("supabase %s %s: read body: %w", method, r.table, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase %s %s: decode: %w", method, r.table, err)
	}
	return nil
}

// APIError is a non-2xx answer from PostgREST.
type APIError struct {
	Method     string
	Table      string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("supabase %s %s: status %d: %s", e.Method, e.Table, e.StatusCode, e.Body)
}
