package review

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/chestlogic/internal/application"
	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// ErrArchiveDisabled is returned by Export when no archive is configured.
var ErrArchiveDisabled = errors.New("case archive not configured")

// Gate is the outcome of checking a submitted admin password.
type Gate int

const (
	// GateNone: nothing submitted, show nothing.
	GateNone Gate = iota
	// GateRejected: wrong password.
	GateRejected
	// GateGranted: exact match.
	GateGranted
)

func (g Gate) String() string {
	switch g {
	case GateRejected:
		return "rejected"
	case GateGranted:
		return "granted"
	default:
		return "none"
	}
}

// Service implements the admin review use cases. There is no session: every
// call re-checks the password it is given before touching the store.
type Service struct {
	Repo     caselog.Repository
	Password string
	Archive  caselog.Archive // optional
	Table    string          // names export objects; defaults to caselog.DefaultTable
	Clock    application.Clock
	Logger   *zap.Logger
}

// Check compares the submitted password to the configured one.
func (s *Service) Check(password string) Gate {
	if password == "" {
		return GateNone
	}
	if s.Password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1 {
		return GateGranted
	}
	return GateRejected
}

// List returns all records newest first when the gate opens; the store is not
// called otherwise.
func (s *Service) List(ctx context.Context, password string) (Gate, []*caselog.Record, error) {
	g := s.Check(password)
	if g != GateGranted {
		return g, nil, nil
	}
	recs, err := s.Repo.ListAll(ctx)
	if err != nil {
		return g, nil, fmt.Errorf("list case logs: %w", err)
	}
	return g, recs, nil
}

// SaveFeedback overwrites the reviewer feedback of one record.
func (s *Service) SaveFeedback(ctx context.Context, password string, id caselog.RecordID, feedback string) (Gate, error) {
	g := s.Check(password)
	if g != GateGranted {
		return g, nil
	}
	if err := s.Repo.UpdateFeedback(ctx, id, feedback); err != nil {
		return g, fmt.Errorf("update feedback for %s: %w", id, err)
	}
	s.logger().Info("feedback saved", zap.String("id", string(id)))
	return g, nil
}

// ArchiveEnabled reports whether Export can be used.
func (s *Service) ArchiveEnabled() bool { return s.Archive != nil }

// Export uploads a JSON snapshot of every record and returns its URL.
func (s *Service) Export(ctx context.Context, password string) (Gate, string, error) {
	g := s.Check(password)
	if g != GateGranted {
		return g, "", nil
	}
	if s.Archive == nil {
		return g, "", ErrArchiveDisabled
	}
	recs, err := s.Repo.ListAll(ctx)
	if err != nil {
		return g, "", fmt.Errorf("list case logs: %w", err)
	}
	if recs == nil {
		recs = []*caselog.Record{}
	}
	body, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return g, "", fmt.Errorf("encode export: %w", err)
	}
	key := ExportKey(s.Table, s.now())
	url, err := s.Archive.PutJSON(ctx, key, body)
	if err != nil {
		return g, "", fmt.Errorf("upload export %s: %w", key, err)
	}
	s.logger().Info("case logs exported", zap.String("key", key), zap.Int("records", len(recs)))
	return g, url, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
