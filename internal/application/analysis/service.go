package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bryanwahyu/chestlogic/internal/domain/ai"
	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

var (
	// ErrEmptyInput is returned when there is nothing to analyze.
	ErrEmptyInput = errors.New("empty case input")
	// ErrGeneration wraps every failure of the AI call.
	ErrGeneration = errors.New("ai generation failed")
)

// Service runs the case analysis use case: generate, then persist.
type Service struct {
	AI     ai.Generator
	Repo   caselog.Repository
	Logger *zap.Logger
}

// Result of one submission. Output is always set when Analyze returns no error;
// SaveErr reports a failed insert without discarding the generated text.
type Result struct {
	Output  string
	Record  *caselog.Record
	SaveErr error
}

// Saved reports whether the record reached the store.
func (r *Result) Saved() bool { return r.SaveErr == nil }

// Analyze sends the case to the AI and stores the input/output pair.
// AI failures are returned as errors; insert failures are carried in Result.SaveErr.
func (s *Service) Analyze(ctx context.Context, userInput string) (*Result, error) {
	if userInput == "" {
		return nil, ErrEmptyInput
	}

	out, err := s.AI.Generate(ctx, BuildPrompt(userInput))
	if err != nil {
		s.logger().Error("ai generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	res := &Result{Output: out}
	rec, err := s.Repo.Insert(ctx, userInput, out)
	if err != nil {
		s.logger().Warn("case log insert failed", zap.Error(err))
		res.SaveErr = fmt.Errorf("insert case log: %w", err)
		return res, nil
	}
	if rec == nil {
		rec = &caselog.Record{UserInput: userInput, AIOutput: out}
	}
	res.Record = rec
	s.logger().Info("case log recorded", zap.String("id", string(rec.ID)))
	return res, nil
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
