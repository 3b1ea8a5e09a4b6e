package caselog

import "context"

// Repository port for the analysis log table
type Repository interface {
	Insert(ctx context.Context, userInput, aiOutput string) (*Record, error)
	ListAll(ctx context.Context) ([]*Record, error)
	UpdateFeedback(ctx context.Context, id RecordID, feedback string) error
}

// Archive port for exporting snapshots of the log table
type Archive interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}
