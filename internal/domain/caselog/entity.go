package caselog

import "time"

// RecordID is assigned by the store on insert
type RecordID string

// Record is one persisted case input / AI output / reviewer feedback triple
type Record struct {
	ID            RecordID  `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UserInput     string    `json:"user_input"`
	AIOutput      string    `json:"ai_output"`
	AdminFeedback string    `json:"admin_feedback"`
}

// Heading formats the creation time at minute precision for list headings.
func (r *Record) Heading() string {
	if r.CreatedAt.IsZero() {
		return "-"
	}
	return r.CreatedAt.Format("2006-01-02T15:04")
}
