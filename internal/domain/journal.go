package domain

import (
	"context"
	"time"
)

// Journal persists the pre-rewrite content of every file a fixer overwrites,
// so a run can be listed and undone later.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
	List(ctx context.Context, limit int) ([]JournalEntry, error)
	Latest(ctx context.Context, path string) (*JournalEntry, error)
	Close() error
}

type JournalEntry struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	Fixer      string    `json:"fixer"`
	Changes    int       `json:"changes"`
	Skipped    int       `json:"skipped"`
	Original   string    `json:"-"`
	ResultHash string    `json:"result_hash"` // sha256 of the content written
	CreatedAt  time.Time `json:"created_at"`
}
