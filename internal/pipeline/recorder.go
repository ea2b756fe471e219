package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/extraction"
)

// Run statuses.
const (
	RunSucceeded = "SUCCEEDED"
	RunFailed    = "FAILED"
)

// Run is the audit record of one extraction attempt.
type Run struct {
	UserID       string
	FileID       string
	Kind         extraction.SourceKind
	FileType     domain.FileType
	Model        string
	StartedAt    time.Time
	FinishedAt   time.Time
	Status       string
	ErrorOp      string
	ErrorMessage string
	InputTokens  int64
	OutputTokens int64
	RawJSON      string
}

// Recorder persists extraction audit records.
type Recorder interface {
	RecordRun(ctx context.Context, run Run) error
}
