package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
	"github.com/google/uuid"
)

// ExtractionRunRow is one row of the extraction_runs audit table.
type ExtractionRunRow struct {
	RunID  string     `bigquery:"run_id"`   // REQUIRED
	RunDay civil.Date `bigquery:"run_date"` // REQUIRED, partition column

	UserID     string `bigquery:"user_id"`     // REQUIRED
	FileID     string `bigquery:"file_id"`     // REQUIRED
	SourceKind string `bigquery:"source_kind"` // REQUIRED
	FileType   string `bigquery:"file_type"`   // NULLABLE

	Model bigquery.NullString `bigquery:"model"` // NULLABLE

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string              `bigquery:"status"`        // REQUIRED
	ErrorOp      bigquery.NullString `bigquery:"error_op"`      // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	TokensInput  bigquery.NullInt64 `bigquery:"tokens_input"`  // NULLABLE
	TokensOutput bigquery.NullInt64 `bigquery:"tokens_output"` // NULLABLE

	RawOutput bigquery.NullJSON `bigquery:"raw_output"` // NULLABLE
}

// NewExtractionRunRow maps a pipeline run to an audit row.
func NewExtractionRunRow(run pipeline.Run) *ExtractionRunRow {
	row := &ExtractionRunRow{
		RunID:      uuid.NewString(),
		RunDay:     civil.DateOf(run.StartedAt.UTC()),
		UserID:     run.UserID,
		FileID:     run.FileID,
		SourceKind: string(run.Kind),
		FileType:   string(run.FileType),
		StartedTS:  run.StartedAt,
		Status:     run.Status,
	}
	if run.Model != "" {
		row.Model = bigquery.NullString{StringVal: run.Model, Valid: true}
	}
	if !run.FinishedAt.IsZero() {
		row.FinishedTS = bigquery.NullTimestamp{Timestamp: run.FinishedAt, Valid: true}
	}
	if run.ErrorOp != "" {
		row.ErrorOp = bigquery.NullString{StringVal: run.ErrorOp, Valid: true}
	}
	if run.ErrorMessage != "" {
		row.ErrorMessage = bigquery.NullString{StringVal: run.ErrorMessage, Valid: true}
	}
	if run.InputTokens > 0 || run.OutputTokens > 0 {
		row.TokensInput = bigquery.NullInt64{Int64: run.InputTokens, Valid: true}
		row.TokensOutput = bigquery.NullInt64{Int64: run.OutputTokens, Valid: true}
	}
	if run.RawJSON != "" {
		row.RawOutput = bigquery.NullJSON{JSONVal: run.RawJSON, Valid: true}
	}
	return row
}
