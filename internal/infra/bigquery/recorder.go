// Package bigquery records extraction runs to a BigQuery audit table.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-ingest/internal/logger"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
	"google.golang.org/api/iterator"
)

// rowInserter is the part of *bigquery.Inserter the recorder uses.
type rowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// RunRecorder implements pipeline.Recorder with streaming inserts.
type RunRecorder struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
	inserter  rowInserter
}

// NewRunRecorder creates a recorder writing to projectID.datasetID.tableID.
func NewRunRecorder(ctx context.Context, projectID, datasetID, tableID string) (*RunRecorder, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRunRecorder: creating client: %w", err)
	}
	return &RunRecorder{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
		inserter:  client.Dataset(datasetID).Table(tableID).Inserter(),
	}, nil
}

// Close closes the BigQuery client connection.
func (r *RunRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// RecordRun implements pipeline.Recorder.
func (r *RunRecorder) RecordRun(ctx context.Context, run pipeline.Run) error {
	row := NewExtractionRunRow(run)
	saver := &bigquery.StructSaver{Struct: row, InsertID: row.RunID}
	if err := r.inserter.Put(ctx, saver); err != nil {
		return fmt.Errorf("RecordRun: inserting row: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("run_id", row.RunID).
		Str("status", row.Status).
		Msg("Recorded extraction run")
	return nil
}

// EnsureTable creates the audit table, partitioned by run_date, if it does
// not exist.
func (r *RunRecorder) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(ExtractionRunRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}

	table := r.client.Dataset(r.datasetID).Table(r.tableID)
	if _, err := table.Metadata(ctx); err == nil {
		return nil
	}

	meta := &bigquery.TableMetadata{
		Schema:           schema,
		TimePartitioning: &bigquery.TimePartitioning{Field: "run_date"},
		Description:      "One row per extraction call made by the ingestion pipeline.",
	}
	if err := table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating %s.%s: %w", r.datasetID, r.tableID, err)
	}
	return nil
}

// ListRuns returns the most recent runs for userID, newest first.
func (r *RunRecorder) ListRuns(ctx context.Context, userID string, limit int) ([]*ExtractionRunRow, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT *
		FROM `+"`%s.%s.%s`"+`
		WHERE user_id = @user_id
		ORDER BY started_ts DESC
		LIMIT @limit
	`, r.projectID, r.datasetID, r.tableID)

	q := r.client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRuns: reading query: %w", err)
	}

	var runs []*ExtractionRunRow
	for {
		var row ExtractionRunRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRuns: iterating: %w", err)
		}
		runs = append(runs, &row)
	}
	return runs, nil
}

// Ensure RunRecorder implements pipeline.Recorder.
var _ pipeline.Recorder = (*RunRecorder)(nil)
