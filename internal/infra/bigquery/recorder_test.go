package bigquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-ingest/internal/extraction"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockInserter struct {
	PutFunc func(ctx context.Context, src interface{}) error
	rows    []interface{}
}

func (m *mockInserter) Put(ctx context.Context, src interface{}) error {
	m.rows = append(m.rows, src)
	if m.PutFunc != nil {
		return m.PutFunc(ctx, src)
	}
	return nil
}

func TestNewExtractionRunRow(t *testing.T) {
	started := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	row := NewExtractionRunRow(pipeline.Run{
		UserID:       "u1",
		FileID:       "f1",
		Kind:         extraction.KindStatement,
		Model:        "gemini-2.5-flash",
		StartedAt:    started,
		FinishedAt:   started.Add(3 * time.Second),
		Status:       pipeline.RunSucceeded,
		InputTokens:  120,
		OutputTokens: 40,
		RawJSON:      `{"transactions":[]}`,
	})

	assert.NotEmpty(t, row.RunID)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 31}, row.RunDay)
	assert.Equal(t, "statement", row.SourceKind)
	assert.True(t, row.Model.Valid)
	assert.True(t, row.FinishedTS.Valid)
	assert.Equal(t, int64(120), row.TokensInput.Int64)
	assert.True(t, row.RawOutput.Valid)
	assert.False(t, row.ErrorMessage.Valid)
}

func TestNewExtractionRunRow_Failure(t *testing.T) {
	row := NewExtractionRunRow(pipeline.Run{
		Status:       pipeline.RunFailed,
		ErrorOp:      "decode response",
		ErrorMessage: "schema validation failed: period_start: required",
		StartedAt:    time.Now(),
	})
	assert.Equal(t, "FAILED", row.Status)
	assert.True(t, row.ErrorOp.Valid)
	assert.True(t, row.ErrorMessage.Valid)
	assert.False(t, row.TokensInput.Valid)
	assert.False(t, row.RawOutput.Valid)
	assert.False(t, row.Model.Valid)
}

func TestRunRecorder_RecordRun(t *testing.T) {
	ins := &mockInserter{}
	r := &RunRecorder{inserter: ins}

	require.NoError(t, r.RecordRun(context.Background(), pipeline.Run{UserID: "u1", StartedAt: time.Now()}))
	require.Len(t, ins.rows, 1)

	saver, ok := ins.rows[0].(*bigquery.StructSaver)
	require.True(t, ok)
	row := saver.Struct.(*ExtractionRunRow)
	assert.Equal(t, row.RunID, saver.InsertID)
	assert.Equal(t, "u1", row.UserID)

	ins.PutFunc = func(context.Context, interface{}) error { return errors.New("quota exceeded") }
	err := r.RecordRun(context.Background(), pipeline.Run{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExtractionRunRow_Schema(t *testing.T) {
	schema, err := bigquery.InferSchema(ExtractionRunRow{})
	require.NoError(t, err)

	names := make([]string, 0, len(schema))
	for _, f := range schema {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "run_date")
	assert.Contains(t, names, "raw_output")
	assert.Contains(t, names, "tokens_input")
}
