package pipeline_test

import (
	"context"
	"sync"

	"github.com/dvloznov/finance-ingest/internal/extraction"
	"github.com/dvloznov/finance-ingest/internal/pipeline"
)

// MockExtractor is a mock implementation of extraction.Client for testing.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, req extraction.Request) (*extraction.Result, error)

	mu    sync.Mutex
	calls []extraction.Request
}

func (m *MockExtractor) Extract(ctx context.Context, req extraction.Request) (*extraction.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, req)
	}
	return nil, &extraction.Error{Kind: req.Kind, Op: "mock", Err: context.Canceled}
}

func (m *MockExtractor) Calls() []extraction.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]extraction.Request(nil), m.calls...)
}

// MockRecorder is a mock implementation of pipeline.Recorder for testing.
type MockRecorder struct {
	RecordRunFunc func(ctx context.Context, run pipeline.Run) error

	mu   sync.Mutex
	runs []pipeline.Run
}

func (m *MockRecorder) RecordRun(ctx context.Context, run pipeline.Run) error {
	m.mu.Lock()
	m.runs = append(m.runs, run)
	m.mu.Unlock()

	if m.RecordRunFunc != nil {
		return m.RecordRunFunc(ctx, run)
	}
	return nil
}

func (m *MockRecorder) Runs() []pipeline.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pipeline.Run(nil), m.runs...)
}

// decoded returns an extractor that answers every call with raw decoded
// through the real schema validation.
func decoded(raw string) *MockExtractor {
	return &MockExtractor{
		ExtractFunc: func(ctx context.Context, req extraction.Request) (*extraction.Result, error) {
			res, err := extraction.Decode(req.Kind, raw)
			if err != nil {
				return nil, &extraction.Error{Kind: req.Kind, Op: "decode response", Err: err}
			}
			res.Model = "mock-model"
			res.Usage = extraction.Usage{InputTokens: 10, OutputTokens: 5}
			return res, nil
		},
	}
}
