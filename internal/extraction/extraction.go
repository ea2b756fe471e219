// Package extraction is the boundary to the external generative model that
// turns statement and receipt files into schema-validated structured data.
//
// Implementations hold no state between calls. The caller supplies the
// per-user credential on every request.
package extraction

import (
	"context"

	"github.com/dvloznov/finance-ingest/internal/domain"
)

// SourceKind selects the output schema.
type SourceKind string

const (
	KindStatement SourceKind = "statement"
	KindReceipt   SourceKind = "receipt"
)

// Client extracts structured data from one file.
type Client interface {
	// Extract returns a validated result whose Kind matches req.Kind.
	// A missing credential yields ErrMissingCredential; every other failure,
	// including schema validation, yields *Error.
	Extract(ctx context.Context, req Request) (*Result, error)
}

// Request is one extraction call.
type Request struct {
	Kind    SourceKind
	Format  domain.FileType
	Content Content
	APIKey  string
}

// Result is a validated extraction. Exactly one of Statement or Receipt is set.
type Result struct {
	Kind      SourceKind
	Statement *StatementResult
	Receipt   *ReceiptResult

	// RawJSON is the cleaned model output the result was decoded from.
	RawJSON string
	Model   string
	Usage   Usage
}

// Usage reports token counts when the model returns them.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}
