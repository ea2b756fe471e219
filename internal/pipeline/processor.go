// Package pipeline runs the RawFile ingestion state machine:
// pending -> processing -> completed | failed.
//
// A run fetches the file, resolves the user's extraction credential, calls
// the extraction client for statements and receipts, and materializes the
// result into the document store. Every failure is recorded on the RawFile;
// only a failure to record the failure is returned to the caller.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ingest/internal/blob"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/extraction"
	"github.com/dvloznov/finance-ingest/internal/logger"
)

// Options tune a Processor.
type Options struct {
	// SingleCommit writes the parent document and its children in one batch.
	// When false the parent is inserted first and a failed child batch
	// leaves it without children.
	SingleCommit bool

	// ExtractionTimeout bounds each extraction call. Zero disables it.
	ExtractionTimeout time.Duration

	// MaxChars bounds text content sent for extraction.
	MaxChars int
}

// Processor runs ingestion for one RawFile at a time. It holds no per-file
// state and is safe for concurrent use across files.
type Processor struct {
	store     docstore.Store
	blobs     blob.Store
	extractor extraction.Client
	recorder  Recorder
	opts      Options
	chain     *Chain
	now       func() time.Time
}

// NewProcessor wires a processor to its collaborators.
func NewProcessor(store docstore.Store, blobs blob.Store, extractor extraction.Client, opts Options) *Processor {
	p := &Processor{
		store:     store,
		blobs:     blobs,
		extractor: extractor,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
	}
	p.chain = NewChain(
		&markProcessingStep{p},
		&fetchStep{p},
		&decodeStep{p},
		&credentialStep{p},
		&extractStep{p},
		&materializeStep{p},
		&markCompletedStep{p},
	)
	return p
}

// WithRecorder attaches an extraction audit recorder.
func (p *Processor) WithRecorder(r Recorder) *Processor {
	p.recorder = r
	return p
}

// WithClock overrides the time source.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Outcome describes a finished run.
type Outcome struct {
	FileID   string            `json:"file_id"`
	Decision Decision          `json:"decision"`
	Status   domain.FileStatus `json:"status"`
	ParentID string            `json:"parent_id,omitempty"`
	Children int               `json:"children"`
	Kind     Kind              `json:"error_kind,omitempty"`
	Message  string            `json:"error_message,omitempty"`
	Err      error             `json:"-"`
}

// Process runs the state machine for raw, the current contents of
// users/{userID}/rawFiles/{fileID}. The returned error is non-nil only
// when the failed status could not be written.
func (p *Processor) Process(ctx context.Context, userID, fileID string, raw domain.RawFile) (*Outcome, error) {
	decision := Decide(raw)
	log := logger.FromContext(ctx).With().
		Str("user_id", userID).
		Str("file_id", fileID).
		Str("file_type", string(raw.FileType)).
		Str("decision", string(decision)).
		Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Msg("Processing raw file")

	state := &State{UserID: userID, FileID: fileID, Raw: raw, Decision: decision}
	out := &Outcome{FileID: fileID, Decision: decision}

	runErr := p.chain.Execute(ctx, state)
	if runErr == nil {
		out.Status = domain.StatusCompleted
		out.ParentID = state.ParentID
		out.Children = state.Children
		log.Info().
			Str("parent_id", state.ParentID).
			Int("children", state.Children).
			Msg("Raw file completed")
		return out, nil
	}

	out.Status = domain.StatusFailed
	out.Kind = KindOf(runErr)
	out.Message = failureMessage(runErr)
	out.Err = runErr
	log.Error().Err(runErr).Str("error_kind", string(out.Kind)).Msg("Raw file failed")

	msg := out.Message
	if err := p.setStatus(ctx, userID, fileID, domain.StatusFailed, &msg); err != nil {
		log.Error().Err(err).Msg("Could not record failure")
		return out, &Error{
			Kind: KindStatusWrite,
			Op:   "mark failed",
			Err:  fmt.Errorf("%w (while recording: %v)", err, runErr),
		}
	}
	return out, nil
}

// ProcessByID loads the RawFile and processes it.
func (p *Processor) ProcessByID(ctx context.Context, userID, fileID string) (*Outcome, error) {
	var raw domain.RawFile
	if err := p.store.Get(ctx, userID, docstore.RawFiles, fileID, &raw); err != nil {
		return nil, fmt.Errorf("ProcessByID: load raw file %s: %w", fileID, err)
	}
	return p.Process(ctx, userID, fileID, raw)
}

// setStatus writes status, updated_at and, for failures, error_message.
func (p *Processor) setStatus(ctx context.Context, userID, fileID string, status domain.FileStatus, errMsg *string) error {
	updates := []docstore.Update{
		{Path: domain.FieldStatus, Value: status},
		{Path: domain.FieldUpdatedAt, Value: p.now()},
	}
	if errMsg != nil {
		updates = append(updates, docstore.Update{Path: domain.FieldErrorMessage, Value: *errMsg})
	}
	return p.store.Update(ctx, userID, docstore.RawFiles, fileID, updates...)
}

// record sends one audit row. Recorder failures are logged only.
func (p *Processor) record(ctx context.Context, state *State, kind extraction.SourceKind, started time.Time, res *extraction.Result, err error) {
	if p.recorder == nil {
		return
	}
	run := Run{
		UserID:     state.UserID,
		FileID:     state.FileID,
		Kind:       kind,
		FileType:   state.Raw.FileType,
		StartedAt:  started,
		FinishedAt: p.now(),
		Status:     RunSucceeded,
	}
	if res != nil {
		run.Model = res.Model
		run.RawJSON = res.RawJSON
		run.InputTokens = res.Usage.InputTokens
		run.OutputTokens = res.Usage.OutputTokens
	}
	if err != nil {
		run.Status = RunFailed
		run.ErrorMessage = failureMessage(err)
		var xe *extraction.Error
		if errors.As(err, &xe) {
			run.ErrorOp = xe.Op
		}
	}
	if rerr := p.recorder.RecordRun(ctx, run); rerr != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(rerr).Msg("Could not record extraction run")
	}
}
