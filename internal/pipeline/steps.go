package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ingest/internal/blob"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/extraction"
)

// Step is a single stage of an ingestion run.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// State is shared by the steps of one run.
type State struct {
	UserID   string
	FileID   string
	Raw      domain.RawFile
	Decision Decision

	Bytes   []byte
	Content extraction.Content
	APIKey  string
	Result  *extraction.Result

	// Set by materialization.
	ParentID string
	Children int
}

// Chain executes steps in order and stops at the first failure.
type Chain struct {
	steps []Step
}

// NewChain creates a chain of the given steps.
func NewChain(steps ...Step) *Chain {
	return &Chain{steps: steps}
}

// Execute runs all steps sequentially.
func (c *Chain) Execute(ctx context.Context, state *State) error {
	for _, step := range c.steps {
		if err := step.Execute(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns the step names in execution order.
func (c *Chain) Steps() []string {
	names := make([]string, 0, len(c.steps))
	for _, s := range c.steps {
		names = append(names, s.Name())
	}
	return names
}

// markProcessingStep moves the RawFile to processing before any extraction.
type markProcessingStep struct{ p *Processor }

func (s *markProcessingStep) Name() string { return "mark_processing" }

func (s *markProcessingStep) Execute(ctx context.Context, state *State) error {
	if err := s.p.setStatus(ctx, state.UserID, state.FileID, domain.StatusProcessing, nil); err != nil {
		return &Error{Kind: KindStatusWrite, Op: "mark processing", Err: err}
	}
	return nil
}

// fetchStep reads the file bytes from the user's blob namespace.
type fetchStep struct{ p *Processor }

func (s *fetchStep) Name() string { return "fetch" }

func (s *fetchStep) Execute(ctx context.Context, state *State) error {
	fullPath := blob.UserPath(state.UserID, state.Raw.StoragePath)
	data, err := s.p.blobs.Get(ctx, fullPath)
	if err != nil {
		return &Error{Kind: KindFetch, Op: "fetch " + fullPath, Err: err}
	}
	state.Bytes = data
	return nil
}

// decodeStep applies the content policy for the file type.
type decodeStep struct{ p *Processor }

func (s *decodeStep) Name() string { return "decode" }

func (s *decodeStep) Execute(ctx context.Context, state *State) error {
	content, err := extraction.NewContent(state.Raw.FileType, state.Bytes, s.p.opts.MaxChars)
	if err != nil {
		return &Error{Kind: KindExtraction, Op: "decode content", Err: err}
	}
	state.Content = content
	return nil
}

// credentialStep resolves the user's extraction API key.
type credentialStep struct{ p *Processor }

func (s *credentialStep) Name() string { return "resolve_credential" }

func (s *credentialStep) Execute(ctx context.Context, state *State) error {
	profile, err := s.p.store.UserProfile(ctx, state.UserID)
	if err != nil {
		return &Error{Kind: KindConfiguration, Op: "read user profile", Err: err}
	}
	if profile == nil || profile.GeminiAPIKey == "" {
		return &Error{Kind: KindConfiguration, Op: "resolve credential", Err: extraction.ErrMissingCredential}
	}
	state.APIKey = profile.GeminiAPIKey
	return nil
}

// extractStep calls the extraction client under a deadline. Skipped files
// make no call.
type extractStep struct{ p *Processor }

func (s *extractStep) Name() string { return "extract" }

func (s *extractStep) Execute(ctx context.Context, state *State) error {
	var kind extraction.SourceKind
	switch state.Decision {
	case DecideStatement:
		kind = extraction.KindStatement
	case DecideReceipt:
		kind = extraction.KindReceipt
	default:
		return nil
	}

	callCtx := ctx
	if s.p.opts.ExtractionTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.p.opts.ExtractionTimeout)
		defer cancel()
	}

	started := s.p.now()
	res, err := s.p.extractor.Extract(callCtx, extraction.Request{
		Kind:    kind,
		Format:  state.Raw.FileType,
		Content: state.Content,
		APIKey:  state.APIKey,
	})
	if err == nil && (res == nil || res.Kind != kind) {
		err = &extraction.Error{Kind: kind, Op: "check result", Err: errors.New("result does not match requested kind")}
	}
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, extraction.ErrMissingCredential) {
		err = &extraction.Error{Kind: kind, Op: "extract", Err: fmt.Errorf("timed out after %s: %w", s.p.opts.ExtractionTimeout, err)}
	}
	s.p.record(ctx, state, kind, started, res, err)
	if err != nil {
		return &Error{Kind: classifyExtraction(err), Op: "extract " + string(kind), Err: err}
	}

	state.Result = res
	return nil
}

// materializeStep persists the extraction result.
type materializeStep struct{ p *Processor }

func (s *materializeStep) Name() string { return "materialize" }

func (s *materializeStep) Execute(ctx context.Context, state *State) error {
	switch state.Decision {
	case DecideStatement:
		return s.p.materializeStatement(ctx, state)
	case DecideReceipt:
		return s.p.materializeReceipt(ctx, state)
	}
	return nil
}

// markCompletedStep is the final successful transition.
type markCompletedStep struct{ p *Processor }

func (s *markCompletedStep) Name() string { return "mark_completed" }

func (s *markCompletedStep) Execute(ctx context.Context, state *State) error {
	if err := s.p.setStatus(ctx, state.UserID, state.FileID, domain.StatusCompleted, nil); err != nil {
		return &Error{Kind: KindStatusWrite, Op: "mark completed", Err: err}
	}
	return nil
}
