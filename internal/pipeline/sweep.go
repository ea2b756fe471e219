package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/logger"
)

// StaleMessage is recorded on RawFiles failed by the sweep.
const StaleMessage = "processing timed out"

// Sweeper fails RawFiles left in processing by a crashed run.
type Sweeper struct {
	store docstore.Store
	now   func() time.Time
}

// NewSweeper creates a sweeper over store.
func NewSweeper(store docstore.Store) *Sweeper {
	return &Sweeper{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Sweep marks every processing RawFile of userID whose last update is older
// than olderThan as failed. It returns the ids it failed.
func (s *Sweeper) Sweep(ctx context.Context, userID string, olderThan time.Duration) ([]string, error) {
	log := logger.FromContext(ctx)

	snaps, err := s.store.Query(ctx, userID, docstore.RawFiles, docstore.Eq(domain.FieldStatus, domain.StatusProcessing))
	if err != nil {
		return nil, fmt.Errorf("Sweep: query processing files: %w", err)
	}

	now := s.now()
	cutoff := now.Add(-olderThan)
	var swept []string
	for _, snap := range snaps {
		var raw domain.RawFile
		if err := snap.DataTo(&raw); err != nil {
			return swept, fmt.Errorf("Sweep: decode %s: %w", snap.ID(), err)
		}
		if !raw.Metadata.UpdatedAt.Before(cutoff) {
			continue
		}
		err := s.store.Update(ctx, userID, docstore.RawFiles, snap.ID(),
			docstore.Update{Path: domain.FieldStatus, Value: domain.StatusFailed},
			docstore.Update{Path: domain.FieldErrorMessage, Value: StaleMessage},
			docstore.Update{Path: domain.FieldUpdatedAt, Value: now},
		)
		if err != nil {
			return swept, fmt.Errorf("Sweep: mark %s failed: %w", snap.ID(), err)
		}
		log.Warn().
			Str("user_id", userID).
			Str("file_id", snap.ID()).
			Time("updated_at", raw.Metadata.UpdatedAt).
			Msg("Marked stale processing file as failed")
		swept = append(swept, snap.ID())
	}
	return swept, nil
}
