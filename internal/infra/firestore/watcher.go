package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreatedFunc receives each pending RawFile seen by the watcher.
type CreatedFunc func(ctx context.Context, userID, fileID string) error

// Watcher listens to pending RawFiles across all users. The first snapshot
// delivers every file still pending, so a restart picks up the backlog.
type Watcher struct {
	client  *firestore.Client
	onAdded CreatedFunc
}

// NewWatcher creates a watcher that calls onAdded for each new pending file.
func NewWatcher(client *firestore.Client, onAdded CreatedFunc) *Watcher {
	return &Watcher{client: client, onAdded: onAdded}
}

// Run blocks until ctx is cancelled or the listener fails.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	q := w.client.CollectionGroup(string(docstore.RawFiles)).
		WhereEntity(firestore.PropertyFilter{Path: domain.FieldStatus, Operator: "==", Value: string(domain.StatusPending)})
	it := q.Snapshots(ctx)
	defer it.Stop()

	log.Info().Msg("Watching pending raw files")

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("Watcher.Run: listening: %w", err)
		}

		for _, ch := range snap.Changes {
			if ch.Kind != firestore.DocumentAdded {
				continue
			}
			userID, fileID, ok := rawFileOwner(ch.Doc.Ref)
			if !ok {
				log.Warn().Str("path", ch.Doc.Ref.Path).Msg("Ignoring rawFiles document outside users/")
				continue
			}
			if err := w.onAdded(ctx, userID, fileID); err != nil {
				log.Error().Err(err).
					Str("user_id", userID).
					Str("file_id", fileID).
					Msg("Could not dispatch raw file")
			}
		}
	}
}

// rawFileOwner extracts ids from users/{uid}/rawFiles/{id}.
func rawFileOwner(ref *firestore.DocumentRef) (userID, fileID string, ok bool) {
	if ref == nil || ref.Parent == nil {
		return "", "", false
	}
	userDoc := ref.Parent.Parent
	if userDoc == nil || userDoc.Parent == nil || userDoc.Parent.ID != docstore.UsersCollection {
		return "", "", false
	}
	return userDoc.ID, ref.ID, true
}
