// Package firestore implements the document store on Cloud Firestore and
// watches rawFiles for new uploads.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store implements docstore.Store under users/{uid}/{collection}.
type Store struct {
	client *firestore.Client
}

// NewStore connects to the given Firestore database. An empty databaseID
// selects the default database.
func NewStore(ctx context.Context, projectID, databaseID string) (*Store, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(client *firestore.Client) *Store {
	return &Store{client: client}
}

// Client exposes the underlying client for the watcher.
func (s *Store) Client() *firestore.Client {
	return s.client
}

func (s *Store) collection(userID string, c docstore.Collection) *firestore.CollectionRef {
	return s.client.Collection(docstore.UsersCollection).Doc(userID).Collection(string(c))
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, userID string, c docstore.Collection, id string, dst any) error {
	snap, err := s.collection(userID, c).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("Get %s/%s: %w", c, id, docstore.ErrNotFound)
		}
		return fmt.Errorf("Get %s/%s: %w", c, id, err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("Get %s/%s: decode: %w", c, id, err)
	}
	return nil
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, userID string, c docstore.Collection, data any) (string, error) {
	ref, _, err := s.collection(userID, c).Add(ctx, data)
	if err != nil {
		return "", fmt.Errorf("Add %s: %w", c, err)
	}
	return ref.ID, nil
}

// Update implements docstore.Store. Dotted paths address nested fields.
func (s *Store) Update(ctx context.Context, userID string, c docstore.Collection, id string, updates ...docstore.Update) error {
	fu := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		fu = append(fu, firestore.Update{Path: u.Path, Value: u.Value})
	}
	if _, err := s.collection(userID, c).Doc(id).Update(ctx, fu); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("Update %s/%s: %w", c, id, docstore.ErrNotFound)
		}
		return fmt.Errorf("Update %s/%s: %w", c, id, err)
	}
	return nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, userID string, c docstore.Collection, filters ...docstore.Filter) ([]docstore.Snapshot, error) {
	q := s.collection(userID, c).Query
	for _, f := range filters {
		q = q.WhereEntity(firestore.PropertyFilter{Path: f.Path, Operator: f.Op, Value: f.Value})
	}

	it := q.Documents(ctx)
	defer it.Stop()

	var out []docstore.Snapshot
	for {
		doc, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Query %s: iterating: %w", c, err)
		}
		out = append(out, snapshot{doc})
	}
	return out, nil
}

// NewBatch implements docstore.Store. The batch commits in one transaction.
func (s *Store) NewBatch(userID string) docstore.Batch {
	return &batch{store: s, userID: userID}
}

// UserProfile implements docstore.Store.
func (s *Store) UserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	snap, err := s.client.Collection(docstore.UsersCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &domain.UserProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UserProfile %s: %w", userID, err)
	}
	var p domain.UserProfile
	if err := snap.DataTo(&p); err != nil {
		return nil, fmt.Errorf("UserProfile %s: decode: %w", userID, err)
	}
	return &p, nil
}

// SetUserProfile implements docstore.ProfileWriter. Other profile fields
// are preserved.
func (s *Store) SetUserProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	_, err := s.client.Collection(docstore.UsersCollection).Doc(userID).
		Set(ctx, map[string]any{"geminiApiKey": profile.GeminiAPIKey}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("SetUserProfile %s: %w", userID, err)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

type snapshot struct {
	doc *firestore.DocumentSnapshot
}

func (s snapshot) ID() string { return s.doc.Ref.ID }

func (s snapshot) DataTo(dst any) error { return s.doc.DataTo(dst) }

type stagedWrite struct {
	ref  *firestore.DocumentRef
	data any
}

type batch struct {
	store  *Store
	userID string
	writes []stagedWrite
}

// Create pre-allocates the document id so children can reference the parent
// before the commit.
func (b *batch) Create(c docstore.Collection, data any) string {
	ref := b.store.collection(b.userID, c).NewDoc()
	b.writes = append(b.writes, stagedWrite{ref: ref, data: data})
	return ref.ID
}

func (b *batch) Len() int {
	return len(b.writes)
}

func (b *batch) Commit(ctx context.Context) error {
	err := b.store.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range b.writes {
			if err := tx.Create(w.ref, w.data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Commit: %d writes: %w", len(b.writes), err)
	}
	return nil
}

// Ensure Store implements the store interfaces.
var _ docstore.Store = (*Store)(nil)
var _ docstore.ProfileWriter = (*Store)(nil)
