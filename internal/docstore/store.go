// Package docstore defines the user-scoped document store the ingestion
// pipeline and the category seeder write through.
//
// Every collection lives under users/{userID}/{collection}. Implementations
// must give atomic single-document writes and an all-or-nothing Batch commit;
// reads inside a batch are not required.
package docstore

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-ingest/internal/domain"
)

// Collection names a per-user collection.
type Collection string

const (
	RawFiles     Collection = "rawFiles"
	Statements   Collection = "statements"
	Transactions Collection = "transactions"
	Receipts     Collection = "receipts"
	Items        Collection = "items"
	Categories   Collection = "categories"
	Accounts     Collection = "accounts"
)

// UsersCollection is the root collection holding user profile documents.
const UsersCollection = "users"

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Update sets a single field. Path may address nested fields with dots
// (e.g. "metadata.updated_at").
type Update struct {
	Path  string
	Value any
}

// Filter restricts a Query. Only equality ("==") is required of every backend.
type Filter struct {
	Path  string
	Op    string
	Value any
}

// Eq builds an equality filter.
func Eq(path string, value any) Filter {
	return Filter{Path: path, Op: "==", Value: value}
}

// Snapshot is one document returned by Query.
type Snapshot interface {
	ID() string
	DataTo(dst any) error
}

// Store is the document store contract.
type Store interface {
	// Get decodes users/{userID}/{c}/{id} into dst or returns ErrNotFound.
	Get(ctx context.Context, userID string, c Collection, id string, dst any) error

	// Add inserts data under a generated id and returns that id.
	Add(ctx context.Context, userID string, c Collection, data any) (string, error)

	// Update applies field updates to an existing document atomically.
	Update(ctx context.Context, userID string, c Collection, id string, updates ...Update) error

	// Query returns the documents of c matching every filter.
	Query(ctx context.Context, userID string, c Collection, filters ...Filter) ([]Snapshot, error)

	// NewBatch starts an atomic multi-document write scoped to userID.
	NewBatch(userID string) Batch

	// UserProfile reads users/{userID}. A missing profile yields an empty profile.
	UserProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// Close releases the backend connection.
	Close() error
}

// Batch collects document creations and commits them all or none.
type Batch interface {
	// Create stages a new document and returns its pre-allocated id.
	Create(c Collection, data any) string

	// Len reports the number of staged writes.
	Len() int

	// Commit writes every staged document atomically.
	Commit(ctx context.Context) error
}

// ProfileWriter is implemented by stores that can write user profiles.
// In production the settings screen owns this document.
type ProfileWriter interface {
	SetUserProfile(ctx context.Context, userID string, profile domain.UserProfile) error
}
