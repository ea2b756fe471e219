package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/google/uuid"
)

// Store is an in-memory implementation of docstore.Store.
// It is safe for concurrent use. Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	docs     map[string]*entry // keyed by users/{uid}/{collection}/{id}
	profiles map[string]domain.UserProfile
	seq      int64

	// Hooks let tests inject store failures. Nil hooks are skipped.
	Hooks Hooks
}

// Hooks are consulted before the matching write is applied.
type Hooks struct {
	BeforeAdd    func(c docstore.Collection) error
	BeforeUpdate func(c docstore.Collection, id string, updates []docstore.Update) error
	BeforeCommit func(writes int) error
}

type entry struct {
	userID     string
	collection docstore.Collection
	id         string
	seq        int64
	fields     docstore.Fields
}

// NewStore creates an empty in-memory document store.
func NewStore() *Store {
	return &Store{
		docs:     make(map[string]*entry),
		profiles: make(map[string]domain.UserProfile),
	}
}

func key(userID string, c docstore.Collection, id string) string {
	return docstore.UsersCollection + "/" + userID + "/" + string(c) + "/" + id
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, userID string, c docstore.Collection, id string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.docs[key(userID, c, id)]
	if !ok {
		return fmt.Errorf("Get %s/%s: %w", c, id, docstore.ErrNotFound)
	}
	return e.fields.Decode(dst)
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, userID string, c docstore.Collection, data any) (string, error) {
	if s.Hooks.BeforeAdd != nil {
		if err := s.Hooks.BeforeAdd(c); err != nil {
			return "", err
		}
	}

	fields, err := docstore.Encode(data)
	if err != nil {
		return "", fmt.Errorf("Add %s: %w", c, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.put(userID, c, id, fields)
	return id, nil
}

// put stores a document; callers hold the write lock.
func (s *Store) put(userID string, c docstore.Collection, id string, fields docstore.Fields) {
	s.seq++
	s.docs[key(userID, c, id)] = &entry{
		userID:     userID,
		collection: c,
		id:         id,
		seq:        s.seq,
		fields:     fields,
	}
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, userID string, c docstore.Collection, id string, updates ...docstore.Update) error {
	if s.Hooks.BeforeUpdate != nil {
		if err := s.Hooks.BeforeUpdate(c, id, updates); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.docs[key(userID, c, id)]
	if !ok {
		return fmt.Errorf("Update %s/%s: %w", c, id, docstore.ErrNotFound)
	}

	// Apply to a copy so a failed update leaves the document untouched.
	next := e.fields.Clone()
	if err := next.Apply(updates); err != nil {
		return fmt.Errorf("Update %s/%s: %w", c, id, err)
	}
	e.fields = next
	return nil
}

// Query implements docstore.Store. Results come back in insertion order.
func (s *Store) Query(ctx context.Context, userID string, c docstore.Collection, filters ...docstore.Filter) ([]docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*entry
	for _, e := range s.docs {
		if e.userID != userID || e.collection != c {
			continue
		}
		ok, err := e.fields.Matches(filters)
		if err != nil {
			return nil, fmt.Errorf("Query %s: %w", c, err)
		}
		if ok {
			matched = append(matched, e)
		}
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	out := make([]docstore.Snapshot, 0, len(matched))
	for _, e := range matched {
		out = append(out, docstore.FieldsSnapshot{DocID: e.id, Fields: e.fields.Clone()})
	}
	return out, nil
}

// Count returns the number of documents in a user's collection.
func (s *Store) Count(userID string, c docstore.Collection) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.docs {
		if e.userID == userID && e.collection == c {
			n++
		}
	}
	return n
}

// NewBatch implements docstore.Store.
func (s *Store) NewBatch(userID string) docstore.Batch {
	return &batch{store: s, userID: userID}
}

// UserProfile implements docstore.Store.
func (s *Store) UserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.profiles[userID]
	return &p, nil
}

// SetUserProfile implements docstore.ProfileWriter.
func (s *Store) SetUserProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[userID] = profile
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	return nil
}

type stagedWrite struct {
	collection docstore.Collection
	id         string
	data       any
}

type batch struct {
	store  *Store
	userID string
	writes []stagedWrite
}

func (b *batch) Create(c docstore.Collection, data any) string {
	id := uuid.NewString()
	b.writes = append(b.writes, stagedWrite{collection: c, id: id, data: data})
	return id
}

func (b *batch) Len() int {
	return len(b.writes)
}

// Commit encodes every staged document first, so an encoding failure
// writes nothing, then stores them under a single lock.
func (b *batch) Commit(ctx context.Context) error {
	if b.store.Hooks.BeforeCommit != nil {
		if err := b.store.Hooks.BeforeCommit(len(b.writes)); err != nil {
			return err
		}
	}

	encoded := make([]docstore.Fields, len(b.writes))
	for i, w := range b.writes {
		fields, err := docstore.Encode(w.data)
		if err != nil {
			return fmt.Errorf("Commit: %s/%s: %w", w.collection, w.id, err)
		}
		encoded[i] = fields
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	for i, w := range b.writes {
		b.store.put(b.userID, w.collection, w.id, encoded[i])
	}
	return nil
}

// Ensure Store implements the store interfaces.
var _ docstore.Store = (*Store)(nil)
var _ docstore.ProfileWriter = (*Store)(nil)
