package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RawFileLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	id, err := s.Add(ctx, "u1", docstore.RawFiles, domain.RawFile{
		Filename:    "jan.pdf",
		FileType:    domain.FileTypePDF,
		StoragePath: "statements/acc/1_jan.pdf",
		AccountID:   domain.StringPtr("acc"),
		Status:      domain.StatusPending,
		Metadata:    domain.NewMetadata(now),
	})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "u1", docstore.RawFiles, id,
		docstore.Update{Path: domain.FieldStatus, Value: domain.StatusFailed},
		docstore.Update{Path: domain.FieldErrorMessage, Value: "boom"},
		docstore.Update{Path: domain.FieldUpdatedAt, Value: now.Add(time.Minute)},
	))

	var got domain.RawFile
	require.NoError(t, s.Get(ctx, "u1", docstore.RawFiles, id, &got))
	assert.Equal(t, domain.StatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "boom", *got.ErrorMessage)
	assert.True(t, got.Metadata.UpdatedAt.Equal(now.Add(time.Minute)))
	assert.True(t, got.Metadata.CreatedAt.Equal(now))

	assert.ErrorIs(t, s.Get(ctx, "u2", docstore.RawFiles, id, &got), docstore.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, "u1", docstore.RawFiles, "missing"), docstore.ErrNotFound)
}

func TestStore_QueryAndBatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := s.NewBatch("u1")
	stmtID := b.Create(docstore.Statements, domain.Statement{AccountID: "acc", ValidationErrors: []string{}})
	for _, amt := range []float64{-5, 10, -2.5} {
		b.Create(docstore.Transactions, domain.Transaction{AccountID: "acc", StatementID: &stmtID, Amount: amt})
	}
	require.Equal(t, 4, b.Len())
	require.NoError(t, b.Commit(ctx))

	snaps, err := s.Query(ctx, "u1", docstore.Transactions, docstore.Eq("statement_id", stmtID))
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	var tx domain.Transaction
	require.NoError(t, snaps[2].DataTo(&tx))
	assert.Equal(t, -2.5, tx.Amount)

	none, err := s.Query(ctx, "u2", docstore.Transactions)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Profiles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p, err := s.UserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, p.GeminiAPIKey)

	require.NoError(t, s.SetUserProfile(ctx, "u1", domain.UserProfile{GeminiAPIKey: "k1"}))
	require.NoError(t, s.SetUserProfile(ctx, "u1", domain.UserProfile{GeminiAPIKey: "k2"}))

	p, err = s.UserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "k2", p.GeminiAPIKey)
}
