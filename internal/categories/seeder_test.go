package categories

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/docstore/memory"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_Valid(t *testing.T) {
	require.NoError(t, Validate(Defaults))
	assert.Len(t, Defaults, 35)
}

func TestSeeder_TwoPass(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ids, err := NewSeeder(store).Seed(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, ids, len(Defaults))
	assert.Equal(t, len(Defaults), store.Count("u1", docstore.Categories))

	get := func(name string) domain.Category {
		var c domain.Category
		require.NoError(t, store.Get(ctx, "u1", docstore.Categories, ids[name], &c))
		return c
	}

	debits := get("Debits")
	assert.Nil(t, debits.ParentID)
	assert.Equal(t, domain.CategoryDebit, debits.Type)

	salary := get("Salary")
	require.NotNil(t, salary.ParentID)
	assert.Equal(t, ids["Income"], *salary.ParentID)

	income := get("Income")
	require.NotNil(t, income.ParentID)
	assert.Equal(t, ids["Debits"], *income.ParentID)

	misc := get("Miscellaneous")
	assert.Equal(t, 10, misc.SortOrder)
	assert.Equal(t, domain.CategoryCredit, misc.Type)
}

func TestSeeder_NotDeduplicated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seeds := []Seed{
		{Name: "Root", Type: domain.CategoryDebit},
		{Name: "Leaf", Parent: "Root", Type: domain.CategoryDebit},
	}

	s := NewSeeder(store).WithSeeds(seeds)
	_, err := s.Seed(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Seed(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, 4, store.Count("u1", docstore.Categories))
}

func TestSeeder_InvalidTreeWritesNothing(t *testing.T) {
	store := memory.NewStore()
	_, err := NewSeeder(store).
		WithSeeds([]Seed{{Name: "Leaf", Parent: "Missing"}}).
		Seed(context.Background(), "u1")
	require.Error(t, err)
	assert.Zero(t, store.Count("u1", docstore.Categories))
}

func TestSeeder_InsertFailure(t *testing.T) {
	store := memory.NewStore()
	store.Hooks.BeforeAdd = func(c docstore.Collection) error { return errors.New("quota") }

	_, err := NewSeeder(store).Seed(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate([]Seed{{Name: "A"}, {Name: "A"}}))
	assert.Error(t, Validate([]Seed{{Name: ""}}))
	assert.NoError(t, Validate(nil))
}
