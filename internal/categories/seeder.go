// Package categories seeds the default category tree for a new user.
package categories

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/logger"
)

// Seeder writes a category tree in two passes: every category is inserted
// without a parent, then parent_id is set from the name-to-id map. Ids only
// exist after insertion, so parents cannot be linked in the first pass.
//
// Seeding is not deduplicated; callers run it at most once per user.
type Seeder struct {
	store docstore.Store
	seeds []Seed
	now   func() time.Time
}

// NewSeeder creates a seeder for the Defaults tree.
func NewSeeder(store docstore.Store) *Seeder {
	return &Seeder{
		store: store,
		seeds: Defaults,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithSeeds replaces the tree to seed.
func (s *Seeder) WithSeeds(seeds []Seed) *Seeder {
	s.seeds = seeds
	return s
}

// Seed inserts the tree for userID and returns the name-to-id map.
func (s *Seeder) Seed(ctx context.Context, userID string) (map[string]string, error) {
	log := logger.FromContext(ctx)

	if err := Validate(s.seeds); err != nil {
		return nil, fmt.Errorf("Seed: %w", err)
	}

	ids := make(map[string]string, len(s.seeds))
	now := s.now()
	for _, c := range s.seeds {
		id, err := s.store.Add(ctx, userID, docstore.Categories, domain.Category{
			Name:      c.Name,
			Type:      c.Type,
			SortOrder: c.SortOrder,
			Metadata:  domain.NewMetadata(now),
		})
		if err != nil {
			return ids, fmt.Errorf("Seed: insert %q: %w", c.Name, err)
		}
		ids[c.Name] = id
	}

	linked := 0
	for _, c := range s.seeds {
		if c.Parent == "" {
			continue
		}
		err := s.store.Update(ctx, userID, docstore.Categories, ids[c.Name],
			docstore.Update{Path: domain.FieldParentID, Value: ids[c.Parent]},
		)
		if err != nil {
			return ids, fmt.Errorf("Seed: link %q to %q: %w", c.Name, c.Parent, err)
		}
		linked++
	}

	log.Info().
		Str("user_id", userID).
		Int("categories", len(ids)).
		Int("linked", linked).
		Msg("Seeded default categories")
	return ids, nil
}

// Validate checks that names are unique and every parent is declared.
func Validate(seeds []Seed) error {
	names := make(map[string]bool, len(seeds))
	for _, c := range seeds {
		if c.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		names[c.Name] = true
	}
	for _, c := range seeds {
		if c.Parent != "" && !names[c.Parent] {
			return fmt.Errorf("category %q has unknown parent %q", c.Name, c.Parent)
		}
	}
	return nil
}
