// Package sqlite implements the document store on a local SQLite file
// through gorm. Documents are stored as JSON rows keyed by user, collection
// and id; batches commit in one SQL transaction.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type documentRow struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	UserID     string `gorm:"uniqueIndex:idx_documents_key;not null"`
	Collection string `gorm:"uniqueIndex:idx_documents_key;index:idx_documents_scope;not null"`
	DocID      string `gorm:"uniqueIndex:idx_documents_key;not null"`
	Data       string `gorm:"type:text;not null"`
}

func (documentRow) TableName() string { return "documents" }

type profileRow struct {
	UserID       string `gorm:"primaryKey"`
	GeminiAPIKey string
}

func (profileRow) TableName() string { return "user_profiles" }

// Store implements docstore.Store on SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens (or creates) the database at dbPath and migrates the schema.
func NewStore(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&documentRow{}, &profileRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) find(db *gorm.DB, userID string, c docstore.Collection, id string) (*documentRow, error) {
	var row documentRow
	err := db.Where("user_id = ? AND collection = ? AND doc_id = ?", userID, string(c), id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func decodeRow(row *documentRow) (docstore.Fields, error) {
	var f docstore.Fields
	if err := json.Unmarshal([]byte(row.Data), &f); err != nil {
		return nil, fmt.Errorf("corrupt document %s/%s: %w", row.Collection, row.DocID, err)
	}
	return f, nil
}

func encodeRow(userID string, c docstore.Collection, id string, data any) (*documentRow, error) {
	fields, err := docstore.Encode(data)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return &documentRow{UserID: userID, Collection: string(c), DocID: id, Data: string(raw)}, nil
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, userID string, c docstore.Collection, id string, dst any) error {
	row, err := s.find(s.db.WithContext(ctx), userID, c, id)
	if err != nil {
		return fmt.Errorf("Get %s/%s: %w", c, id, err)
	}
	fields, err := decodeRow(row)
	if err != nil {
		return fmt.Errorf("Get %s/%s: %w", c, id, err)
	}
	return fields.Decode(dst)
}

// Add implements docstore.Store.
func (s *Store) Add(ctx context.Context, userID string, c docstore.Collection, data any) (string, error) {
	id := uuid.NewString()
	row, err := encodeRow(userID, c, id, data)
	if err != nil {
		return "", fmt.Errorf("Add %s: %w", c, err)
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("Add %s: %w", c, err)
	}
	return id, nil
}

// Update implements docstore.Store.
func (s *Store) Update(ctx context.Context, userID string, c docstore.Collection, id string, updates ...docstore.Update) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, userID, c, id)
		if err != nil {
			return err
		}
		fields, err := decodeRow(row)
		if err != nil {
			return err
		}
		if err := fields.Apply(updates); err != nil {
			return err
		}
		raw, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		return tx.Model(row).Update("data", string(raw)).Error
	})
	if err != nil {
		return fmt.Errorf("Update %s/%s: %w", c, id, err)
	}
	return nil
}

// Query implements docstore.Store. Filters are evaluated on the decoded
// documents in insertion order.
func (s *Store) Query(ctx context.Context, userID string, c docstore.Collection, filters ...docstore.Filter) ([]docstore.Snapshot, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND collection = ?", userID, string(c)).
		Order("seq").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("Query %s: %w", c, err)
	}

	var out []docstore.Snapshot
	for i := range rows {
		fields, err := decodeRow(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("Query %s: %w", c, err)
		}
		ok, err := fields.Matches(filters)
		if err != nil {
			return nil, fmt.Errorf("Query %s: %w", c, err)
		}
		if ok {
			out = append(out, docstore.FieldsSnapshot{DocID: rows[i].DocID, Fields: fields})
		}
	}
	return out, nil
}

// NewBatch implements docstore.Store.
func (s *Store) NewBatch(userID string) docstore.Batch {
	return &batch{store: s, userID: userID}
}

// UserProfile implements docstore.Store.
func (s *Store) UserProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.UserProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("UserProfile %s: %w", userID, err)
	}
	return &domain.UserProfile{GeminiAPIKey: row.GeminiAPIKey}, nil
}

// SetUserProfile implements docstore.ProfileWriter.
func (s *Store) SetUserProfile(ctx context.Context, userID string, profile domain.UserProfile) error {
	row := profileRow{UserID: userID, GeminiAPIKey: profile.GeminiAPIKey}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"gemini_api_key"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("SetUserProfile %s: %w", userID, err)
	}
	return nil
}

// Close implements docstore.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
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

func (b *batch) Commit(ctx context.Context) error {
	rows := make([]*documentRow, 0, len(b.writes))
	for _, w := range b.writes {
		row, err := encodeRow(b.userID, w.collection, w.id, w.data)
		if err != nil {
			return fmt.Errorf("Commit: %s/%s: %w", w.collection, w.id, err)
		}
		rows = append(rows, row)
	}

	err := b.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Commit: %d writes: %w", len(rows), err)
	}
	return nil
}

// Ensure Store implements the store interfaces.
var _ docstore.Store = (*Store)(nil)
var _ docstore.ProfileWriter = (*Store)(nil)
