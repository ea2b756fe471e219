// Package rawfiles is the upload flow: it stores file bytes under the user's
// blob namespace and creates the pending RawFile that triggers ingestion.
package rawfiles

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/finance-ingest/internal/blob"
	"github.com/dvloznov/finance-ingest/internal/docstore"
	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/logger"
)

// Submitter uploads files and registers them for ingestion.
type Submitter struct {
	store docstore.Store
	blobs blob.Store
	now   func() time.Time
}

// NewSubmitter creates a submitter.
func NewSubmitter(store docstore.Store, blobs blob.Store) *Submitter {
	return &Submitter{
		store: store,
		blobs: blobs,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit uploads data and creates a pending RawFile. A non-empty accountID
// marks the upload as a statement for that account. It returns the new
// RawFile id.
func (s *Submitter) Submit(ctx context.Context, userID, filename string, data []byte, accountID string) (string, *domain.RawFile, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("Submit: user id is required")
	}
	if filename == "" {
		return "", nil, fmt.Errorf("Submit: filename is required")
	}

	now := s.now()
	rel := blob.RelativePath(accountID, filename, now)
	fullPath := blob.UserPath(userID, rel)

	if err := s.blobs.Put(ctx, fullPath, data, ContentType(filename, data)); err != nil {
		return "", nil, fmt.Errorf("Submit: upload %s: %w", fullPath, err)
	}

	raw := &domain.RawFile{
		Filename:    filepath.Base(filename),
		FileType:    DetectFileType(filename, data),
		StoragePath: rel,
		AccountID:   domain.StringPtr(accountID),
		Status:      domain.StatusPending,
		Metadata:    domain.NewMetadata(now),
	}
	id, err := s.store.Add(ctx, userID, docstore.RawFiles, raw)
	if err != nil {
		return "", nil, fmt.Errorf("Submit: create raw file: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("user_id", userID).
		Str("file_id", id).
		Str("file_type", string(raw.FileType)).
		Str("storage_path", rel).
		Msg("Submitted raw file")
	return id, raw, nil
}

// ContentType guesses the MIME type from the extension, then the bytes.
func ContentType(filename string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// DetectFileType maps an upload to a file type. Unknown types are treated
// as PDF, matching the upload screen's default.
func DetectFileType(filename string, data []byte) domain.FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return domain.FileTypePDF
	case ".csv":
		return domain.FileTypeCSV
	case ".eml", ".msg", ".txt":
		return domain.FileTypeEmail
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".bmp":
		return domain.FileTypeImage
	}

	ct := ContentType(filename, data)
	switch {
	case strings.Contains(ct, "csv"):
		return domain.FileTypeCSV
	case strings.HasPrefix(ct, "image/"):
		return domain.FileTypeImage
	case strings.HasPrefix(ct, "message/"):
		return domain.FileTypeEmail
	}
	return domain.FileTypePDF
}
