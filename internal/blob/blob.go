// Package blob holds the raw-upload byte store contract and the path
// conventions shared by the upload flow and the ingestion pipeline.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned when no object exists at a path.
var ErrNotFound = errors.New("blob: object not found")

// Store reads and writes raw bytes by full object path.
type Store interface {
	// Get returns the bytes stored at fullPath.
	Get(ctx context.Context, fullPath string) ([]byte, error)

	// Put stores data at fullPath, replacing any existing object.
	Put(ctx context.Context, fullPath string, data []byte, contentType string) error
}

// UserPath prefixes a user-relative path with the user's namespace:
// users/{userID}/{relativePath}.
func UserPath(userID, relativePath string) string {
	return "users/" + userID + "/" + strings.TrimPrefix(relativePath, "/")
}

// RelativePath builds the user-relative object path for a new upload.
// Statements (known target account) go to statements/{accountID}/{ts}_{filename},
// everything else to receipts/{ts}_{filename}. ts is Unix milliseconds.
func RelativePath(accountID, filename string, at time.Time) string {
	name := fmt.Sprintf("%d_%s", at.UnixMilli(), path.Base(filename))
	if accountID != "" {
		return "statements/" + accountID + "/" + name
	}
	return "receipts/" + name
}
