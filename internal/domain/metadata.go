package domain

import "time"

// Metadata is the system-managed envelope carried by every document.
type Metadata struct {
	CreatedAt time.Time `firestore:"created_at" json:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at" json:"updated_at"`
	CreatedBy string    `firestore:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy string    `firestore:"updated_by,omitempty" json:"updated_by,omitempty"`
}

// NewMetadata stamps both timestamps with now (UTC).
func NewMetadata(now time.Time) Metadata {
	now = now.UTC()
	return Metadata{CreatedAt: now, UpdatedAt: now}
}

// Field paths used in partial updates.
const (
	FieldStatus       = "status"
	FieldErrorMessage = "error_message"
	FieldParentID     = "parent_id"
	FieldUpdatedAt    = "metadata.updated_at"
)

// StringPtr returns nil for the empty string so optional fields store null.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
