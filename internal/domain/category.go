package domain

// CategoryType is the ledger side a category belongs to.
type CategoryType string

const (
	CategoryDebit  CategoryType = "debit"
	CategoryCredit CategoryType = "credit"
)

// Category is a node in the per-user category tree.
type Category struct {
	Name      string       `firestore:"name" json:"name"`
	ParentID  *string      `firestore:"parent_id" json:"parent_id"`
	Type      CategoryType `firestore:"type" json:"type"`
	SortOrder int          `firestore:"sort_order" json:"sort_order"`
	Metadata  Metadata     `firestore:"metadata" json:"metadata"`
}
