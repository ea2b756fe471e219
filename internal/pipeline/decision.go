package pipeline

import "github.com/dvloznov/finance-ingest/internal/domain"

// Decision is the materialization branch chosen for a RawFile before any
// side effect runs.
type Decision string

const (
	DecideStatement Decision = "statement"
	DecideReceipt   Decision = "receipt"
	DecideSkip      Decision = "skip"
)

// Decide picks the branch from the file type and account presence:
// pdf or csv with an account is a statement, an image is a receipt, and
// everything else (including statements without an account) is skipped.
func Decide(raw domain.RawFile) Decision {
	switch raw.FileType {
	case domain.FileTypePDF, domain.FileTypeCSV:
		if raw.HasAccount() {
			return DecideStatement
		}
		return DecideSkip
	case domain.FileTypeImage:
		return DecideReceipt
	default:
		return DecideSkip
	}
}
