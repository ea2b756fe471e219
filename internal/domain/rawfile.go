package domain

// FileType is the declared kind of an uploaded file.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeCSV   FileType = "csv"
	FileTypeImage FileType = "image"
	FileTypeEmail FileType = "email"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypePDF, FileTypeCSV, FileTypeImage, FileTypeEmail:
		return true
	}
	return false
}

// FileStatus is the ingestion lifecycle state of a RawFile.
type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusCompleted  FileStatus = "completed"
	StatusFailed     FileStatus = "failed"
)

// Terminal reports whether no further transition is expected.
func (s FileStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RawFile tracks one user-submitted document through ingestion.
// StoragePath is relative to the user's blob namespace.
type RawFile struct {
	Filename     string     `firestore:"filename" json:"filename"`
	FileType     FileType   `firestore:"file_type" json:"file_type"`
	StoragePath  string     `firestore:"storage_path" json:"storage_path"`
	AccountID    *string    `firestore:"account_id" json:"account_id"`
	Status       FileStatus `firestore:"status" json:"status"`
	ErrorMessage *string    `firestore:"error_message" json:"error_message"`
	Metadata     Metadata   `firestore:"metadata" json:"metadata"`
}

// HasAccount reports whether a target account was known at upload time.
func (f RawFile) HasAccount() bool {
	return f.AccountID != nil && *f.AccountID != ""
}
