package domain

// UserProfile is the users/{uid} document. The ingestion pipeline only reads it.
type UserProfile struct {
	GeminiAPIKey string `firestore:"geminiApiKey,omitempty" json:"geminiApiKey,omitempty"`
}
