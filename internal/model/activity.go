package model

import "time"

// Activity types written by the document subsystem.
const (
	ActivityDocumentUploaded   = "document_uploaded"
	ActivityDocumentDownloaded = "document_downloaded"
	ActivityDocumentUpdated    = "document_updated"
	ActivityDocumentDeleted    = "document_deleted"
)

// ActivityEntry is one append-only audit record. Entries are never updated
// or deleted.
type ActivityEntry struct {
	ID           string         `json:"id"`
	ClientID     *string        `json:"clientId"`
	UserID       string         `json:"userId"`
	ActivityType string         `json:"activityType"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}
