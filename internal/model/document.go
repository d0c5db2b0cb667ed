package model

import "time"

// DocumentType classifies a stored document.
type DocumentType string

const (
	DocumentTypeCreditReport       DocumentType = "credit_report"
	DocumentTypeDisputeLetter      DocumentType = "dispute_letter"
	DocumentTypeResponseLetter     DocumentType = "response_letter"
	DocumentTypeSupportingDocument DocumentType = "supporting_document"
	DocumentTypeIdentification     DocumentType = "identification"
	DocumentTypeOther              DocumentType = "other"
)

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeCreditReport, DocumentTypeDisputeLetter, DocumentTypeResponseLetter,
		DocumentTypeSupportingDocument, DocumentTypeIdentification, DocumentTypeOther:
		return true
	}
	return false
}

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
// Storage internals (generated file name, blob key, content hash, uploader ID)
// are never serialized to API clients; only display metadata is.
type Document struct {
	ID             string       `json:"id"`
	ClientID       *string      `json:"clientId"`
	DisputeID      *string      `json:"disputeId"`
	DocumentType   DocumentType `json:"documentType"`
	OriginalName   string       `json:"originalName"`
	FileName       string       `json:"-"`
	FilePath       string       `json:"-"`
	FileSize       int64        `json:"fileSize"`
	MimeType       string       `json:"mimeType"`
	FileHash       string       `json:"-"`
	Description    *string      `json:"description"`
	IsConfidential bool         `json:"isConfidential"`
	UploadedBy     string       `json:"-"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// ClientRef carries the display fields of a joined client row.
type ClientRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DisputeRef carries the display fields of a joined dispute row.
type DisputeRef struct {
	AccountName string `json:"accountName"`
}

// UploaderRef carries the display name of the uploading user.
type UploaderRef struct {
	Name string `json:"name"`
}

// DocumentDetail is a Document joined with client/dispute/uploader display names.
type DocumentDetail struct {
	Document
	Client     *ClientRef   `json:"client"`
	Dispute    *DisputeRef  `json:"dispute"`
	UploaderBy *UploaderRef `json:"uploader"`
}

// DocumentStats aggregates documents created in the last 30 days.
type DocumentStats struct {
	TotalDocuments        int     `json:"totalDocuments"`
	CreditReports         int     `json:"creditReports"`
	DisputeLetters        int     `json:"disputeLetters"`
	ResponseLetters       int     `json:"responseLetters"`
	SupportingDocuments   int     `json:"supportingDocuments"`
	IdentificationDocs    int     `json:"identificationDocs"`
	ConfidentialDocuments int     `json:"confidentialDocuments"`
	TotalStorageBytes     int64   `json:"totalStorageBytes"`
	AvgFileSizeBytes      float64 `json:"avgFileSizeBytes"`
}
