package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"creditdocs/internal/crypto"
	"creditdocs/internal/database"
	"creditdocs/internal/logging"
	"creditdocs/internal/model"
	"creditdocs/internal/repository"
	"creditdocs/internal/storage"
)

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNotFound        = errors.New("document not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrDisputeNotFound = errors.New("dispute not found")
	// ErrFileMissing reports that the document row exists but its blob was
	// externally removed.
	ErrFileMissing = errors.New("document file not found")
	// ErrEmptyUpdate rejects a metadata update with no fields to change.
	ErrEmptyUpdate = errors.New("no fields to update")
)

// ValidationError aggregates request-level validation problems. Handlers
// surface Problems as the errors list of a 400 response.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// allowedMimeTypes is the upload allow-list: PDF, common image formats,
// Word formats, and plain text.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

const (
	maxDescriptionLength = 500
	defaultPageLimit     = 20
	maxPageLimit         = 100
)

// UploadFile is one file of an upload batch. Open is called once during
// intake; the content is read fully (sizes are capped) to compute the
// dedup hash, exactly as the blob is stored.
type UploadFile struct {
	OriginalName string
	ContentType  string
	Size         int64
	Open         func() (io.ReadCloser, error)
}

// UploadInput is a validated upload batch request.
type UploadInput struct {
	ClientID       *string
	DisputeID      *string
	DocumentType   model.DocumentType
	Description    *string
	IsConfidential bool
	UploadedBy     string
	Files          []UploadFile
}

// UpdateInput is the partial metadata update set.
type UpdateInput struct {
	Description    *string
	IsConfidential *bool
	DocumentType   *model.DocumentType
}

// ListFilter selects and pages the document list.
type ListFilter struct {
	ClientID     *string
	DisputeID    *string
	DocumentType *string
	Search       *string
	Page         int
	Limit        int
}

// Pagination describes the returned page.
type Pagination struct {
	CurrentPage    int  `json:"currentPage"`
	TotalPages     int  `json:"totalPages"`
	TotalDocuments int  `json:"totalDocuments"`
	HasNextPage    bool `json:"hasNextPage"`
	HasPrevPage    bool `json:"hasPrevPage"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Documents  []model.DocumentDetail `json:"documents"`
	Pagination Pagination             `json:"pagination"`
}

// DeleteResult separates the two outcomes of a delete: the row removal is
// authoritative, the blob removal is advisory.
type DeleteResult struct {
	RowDeleted  bool `json:"rowDeleted"`
	FileRemoved bool `json:"fileRemoved"`
}

// DocumentTypeCounts breaks the document total down per type.
type DocumentTypeCounts struct {
	CreditReports       int `json:"creditReports"`
	DisputeLetters      int `json:"disputeLetters"`
	ResponseLetters     int `json:"responseLetters"`
	SupportingDocuments int `json:"supportingDocuments"`
	Identification      int `json:"identification"`
}

// StorageStats reports storage usage in megabytes, rounded to two decimals.
type StorageStats struct {
	TotalMB       float64 `json:"totalMB"`
	AvgFileSizeMB float64 `json:"avgFileSizeMB"`
}

// DocumentStatsView is the stats payload served to clients: per-type counts
// nested under documentsByType and storage figures in MB.
type DocumentStatsView struct {
	TotalDocuments        int                `json:"totalDocuments"`
	DocumentsByType       DocumentTypeCounts `json:"documentsByType"`
	ConfidentialDocuments int                `json:"confidentialDocuments"`
	Storage               StorageStats       `json:"storage"`
}

// DownloadResult carries the blob stream and the metadata needed for
// response headers.
type DownloadResult struct {
	Content      io.ReadCloser
	OriginalName string
	MimeType     string
	Size         int64
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores a batch of files and their metadata atomically:
	// blobs are written first, then one transaction inserts every
	// document row plus its activity entry. Byte-identical content is
	// silently skipped; any failure rolls back the transaction and
	// removes every blob written for the batch.
	Upload(ctx context.Context, in UploadInput) ([]model.Document, error)

	// List returns documents matching the filter, newest first.
	List(ctx context.Context, f ListFilter) (*DocumentListResult, error)

	// Get returns a single document with joined display names.
	Get(ctx context.Context, id string) (*model.DocumentDetail, error)

	// Download opens the document's blob for streaming and records a
	// best-effort download activity.
	Download(ctx context.Context, id, userID string) (*DownloadResult, error)

	// Update applies a partial metadata update. An empty update set is
	// rejected with ErrEmptyUpdate.
	Update(ctx context.Context, id string, in UpdateInput, userID string) (*model.Document, error)

	// Delete removes the row (authoritative) and the blob (best effort).
	Delete(ctx context.Context, id, userID string) (*DeleteResult, error)

	// Stats aggregates the last 30 days of documents, with storage
	// figures converted to megabytes.
	Stats(ctx context.Context) (*DocumentStatsView, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	db          *sql.DB
	repos       repository.Provider
	store       storage.Storage
	crypto      *crypto.Service
	log         logging.Logger
	maxFileSize int64
	maxFiles    int
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(db *sql.DB, repos repository.Provider, store storage.Storage, crypt *crypto.Service, log logging.Logger, maxFileSize int64, maxFiles int) DocumentService {
	if maxFileSize <= 0 {
		maxFileSize = 10 * 1024 * 1024
	}
	if maxFiles <= 0 {
		maxFiles = 5
	}
	return &documentService{
		db:          db,
		repos:       repos,
		store:       store,
		crypto:      crypt,
		log:         log,
		maxFileSize: maxFileSize,
		maxFiles:    maxFiles,
	}
}

func (s *documentService) validateUpload(in UploadInput) error {
	var problems []string

	if len(in.Files) == 0 {
		problems = append(problems, "no files uploaded")
	}
	if len(in.Files) > s.maxFiles {
		problems = append(problems, fmt.Sprintf("at most %d files per upload", s.maxFiles))
	}
	for _, f := range in.Files {
		if f.Size > s.maxFileSize {
			problems = append(problems, fmt.Sprintf("%s exceeds the %d byte limit", f.OriginalName, s.maxFileSize))
		}
		if !allowedMimeTypes[f.ContentType] {
			problems = append(problems, fmt.Sprintf("%s has unsupported type %s", f.OriginalName, f.ContentType))
		}
	}
	if !in.DocumentType.Valid() {
		problems = append(problems, "invalid document type")
	}
	if in.Description != nil && len(*in.Description) > maxDescriptionLength {
		problems = append(problems, fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	if in.UploadedBy == "" {
		problems = append(problems, "uploader is required")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// stagedFile is an intake file already written to the blob store.
type stagedFile struct {
	originalName string
	fileName     string
	key          string
	size         int64
	contentType  string
	hash         string
}

// Upload implements the batch pipeline: reference checks, blob intake,
// then one transaction for every row. See DocumentService.Upload.
func (s *documentService) Upload(ctx context.Context, in UploadInput) ([]model.Document, error) {
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}

	// Reference checks run before any blob is written: a bad clientId
	// costs no disk I/O and no cleanup.
	if in.ClientID != nil {
		ok, err := s.repos.Clients(s.db).ExistsActive(ctx, *in.ClientID)
		if err != nil {
			return nil, fmt.Errorf("check client: %w", err)
		}
		if !ok {
			return nil, ErrClientNotFound
		}
	}
	if in.DisputeID != nil {
		ok, err := s.repos.Disputes(s.db).Exists(ctx, *in.DisputeID)
		if err != nil {
			return nil, fmt.Errorf("check dispute: %w", err)
		}
		if !ok {
			return nil, ErrDisputeNotFound
		}
	}

	staged, err := s.stageFiles(ctx, in.Files)
	if err != nil {
		return nil, err
	}

	created, err := s.persistBatch(ctx, in, staged)
	if err != nil {
		// The batch is all-or-nothing: roll back the filesystem too,
		// for every file, not just the one that failed.
		s.cleanupBlobs(ctx, staged)
		return nil, err
	}
	return created, nil
}

// stageFiles writes every file of the batch to the blob store under a
// collision-resistant name, computing the content hash from the same bytes.
// On any failure the already-written blobs are removed.
func (s *documentService) stageFiles(ctx context.Context, files []UploadFile) ([]stagedFile, error) {
	staged := make([]stagedFile, 0, len(files))

	for _, f := range files {
		buf, err := s.readCapped(f)
		if err != nil {
			s.cleanupBlobs(ctx, staged)
			return nil, err
		}

		hash, err := s.crypto.CreateHash(buf, "sha256")
		if err != nil {
			s.cleanupBlobs(ctx, staged)
			return nil, fmt.Errorf("hash %s: %w", f.OriginalName, err)
		}

		// Timestamp plus random suffix keeps concurrent batches from
		// colliding in the shared upload directory.
		fileName := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(f.OriginalName))
		key := path.Join("documents", fileName)

		if _, err := s.store.Put(ctx, key, bytes.NewReader(buf), storage.PutOptions{
			Size:        int64(len(buf)),
			ContentType: f.ContentType,
			Metadata:    map[string]string{"original-filename": f.OriginalName},
		}); err != nil {
			s.cleanupBlobs(ctx, staged)
			return nil, fmt.Errorf("store %s: %w", f.OriginalName, err)
		}

		staged = append(staged, stagedFile{
			originalName: f.OriginalName,
			fileName:     fileName,
			key:          key,
			size:         int64(len(buf)),
			contentType:  f.ContentType,
			hash:         hash,
		})
	}
	return staged, nil
}

// readCapped reads the file fully, enforcing the size cap on the actual
// bytes rather than the declared size.
func (s *documentService) readCapped(f UploadFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.OriginalName, err)
	}
	defer rc.Close()

	buf, err := io.ReadAll(io.LimitReader(rc, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.OriginalName, err)
	}
	if int64(len(buf)) > s.maxFileSize {
		return nil, &ValidationError{Problems: []string{
			fmt.Sprintf("%s exceeds the %d byte limit", f.OriginalName, s.maxFileSize),
		}}
	}
	if len(buf) == 0 {
		return nil, &ValidationError{Problems: []string{
			fmt.Sprintf("%s is empty", f.OriginalName),
		}}
	}
	return buf, nil
}

// persistBatch runs the per-batch transaction: dedup check, document insert,
// and activity entry for every staged file, in input order.
func (s *documentService) persistBatch(ctx context.Context, in UploadInput, staged []stagedFile) ([]model.Document, error) {
	var created []model.Document

	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		docs := s.repos.Documents(tx)
		acts := s.repos.Activities(tx)

		for _, sf := range staged {
			exists, err := docs.ExistsByHash(ctx, sf.hash)
			if err != nil {
				return fmt.Errorf("dedup check %s: %w", sf.originalName, err)
			}
			if exists {
				s.skipDuplicate(ctx, in, sf)
				continue
			}

			now := time.Now().UTC()
			doc, err := docs.Create(ctx, &model.Document{
				ID:             uuid.NewString(),
				ClientID:       in.ClientID,
				DisputeID:      in.DisputeID,
				DocumentType:   in.DocumentType,
				OriginalName:   sf.originalName,
				FileName:       sf.fileName,
				FilePath:       sf.key,
				FileSize:       sf.size,
				MimeType:       sf.contentType,
				FileHash:       sf.hash,
				Description:    in.Description,
				IsConfidential: in.IsConfidential,
				UploadedBy:     in.UploadedBy,
				CreatedAt:      now,
				UpdatedAt:      now,
			})
			if errors.Is(err, repository.ErrDuplicateHash) {
				// A concurrent batch won the insert race; the unique
				// constraint is the source of truth, so treat it exactly
				// like the pre-check hit.
				s.skipDuplicate(ctx, in, sf)
				continue
			}
			if err != nil {
				return fmt.Errorf("insert %s: %w", sf.originalName, err)
			}
			created = append(created, *doc)

			if in.ClientID != nil {
				entry := &model.ActivityEntry{
					ClientID:     in.ClientID,
					UserID:       in.UploadedBy,
					ActivityType: model.ActivityDocumentUploaded,
					Description:  "Document uploaded: " + sf.originalName,
					Metadata: map[string]any{
						"documentId":   doc.ID,
						"documentType": in.DocumentType,
						"fileName":     sf.originalName,
						"fileSize":     sf.size,
					},
				}
				if err := acts.Insert(ctx, entry); err != nil {
					return fmt.Errorf("log upload activity: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// skipDuplicate removes the staged blob of a duplicate upload and logs a
// warning. Duplicates never fail the batch; they are just absent from the
// result.
func (s *documentService) skipDuplicate(ctx context.Context, in UploadInput, sf stagedFile) {
	if err := s.store.Delete(ctx, sf.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error(ctx, "failed to remove duplicate blob", "key", sf.key, "error", err)
	}
	s.log.Warn(ctx, "duplicate file upload skipped",
		"original_name", sf.originalName,
		"file_hash", sf.hash,
		"uploaded_by", in.UploadedBy,
	)
}

func (s *documentService) cleanupBlobs(ctx context.Context, staged []stagedFile) {
	for _, sf := range staged {
		if err := s.store.Delete(ctx, sf.key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.log.Error(ctx, "failed to clean up blob after batch failure", "key", sf.key, "error", err)
		}
	}
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, f ListFilter) (*DocumentListResult, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}

	var docType *model.DocumentType
	if f.DocumentType != nil {
		dt := model.DocumentType(*f.DocumentType)
		if !dt.Valid() {
			return nil, &ValidationError{Problems: []string{"invalid document type"}}
		}
		docType = &dt
	}

	res, err := s.repos.Documents(s.db).List(ctx, repository.DocumentFilter{
		ClientID:     f.ClientID,
		DisputeID:    f.DisputeID,
		DocumentType: docType,
		Search:       f.Search,
		Limit:        f.Limit,
		Offset:       (f.Page - 1) * f.Limit,
	})
	if err != nil {
		return nil, err
	}

	totalPages := (res.Total + f.Limit - 1) / f.Limit
	return &DocumentListResult{
		Documents: res.Items,
		Pagination: Pagination{
			CurrentPage:    f.Page,
			TotalPages:     totalPages,
			TotalDocuments: res.Total,
			HasNextPage:    f.Page < totalPages,
			HasPrevPage:    f.Page > 1,
		},
	}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.DocumentDetail, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repos.Documents(s.db).FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Download verifies the blob still exists before streaming it, and records
// the download as an activity entry. Activity failures never fail the
// download.
func (s *documentService) Download(ctx context.Context, id, userID string) (*DownloadResult, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.Stat(ctx, detail.FilePath); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Error(ctx, "document blob missing on download",
				"document_id", detail.ID, "key", detail.FilePath)
			return nil, ErrFileMissing
		}
		return nil, err
	}

	rc, info, err := s.store.Get(ctx, detail.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFileMissing
		}
		return nil, err
	}

	entry := &model.ActivityEntry{
		ClientID:     detail.ClientID,
		UserID:       userID,
		ActivityType: model.ActivityDocumentDownloaded,
		Description:  "Downloaded document: " + detail.OriginalName,
		Metadata: map[string]any{
			"documentId":     detail.ID,
			"fileName":       detail.OriginalName,
			"isConfidential": detail.IsConfidential,
		},
	}
	if err := s.repos.Activities(s.db).Insert(ctx, entry); err != nil {
		s.log.Error(ctx, "failed to log download activity",
			"document_id", detail.ID, "user_id", userID, "error", err)
	}

	return &DownloadResult{
		Content:      rc,
		OriginalName: detail.OriginalName,
		MimeType:     detail.MimeType,
		Size:         info.Size,
	}, nil
}

// Update applies a partial metadata update and records which fields changed.
func (s *documentService) Update(ctx context.Context, id string, in UpdateInput, userID string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if in.Description == nil && in.IsConfidential == nil && in.DocumentType == nil {
		return nil, ErrEmptyUpdate
	}

	var problems []string
	var changedFields []string
	if in.Description != nil {
		if len(*in.Description) > maxDescriptionLength {
			problems = append(problems, fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
		}
		changedFields = append(changedFields, "description")
	}
	if in.IsConfidential != nil {
		changedFields = append(changedFields, "isConfidential")
	}
	if in.DocumentType != nil {
		if !in.DocumentType.Valid() {
			problems = append(problems, "invalid document type")
		}
		changedFields = append(changedFields, "documentType")
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var updated *model.Document
	err := database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		doc, err := s.repos.Documents(tx).Update(ctx, id, repository.DocumentUpdate{
			Description:    in.Description,
			IsConfidential: in.IsConfidential,
			DocumentType:   in.DocumentType,
		})
		if err != nil {
			return err
		}
		updated = doc

		if doc.ClientID != nil {
			entry := &model.ActivityEntry{
				ClientID:     doc.ClientID,
				UserID:       userID,
				ActivityType: model.ActivityDocumentUpdated,
				Description:  "Document updated: " + doc.OriginalName,
				Metadata: map[string]any{
					"documentId":    doc.ID,
					"updatedFields": changedFields,
				},
			}
			if err := s.repos.Activities(tx).Insert(ctx, entry); err != nil {
				return fmt.Errorf("log update activity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes the document row and activity-logs the deletion in one
// transaction, then removes the blob best-effort. The row removal is
// authoritative; a failed blob removal is logged and reported in the
// result, never as an error.
func (s *documentService) Delete(ctx context.Context, id, userID string) (*DeleteResult, error) {
	if id == "" {
		return nil, ErrIDRequired
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.db, nil, func(ctx context.Context, tx database.DBTX) error {
		if err := s.repos.Documents(tx).Delete(ctx, id); err != nil {
			return err
		}
		if detail.ClientID != nil {
			entry := &model.ActivityEntry{
				ClientID:     detail.ClientID,
				UserID:       userID,
				ActivityType: model.ActivityDocumentDeleted,
				Description:  "Document deleted: " + detail.OriginalName,
				Metadata: map[string]any{
					"documentId":   detail.ID,
					"documentType": detail.DocumentType,
					"fileName":     detail.OriginalName,
				},
			}
			if err := s.repos.Activities(tx).Insert(ctx, entry); err != nil {
				return fmt.Errorf("log delete activity: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	result := &DeleteResult{RowDeleted: true}
	if err := s.store.Delete(ctx, detail.FilePath); err != nil {
		s.log.Warn(ctx, "failed to delete blob for removed document",
			"document_id", id, "key", detail.FilePath, "error", err)
	} else {
		result.FileRemoved = true
	}
	return result, nil
}

// Stats aggregates the last 30 days of documents.
func (s *documentService) Stats(ctx context.Context) (*DocumentStatsView, error) {
	stats, err := s.repos.Documents(s.db).Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &DocumentStatsView{
		TotalDocuments: stats.TotalDocuments,
		DocumentsByType: DocumentTypeCounts{
			CreditReports:       stats.CreditReports,
			DisputeLetters:      stats.DisputeLetters,
			ResponseLetters:     stats.ResponseLetters,
			SupportingDocuments: stats.SupportingDocuments,
			Identification:      stats.IdentificationDocs,
		},
		ConfidentialDocuments: stats.ConfidentialDocuments,
		Storage: StorageStats{
			TotalMB:       bytesToMB(float64(stats.TotalStorageBytes)),
			AvgFileSizeMB: bytesToMB(stats.AvgFileSizeBytes),
		},
	}, nil
}

// bytesToMB converts to megabytes rounded to two decimal places.
func bytesToMB(b float64) float64 {
	return math.Round(b/(1024*1024)*100) / 100
}
