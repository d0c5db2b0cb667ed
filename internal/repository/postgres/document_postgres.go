package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"creditdocs/internal/database"
	"creditdocs/internal/model"
	"creditdocs/internal/repository"
)

const pgUniqueViolation = "23505"

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// The query handle may be the pool or a transaction.
type DocumentPostgres struct {
	q database.DBTX
}

// NewDocumentPostgres creates a new DocumentPostgres repository over q.
func NewDocumentPostgres(q database.DBTX) *DocumentPostgres {
	return &DocumentPostgres{q: q}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, client_id, dispute_id, document_type, original_name, file_name,
		file_path, file_size, mime_type, file_hash, description, is_confidential,
		uploaded_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var clientID, disputeID, description sql.NullString
	if err := row.Scan(
		&d.ID,
		&clientID,
		&disputeID,
		&d.DocumentType,
		&d.OriginalName,
		&d.FileName,
		&d.FilePath,
		&d.FileSize,
		&d.MimeType,
		&d.FileHash,
		&description,
		&d.IsConfidential,
		&d.UploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if clientID.Valid {
		d.ClientID = &clientID.String
	}
	if disputeID.Valid {
		d.DisputeID = &disputeID.String
	}
	if description.Valid {
		d.Description = &description.String
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
// A unique violation on the content hash maps to repository.ErrDuplicateHash.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (
			id, client_id, dispute_id, document_type, original_name, file_name,
			file_path, file_size, mime_type, file_hash, description, is_confidential,
			uploaded_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + documentColumns

	row := r.q.QueryRowContext(ctx, q,
		doc.ID,
		doc.ClientID,
		doc.DisputeID,
		doc.DocumentType,
		doc.OriginalName,
		doc.FileName,
		doc.FilePath,
		doc.FileSize,
		doc.MimeType,
		doc.FileHash,
		doc.Description,
		doc.IsConfidential,
		doc.UploadedBy,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, repository.ErrDuplicateHash
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single document with joined display names.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.DocumentDetail, error) {
	const q = `
		SELECT
			d.id, d.client_id, d.dispute_id, d.document_type, d.original_name, d.file_name,
			d.file_path, d.file_size, d.mime_type, d.file_hash, d.description, d.is_confidential,
			d.uploaded_by, d.created_at, d.updated_at,
			c.first_name, c.last_name, c.email,
			u.first_name, u.last_name,
			disp.account_name
		FROM documents d
		LEFT JOIN clients c ON d.client_id = c.id
		LEFT JOIN users u ON d.uploaded_by = u.id
		LEFT JOIN disputes disp ON d.dispute_id = disp.id
		WHERE d.id = $1
	`
	row := r.q.QueryRowContext(ctx, q, id)

	detail, err := scanDocumentDetail(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return detail, nil
}

func scanDocumentDetail(row rowScanner) (*model.DocumentDetail, error) {
	var d model.Document
	var clientID, disputeID, description sql.NullString
	var cFirst, cLast, cEmail, uFirst, uLast, dispAccount sql.NullString

	if err := row.Scan(
		&d.ID,
		&clientID,
		&disputeID,
		&d.DocumentType,
		&d.OriginalName,
		&d.FileName,
		&d.FilePath,
		&d.FileSize,
		&d.MimeType,
		&d.FileHash,
		&description,
		&d.IsConfidential,
		&d.UploadedBy,
		&d.CreatedAt,
		&d.UpdatedAt,
		&cFirst,
		&cLast,
		&cEmail,
		&uFirst,
		&uLast,
		&dispAccount,
	); err != nil {
		return nil, err
	}
	if clientID.Valid {
		d.ClientID = &clientID.String
	}
	if disputeID.Valid {
		d.DisputeID = &disputeID.String
	}
	if description.Valid {
		d.Description = &description.String
	}

	detail := &model.DocumentDetail{Document: d}
	if d.ClientID != nil && cFirst.Valid {
		detail.Client = &model.ClientRef{
			Name:  cFirst.String + " " + cLast.String,
			Email: cEmail.String,
		}
	}
	if d.DisputeID != nil && dispAccount.Valid {
		detail.Dispute = &model.DisputeRef{AccountName: dispAccount.String}
	}
	if uFirst.Valid {
		detail.UploaderBy = &model.UploaderRef{Name: uFirst.String + " " + uLast.String}
	}
	return detail, nil
}

// ExistsByHash reports whether a document with the given content hash exists.
func (r *DocumentPostgres) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM documents WHERE file_hash = $1)`
	var exists bool
	if err := r.q.QueryRowContext(ctx, q, hash).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List returns documents matching the filter with LIMIT/OFFSET pagination
// and a total count, newest first.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter) (*repository.PageResult[model.DocumentDetail], error) {
	var conds []string
	var args []any
	idx := 1

	if f.ClientID != nil {
		conds = append(conds, fmt.Sprintf("d.client_id = $%d", idx))
		args = append(args, *f.ClientID)
		idx++
	}
	if f.DisputeID != nil {
		conds = append(conds, fmt.Sprintf("d.dispute_id = $%d", idx))
		args = append(args, *f.DisputeID)
		idx++
	}
	if f.DocumentType != nil {
		conds = append(conds, fmt.Sprintf("d.document_type = $%d", idx))
		args = append(args, *f.DocumentType)
		idx++
	}
	if f.Search != nil {
		conds = append(conds, fmt.Sprintf("(d.original_name ILIKE $%d OR d.description ILIKE $%d)", idx, idx))
		args = append(args, "%"+*f.Search+"%")
		idx++
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	// Count total rows for the filter
	qCount := `SELECT COUNT(*) FROM documents d ` + where
	var total int
	if err := r.q.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	// Fetch page
	qList := `
		SELECT
			d.id, d.client_id, d.dispute_id, d.document_type, d.original_name, d.file_name,
			d.file_path, d.file_size, d.mime_type, d.file_hash, d.description, d.is_confidential,
			d.uploaded_by, d.created_at, d.updated_at,
			c.first_name, c.last_name, c.email,
			u.first_name, u.last_name,
			NULL
		FROM documents d
		LEFT JOIN clients c ON d.client_id = c.id
		LEFT JOIN users u ON d.uploaded_by = u.id
		` + where + fmt.Sprintf(`
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d`, idx, idx+1)

	args = append(args, f.Limit, f.Offset)
	rows, err := r.q.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentDetail, 0)
	for rows.Next() {
		detail, err := scanDocumentDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentDetail]{
		Items: items,
		Total: total,
	}, nil
}

// Update applies the non-nil fields of u and bumps updated_at.
func (r *DocumentPostgres) Update(ctx context.Context, id string, u repository.DocumentUpdate) (*model.Document, error) {
	var sets []string
	var args []any
	idx := 1

	if u.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", idx))
		args = append(args, *u.Description)
		idx++
	}
	if u.IsConfidential != nil {
		sets = append(sets, fmt.Sprintf("is_confidential = $%d", idx))
		args = append(args, *u.IsConfidential)
		idx++
	}
	if u.DocumentType != nil {
		sets = append(sets, fmt.Sprintf("document_type = $%d", idx))
		args = append(args, *u.DocumentType)
		idx++
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("document update: no fields to update")
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := fmt.Sprintf(`
		UPDATE documents
		SET %s
		WHERE id = $%d
		RETURNING `+documentColumns, strings.Join(sets, ", "), idx)

	out, err := scanDocument(r.q.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

// Delete removes a document by ID. Returns repository.ErrNotFound when no
// row matched.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.q.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Stats aggregates documents created in the last 30 days.
func (r *DocumentPostgres) Stats(ctx context.Context) (*model.DocumentStats, error) {
	const q = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE document_type = 'credit_report'),
			COUNT(*) FILTER (WHERE document_type = 'dispute_letter'),
			COUNT(*) FILTER (WHERE document_type = 'response_letter'),
			COUNT(*) FILTER (WHERE document_type = 'supporting_document'),
			COUNT(*) FILTER (WHERE document_type = 'identification'),
			COUNT(*) FILTER (WHERE is_confidential),
			COALESCE(SUM(file_size), 0),
			COALESCE(AVG(file_size), 0)
		FROM documents
		WHERE created_at >= CURRENT_DATE - INTERVAL '30 days'
	`
	var s model.DocumentStats
	if err := r.q.QueryRowContext(ctx, q).Scan(
		&s.TotalDocuments,
		&s.CreditReports,
		&s.DisputeLetters,
		&s.ResponseLetters,
		&s.SupportingDocuments,
		&s.IdentificationDocs,
		&s.ConfidentialDocuments,
		&s.TotalStorageBytes,
		&s.AvgFileSizeBytes,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
