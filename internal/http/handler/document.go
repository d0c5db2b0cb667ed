package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"creditdocs/internal/http/middleware"
	"creditdocs/internal/model"
	"creditdocs/internal/service"
)

func userIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.UserIDLocalKey).(string)
	return id
}

// mapServiceError translates service errors into the failure envelope.
// Unknown errors are masked as a plain 500.
func mapServiceError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "Validation failed", verr.Problems...)
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "Document ID is required")
	case errors.Is(err, service.ErrEmptyUpdate):
		return writeError(c, fiber.StatusBadRequest, "No fields to update")
	case errors.Is(err, service.ErrClientNotFound):
		return writeError(c, fiber.StatusNotFound, "Client not found")
	case errors.Is(err, service.ErrDisputeNotFound):
		return writeError(c, fiber.StatusNotFound, "Dispute not found")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "Document not found")
	case errors.Is(err, service.ErrFileMissing):
		return writeError(c, fiber.StatusNotFound, "Document file not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func optionalUUIDField(form *multipart.Form, field string) (*string, error) {
	vals := form.Value[field]
	if len(vals) == 0 || vals[0] == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(vals[0]); err != nil {
		return nil, fmt.Errorf("%s must be a valid UUID", field)
	}
	return &vals[0], nil
}

func formValue(form *multipart.Form, field string) string {
	if vals := form.Value[field]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// UploadDocuments handles a multipart batch upload.
//
//	@Summary		Upload documents
//	@Description	Uploads up to 5 files with shared metadata in one atomic batch.
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			files			formData	file	true	"Files to upload"
//	@Param			documentType	formData	string	true	"Document type"
//	@Param			clientId		formData	string	false	"Client UUID"
//	@Param			disputeId		formData	string	false	"Dispute UUID"
//	@Param			description		formData	string	false	"Description"
//	@Param			isConfidential	formData	bool	false	"Confidential flag"
//	@Success		201	{object}	Response
//	@Failure		400	{object}	Response
//	@Failure		404	{object}	Response
//	@Security		BearerAuth
//	@Router			/api/documents/upload [post]
func UploadDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Validation failed", "multipart form is required")
		}

		files := form.File["files"]
		if len(files) == 0 {
			return writeError(c, fiber.StatusBadRequest, "Validation failed", "no files uploaded")
		}

		clientID, err := optionalUUIDField(form, "clientId")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		}
		disputeID, err := optionalUUIDField(form, "disputeId")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "Validation failed", err.Error())
		}

		in := service.UploadInput{
			ClientID:       clientID,
			DisputeID:      disputeID,
			DocumentType:   model.DocumentType(formValue(form, "documentType")),
			IsConfidential: formValue(form, "isConfidential") == "true",
			UploadedBy:     userIDFromCtx(c),
		}
		if desc := formValue(form, "description"); desc != "" {
			in.Description = &desc
		}

		for _, fh := range files {
			fh := fh
			ct := fh.Header.Get(fiber.HeaderContentType)
			if ct == "" {
				ct = "application/octet-stream"
			}
			in.Files = append(in.Files, service.UploadFile{
				OriginalName: fh.Filename,
				ContentType:  ct,
				Size:         fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}

		created, err := svc.Upload(c.UserContext(), in)
		if err != nil {
			return mapServiceError(c, err)
		}

		msg := fmt.Sprintf("%d document(s) uploaded successfully", len(created))
		return writeSuccess(c, fiber.StatusCreated, msg, fiber.Map{"documents": created})
	}
}

// ListDocuments returns a filtered, paginated document list.
//
//	@Summary	List documents
//	@Tags		documents
//	@Produce	json
//	@Param		page			query		int		false	"Page number"
//	@Param		limit			query		int		false	"Page size"
//	@Param		clientId		query		string	false	"Filter by client"
//	@Param		disputeId		query		string	false	"Filter by dispute"
//	@Param		documentType	query		string	false	"Filter by type"
//	@Param		search			query		string	false	"Search original name and description"
//	@Success	200	{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := service.ListFilter{
			Page:  c.QueryInt("page", 1),
			Limit: c.QueryInt("limit", 20),
		}
		if v := c.Query("clientId"); v != "" {
			f.ClientID = &v
		}
		if v := c.Query("disputeId"); v != "" {
			f.DisputeID = &v
		}
		if v := c.Query("documentType"); v != "" {
			f.DocumentType = &v
		}
		if v := c.Query("search"); v != "" {
			f.Search = &v
		}

		res, err := svc.List(c.UserContext(), f)
		if err != nil {
			return mapServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "", res)
	}
}

// GetDocument returns one document with joined display names.
//
//	@Summary	Get document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document UUID"
//	@Success	200	{object}	Response
//	@Failure	404	{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid document ID")
		}

		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return mapServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "", fiber.Map{"document": doc})
	}
}

// DownloadDocument streams the document's file content.
//
//	@Summary	Download document
//	@Tags		documents
//	@Produce	octet-stream
//	@Param		id	path	string	true	"Document UUID"
//	@Success	200
//	@Failure	404	{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents/{id}/download [get]
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid document ID")
		}

		res, err := svc.Download(c.UserContext(), id, userIDFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}

		c.Set(fiber.HeaderContentType, res.MimeType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.OriginalName))
		return c.SendStream(res.Content, int(res.Size))
	}
}

type updateDocumentRequest struct {
	Description    *string `json:"description"`
	IsConfidential *bool   `json:"isConfidential"`
	DocumentType   *string `json:"documentType"`
}

// UpdateDocument applies a partial metadata update.
//
//	@Summary	Update document metadata
//	@Tags		documents
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Document UUID"
//	@Param		body	body		updateDocumentRequest	true	"Fields to update"
//	@Success	200		{object}	Response
//	@Failure	400		{object}	Response
//	@Failure	404		{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents/{id} [put]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid document ID")
		}

		var req updateDocumentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid request body")
		}

		in := service.UpdateInput{
			Description:    req.Description,
			IsConfidential: req.IsConfidential,
		}
		if req.DocumentType != nil {
			dt := model.DocumentType(*req.DocumentType)
			in.DocumentType = &dt
		}

		doc, err := svc.Update(c.UserContext(), id, in, userIDFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Document updated successfully", fiber.Map{"document": doc})
	}
}

// DeleteDocument removes the document row and its file.
//
//	@Summary	Delete document
//	@Tags		documents
//	@Produce	json
//	@Param		id	path		string	true	"Document UUID"
//	@Success	200	{object}	Response
//	@Failure	404	{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "Invalid document ID")
		}

		res, err := svc.Delete(c.UserContext(), id, userIDFromCtx(c))
		if err != nil {
			return mapServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "Document deleted successfully", res)
	}
}

// DocumentStats aggregates the last 30 days of documents.
//
//	@Summary	Document statistics
//	@Tags		documents
//	@Produce	json
//	@Success	200	{object}	Response
//	@Security	BearerAuth
//	@Router		/api/documents/stats/overview [get]
func DocumentStats(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.UserContext())
		if err != nil {
			return mapServiceError(c, err)
		}
		return writeSuccess(c, fiber.StatusOK, "", fiber.Map{"stats": stats})
	}
}
