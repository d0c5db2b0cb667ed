package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"creditdocs/internal/http/middleware"
	"creditdocs/internal/model"
	"creditdocs/internal/service"
	svcmocks "creditdocs/internal/service/mocks"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := middleware.AuthClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestApp(t *testing.T) (*fiber.App, *svcmocks.MockDocumentService, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := new(svcmocks.MockDocumentService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(middleware.RequestID())
	RegisterRoutes(app, db, svc, testSecret)

	return app, svc, dbMock
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, Response) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body Response
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func authorize(t *testing.T, req *http.Request) {
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "u1", "staff"))
}

func multipartUpload(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestUploadDocuments(t *testing.T) {
	app, svc, _ := newTestApp(t)

	created := []model.Document{
		{ID: "6b9f0c5e-1111-4222-8333-444455556666", OriginalName: "report.pdf"},
	}
	svc.On("Upload", mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
		return in.DocumentType == model.DocumentTypeCreditReport &&
			in.UploadedBy == "u1" &&
			len(in.Files) == 1 &&
			in.Files[0].OriginalName == "report.pdf"
	})).Return(created, nil)

	body, ct := multipartUpload(t,
		map[string]string{"documentType": "credit_report"},
		map[string]string{"report.pdf": "pdf bytes"},
	)
	req := httptest.NewRequest(fiber.MethodPost, "/api/documents/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, "1 document(s) uploaded successfully", env.Message)
	assert.NotEmpty(t, env.RequestID)
}

func TestUploadResponseHidesStorageInternals(t *testing.T) {
	app, svc, _ := newTestApp(t)

	created := []model.Document{{
		ID:           "6b9f0c5e-1111-4222-8333-444455556666",
		OriginalName: "report.pdf",
		FileName:     "1709280000000-abc.pdf",
		FilePath:     "documents/1709280000000-abc.pdf",
		FileHash:     "deadbeef",
		UploadedBy:   "u1",
	}}
	svc.On("Upload", mock.Anything, mock.Anything).Return(created, nil)

	body, ct := multipartUpload(t,
		map[string]string{"documentType": "credit_report"},
		map[string]string{"report.pdf": "pdf bytes"},
	)
	req := httptest.NewRequest(fiber.MethodPost, "/api/documents/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	authorize(t, req)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	for _, key := range []string{"filePath", "fileHash", "fileName", "uploadedBy"} {
		assert.NotContains(t, string(raw), key)
	}
	assert.Contains(t, string(raw), "originalName")
}

func TestUploadDocumentsValidationError(t *testing.T) {
	app, svc, _ := newTestApp(t)

	svc.On("Upload", mock.Anything, mock.Anything).
		Return(nil, &service.ValidationError{Problems: []string{"invalid document type"}})

	body, ct := multipartUpload(t,
		map[string]string{"documentType": "tax_return"},
		map[string]string{"a.pdf": "x"},
	)
	req := httptest.NewRequest(fiber.MethodPost, "/api/documents/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Contains(t, env.Errors, "invalid document type")
}

func TestUploadDocumentsBadClientUUID(t *testing.T) {
	app, svc, _ := newTestApp(t)

	body, ct := multipartUpload(t,
		map[string]string{"documentType": "other", "clientId": "not-a-uuid"},
		map[string]string{"a.pdf": "x"},
	)
	req := httptest.NewRequest(fiber.MethodPost, "/api/documents/upload", body)
	req.Header.Set(fiber.HeaderContentType, ct)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	svc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestListDocuments(t *testing.T) {
	app, svc, _ := newTestApp(t)

	svc.On("List", mock.Anything, mock.MatchedBy(func(f service.ListFilter) bool {
		return f.Page == 2 && f.Limit == 5 &&
			f.ClientID != nil && *f.ClientID == "c1" &&
			f.Search != nil && *f.Search == "report"
	})).Return(&service.DocumentListResult{
		Documents:  []model.DocumentDetail{},
		Pagination: service.Pagination{CurrentPage: 2, TotalPages: 3, TotalDocuments: 11},
	}, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents?page=2&limit=5&clientId=c1&search=report", nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestGetDocumentInvalidID(t *testing.T) {
	app, svc, _ := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents/not-a-uuid", nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid document ID", env.Message)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestGetDocumentNotFound(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents/"+id, nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Document not found", env.Message)
}

func TestDownloadDocument(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Download", mock.Anything, id, "u1").Return(&service.DownloadResult{
		Content:      io.NopCloser(strings.NewReader("pdf bytes")),
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		Size:         9,
	}, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents/"+id+"/download", nil)
	authorize(t, req)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), `"report.pdf"`)

	content, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(content))
}

func TestDownloadDocumentFileMissing(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Download", mock.Anything, id, "u1").Return(nil, service.ErrFileMissing)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents/"+id+"/download", nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Document file not found", env.Message)
}

func TestUpdateDocument(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Update", mock.Anything, id, mock.MatchedBy(func(in service.UpdateInput) bool {
		return in.Description != nil && *in.Description == "new" &&
			in.IsConfidential != nil && *in.IsConfidential
	}), "u1").Return(&model.Document{ID: id}, nil)

	body := strings.NewReader(`{"description":"new","isConfidential":true}`)
	req := httptest.NewRequest(fiber.MethodPut, "/api/documents/"+id, body)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Document updated successfully", env.Message)
}

func TestUpdateDocumentEmptyBody(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Update", mock.Anything, id, mock.Anything, "u1").Return(nil, service.ErrEmptyUpdate)

	req := httptest.NewRequest(fiber.MethodPut, "/api/documents/"+id, strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No fields to update", env.Message)
}

func TestDeleteDocument(t *testing.T) {
	app, svc, _ := newTestApp(t)
	id := "6b9f0c5e-1111-4222-8333-444455556666"

	svc.On("Delete", mock.Anything, id, "u1").
		Return(&service.DeleteResult{RowDeleted: true, FileRemoved: false}, nil)

	req := httptest.NewRequest(fiber.MethodDelete, "/api/documents/"+id, nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Document deleted successfully", env.Message)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["rowDeleted"])
	assert.Equal(t, false, data["fileRemoved"])
}

func TestDocumentStats(t *testing.T) {
	app, svc, _ := newTestApp(t)

	svc.On("Stats", mock.Anything).Return(&service.DocumentStatsView{
		TotalDocuments: 3,
		Storage:        service.StorageStats{TotalMB: 1.5},
	}, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents/stats/overview", nil)
	authorize(t, req)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestAuthRequired(t *testing.T) {
	app, svc, _ := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents", nil)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAuthRejectsClientRole(t *testing.T) {
	app, svc, _ := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/documents", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "u2", "client"))

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.False(t, env.Success)
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestHealthCheck(t *testing.T) {
	app, _, dbMock := newTestApp(t)

	dbMock.ExpectPing()
	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHealthCheckUnavailable(t *testing.T) {
	app, _, dbMock := newTestApp(t)

	dbMock.ExpectPing().WillReturnError(assert.AnError)
	req := httptest.NewRequest(fiber.MethodGet, "/health", nil)

	resp, env := doRequest(t, app, req)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Dependency unavailable", env.Message)
}
