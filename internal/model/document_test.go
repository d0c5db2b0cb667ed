package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentTypeValid(t *testing.T) {
	assert.True(t, DocumentTypeCreditReport.Valid())
	assert.True(t, DocumentTypeOther.Valid())
	assert.False(t, DocumentType("tax_return").Valid())
	assert.False(t, DocumentType("").Valid())
}

func TestDocumentJSONOmitsStorageInternals(t *testing.T) {
	doc := Document{
		ID:           "d1",
		OriginalName: "report.pdf",
		FileName:     "1709280000000-abc.pdf",
		FilePath:     "documents/1709280000000-abc.pdf",
		FileSize:     2048,
		MimeType:     "application/pdf",
		FileHash:     "deadbeef",
		UploadedBy:   "u1",
	}

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{"fileName", "filePath", "fileHash", "uploadedBy"} {
		assert.NotContains(t, m, key)
	}
	assert.Equal(t, "report.pdf", m["originalName"])
	assert.Equal(t, float64(2048), m["fileSize"])
	assert.Equal(t, "application/pdf", m["mimeType"])
}
