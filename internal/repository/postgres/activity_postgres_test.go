package postgres

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditdocs/internal/model"
)

func TestActivityInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)
	clientID := "c1"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities")).
		WithArgs(clientID, "u1", model.ActivityDocumentUploaded, "Document uploaded: report.pdf", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), &model.ActivityEntry{
		ClientID:     &clientID,
		UserID:       "u1",
		ActivityType: model.ActivityDocumentUploaded,
		Description:  "Document uploaded: report.pdf",
		Metadata:     map[string]any{"documentId": "d1"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityInsertNilMetadata(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewActivityPostgres(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities")).
		WithArgs(nil, "u1", model.ActivityDocumentDeleted, "Document deleted: a.pdf", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Insert(context.Background(), &model.ActivityEntry{
		UserID:       "u1",
		ActivityType: model.ActivityDocumentDeleted,
		Description:  "Document deleted: a.pdf",
	})
	require.NoError(t, err)
}
