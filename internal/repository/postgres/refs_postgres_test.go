package postgres

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientExistsActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewClientPostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM clients")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsActive(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDisputeExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDisputePostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM disputes")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
