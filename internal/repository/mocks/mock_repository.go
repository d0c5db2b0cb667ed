package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditdocs/internal/database"
	"creditdocs/internal/model"
	"creditdocs/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if f, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return f(ctx, doc), args.Error(1)
	}
	var out *model.Document
	if v := args.Get(0); v != nil {
		out = v.(*model.Document)
	}
	return out, args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.DocumentDetail, error) {
	args := m.Called(ctx, id)
	var out *model.DocumentDetail
	if v := args.Get(0); v != nil {
		out = v.(*model.DocumentDetail)
	}
	return out, args.Error(1)
}

func (m *MockDocumentRepository) ExistsByHash(ctx context.Context, hash string) (bool, error) {
	args := m.Called(ctx, hash)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, f repository.DocumentFilter) (*repository.PageResult[model.DocumentDetail], error) {
	args := m.Called(ctx, f)
	var out *repository.PageResult[model.DocumentDetail]
	if v := args.Get(0); v != nil {
		out = v.(*repository.PageResult[model.DocumentDetail])
	}
	return out, args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, id string, u repository.DocumentUpdate) (*model.Document, error) {
	args := m.Called(ctx, id, u)
	var out *model.Document
	if v := args.Get(0); v != nil {
		out = v.(*model.Document)
	}
	return out, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Stats(ctx context.Context) (*model.DocumentStats, error) {
	args := m.Called(ctx)
	var out *model.DocumentStats
	if v := args.Get(0); v != nil {
		out = v.(*model.DocumentStats)
	}
	return out, args.Error(1)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Insert(ctx context.Context, e *model.ActivityEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDisputeRepository struct {
	mock.Mock
}

func (m *MockDisputeRepository) Exists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockProvider returns the same mock repositories regardless of the query
// handle, so service tests assert behavior without caring whether a call
// ran inside a transaction.
type MockProvider struct {
	DocumentsRepo  *MockDocumentRepository
	ActivitiesRepo *MockActivityRepository
	ClientsRepo    *MockClientRepository
	DisputesRepo   *MockDisputeRepository
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		DocumentsRepo:  new(MockDocumentRepository),
		ActivitiesRepo: new(MockActivityRepository),
		ClientsRepo:    new(MockClientRepository),
		DisputesRepo:   new(MockDisputeRepository),
	}
}

func (p *MockProvider) Documents(database.DBTX) repository.DocumentRepository {
	return p.DocumentsRepo
}

func (p *MockProvider) Activities(database.DBTX) repository.ActivityRepository {
	return p.ActivitiesRepo
}

func (p *MockProvider) Clients(database.DBTX) repository.ClientRepository {
	return p.ClientsRepo
}

func (p *MockProvider) Disputes(database.DBTX) repository.DisputeRepository {
	return p.DisputesRepo
}
