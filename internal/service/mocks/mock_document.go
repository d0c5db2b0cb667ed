package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"creditdocs/internal/model"
	"creditdocs/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) ([]model.Document, error) {
	args := m.Called(ctx, in)
	var out []model.Document
	if v := args.Get(0); v != nil {
		out = v.([]model.Document)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, f service.ListFilter) (*service.DocumentListResult, error) {
	args := m.Called(ctx, f)
	var out *service.DocumentListResult
	if v := args.Get(0); v != nil {
		out = v.(*service.DocumentListResult)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.DocumentDetail, error) {
	args := m.Called(ctx, id)
	var out *model.DocumentDetail
	if v := args.Get(0); v != nil {
		out = v.(*model.DocumentDetail)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id, userID string) (*service.DownloadResult, error) {
	args := m.Called(ctx, id, userID)
	var out *service.DownloadResult
	if v := args.Get(0); v != nil {
		out = v.(*service.DownloadResult)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, id string, in service.UpdateInput, userID string) (*model.Document, error) {
	args := m.Called(ctx, id, in, userID)
	var out *model.Document
	if v := args.Get(0); v != nil {
		out = v.(*model.Document)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id, userID string) (*service.DeleteResult, error) {
	args := m.Called(ctx, id, userID)
	var out *service.DeleteResult
	if v := args.Get(0); v != nil {
		out = v.(*service.DeleteResult)
	}
	return out, args.Error(1)
}

func (m *MockDocumentService) Stats(ctx context.Context) (*service.DocumentStatsView, error) {
	args := m.Called(ctx)
	var out *service.DocumentStatsView
	if v := args.Get(0); v != nil {
		out = v.(*service.DocumentStatsView)
	}
	return out, args.Error(1)
}
