package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockStorageManager struct {
	mock.Mock
}

func (m *MockStorageManager) UploadProfileImage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (string, string, error) {
	args := m.Called(ctx, fileName, contentType, body, size)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorageManager) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
