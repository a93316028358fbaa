// Package mocks provides mock implementations for testing the coordinator and
// other encryption client consumers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/tokenfield/internal/encryption"
)

// MockClient is a mock implementation of encryption.Client for testing.
type MockClient struct {
	mock.Mock
}

// EncryptBatch mocks the EncryptBatch method of Client.
func (m *MockClient) EncryptBatch(
	ctx context.Context,
	items []encryption.BatchItem,
) (map[string]string, error) {
	args := m.Called(ctx, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// DecryptBatch mocks the DecryptBatch method of Client.
func (m *MockClient) DecryptBatch(ctx context.Context, tokens []string) (map[string]string, error) {
	args := m.Called(ctx, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// SearchTokens mocks the SearchTokens method of Client.
func (m *MockClient) SearchTokens(ctx context.Context, plaintext string) ([]string, error) {
	args := m.Called(ctx, plaintext)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
