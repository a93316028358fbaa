// Package mocks provides mock implementations for testing coordinator
// consumers and decorators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/tokenfield/internal/record"
)

// MockCoordinator is a mock implementation of coordinator.Coordinator for
// testing.
type MockCoordinator struct {
	mock.Mock
}

// PreWritePass mocks the PreWritePass method of Coordinator.
func (m *MockCoordinator) PreWritePass(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// PostIdentityPass mocks the PostIdentityPass method of Coordinator.
func (m *MockCoordinator) PostIdentityPass(ctx context.Context, rec *record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Resolve mocks the Resolve method of Coordinator.
func (m *MockCoordinator) Resolve(ctx context.Context, rec *record.Record, field string) (string, error) {
	args := m.Called(ctx, rec, field)
	return args.String(0), args.Error(1)
}

// ResolveMany mocks the ResolveMany method of Coordinator.
func (m *MockCoordinator) ResolveMany(
	ctx context.Context,
	rec *record.Record,
	fields []string,
) (map[string]string, error) {
	args := m.Called(ctx, rec, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

// Preload mocks the Preload method of Coordinator.
func (m *MockCoordinator) Preload(ctx context.Context, recs []*record.Record, fields ...string) error {
	args := m.Called(ctx, recs, fields)
	return args.Error(0)
}

// InvalidateCache mocks the InvalidateCache method of Coordinator.
func (m *MockCoordinator) InvalidateCache(rec *record.Record) {
	m.Called(rec)
}
