package coordinator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/tokenfield/internal/coordinator"
	coordinatorMocks "github.com/allisson/tokenfield/internal/coordinator/mocks"
	"github.com/allisson/tokenfield/internal/record"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics to avoid dependency issues.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func TestCoordinatorWithMetrics_PreWritePass(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	reg := newTestRegistry(t, false)
	rec := record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true))

	t.Run("PreWritePass_Success", func(t *testing.T) {
		// Arrange
		mockNext.On("PreWritePass", ctx, rec).Return(nil).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "pre_write_pass", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "pre_write_pass", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		// Act
		err := c.PreWritePass(ctx, rec)

		// Assert
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("PreWritePass_Error", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("encrypt failed")

		mockNext.On("PreWritePass", ctx, rec).Return(expectedErr).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "pre_write_pass", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "pre_write_pass", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		// Act
		err := c.PreWritePass(ctx, rec)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestCoordinatorWithMetrics_PostIdentityPass(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	reg := newTestRegistry(t, false)
	rec := record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true))

	t.Run("PostIdentityPass_Success", func(t *testing.T) {
		// Arrange
		mockNext.On("PostIdentityPass", ctx, rec).Return(nil).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "post_identity_pass", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "post_identity_pass", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		// Act
		err := c.PostIdentityPass(ctx, rec)

		// Assert
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("PostIdentityPass_Error", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("targeted update failed")

		mockNext.On("PostIdentityPass", ctx, rec).Return(expectedErr).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "post_identity_pass", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "post_identity_pass", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		// Act
		err := c.PostIdentityPass(ctx, rec)

		// Assert
		assert.Error(t, err)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestCoordinatorWithMetrics_Resolve(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	reg := newTestRegistry(t, false)
	rec := record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true))

	t.Run("Resolve_Success", func(t *testing.T) {
		// Arrange
		mockNext.On("Resolve", ctx, rec, "email").Return("a@b.com", nil).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "resolve", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "resolve", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		// Act
		value, err := c.Resolve(ctx, rec, "email")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, "a@b.com", value)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Resolve_Error", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("decrypt failed")

		mockNext.On("Resolve", ctx, rec, "email").Return("", expectedErr).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "resolve", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "resolve", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		// Act
		value, err := c.Resolve(ctx, rec, "email")

		// Assert
		assert.Error(t, err)
		assert.Empty(t, value)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestCoordinatorWithMetrics_ResolveMany(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	reg := newTestRegistry(t, false)
	rec := record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true))
	fields := []string{"email", "full_name"}

	t.Run("ResolveMany_Success", func(t *testing.T) {
		// Arrange
		expectedValues := map[string]string{"email": "a@b.com", "full_name": "Ana"}

		mockNext.On("ResolveMany", ctx, rec, fields).Return(expectedValues, nil).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "resolve_many", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "resolve_many", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		// Act
		values, err := c.ResolveMany(ctx, rec, fields)

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, expectedValues, values)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("ResolveMany_Error", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("decrypt failed")

		mockNext.On("ResolveMany", ctx, rec, fields).Return(nil, expectedErr).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "resolve_many", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "resolve_many", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		// Act
		values, err := c.ResolveMany(ctx, rec, fields)

		// Assert
		assert.Error(t, err)
		assert.Nil(t, values)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestCoordinatorWithMetrics_Preload(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	ctx := context.Background()
	reg := newTestRegistry(t, false)
	recs := []*record.Record{
		record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true)),
	}

	t.Run("Preload_Success", func(t *testing.T) {
		// Arrange
		mockNext.On("Preload", ctx, recs, []string{"email"}).Return(nil).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "preload", "success").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "preload", mock.AnythingOfType("time.Duration"), "success").
			Return().
			Once()

		// Act
		err := c.Preload(ctx, recs, "email")

		// Assert
		assert.NoError(t, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})

	t.Run("Preload_Error", func(t *testing.T) {
		// Arrange
		expectedErr := errors.New("decrypt failed")

		mockNext.On("Preload", ctx, recs, []string{"email"}).Return(expectedErr).Once()
		mockMetrics.On("RecordOperation", ctx, "coordinator", "preload", "error").Return().Once()
		mockMetrics.On("RecordDuration", ctx, "coordinator", "preload", mock.AnythingOfType("time.Duration"), "error").
			Return().
			Once()

		// Act
		err := c.Preload(ctx, recs, "email")

		// Assert
		assert.Error(t, err)
		assert.Equal(t, expectedErr, err)
		mockNext.AssertExpectations(t)
		mockMetrics.AssertExpectations(t)
	})
}

func TestCoordinatorWithMetrics_InvalidateCache(t *testing.T) {
	mockNext := new(coordinatorMocks.MockCoordinator)
	mockMetrics := &mockBusinessMetrics{}
	c := coordinator.NewWithMetrics(mockNext, mockMetrics)

	reg := newTestRegistry(t, false)
	rec := record.New(reg, record.NewMemoryAdapter(map[string]any{"id": "cus_1"}, true))

	// Arrange
	mockNext.On("InvalidateCache", rec).Return().Once()

	// Act
	c.InvalidateCache(rec)

	// Assert: a local operation records no metrics.
	mockNext.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}
