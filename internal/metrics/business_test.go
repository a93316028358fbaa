package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertBizMetricLine checks that the Prometheus output contains a business metric
// matching the given name, partial label pattern, and value. Uses regex to handle
// extra OTel scope labels injected by the Prometheus exporter.
func assertBizMetricLine(t *testing.T, output, name, labels, value string) {
	t.Helper()
	pattern := name + `\{[^}]*` + labels + `[^}]*\} ` + value
	assert.Regexp(t, pattern, output)
}

func TestNewBusinessMetrics(t *testing.T) {
	t.Run("Success_CreateBusinessMetrics", func(t *testing.T) {
		provider, err := NewProvider("test_app")
		require.NoError(t, err)

		businessMetrics, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")

		require.NoError(t, err)
		assert.NotNil(t, businessMetrics)
	})
}

func TestBusinessMetrics_RecordOperation(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulOperation", func(t *testing.T) {
		// Should not panic
		bm.RecordOperation(context.Background(), "coordinator", "pre_write_pass", "success")
	})

	t.Run("Success_RecordFailedOperation", func(t *testing.T) {
		// Should not panic
		bm.RecordOperation(context.Background(), "coordinator", "pre_write_pass", "error")
	})

	t.Run("Success_RecordMultipleDomains", func(t *testing.T) {
		bm.RecordOperation(context.Background(), "coordinator", "pre_write_pass", "success")
		bm.RecordOperation(context.Background(), "encryption", "encrypt_batch", "success")
		bm.RecordOperation(context.Background(), "coordinator", "resolve_many", "error")
	})
}

func TestBusinessMetrics_RecordDuration(t *testing.T) {
	provider, err := NewProvider("test_app")
	require.NoError(t, err)

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "test_app")
	require.NoError(t, err)

	t.Run("Success_RecordSuccessfulDuration", func(t *testing.T) {
		// Should not panic
		bm.RecordDuration(context.Background(), "coordinator", "pre_write_pass", 123*time.Millisecond, "success")
	})

	t.Run("Success_RecordFailedDuration", func(t *testing.T) {
		// Should not panic
		bm.RecordDuration(context.Background(), "coordinator", "pre_write_pass", 456*time.Millisecond, "error")
	})

	t.Run("Success_RecordMultipleDomains", func(t *testing.T) {
		bm.RecordDuration(context.Background(), "coordinator", "pre_write_pass", 100*time.Millisecond, "success")
		bm.RecordDuration(context.Background(), "encryption", "encrypt_batch", 200*time.Millisecond, "success")
		bm.RecordDuration(context.Background(), "coordinator", "resolve_many", 300*time.Millisecond, "error")
	})
}

func TestNewNoOpBusinessMetrics(t *testing.T) {
	noOpMetrics := NewNoOpBusinessMetrics()

	assert.NotNil(t, noOpMetrics)
	assert.IsType(t, &NoOpBusinessMetrics{}, noOpMetrics)

	t.Run("NoOp_RecordOperationDoesNotPanic", func(t *testing.T) {
		// Should not panic or do anything
		noOpMetrics.RecordOperation(context.Background(), "coordinator", "pre_write_pass", "success")
		noOpMetrics.RecordOperation(context.Background(), "encryption", "encrypt_batch", "error")
	})

	t.Run("NoOp_RecordDurationDoesNotPanic", func(t *testing.T) {
		// Should not panic or do anything
		noOpMetrics.RecordDuration(
			context.Background(),
			"coordinator",
			"pre_write_pass",
			100*time.Millisecond,
			"success",
		)
		noOpMetrics.RecordDuration(context.Background(), "encryption", "encrypt_batch", 200*time.Millisecond, "error")
	})
}

func TestBusinessMetrics_Integration(t *testing.T) {
	provider, err := NewProvider("integration_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	bm, err := NewBusinessMetrics(provider.MeterProvider(), "integration_test")
	require.NoError(t, err)

	// Record various operations
	ctx := context.Background()

	// Record operation counts
	bm.RecordOperation(ctx, "coordinator", "pre_write_pass", "success")
	bm.RecordOperation(ctx, "coordinator", "pre_write_pass", "success")
	bm.RecordOperation(ctx, "coordinator", "pre_write_pass", "error")
	bm.RecordOperation(ctx, "encryption", "encrypt_batch", "success")
	bm.RecordOperation(ctx, "encryption", "decrypt_batch", "success")
	bm.RecordOperation(ctx, "coordinator", "resolve_many", "success")

	// Record operation durations
	bm.RecordDuration(ctx, "coordinator", "pre_write_pass", 50*time.Millisecond, "success")
	bm.RecordDuration(ctx, "coordinator", "pre_write_pass", 60*time.Millisecond, "success")
	bm.RecordDuration(ctx, "coordinator", "pre_write_pass", 100*time.Millisecond, "error")
	bm.RecordDuration(ctx, "encryption", "encrypt_batch", 10*time.Millisecond, "success")
	bm.RecordDuration(ctx, "encryption", "decrypt_batch", 20*time.Millisecond, "success")
	bm.RecordDuration(ctx, "coordinator", "resolve_many", 150*time.Millisecond, "success")

	// Metrics should be recorded without errors
	// Verify metrics in Prometheus registry
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	provider.Handler().ServeHTTP(w, req)

	output := w.Body.String()

	// Check operation counts
	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="coordinator".*operation="pre_write_pass".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="coordinator".*operation="pre_write_pass".*status="error"`,
		`1`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operations_total`,
		`domain="encryption".*operation="encrypt_batch".*status="success"`,
		`1`,
	)

	// Check durations (existence)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operation_duration_seconds_count`,
		`domain="coordinator".*operation="pre_write_pass".*status="success"`,
		`2`,
	)
	assertBizMetricLine(
		t,
		output,
		`integration_test_operation_duration_seconds_sum`,
		`domain="coordinator".*operation="pre_write_pass".*status="success"`,
		``,
	)
}
