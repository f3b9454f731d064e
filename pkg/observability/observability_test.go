package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:       "debug",
		Format:      LogFormatJSON,
		Output:      &buf,
		ServiceName: "jobtrack",
		Environment: "test",
	})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCorrelationID(ctx, "corr-1")
	ctx = WithOwnerID(ctx, "user_1")
	logger.InfoContext(ctx, "job created", "job_id", "j1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "job created", entry["msg"])
	assert.Equal(t, "jobtrack", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-1", entry[RequestIDKey])
	assert.Equal(t, "corr-1", entry[CorrelationIDKey])
	assert.Equal(t, "user_1", entry[OwnerIDKey])
	assert.Equal(t, "j1", entry["job_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestContextIDs(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	assert.NotEmpty(t, RequestIDFromContext(ctx))

	ctx = WithCorrelationID(ctx, "")
	assert.NotEqual(t, "", CorrelationIDFromContext(ctx))
	assert.NotEqual(t, uuid.Nil, CorrelationUUID(ctx))

	assert.Equal(t, "", OwnerIDFromContext(context.Background()))
	assert.Equal(t, uuid.Nil, CorrelationUUID(WithCorrelationID(context.Background(), "not-a-uuid")))
}

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()

	m.Counter(MetricJobsCreated, 1, T("plan", "free"))
	m.Counter(MetricJobsCreated, 2, T("plan", "free"))
	m.Gauge(MetricOutboxLag, 1.5)
	m.Timing(MetricHTTPDuration, time.Second, T("route", "/api/jobs"), T("method", "GET"))

	assert.Equal(t, int64(3), m.GetCounter(MetricJobsCreated, T("plan", "free")))
	assert.Equal(t, int64(0), m.GetCounter(MetricJobsCreated, T("plan", "pro")))
	assert.Equal(t, 1.5, m.GetGauge(MetricOutboxLag))
	assert.Len(t, m.GetTimings(MetricHTTPDuration, T("method", "GET"), T("route", "/api/jobs")), 1)
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.Counter("x", 1)
		m.Gauge("y", 2)
		m.Timing("z", time.Millisecond)
	})
}

func TestPrometheusMetrics_Exposition(t *testing.T) {
	m := NewPrometheusMetrics()
	m.Counter(MetricJobsCreated, 2, T("plan", "free"))
	m.Gauge(MetricOutboxLag, 3)
	m.Timing(MetricHTTPDuration, 150*time.Millisecond, T("method", "POST"))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	out := string(body)
	assert.Contains(t, out, `jobtrack_jobs_created_total{plan="free"} 2`)
	assert.Contains(t, out, "jobtrack_outbox_lag_seconds 3")
	assert.True(t, strings.Contains(out, `jobtrack_http_request_duration_seconds_count{method="POST"} 1`))
}

func TestTimer_Stop(t *testing.T) {
	m := NewInMemoryMetrics()

	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: LogFormatJSON, Output: &buf})
	ctx := WithRequestID(context.Background(), "req-1")

	StartTimer("create_job").WithMetrics(m).Stop(ctx, nil)
	StartTimer("create_job").WithMetrics(m).WithLogger(logger).Stop(ctx, errors.New("boom"))

	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "create_job"), T("outcome", "ok")))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, T("operation", "create_job"), T("outcome", "error")))
	assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, T("operation", "create_job")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "operation error", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestHealthRegistry(t *testing.T) {
	t.Run("healthy with no checks", func(t *testing.T) {
		assert.Equal(t, HealthStatusHealthy, NewHealthRegistry().Check(context.Background()).Status)
	})

	t.Run("degraded cache does not fail storage", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return nil }))
		r.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error { return errors.New("refused") }))

		health := r.Check(context.Background())
		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Equal(t, HealthStatusHealthy, health.Checks["database"].Status)
		assert.Contains(t, health.Checks["redis"].Message, "refused")
	})

	t.Run("unhealthy wins", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", PingChecker("database", HealthStatusUnhealthy, func(context.Context) error { return errors.New("down") }))
		r.Register("redis", PingChecker("redis", HealthStatusDegraded, func(context.Context) error { return errors.New("down") }))

		assert.Equal(t, HealthStatusUnhealthy, r.Check(context.Background()).Status)
	})
}

func TestInitTracing_StdoutExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(TracingConfig{
		Exporter:    TracingStdout,
		ServiceName: "jobtrack-test",
		Output:      &buf,
	})
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "jobtrack/test", "Repo.Create")
	assert.True(t, span.SpanContext().IsValid())
	EndSpan(span, errors.New("insert failed"))

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "Repo.Create")
	assert.Contains(t, buf.String(), "insert failed")
}

func TestInitTracing_None(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Exporter: TracingNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(TracingConfig{Exporter: "zipkin"})
	assert.Error(t, err)
}
