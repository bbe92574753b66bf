package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"eventhub/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials/insecure"
)

type Telemetry interface {
	RecordSignup(ctx context.Context, method string, success bool)
	RecordRegistration(ctx context.Context, outcome string)
	RecordBookmarkToggle(ctx context.Context, action string)
	RecordReview(ctx context.Context, rating int)
	RecordSync(ctx context.Context, result SyncResult)
	Shutdown(ctx context.Context) error
}

// SyncResult summarises one external sync run for metrics.
type SyncResult struct {
	Source   string
	Created  int
	Updated  int
	Skipped  int
	Duration time.Duration
	Err      error
}

type OpenTelemetry struct {
	tracerProvider *trace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
	meterProvider  *sdkmetric.MeterProvider
	config         config.TelemetryConfig

	// Metrics instruments
	signups         metric.Int64Counter
	registrations   metric.Int64Counter
	bookmarkToggles metric.Int64Counter
	reviews         metric.Int64Counter
	reviewRatings   metric.Int64Histogram
	syncRuns        metric.Int64Counter
	syncItems       metric.Int64Counter
	syncDuration    metric.Float64Histogram
}

// Noop returns a Telemetry that records nothing.
func Noop() Telemetry {
	return &OpenTelemetry{}
}

// NewOpenTelemetry exports traces, logs and metrics over OTLP gRPC. It returns
// a disabled instance when telemetry is off or no collector is configured.
func NewOpenTelemetry(ctx context.Context, cfg config.TelemetryConfig) (Telemetry, error) {
	if !cfg.Enabled || cfg.ExporterURL == "" {
		slog.Info("Telemetry disabled or no exporter URL provided")
		return &OpenTelemetry{config: cfg}, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	)
	creds := insecure.NewCredentials()

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.ExporterURL),
		otlptracegrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.ExporterURL),
		otlploggrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.ExporterURL),
		otlpmetricgrpc.WithTLSCredentials(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	tel := &OpenTelemetry{
		config: cfg,
		tracerProvider: trace.NewTracerProvider(
			trace.WithBatcher(traceExporter),
			trace.WithResource(res),
			trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplingRatio))),
		),
		loggerProvider: sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
			sdklog.WithResource(res),
		),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		),
	}

	otel.SetTracerProvider(tel.tracerProvider)
	otel.SetMeterProvider(tel.meterProvider)
	global.SetLoggerProvider(tel.loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if err := tel.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	slog.Info("Telemetry initialized",
		"service", cfg.ServiceName,
		"environment", cfg.Environment,
		"endpoint", cfg.ExporterURL,
		"sampling_ratio", cfg.SamplingRatio,
	)
	return tel, nil
}

func (t *OpenTelemetry) initMetrics() error {
	if !t.IsEnabled() {
		return nil
	}

	meter := otel.Meter("eventhub")

	var err error

	t.signups, err = meter.Int64Counter(
		"eventhub_user_signups_total",
		metric.WithDescription("Total number of user signups"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create signups counter: %w", err)
	}

	t.registrations, err = meter.Int64Counter(
		"eventhub_event_registrations_total",
		metric.WithDescription("Event registration attempts by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create registrations counter: %w", err)
	}

	t.bookmarkToggles, err = meter.Int64Counter(
		"eventhub_bookmark_toggles_total",
		metric.WithDescription("Bookmark toggles by resulting action"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create bookmark toggles counter: %w", err)
	}

	t.reviews, err = meter.Int64Counter(
		"eventhub_reviews_total",
		metric.WithDescription("Total number of reviews submitted"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reviews counter: %w", err)
	}

	t.reviewRatings, err = meter.Int64Histogram(
		"eventhub_review_rating",
		metric.WithDescription("Distribution of submitted review ratings"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5),
	)
	if err != nil {
		return fmt.Errorf("failed to create review rating histogram: %w", err)
	}

	t.syncRuns, err = meter.Int64Counter(
		"eventhub_sync_runs_total",
		metric.WithDescription("External event sync runs by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync runs counter: %w", err)
	}

	t.syncItems, err = meter.Int64Counter(
		"eventhub_sync_items_total",
		metric.WithDescription("External events processed by sync, by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync items counter: %w", err)
	}

	t.syncDuration, err = meter.Float64Histogram(
		"eventhub_sync_duration_seconds",
		metric.WithDescription("Duration of external event sync runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create sync duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops every provider.
func (t *OpenTelemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.tracerProvider != nil {
		errs = append(errs, t.tracerProvider.Shutdown(ctx))
	}
	if t.loggerProvider != nil {
		errs = append(errs, t.loggerProvider.Shutdown(ctx))
	}
	if t.meterProvider != nil {
		errs = append(errs, t.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// IsEnabled returns whether telemetry is enabled
func (t *OpenTelemetry) IsEnabled() bool {
	return t.config.Enabled && t.tracerProvider != nil
}

// OTelHandler is a slog.Handler that sends logs to OpenTelemetry
type OTelHandler struct {
	logger log.Logger
	opts   *slog.HandlerOptions
}

// NewOTelHandler creates a new OpenTelemetry slog handler
func NewOTelHandler(opts *slog.HandlerOptions) *OTelHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &OTelHandler{
		logger: global.GetLoggerProvider().Logger("eventhub.slog"),
		opts:   opts,
	}
}

// Enabled reports whether the handler handles records at the given level
func (h *OTelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Level != nil {
		return level >= h.opts.Level.Level()
	}
	return level >= slog.LevelInfo
}

// Handle handles the Record
func (h *OTelHandler) Handle(ctx context.Context, record slog.Record) error {
	// Convert slog level to OpenTelemetry log level
	otelLevel := convertSlogLevel(record.Level)

	// Create log record
	logRecord := log.Record{}
	logRecord.SetTimestamp(record.Time)
	logRecord.SetBody(log.StringValue(record.Message))
	logRecord.SetSeverity(otelLevel)
	logRecord.SetSeverityText(record.Level.String())

	// Add trace context if available
	if span := oteltrace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logRecord.AddAttributes(
			log.String("trace_id", spanCtx.TraceID().String()),
			log.String("span_id", spanCtx.SpanID().String()),
			log.String("trace_flags", spanCtx.TraceFlags().String()),
		)
	}

	// Add source information
	if h.opts.AddSource {
		fs := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := fs.Next()
		if f.File != "" {
			logRecord.AddAttributes(
				log.String("code.filepath", f.File),
				log.String("code.function", f.Function),
				log.Int("code.lineno", f.Line),
			)
		}
	}

	// Add all attributes from the slog record
	record.Attrs(func(attr slog.Attr) bool {
		logRecord.AddAttributes(convertSlogAttr(attr))
		return true
	})

	// Emit the log record
	h.logger.Emit(ctx, logRecord)

	return nil
}

// WithAttrs returns a new Handler whose attributes consist of both the receiver's attributes and the arguments
func (h *OTelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// For simplicity, we'll create a new handler
	// In a production implementation, you might want to store these attrs
	return &OTelHandler{
		logger: h.logger,
		opts:   h.opts,
	}
}

// WithGroup returns a new Handler with the given group appended to the receiver's existing groups
func (h *OTelHandler) WithGroup(name string) slog.Handler {
	// For simplicity, we'll create a new handler
	// In a production implementation, you might want to handle groups
	return &OTelHandler{
		logger: h.logger,
		opts:   h.opts,
	}
}

// convertSlogLevel converts slog.Level to log.Severity
func convertSlogLevel(level slog.Level) log.Severity {
	switch {
	case level >= slog.LevelError:
		return log.SeverityError
	case level >= slog.LevelWarn:
		return log.SeverityWarn
	case level >= slog.LevelInfo:
		return log.SeverityInfo
	default:
		return log.SeverityDebug
	}
}

// convertSlogAttr converts slog.Attr to log.KeyValue
func convertSlogAttr(attr slog.Attr) log.KeyValue {
	switch attr.Value.Kind() {
	case slog.KindString:
		return log.String(attr.Key, attr.Value.String())
	case slog.KindInt64:
		return log.Int64(attr.Key, attr.Value.Int64())
	case slog.KindFloat64:
		return log.Float64(attr.Key, attr.Value.Float64())
	case slog.KindBool:
		return log.Bool(attr.Key, attr.Value.Bool())
	case slog.KindDuration:
		return log.Int64(attr.Key, attr.Value.Duration().Nanoseconds())
	case slog.KindTime:
		return log.String(attr.Key, attr.Value.Time().Format(time.RFC3339))
	default:
		return log.String(attr.Key, attr.Value.String())
	}
}

// RecordSignup records a signup attempt. method is "password" or "github".
func (t *OpenTelemetry) RecordSignup(ctx context.Context, method string, success bool) {
	if !t.IsEnabled() || t.signups == nil {
		return
	}

	t.signups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	))
}

func (t *OpenTelemetry) RecordRegistration(ctx context.Context, outcome string) {
	if !t.IsEnabled() || t.registrations == nil {
		return
	}

	t.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (t *OpenTelemetry) RecordBookmarkToggle(ctx context.Context, action string) {
	if !t.IsEnabled() || t.bookmarkToggles == nil {
		return
	}

	t.bookmarkToggles.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func (t *OpenTelemetry) RecordReview(ctx context.Context, rating int) {
	if !t.IsEnabled() || t.reviews == nil {
		return
	}

	t.reviews.Add(ctx, 1)
	t.reviewRatings.Record(ctx, int64(rating))
}

// RecordSync records one sync run and the per-item outcomes it produced
func (t *OpenTelemetry) RecordSync(ctx context.Context, result SyncResult) {
	if !t.IsEnabled() || t.syncRuns == nil {
		return
	}

	status := "success"
	if result.Err != nil {
		status = "failure"
	}
	source := attribute.String("source", result.Source)

	t.syncRuns.Add(ctx, 1, metric.WithAttributes(source, attribute.String("status", status)))
	t.syncDuration.Record(ctx, result.Duration.Seconds(), metric.WithAttributes(source))

	for outcome, n := range map[string]int{"created": result.Created, "updated": result.Updated, "skipped": result.Skipped} {
		if n > 0 {
			t.syncItems.Add(ctx, int64(n), metric.WithAttributes(source, attribute.String("outcome", outcome)))
		}
	}

	slog.DebugContext(ctx, "Sync metrics recorded",
		"source", result.Source,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"status", status,
	)
}
