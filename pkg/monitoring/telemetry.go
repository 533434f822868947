package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

var (
	exporter          *prometheus.Exporter
	meterProvider     *sdkmetric.MeterProvider
	meterName         string
	admissionCounter  metric.Int64Counter
	evictionCounter   metric.Int64Counter
	botCallCounter    metric.Int64Counter
	botCallLatency    metric.Float64Histogram
	botCallErrCounter metric.Int64Counter
	passDurationHist  metric.Float64Histogram
	passInFlight      metric.Int64UpDownCounter
	updateCounter     metric.Int64Counter
	initOnce          sync.Once
	httpHandler       http.Handler
)

// Config captures the minimal setup parameters for the service.
type Config struct {
	ServiceName   string
	ResourceAttrs map[string]string
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter and runtime instrumentation.
func Setup(ctx context.Context, cfg Config) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "unknown-service"
	}

	var attrs []attribute.KeyValue
	attrs = append(attrs, semconv.ServiceName(cfg.ServiceName))
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	var initErr error

	initOnce.Do(func() {
		exp, err := prometheus.New(prometheus.WithoutUnits())
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(
			resource.Default(),
			resource.NewSchemaless(attrs...),
		)
		if err != nil {
			initErr = err
			return
		}

		meterName = cfg.ServiceName
		meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exp),
			sdkmetric.WithResource(res),
		)

		otel.SetMeterProvider(meterProvider)
		exporter = exp
		httpHandler = promhttp.Handler()

		meter := meterProvider.Meter(meterName)
		admissionCounter, err = meter.Int64Counter(
			"admissions_total",
			metric.WithDescription("Admission attempts grouped by outcome"),
		)
		if err != nil {
			initErr = err
			return
		}

		evictionCounter, err = meter.Int64Counter(
			"evictions_total",
			metric.WithDescription("Members processed by eviction passes grouped by outcome"),
		)
		if err != nil {
			initErr = err
			return
		}

		botCallCounter, err = meter.Int64Counter(
			"bot_api_calls_total",
			metric.WithDescription("Total number of Telegram bot API calls"),
		)
		if err != nil {
			initErr = err
			return
		}

		botCallLatency, err = meter.Float64Histogram(
			"bot_api_call_duration_seconds",
			metric.WithDescription("Duration of Telegram bot API calls in seconds"),
		)
		if err != nil {
			initErr = err
			return
		}

		botCallErrCounter, err = meter.Int64Counter(
			"bot_api_call_errors_total",
			metric.WithDescription("Number of failed Telegram bot API calls"),
		)
		if err != nil {
			initErr = err
			return
		}

		passDurationHist, err = meter.Float64Histogram(
			"eviction_pass_duration_seconds",
			metric.WithDescription("End-to-end eviction pass durations"),
		)
		if err != nil {
			initErr = err
			return
		}

		passInFlight, err = meter.Int64UpDownCounter(
			"eviction_pass_inflight",
			metric.WithDescription("Number of eviction passes currently running"),
		)
		if err != nil {
			initErr = err
			return
		}

		updateCounter, err = meter.Int64Counter(
			"bot_updates_total",
			metric.WithDescription("Inbound bot updates grouped by kind"),
		)
		if err != nil {
			initErr = err
			return
		}

		// Start Go runtime metrics (goroutines, GC, etc.)
		_ = runtime.Start(
			runtime.WithMinimumReadMemStatsInterval(10*time.Second),
			runtime.WithMeterProvider(meterProvider),
		)
	})

	if initErr != nil {
		return nil, initErr
	}

	return func(ctx context.Context) error {
		if meterProvider != nil {
			return meterProvider.Shutdown(ctx)
		}
		return nil
	}, nil
}

// Handler returns the Prometheus /metrics handler.
func Handler() http.Handler {
	if httpHandler != nil {
		return httpHandler
	}
	return http.NotFoundHandler()
}

// RecordAdmission counts one admission attempt by outcome.
func RecordAdmission(ctx context.Context, outcome string) {
	if admissionCounter == nil {
		return
	}

	admissionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("admission.outcome", outcome),
	))
}

// RecordEviction counts members processed by an eviction pass.
func RecordEviction(ctx context.Context, outcome string, count int64) {
	if evictionCounter == nil || count == 0 {
		return
	}

	evictionCounter.Add(ctx, count, metric.WithAttributes(
		attribute.String("eviction.outcome", outcome),
	))
}

// RecordBotCall tracks latency and errors for Telegram bot API calls.
func RecordBotCall(ctx context.Context, method string, duration time.Duration, err error) {
	if botCallCounter == nil || botCallLatency == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("bot.method", method),
		attribute.Bool("bot.success", err == nil),
	}

	botCallCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	botCallLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil && botCallErrCounter != nil {
		botCallErrCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordPassDuration logs how long an eviction pass took.
func RecordPassDuration(ctx context.Context, duration time.Duration) {
	if passDurationHist == nil {
		return
	}

	passDurationHist.Record(ctx, duration.Seconds())
}

// PassInFlightAdd adjusts the in-flight pass counter (use delta +1 / -1).
func PassInFlightAdd(ctx context.Context, delta int64) {
	if passInFlight == nil {
		return
	}

	passInFlight.Add(ctx, delta)
}

// RecordUpdate counts one inbound bot update by kind.
func RecordUpdate(ctx context.Context, kind string) {
	if updateCounter == nil {
		return
	}

	updateCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("update.kind", kind),
	))
}
