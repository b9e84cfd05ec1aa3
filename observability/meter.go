package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/authmaster/logger"
)

// Outcome values recorded on auth metrics and spans.
const (
	OutcomeMatched    = "matched"
	OutcomeUnresolved = "unresolved"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
)

// Adapter terminal states recorded by RecordAdapter.
const (
	StateAuthenticated   = "authenticated"
	StateUnauthenticated = "unauthenticated"
	StateRejected        = "rejected"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Insecure       bool
	Interval       time.Duration
}

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// AuthMetrics holds the instruments recorded by the auth core.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	resolutions metric.Int64Counter
	verifies    metric.Int64Counter
	issues      metric.Int64Counter
	adapters    metric.Int64Counter
}

// NewAuthMetrics creates the auth instruments on the given meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	resolutions, err := meter.Int64Counter("auth.resolution.total",
		metric.WithDescription("Multi-key credential resolutions by outcome and matched key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.resolution.total counter: %w", err)
	}
	verifies, err := meter.Int64Counter("auth.verify.total",
		metric.WithDescription("Token verifications by key and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.verify.total counter: %w", err)
	}
	issues, err := meter.Int64Counter("auth.issue.total",
		metric.WithDescription("Token issuances by key and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.issue.total counter: %w", err)
	}
	adapters, err := meter.Int64Counter("auth.adapter.total",
		metric.WithDescription("Adapter decisions by transport and state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.adapter.total counter: %w", err)
	}
	return &AuthMetrics{
		resolutions: resolutions,
		verifies:    verifies,
		issues:      issues,
		adapters:    adapters,
	}, nil
}

// RecordResolution records one resolver pass. keyName is empty when unresolved.
func (m *AuthMetrics) RecordResolution(ctx context.Context, keyName, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", keyName),
		attribute.String("outcome", outcome),
	))
}

// RecordVerify records one codec verification.
func (m *AuthMetrics) RecordVerify(ctx context.Context, keyName, outcome string) {
	if m == nil {
		return
	}
	m.verifies.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", keyName),
		attribute.String("outcome", outcome),
	))
}

// RecordIssue records one codec issuance.
func (m *AuthMetrics) RecordIssue(ctx context.Context, keyName, outcome string) {
	if m == nil {
		return
	}
	m.issues.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", keyName),
		attribute.String("outcome", outcome),
	))
}

// RecordAdapter records the terminal state of one adapter call.
func (m *AuthMetrics) RecordAdapter(ctx context.Context, transport, state string) {
	if m == nil {
		return
	}
	m.adapters.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("state", state),
	))
}
