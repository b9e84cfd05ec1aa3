// Package observability wires OpenTelemetry tracing and metrics for the
// credential verification service.
//
// With observability disabled nothing is installed and the OpenTelemetry
// global no-op providers apply, so instrumented code never needs a nil check
// on the provider:
//
//	shutdown, err := observability.Init(ctx, cfg, "authmaster")
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewAuthMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordResolution(ctx, "adminToken", observability.OutcomeMatched)
package observability
