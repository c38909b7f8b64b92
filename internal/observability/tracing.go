// Package observability provides OpenTelemetry integration for distributed tracing.
//
// Traces are exported over OTLP HTTP to a local collector agent
// (localhost:4318 by default). The agent handles authentication and
// forwarding, so no API keys live in the app. Tracing failures never
// break the dashboard: if the exporter cannot be created, tracing is
// disabled and a no-op shutdown is returned.
//
// Config file (~/.docdash/config.yaml):
//
//	tracing:
//	  enabled: true
//	  agent_host: "localhost:4318"
//	  environment: "dev"
//	  service_name: "docdash"
package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config for OTLP trace setup.
type Config struct {
	// AgentHost is the collector OTLP HTTP endpoint (default: localhost:4318)
	AgentHost string
	// Environment is the deployment environment (dev, staging, prod)
	Environment string
	// ServiceName is the service name shown in the APM UI
	ServiceName string
}

// DefaultAgentHost is the default OTLP HTTP endpoint.
const DefaultAgentHost = "localhost:4318"

// Setup installs a global TracerProvider exporting to the local agent.
//
// Returns a shutdown function that flushes pending spans. Setup never
// fails hard: exporter creation errors disable tracing and return a
// no-op shutdown.
func Setup(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	agentHost := cfg.AgentHost
	if agentHost == "" {
		agentHost = DefaultAgentHost
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "docdash"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(agentHost),
		otlptracehttp.WithInsecure(), // localhost doesn't need TLS
	)
	if err != nil {
		slog.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		res = resource.Default()
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	slog.Debug("tracing enabled",
		"agent", agentHost,
		"service", serviceName,
		"environment", cfg.Environment,
	)

	return provider.Shutdown, nil
}
