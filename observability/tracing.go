package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// InitTracer initializes OpenTelemetry tracing with an OTLP/gRPC exporter
// pointed at collectorEndpoint. Returns a shutdown function that must be
// called on service termination to flush buffered spans.
func InitTracer(serviceName, collectorEndpoint string) (func(context.Context) error, error) {
	ctx := context.Background()

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(collectorEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// Tracer is the package-wide tracer behind the Start*Span helpers below.
var Tracer = otel.Tracer("concilium/core")

// StartRunSpan opens the root span for one deliberation run.
func StartRunSpan(ctx context.Context, runID, prompt string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, "deliberation.run",
		oteltrace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("prompt.length", len(prompt)),
		),
	)
}

// StartStageSpan opens a span for one pipeline stage (the orchestrator
// passes "compete" and "judge-and-synthesize") as a child of the run span
// carried on ctx.
func StartStageSpan(ctx context.Context, stage string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, "deliberation.stage."+stage)
}

// StartAgentSpan opens a span for one agent execution.
func StartAgentSpan(ctx context.Context, provider, instanceKey string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, "deliberation.agent.execute",
		oteltrace.WithAttributes(
			attribute.String("agent.provider", provider),
			attribute.String("agent.instance_key", instanceKey),
		),
	)
}

// StartJurorSpan opens a span for one juror's ranking call.
func StartJurorSpan(ctx context.Context, model string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, "deliberation.juror.rank",
		oteltrace.WithAttributes(attribute.String("juror.model", model)),
	)
}

// StartSynthesisSpan opens a span for the chairman's synthesis call.
func StartSynthesisSpan(ctx context.Context, model string) (context.Context, oteltrace.Span) {
	return Tracer.Start(ctx, "deliberation.synthesize",
		oteltrace.WithAttributes(attribute.String("chairman.model", model)),
	)
}
