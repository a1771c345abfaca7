package api

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var (
	tracerProvider *tracesdk.TracerProvider
	tracingMu      sync.Mutex
)

// InitTracing 初始化 OpenTelemetry 追踪,未启用时不做任何事
func InitTracing(cfg config.TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerURL)))
	if err != nil {
		return err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(tracingServiceName(cfg)),
		),
	)
	if err != nil {
		return err
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(res),
	)

	tracingMu.Lock()
	tracerProvider = tp
	tracingMu.Unlock()

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return nil
}

func tracingServiceName(cfg config.TracingConfig) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return serviceName
}

// TracingMiddleware 追踪中间件
func TracingMiddleware(cfg config.TracingConfig) gin.HandlerFunc {
	return otelgin.Middleware(tracingServiceName(cfg))
}

// ShutdownTracing 关闭追踪,刷新未发送的 span
func ShutdownTracing(ctx context.Context) error {
	tracingMu.Lock()
	tp := tracerProvider
	tracerProvider = nil
	tracingMu.Unlock()

	if tp != nil {
		return tp.Shutdown(ctx)
	}
	return nil
}
