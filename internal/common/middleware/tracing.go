// Package middleware 提供 OpenTelemetry 链路追踪中间件
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "grocy-backend"

type tracingOptions struct {
	tracerName string
	skip       map[string]struct{}
}

// TracingOption 追踪中间件选项
type TracingOption func(*tracingOptions)

// WithTracerName 指定 tracer 名称，通常为服务名
func WithTracerName(name string) TracingOption {
	return func(o *tracingOptions) {
		if name != "" {
			o.tracerName = name
		}
	}
}

// WithSkipPaths 不为这些路径创建 span
func WithSkipPaths(paths ...string) TracingOption {
	return func(o *tracingOptions) {
		for _, p := range paths {
			o.skip[p] = struct{}{}
		}
	}
}

// Tracing 为每个请求创建服务端 span，并把 traceparent 回写到响应头
func Tracing(opts ...TracingOption) gin.HandlerFunc {
	o := &tracingOptions{tracerName: defaultTracerName, skip: map[string]struct{}{}}
	for _, opt := range opts {
		opt(o)
	}

	return func(c *gin.Context) {
		if _, skip := o.skip[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		// 全局 provider 可能晚于中间件注册才设置，每次请求重新获取
		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		name := c.Request.Method + " " + route
		if route == "" {
			name = "HTTP " + c.Request.Method
		}
		ctx, span := otel.Tracer(o.tracerName).Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(c.Request.Method),
				semconv.HTTPRoute(route),
				semconv.HTTPTarget(c.Request.URL.RequestURI()),
				attribute.String("client.address", c.ClientIP()),
			),
		)
		defer span.End()

		propagator.Inject(ctx, propagation.HeaderCarrier(c.Writer.Header()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(semconv.HTTPStatusCode(status))
		for _, e := range c.Errors {
			span.RecordError(e.Err)
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// GetTraceID 当前请求的 trace ID，未追踪时为空
func GetTraceID(c *gin.Context) string {
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
