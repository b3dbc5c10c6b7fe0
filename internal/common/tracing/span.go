package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName 业务 span 使用的 tracer 名称
const InstrumentationName = "github.com/dumeirei/grocy-backend"

// Start 在全局 provider 上开始一个业务 span
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End 结束 span，err 非空时记录错误
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func WithUserID(id int64) attribute.KeyValue    { return attribute.Int64("user.id", id) }
func WithOrderNo(no string) attribute.KeyValue  { return attribute.String("order.no", no) }
func WithProductID(id int64) attribute.KeyValue { return attribute.Int64("product.id", id) }
