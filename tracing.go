package webfs

import (
	"context"
	"errors"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (f *FileSystem) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append([]attribute.KeyValue{Mount(f.key)}, attrs...)

	return f.reg.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// recordError records the given error on the span and marks the span failed,
// then returns the error. io.EOF is not an error here.
func recordError(span trace.Span, err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
