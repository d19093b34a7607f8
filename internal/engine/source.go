package engine

import (
	"context"

	"BistRadar/internal/model"
)

type sourceKey struct{}

// WithSource tags ctx with what triggered the request, for the scan log and metrics.
func WithSource(ctx context.Context, src model.Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// SourceFrom returns the request source, defaulting to CLI.
func SourceFrom(ctx context.Context) model.Source {
	if src, ok := ctx.Value(sourceKey{}).(model.Source); ok {
		return src
	}
	return model.SourceCLI
}
