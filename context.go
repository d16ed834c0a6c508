package gorecord

import (
	"context"
)

type labelKey struct{}
type skipKey struct{}

// WithQueryLabel names the statements issued with ctx in diagnostics. By
// default a statement is labelled with its SQL text.
func WithQueryLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

// WithoutDiagnostics marks the context so statements issued with it are not
// timed or logged.
func WithoutDiagnostics(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// extractLabel returns the diagnostics label of ctx, falling back to q.
func extractLabel(ctx context.Context, q string) string {
	if v, ok := ctx.Value(labelKey{}).(string); ok && v != "" {
		return v
	}
	return q
}

// extractSkip extracts skip flag from context.
func extractSkip(ctx context.Context) bool {
	if v, ok := ctx.Value(skipKey{}).(bool); ok {
		return v
	}
	return false
}
