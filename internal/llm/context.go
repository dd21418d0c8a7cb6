package llm

import "context"

type ctxKeyStage struct{}

// WithStage tags the context with the pipeline stage issuing the call, so
// logging and usage middleware can attribute requests.
func WithStage(ctx context.Context, stage string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKeyStage{}, stage)
}

// StageFrom returns the stage tag, or "unknown" when absent.
func StageFrom(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(ctxKeyStage{}).(string); ok && v != "" {
			return v
		}
	}
	return "unknown"
}
