package goAuthClient

import "context"

type pathContextKey struct{}

// WithPath attaches the UI location the viewer is on. Telemetry events
// emitted with ctx carry it.
func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathContextKey{}, path)
}

func pathFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	path, _ := ctx.Value(pathContextKey{}).(string)
	return path
}
