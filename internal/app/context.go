package app

import "context"

type ctxKey struct{}

// WithApp returns a copy of ctx carrying a, so commands can reach the
// container their pre-run hook built.
func WithApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the App stored by WithApp. ok is false when ctx is nil
// or carries no App.
func FromContext(ctx context.Context) (a *App, ok bool) {
	if ctx == nil {
		return nil, false
	}
	a, ok = ctx.Value(ctxKey{}).(*App)
	return a, ok && a != nil
}
