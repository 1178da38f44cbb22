package edm

import "context"

type modelContextKey struct{}

// WithModel pins m for the lifetime of ctx, so that every lookup made while
// handling one request sees the same snapshot even if the Provider reloads.
func WithModel(ctx context.Context, m *Model) context.Context {
	return context.WithValue(ctx, modelContextKey{}, m)
}

// ModelFromContext returns the model pinned by WithModel.
func ModelFromContext(ctx context.Context) (*Model, bool) {
	m, ok := ctx.Value(modelContextKey{}).(*Model)
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// ModelFor returns the model pinned on ctx, or the currently published model.
func (p *Provider) ModelFor(ctx context.Context) *Model {
	if m, ok := ModelFromContext(ctx); ok {
		return m
	}
	return p.Model()
}
