package edm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nlstn/go-edm/internal/metadata"
	"github.com/nlstn/go-edm/internal/observability"
)

// Source declares schemas on a Builder. Implementations include YAML model
// documents and the SQL catalog.
type Source interface {
	Populate(ctx context.Context, b *Builder) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, b *Builder) error

// Populate calls f.
func (f SourceFunc) Populate(ctx context.Context, b *Builder) error {
	return f(ctx, b)
}

// namedSource is implemented by sources that can describe themselves in
// logs and telemetry.
type namedSource interface {
	Name() string
}

func sourceName(src Source) string {
	if named, ok := src.(namedSource); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", src)
}

// Load builds a fresh model from src and publishes it. When src fails, the
// declarations are invalid or ctx is canceled, the previously published model
// stays in effect and the error is returned. Concurrent calls are serialized.
func (p *Provider) Load(ctx context.Context, src Source) error {
	if src == nil {
		return fmt.Errorf("edm: source is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	name := sourceName(src)
	logger := p.log().With("source", name)
	ctx, load := p.observability().StartLoad(ctx, name)
	start := time.Now()

	fail := func(outcome string, err error) error {
		load.End(ctx, outcome, err)
		logger.Error("Failed to load model", "outcome", outcome, "error", err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return fail(observability.OutcomeCanceled, fmt.Errorf("edm: load canceled: %w", err))
	}

	b := metadata.NewBuilder()
	if err := src.Populate(ctx, b); err != nil {
		outcome := observability.OutcomeFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			outcome = observability.OutcomeCanceled
		}
		return fail(outcome, fmt.Errorf("edm: failed to populate model from %s: %w", name, err))
	}

	m, err := b.Build(p.buildOptions()...)
	if err != nil {
		return fail(observability.OutcomeInvalid, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(observability.OutcomeCanceled, fmt.Errorf("edm: load canceled: %w", err))
	}

	p.model.Store(m)
	load.SetModel(len(m.Namespaces()), m.FingerprintHex())
	load.End(ctx, observability.OutcomeSuccess, nil)
	logger.Debug("Model published",
		"namespaces", m.Namespaces(),
		"fingerprint", m.FingerprintHex(),
		"duration", time.Since(start),
	)
	return nil
}

// Publish makes an already built model current. It is serialized with Load.
func (p *Provider) Publish(m *Model) error {
	if m == nil {
		return fmt.Errorf("edm: model is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.model.Store(m)
	p.log().Debug("Model published", "namespaces", m.Namespaces(), "fingerprint", m.FingerprintHex())
	return nil
}

func (p *Provider) buildOptions() []BuildOption {
	return []BuildOption{
		metadata.WithGeospatial(p.IsGeospatialEnabled()),
		metadata.WithResolutionCacheSize(p.cacheSize),
	}
}
