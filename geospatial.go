package edm

import "sync/atomic"

// EnableGeospatial allows Edm.Geography* and Edm.Geometry* types in models
// loaded after the call. The published model is not revalidated; call Load
// again to pick up spatial declarations.
//
// Example:
//
//	provider := edm.NewProvider(edm.ProviderConfig{})
//	provider.EnableGeospatial()
//	if err := provider.Load(ctx, src); err != nil {
//		log.Fatalf("Failed to load model: %v", err)
//	}
func (p *Provider) EnableGeospatial() {
	if atomic.SwapInt32(&p.geospatialEnabled, 1) == 0 {
		p.log().Info("Geospatial features enabled")
	}
}

// IsGeospatialEnabled reports whether spatial types are accepted by Load.
func (p *Provider) IsGeospatialEnabled() bool {
	return atomic.LoadInt32(&p.geospatialEnabled) == 1
}
