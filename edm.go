// Package edm provides the Entity Data Model metadata core of an OData v4
// service: named schemas of structured types, enumerations, operations and
// entity containers, resolved by qualified name and validated as a whole.
//
// Schemas are declared through a Builder, either directly or through a
// Source, and published on a Provider. Every published Model is immutable;
// reloading replaces it atomically, so readers never observe a partially
// built model.
//
// # Example
//
//	notNull := false
//	provider := edm.NewProvider(edm.ProviderConfig{})
//	err := provider.Load(ctx, edm.SourceFunc(func(ctx context.Context, b *edm.Builder) error {
//	    s := b.Schema("Microsoft.OData.SampleService.Models.TripPin", "TripPin")
//	    s.EntityType(edm.EntityTypeDef{
//	        Name: "Person",
//	        Key:  &edm.Key{Elements: []edm.KeyElement{{PropertyName: "UserName"}}},
//	        Properties: []edm.PropertyDef{
//	            {Name: "UserName", Type: "Edm.String", Nullable: &notNull},
//	        },
//	    })
//	    return nil
//	}))
//	if err != nil {
//	    log.Fatalf("Failed to load model: %v", err)
//	}
//	person, ok, _ := provider.Resolve("TripPin.Person")
//
// Lookups that find nothing return ok == false and no error. Errors are
// reserved for malformed input (ErrMalformedName, ErrEmptyName), invalid
// models (ErrInvalidModel) and resolution failures (ErrAmbiguousOverload,
// ErrNotComposable, ErrInvalidKeyValue).
package edm

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nlstn/go-edm/internal/metadata"
	"github.com/nlstn/go-edm/internal/observability"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Model types.
type (
	Model                     = metadata.Model
	FullQualifiedName         = metadata.FullQualifiedName
	TypeRef                   = metadata.TypeRef
	TypeKind                  = metadata.TypeKind
	Facets                    = metadata.Facets
	Property                  = metadata.Property
	NavigationProperty        = metadata.NavigationProperty
	ReferentialConstraint     = metadata.ReferentialConstraint
	StructuralType            = metadata.StructuralType
	EntityType                = metadata.EntityType
	ComplexType               = metadata.ComplexType
	EnumMember                = metadata.EnumMember
	EnumType                  = metadata.EnumType
	TypeDefinition            = metadata.TypeDefinition
	Term                      = metadata.Term
	Schema                    = metadata.Schema
	Key                       = metadata.Key
	KeyElement                = metadata.KeyElement
	Operation                 = metadata.Operation
	OperationKind             = metadata.OperationKind
	Parameter                 = metadata.Parameter
	ReturnType                = metadata.ReturnType
	OperationQuery            = metadata.OperationQuery
	EntityContainer           = metadata.EntityContainer
	EntitySet                 = metadata.EntitySet
	Singleton                 = metadata.Singleton
	ActionImport              = metadata.ActionImport
	FunctionImport            = metadata.FunctionImport
	NavigationPropertyBinding = metadata.NavigationPropertyBinding
	NavigationSource          = metadata.NavigationSource
	Problem                   = metadata.Problem
	ValidationError           = metadata.ValidationError
)

// Declaration types accepted by the Builder.
type (
	Builder               = metadata.Builder
	SchemaBuilder         = metadata.SchemaBuilder
	BuildOption           = metadata.BuildOption
	PropertyDef           = metadata.PropertyDef
	NavigationPropertyDef = metadata.NavigationPropertyDef
	EntityTypeDef         = metadata.EntityTypeDef
	ComplexTypeDef        = metadata.ComplexTypeDef
	EnumMemberDef         = metadata.EnumMemberDef
	EnumTypeDef           = metadata.EnumTypeDef
	TypeDefinitionDef     = metadata.TypeDefinitionDef
	TermDef               = metadata.TermDef
	ParameterDef          = metadata.ParameterDef
	ReturnTypeDef         = metadata.ReturnTypeDef
	OperationDef          = metadata.OperationDef
	EntitySetDef          = metadata.EntitySetDef
	SingletonDef          = metadata.SingletonDef
	ActionImportDef       = metadata.ActionImportDef
	FunctionImportDef     = metadata.FunctionImportDef
	EntityContainerDef    = metadata.EntityContainerDef
)

const (
	KindNone           = metadata.KindNone
	KindPrimitive      = metadata.KindPrimitive
	KindEntity         = metadata.KindEntity
	KindComplex        = metadata.KindComplex
	KindEnum           = metadata.KindEnum
	KindTypeDefinition = metadata.KindTypeDefinition

	ActionKind   = metadata.ActionKind
	FunctionKind = metadata.FunctionKind

	// DefaultResolutionCacheSize is used when ProviderConfig.ResolutionCacheSize is zero.
	DefaultResolutionCacheSize = metadata.DefaultResolutionCacheSize
)

var (
	ErrEmptyName         = metadata.ErrEmptyName
	ErrMalformedName     = metadata.ErrMalformedName
	ErrInvalidModel      = metadata.ErrInvalidModel
	ErrInvalidKey        = metadata.ErrInvalidKey
	ErrInvalidKeyValue   = metadata.ErrInvalidKeyValue
	ErrAmbiguousOverload = metadata.ErrAmbiguousOverload
	ErrNotComposable     = metadata.ErrNotComposable
)

// NewBuilder returns an empty Builder. Most callers use Provider.Load instead.
func NewBuilder() *Builder {
	return metadata.NewBuilder()
}

// NewFullQualifiedName joins a namespace and a simple name.
func NewFullQualifiedName(namespace, name string) FullQualifiedName {
	return metadata.NewFullQualifiedName(namespace, name)
}

// ParseFullQualifiedName splits a qualified name at its last dot.
func ParseFullQualifiedName(raw string) (FullQualifiedName, error) {
	return metadata.ParseFullQualifiedName(raw)
}

// NewKey declares a key over the named properties in order.
func NewKey(propertyNames ...string) Key {
	return metadata.NewKey(propertyNames...)
}

// CompareKeyValues orders two entities by the values of key.
func CompareKeyValues(key Key, a, b map[string]any) int {
	return metadata.CompareKeyValues(key, a, b)
}

// ProviderConfig controls optional Provider behaviour.
type ProviderConfig struct {
	// Logger receives load diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// ResolutionCacheSize bounds memoized overload resolutions per model.
	// Zero selects DefaultResolutionCacheSize; a negative value disables the cache.
	ResolutionCacheSize int

	// Geospatial allows Edm.Geography* and Edm.Geometry* types in loaded models.
	Geospatial bool

	// Observability enables tracing and metrics for loads. Optional.
	Observability *ObservabilityConfig
}

// ObservabilityConfig configures OpenTelemetry instrumentation of model loads.
// Nil providers fall back to noop implementations.
type ObservabilityConfig struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// ServiceName identifies this provider in telemetry data.
	// Defaults to "edm-provider" if not specified.
	ServiceName    string
	ServiceVersion string
}

// Provider publishes validated models and answers lookups against the most
// recently published one. Loads are serialized; lookups never block.
type Provider struct {
	mu sync.Mutex

	model     atomic.Pointer[metadata.Model]
	logger    atomic.Pointer[slog.Logger]
	obs       atomic.Pointer[observability.Config]
	cacheSize int

	geospatialEnabled int32
}

// NewProvider creates a Provider with no published model. Every lookup reports
// not found until the first successful Load or Publish.
func NewProvider(cfg ProviderConfig) *Provider {
	p := &Provider{cacheSize: cfg.ResolutionCacheSize}
	if p.cacheSize == 0 {
		p.cacheSize = DefaultResolutionCacheSize
	}
	if cfg.Geospatial {
		p.geospatialEnabled = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p.logger.Store(logger)

	if cfg.Observability != nil {
		if err := p.SetObservability(*cfg.Observability); err != nil {
			logger.Warn("Observability disabled", "error", err)
		}
	}
	return p
}

// SetLogger replaces the logger used for load diagnostics. A nil logger
// restores slog.Default().
func (p *Provider) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	p.logger.Store(logger)
}

func (p *Provider) log() *slog.Logger {
	return p.logger.Load()
}

// SetObservability enables OpenTelemetry instrumentation of subsequent loads.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	defer tp.Shutdown(ctx)
//
//	provider.SetObservability(edm.ObservabilityConfig{
//	    TracerProvider: tp,
//	    ServiceName:    "catalog-api",
//	})
func (p *Provider) SetObservability(cfg ObservabilityConfig) error {
	opts := []observability.Option{observability.WithLogger(p.log())}
	if cfg.TracerProvider != nil {
		opts = append(opts, observability.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, observability.WithMeterProvider(cfg.MeterProvider))
	}
	if cfg.ServiceName != "" {
		opts = append(opts, observability.WithServiceName(cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		opts = append(opts, observability.WithServiceVersion(cfg.ServiceVersion))
	}

	obsCfg := observability.NewConfig(opts...)
	if err := obsCfg.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	p.obs.Store(obsCfg)

	p.log().Info("Observability configured",
		"tracing_enabled", cfg.TracerProvider != nil,
		"metrics_enabled", cfg.MeterProvider != nil,
		"service_name", obsCfg.ServiceName(),
	)
	return nil
}

func (p *Provider) observability() *observability.Config {
	if cfg := p.obs.Load(); cfg != nil {
		return cfg
	}
	cfg := observability.NewConfig(observability.WithLogger(p.log()))
	if p.obs.CompareAndSwap(nil, cfg) {
		return cfg
	}
	return p.obs.Load()
}

// Model returns the published model, or nil before the first successful load.
// The returned snapshot stays valid after later reloads.
func (p *Provider) Model() *Model {
	return p.model.Load()
}

// Resolve turns a namespace- or alias-qualified name into its canonical form.
func (p *Provider) Resolve(raw string) (FullQualifiedName, bool, error) {
	return p.Model().Resolve(raw)
}

// ResolveType resolves a type reference, which may be wrapped in Collection().
func (p *Provider) ResolveType(raw string) (TypeRef, bool, error) {
	return p.Model().ResolveType(raw)
}

// TypeKind reports which kind of type name denotes.
func (p *Provider) TypeKind(name FullQualifiedName) TypeKind {
	return p.Model().TypeKind(name)
}

// EntityType looks up an entity type.
func (p *Provider) EntityType(name FullQualifiedName) (*EntityType, bool) {
	return p.Model().EntityType(name)
}

// ComplexType looks up a complex type.
func (p *Provider) ComplexType(name FullQualifiedName) (*ComplexType, bool) {
	return p.Model().ComplexType(name)
}

// EnumType looks up an enumeration type.
func (p *Provider) EnumType(name FullQualifiedName) (*EnumType, bool) {
	return p.Model().EnumType(name)
}

// TypeDefinition looks up a type definition.
func (p *Provider) TypeDefinition(name FullQualifiedName) (*TypeDefinition, bool) {
	return p.Model().TypeDefinition(name)
}

// Term looks up a vocabulary term.
func (p *Provider) Term(name FullQualifiedName) (*Term, bool) {
	return p.Model().Term(name)
}

// EffectiveProperties returns the structural properties of a type including
// inherited ones, base type first.
func (p *Provider) EffectiveProperties(name FullQualifiedName) []Property {
	return p.Model().EffectiveProperties(name)
}

// EffectiveNavigationProperties returns the navigation properties of a type
// including inherited ones, base type first.
func (p *Provider) EffectiveNavigationProperties(name FullQualifiedName) []NavigationProperty {
	return p.Model().EffectiveNavigationProperties(name)
}

// FindProperty looks up a structural property including inherited ones.
func (p *Provider) FindProperty(name FullQualifiedName, property string) (*Property, bool) {
	return p.Model().FindProperty(name, property)
}

// FindNavigationProperty looks up a navigation property including inherited ones.
func (p *Provider) FindNavigationProperty(name FullQualifiedName, property string) (*NavigationProperty, bool) {
	return p.Model().FindNavigationProperty(name, property)
}

// Key returns the effective key of an entity type.
func (p *Provider) Key(name FullQualifiedName) (*Key, bool) {
	return p.Model().Key(name)
}

// KeyString formats the key predicate of an entity, e.g. "(OrderID=1,ProductID=2)".
func (p *Provider) KeyString(entityType FullQualifiedName, values map[string]any) (string, error) {
	return p.Model().KeyString(entityType, values)
}

// BaseTypeChain returns name followed by its ancestors.
func (p *Provider) BaseTypeChain(name FullQualifiedName) []FullQualifiedName {
	return p.Model().BaseTypeChain(name)
}

// IsSubtypeOf reports whether candidate is ancestor or derives from it.
func (p *Provider) IsSubtypeOf(candidate, ancestor FullQualifiedName) bool {
	return p.Model().IsSubtypeOf(candidate, ancestor)
}

// DerivedTypes returns the types that derive directly from name.
func (p *Provider) DerivedTypes(name FullQualifiedName) []FullQualifiedName {
	return p.Model().DerivedTypes(name)
}

// Actions returns every overload of an action.
func (p *Provider) Actions(name FullQualifiedName) []*Operation {
	return p.Model().Actions(name)
}

// Functions returns every overload of a function.
func (p *Provider) Functions(name FullQualifiedName) []*Operation {
	return p.Model().Functions(name)
}

// ResolveOperation selects the best matching overload for query.
func (p *Provider) ResolveOperation(query OperationQuery) (*Operation, bool, error) {
	return p.Model().ResolveOperation(query)
}

// ResolveComposed resolves query as a call composed onto the result of previous.
func (p *Provider) ResolveComposed(previous *Operation, query OperationQuery) (*Operation, bool, error) {
	return p.Model().ResolveComposed(previous, query)
}

// DefaultContainer returns the container that serves unqualified requests.
func (p *Provider) DefaultContainer() (*EntityContainer, bool) {
	return p.Model().DefaultContainer()
}

// EntityContainer looks up a container by name; an empty name selects the default.
func (p *Provider) EntityContainer(name string) (*EntityContainer, bool, error) {
	return p.Model().EntityContainer(name)
}

// EntitySet looks up an entity set.
func (p *Provider) EntitySet(container, name string) (*EntitySet, bool, error) {
	return p.Model().EntitySet(container, name)
}

// Singleton looks up a singleton.
func (p *Provider) Singleton(container, name string) (*Singleton, bool, error) {
	return p.Model().Singleton(container, name)
}

// ActionImport looks up an action import.
func (p *Provider) ActionImport(container, name string) (*ActionImport, bool, error) {
	return p.Model().ActionImport(container, name)
}

// FunctionImport looks up a function import.
func (p *Provider) FunctionImport(container, name string) (*FunctionImport, bool, error) {
	return p.Model().FunctionImport(container, name)
}

// Source returns an entity set or singleton as a navigation root.
func (p *Provider) Source(container, name string) (*NavigationSource, bool, error) {
	return p.Model().Source(container, name)
}

// NavigationTarget follows a navigation path from source.
func (p *Provider) NavigationTarget(source *NavigationSource, path string) (*NavigationSource, bool) {
	return p.Model().NavigationTarget(source, path)
}
