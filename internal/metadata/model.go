package metadata

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResolutionCacheSize bounds the number of memoized overload resolutions per model.
const DefaultResolutionCacheSize = 256

// Model is an immutable, fully validated set of schemas. All methods are safe
// for concurrent use, and every lookup on a nil *Model reports not found.
type Model struct {
	resolver *Resolver
	schemas  []*Schema

	entityTypes     map[FullQualifiedName]*EntityType
	complexTypes    map[FullQualifiedName]*ComplexType
	enumTypes       map[FullQualifiedName]*EnumType
	typeDefinitions map[FullQualifiedName]*TypeDefinition
	terms           map[FullQualifiedName]*Term
	actions         map[FullQualifiedName][]*Operation
	functions       map[FullQualifiedName][]*Operation

	containers       map[FullQualifiedName]*EntityContainer
	containersByName map[string][]*EntityContainer
	defaultContainer *EntityContainer

	derived    map[FullQualifiedName][]FullQualifiedName
	properties map[FullQualifiedName][]Property
	navigation map[FullQualifiedName][]NavigationProperty
	keys       map[FullQualifiedName]*Key

	resolutions *lru.Cache[uint64, resolution]
	fingerprint uint64
	geospatial  bool
}

func newModel() *Model {
	return &Model{
		entityTypes:      make(map[FullQualifiedName]*EntityType),
		complexTypes:     make(map[FullQualifiedName]*ComplexType),
		enumTypes:        make(map[FullQualifiedName]*EnumType),
		typeDefinitions:  make(map[FullQualifiedName]*TypeDefinition),
		terms:            make(map[FullQualifiedName]*Term),
		actions:          make(map[FullQualifiedName][]*Operation),
		functions:        make(map[FullQualifiedName][]*Operation),
		containers:       make(map[FullQualifiedName]*EntityContainer),
		containersByName: make(map[string][]*EntityContainer),
		derived:          make(map[FullQualifiedName][]FullQualifiedName),
		properties:       make(map[FullQualifiedName][]Property),
		navigation:       make(map[FullQualifiedName][]NavigationProperty),
		keys:             make(map[FullQualifiedName]*Key),
	}
}

// Resolver returns the qualified-name resolver of the model.
func (m *Model) Resolver() *Resolver {
	if m == nil {
		return nil
	}
	return m.resolver
}

// Resolve maps "namespace-or-alias.Name" to the canonical qualified name.
func (m *Model) Resolve(raw string) (FullQualifiedName, bool, error) {
	if m == nil {
		if _, err := ParseFullQualifiedName(raw); err != nil {
			return FullQualifiedName{}, false, err
		}
		return FullQualifiedName{}, false, nil
	}
	return m.resolver.Resolve(raw)
}

// ResolveType resolves a raw type reference, including Collection(...) wrappers.
func (m *Model) ResolveType(raw string) (TypeRef, bool, error) {
	if m == nil {
		if _, _, err := splitCollection(raw); err != nil {
			return TypeRef{}, false, err
		}
		return TypeRef{}, false, nil
	}
	return m.resolver.ResolveType(raw)
}

// Schemas returns the schemas in load order.
func (m *Model) Schemas() []*Schema {
	if m == nil {
		return nil
	}
	result := make([]*Schema, len(m.schemas))
	copy(result, m.schemas)
	return result
}

// Schema returns the schema for a namespace or alias.
func (m *Model) Schema(qualifier string) (*Schema, bool) {
	if m == nil {
		return nil, false
	}
	namespace, ok := m.resolver.Namespace(qualifier)
	if !ok {
		return nil, false
	}
	for _, schema := range m.schemas {
		if schema.Namespace == namespace {
			return schema, true
		}
	}
	return nil, false
}

// Namespaces returns the declared namespaces in load order.
func (m *Model) Namespaces() []string {
	if m == nil {
		return nil
	}
	namespaces := make([]string, len(m.schemas))
	for i, schema := range m.schemas {
		namespaces[i] = schema.Namespace
	}
	return namespaces
}

// GeospatialEnabled reports whether the model was built with spatial types allowed.
func (m *Model) GeospatialEnabled() bool {
	return m != nil && m.geospatial
}

// Fingerprint returns a stable hash of the model's declarations. Two models
// built from the same declarations share a fingerprint.
func (m *Model) Fingerprint() uint64 {
	if m == nil {
		return 0
	}
	return m.fingerprint
}

// FingerprintHex returns the fingerprint as 16 hex digits.
func (m *Model) FingerprintHex() string {
	return fmt.Sprintf("%016x", m.Fingerprint())
}

// computeFingerprint hashes a canonical rendering of every declaration.
func (m *Model) computeFingerprint() uint64 {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, part := range parts {
			_, _ = d.WriteString(part)
			_, _ = d.WriteString("\x1f")
		}
		_, _ = d.WriteString("\x1e")
	}
	writeFacets := func(f Facets) {
		write(intPtrString(f.MaxLength), intPtrString(f.Precision), intPtrString(f.Scale), f.SRID, boolPtrString(f.Unicode))
	}
	writeProperties := func(properties []Property) {
		for _, p := range properties {
			write("property", p.Name, p.Type.String(), strconv.FormatBool(p.Nullable), optionalString(p.DefaultValue))
			writeFacets(p.Facets)
		}
	}
	writeNavigation := func(navigation []NavigationProperty) {
		for _, n := range navigation {
			write("navigation", n.Name, n.Type.String(), strconv.FormatBool(n.Nullable), n.Partner, strconv.FormatBool(n.ContainsTarget))
			for _, rc := range n.ReferentialConstraints {
				write("constraint", rc.Property, rc.ReferencedProperty)
			}
		}
	}
	writeOperation := func(op *Operation) {
		write(op.Kind.String(), op.Name.String(), op.signature(), strconv.FormatBool(op.IsComposable), op.EntitySetPath)
		for _, p := range op.Parameters {
			write("parameter", p.Name)
		}
		if op.ReturnType != nil {
			write("returns", op.ReturnType.Type.String(), strconv.FormatBool(op.ReturnType.Nullable))
		}
	}

	for _, schema := range m.schemas {
		write("schema", schema.Namespace, schema.Alias)
		for _, t := range schema.EntityTypes {
			write("entity", t.Name.String(), fqnPtrString(t.BaseType), strconv.FormatBool(t.Abstract), strconv.FormatBool(t.OpenType), strconv.FormatBool(t.HasStream))
			if t.Key != nil {
				for _, element := range t.Key.Ordered() {
					write("key", element.PropertyName, strconv.Itoa(element.Position))
				}
			}
			writeProperties(t.Properties)
			writeNavigation(t.NavigationProperties)
		}
		for _, t := range schema.ComplexTypes {
			write("complex", t.Name.String(), fqnPtrString(t.BaseType), strconv.FormatBool(t.Abstract), strconv.FormatBool(t.OpenType))
			writeProperties(t.Properties)
			writeNavigation(t.NavigationProperties)
		}
		for _, t := range schema.EnumTypes {
			write("enum", t.Name.String(), t.UnderlyingType.String(), strconv.FormatBool(t.IsFlags))
			for _, member := range t.Members {
				write("member", member.Name, strconv.FormatInt(member.Value, 10))
			}
		}
		for _, t := range schema.TypeDefinitions {
			write("typedef", t.Name.String(), t.UnderlyingType.String())
			writeFacets(t.Facets)
		}
		for _, t := range schema.Terms {
			write("term", t.Name.String(), t.Type.String(), strconv.FormatBool(t.Nullable), optionalString(t.DefaultValue), fqnPtrString(t.BaseTerm))
			appliesTo := append([]string(nil), t.AppliesTo...)
			sort.Strings(appliesTo)
			write(appliesTo...)
		}
		for _, op := range schema.Actions {
			writeOperation(op)
		}
		for _, op := range schema.Functions {
			writeOperation(op)
		}
		if c := schema.EntityContainer; c != nil {
			write("container", c.Name.String(), fqnPtrString(c.Extends), strconv.FormatBool(c.IsDefault))
			for _, set := range c.EntitySets {
				write("set", set.Name, set.EntityType.String(), strconv.FormatBool(set.IncludeInServiceDocument))
				for _, binding := range set.NavigationPropertyBindings {
					write("binding", binding.Path, binding.Target)
				}
			}
			for _, singleton := range c.Singletons {
				write("singleton", singleton.Name, singleton.Type.String())
				for _, binding := range singleton.NavigationPropertyBindings {
					write("binding", binding.Path, binding.Target)
				}
			}
			for _, ai := range c.ActionImports {
				write("actionImport", ai.Name, ai.Action.String(), ai.EntitySet)
			}
			for _, fi := range c.FunctionImports {
				write("functionImport", fi.Name, fi.Function.String(), fi.EntitySet, strconv.FormatBool(fi.IncludeInServiceDocument))
			}
		}
	}
	return d.Sum64()
}

func intPtrString(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func boolPtrString(v *bool) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatBool(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return "\x00"
	}
	return *v
}

func fqnPtrString(v *FullQualifiedName) string {
	if v == nil {
		return "-"
	}
	return v.String()
}
