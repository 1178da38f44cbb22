package metadata

import (
	"fmt"
	"strings"
)

// TypeKind classifies name. Unknown names yield KindNone.
func (m *Model) TypeKind(name FullQualifiedName) TypeKind {
	if IsPrimitive(name) {
		return KindPrimitive
	}
	if m == nil {
		return KindNone
	}
	if _, ok := m.entityTypes[name]; ok {
		return KindEntity
	}
	if _, ok := m.complexTypes[name]; ok {
		return KindComplex
	}
	if _, ok := m.enumTypes[name]; ok {
		return KindEnum
	}
	if _, ok := m.typeDefinitions[name]; ok {
		return KindTypeDefinition
	}
	return KindNone
}

// EntityType returns the entity type with the given qualified name.
// The result is shared with the model and must be treated as read-only.
func (m *Model) EntityType(name FullQualifiedName) (*EntityType, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.entityTypes[name]
	return t, ok
}

// ComplexType returns the complex type with the given qualified name.
// The result is shared with the model and must be treated as read-only.
func (m *Model) ComplexType(name FullQualifiedName) (*ComplexType, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.complexTypes[name]
	return t, ok
}

// EnumType returns the enumeration with the given qualified name.
func (m *Model) EnumType(name FullQualifiedName) (*EnumType, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.enumTypes[name]
	return t, ok
}

// TypeDefinition returns the type definition with the given qualified name.
func (m *Model) TypeDefinition(name FullQualifiedName) (*TypeDefinition, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.typeDefinitions[name]
	return t, ok
}

// Term returns the vocabulary term with the given qualified name.
func (m *Model) Term(name FullQualifiedName) (*Term, bool) {
	if m == nil {
		return nil, false
	}
	t, ok := m.terms[name]
	return t, ok
}

// StructuralType returns the entity or complex type with the given name.
func (m *Model) StructuralType(name FullQualifiedName) (StructuralType, bool) {
	if m == nil {
		return nil, false
	}
	if t, ok := m.entityTypes[name]; ok {
		return t, true
	}
	if t, ok := m.complexTypes[name]; ok {
		return t, true
	}
	return nil, false
}

// EntityTypes returns every entity type in load order.
func (m *Model) EntityTypes() []*EntityType {
	if m == nil {
		return nil
	}
	var result []*EntityType
	for _, schema := range m.schemas {
		result = append(result, schema.EntityTypes...)
	}
	return result
}

// ComplexTypes returns every complex type in load order.
func (m *Model) ComplexTypes() []*ComplexType {
	if m == nil {
		return nil
	}
	var result []*ComplexType
	for _, schema := range m.schemas {
		result = append(result, schema.ComplexTypes...)
	}
	return result
}

// BaseTypeChain returns name followed by its ancestors, root last. Primitive,
// enum and unknown names yield a single-element chain.
func (m *Model) BaseTypeChain(name FullQualifiedName) []FullQualifiedName {
	chain := []FullQualifiedName{name}
	seen := map[FullQualifiedName]struct{}{name: {}}

	current := name
	for {
		t, ok := m.StructuralType(current)
		if !ok {
			return chain
		}
		base, hasBase := t.Base()
		if !hasBase {
			return chain
		}
		if _, cycle := seen[base]; cycle {
			return chain
		}
		seen[base] = struct{}{}
		chain = append(chain, base)
		current = base
	}
}

// IsSubtypeOf reports whether candidate equals ancestor or derives from it.
func (m *Model) IsSubtypeOf(candidate, ancestor FullQualifiedName) bool {
	_, ok := m.ancestorDistance(candidate, ancestor)
	return ok
}

// ancestorDistance returns the number of inheritance steps from candidate up to ancestor.
func (m *Model) ancestorDistance(candidate, ancestor FullQualifiedName) (int, bool) {
	for i, name := range m.BaseTypeChain(candidate) {
		if name == ancestor {
			return i, true
		}
	}
	return 0, false
}

// DerivedTypes returns the direct subtypes of name in load order.
func (m *Model) DerivedTypes(name FullQualifiedName) []FullQualifiedName {
	if m == nil {
		return nil
	}
	derived := m.derived[name]
	if len(derived) == 0 {
		return nil
	}
	result := make([]FullQualifiedName, len(derived))
	copy(result, derived)
	return result
}

// EffectiveProperties returns the declared and inherited structural properties
// of an entity or complex type, base type properties first.
func (m *Model) EffectiveProperties(name FullQualifiedName) []Property {
	if m == nil {
		return nil
	}
	properties, ok := m.properties[name]
	if !ok {
		return nil
	}
	result := make([]Property, len(properties))
	copy(result, properties)
	return result
}

// EffectiveNavigationProperties returns the declared and inherited navigation
// properties of a structural type, base type properties first.
func (m *Model) EffectiveNavigationProperties(name FullQualifiedName) []NavigationProperty {
	if m == nil {
		return nil
	}
	navigation, ok := m.navigation[name]
	if !ok {
		return nil
	}
	result := make([]NavigationProperty, len(navigation))
	copy(result, navigation)
	return result
}

// Key returns a copy of the effective key of an entity type, which may be
// declared on an ancestor.
func (m *Model) Key(name FullQualifiedName) (*Key, bool) {
	if m == nil {
		return nil, false
	}
	key, ok := m.keys[name]
	if !ok || key == nil {
		return nil, false
	}
	k := Key{Elements: append([]KeyElement(nil), key.Elements...)}
	return &k, true
}

// FindProperty returns the effective structural property called propertyName.
func (m *Model) FindProperty(name FullQualifiedName, propertyName string) (*Property, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.properties[name] {
		if m.properties[name][i].Name == propertyName {
			p := m.properties[name][i]
			return &p, true
		}
	}
	return nil, false
}

// FindNavigationProperty returns the effective navigation property called propertyName.
func (m *Model) FindNavigationProperty(name FullQualifiedName, propertyName string) (*NavigationProperty, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.navigation[name] {
		if m.navigation[name][i].Name == propertyName {
			n := m.navigation[name][i]
			return &n, true
		}
	}
	return nil, false
}

// ResolvePropertyPath resolves a slash-separated path such as "Address/City"
// through complex-typed properties and returns the final property.
func (m *Model) ResolvePropertyPath(name FullQualifiedName, path string) (*Property, bool) {
	if m == nil || strings.TrimSpace(path) == "" {
		return nil, false
	}

	segments := strings.Split(path, "/")
	current := name
	var property *Property
	for i, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, false
		}
		p, ok := m.FindProperty(current, segment)
		if !ok {
			return nil, false
		}
		if i < len(segments)-1 {
			if m.TypeKind(p.Type.Name) != KindComplex || p.Type.Collection {
				return nil, false
			}
			current = p.Type.Name
		}
		property = p
	}
	return property, true
}

// KeyString renders the canonical key predicate of an entity, e.g. "(1)" or
// "(OrderID=1,ProductID=2)". values holds the key property values by name.
func (m *Model) KeyString(entityType FullQualifiedName, values map[string]any) (string, error) {
	key, ok := m.Key(entityType)
	if !ok {
		return "", fmt.Errorf("%w: entity type '%s' has no key", ErrInvalidKeyValue, entityType)
	}

	ordered := key.Ordered()
	literals := make([]string, len(ordered))
	for i, element := range ordered {
		value, present := values[element.PropertyName]
		if !present || value == nil {
			return "", fmt.Errorf("%w: missing value for key property '%s'", ErrInvalidKeyValue, element.PropertyName)
		}
		property, ok := m.FindProperty(entityType, element.PropertyName)
		if !ok {
			return "", fmt.Errorf("%w: key property '%s' is not declared", ErrInvalidKeyValue, element.PropertyName)
		}
		literal, err := m.formatLiteral(property.Type.Name, value)
		if err != nil {
			return "", fmt.Errorf("key property '%s': %w", element.PropertyName, err)
		}
		literals[i] = literal
	}

	if len(literals) == 1 {
		return "(" + literals[0] + ")", nil
	}
	parts := make([]string, len(literals))
	for i, element := range ordered {
		parts[i] = element.PropertyName + "=" + literals[i]
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

// formatLiteral renders value as a literal of the named primitive, enum or
// type definition.
func (m *Model) formatLiteral(name FullQualifiedName, value any) (string, error) {
	if enum, ok := m.EnumType(name); ok {
		var member EnumMember
		var found bool
		if s, isString := value.(string); isString {
			member, found = enum.Member(s)
		} else if n, isInt := toInt64(value); isInt {
			member, found = enum.MemberByValue(n)
		}
		if !found {
			return "", fmt.Errorf("%w: %v is not a member of %s", ErrInvalidKeyValue, value, name)
		}
		return name.String() + "'" + member.Name + "'", nil
	}
	if def, ok := m.TypeDefinition(name); ok {
		return formatPrimitiveLiteral(def.UnderlyingType, value)
	}
	return formatPrimitiveLiteral(name, value)
}
