package metadata

// TypeKind classifies a qualified type name.
type TypeKind int

const (
	// KindNone means the name does not denote a type in the model.
	KindNone TypeKind = iota
	KindPrimitive
	KindEntity
	KindComplex
	KindEnum
	KindTypeDefinition
)

// String returns the CSDL element name of the kind.
func (k TypeKind) String() string {
	switch k {
	case KindPrimitive:
		return "PrimitiveType"
	case KindEntity:
		return "EntityType"
	case KindComplex:
		return "ComplexType"
	case KindEnum:
		return "EnumType"
	case KindTypeDefinition:
		return "TypeDefinition"
	default:
		return "None"
	}
}

// Facets holds the optional type facets shared by properties, parameters and
// type definitions.
type Facets struct {
	MaxLength *int
	Precision *int
	Scale     *int
	SRID      string
	Unicode   *bool
}

// Equal reports whether both facet sets carry the same values.
func (f Facets) Equal(other Facets) bool {
	return intPtrEqual(f.MaxLength, other.MaxLength) &&
		intPtrEqual(f.Precision, other.Precision) &&
		intPtrEqual(f.Scale, other.Scale) &&
		f.SRID == other.SRID &&
		boolPtrEqual(f.Unicode, other.Unicode)
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Property is a structural property of an entity or complex type.
type Property struct {
	Name         string
	Type         TypeRef
	Nullable     bool
	DefaultValue *string
	Facets

	// DeclaringType is the type that declares the property, which differs
	// from the queried type for inherited properties.
	DeclaringType FullQualifiedName
}

// compatibleWith reports whether an override of p by other is a no-op.
func (p Property) compatibleWith(other Property) bool {
	return p.Type == other.Type &&
		p.Nullable == other.Nullable &&
		p.Facets.Equal(other.Facets)
}

// ReferentialConstraint links a dependent property to a principal property.
type ReferentialConstraint struct {
	Property           string
	ReferencedProperty string
}

// NavigationProperty relates an entity type to another entity type.
type NavigationProperty struct {
	Name                   string
	Type                   TypeRef
	Nullable               bool
	Partner                string
	ContainsTarget         bool
	ReferentialConstraints []ReferentialConstraint
	DeclaringType          FullQualifiedName
}

// Target returns the qualified name of the related entity type.
func (n NavigationProperty) Target() FullQualifiedName {
	return n.Type.Name
}

// IsCollection reports whether the navigation relates to many entities.
func (n NavigationProperty) IsCollection() bool {
	return n.Type.Collection
}

// StructuralType is implemented by entity and complex types.
type StructuralType interface {
	QualifiedName() FullQualifiedName
	Base() (FullQualifiedName, bool)
	DeclaredProperties() []Property
	IsAbstract() bool
	IsOpen() bool
	Kind() TypeKind
}

// EntityType is a keyed structural type.
type EntityType struct {
	Name                 FullQualifiedName
	BaseType             *FullQualifiedName
	Abstract             bool
	OpenType             bool
	HasStream            bool
	Key                  *Key
	Properties           []Property
	NavigationProperties []NavigationProperty
}

func (t *EntityType) QualifiedName() FullQualifiedName { return t.Name }
func (t *EntityType) DeclaredProperties() []Property   { return t.Properties }
func (t *EntityType) IsAbstract() bool                 { return t.Abstract }
func (t *EntityType) IsOpen() bool                     { return t.OpenType }
func (t *EntityType) Kind() TypeKind                   { return KindEntity }

func (t *EntityType) Base() (FullQualifiedName, bool) {
	if t.BaseType == nil {
		return FullQualifiedName{}, false
	}
	return *t.BaseType, true
}

// ComplexType is an unkeyed structural type.
type ComplexType struct {
	Name                 FullQualifiedName
	BaseType             *FullQualifiedName
	Abstract             bool
	OpenType             bool
	Properties           []Property
	NavigationProperties []NavigationProperty
}

func (t *ComplexType) QualifiedName() FullQualifiedName { return t.Name }
func (t *ComplexType) DeclaredProperties() []Property   { return t.Properties }
func (t *ComplexType) IsAbstract() bool                 { return t.Abstract }
func (t *ComplexType) IsOpen() bool                     { return t.OpenType }
func (t *ComplexType) Kind() TypeKind                   { return KindComplex }

func (t *ComplexType) Base() (FullQualifiedName, bool) {
	if t.BaseType == nil {
		return FullQualifiedName{}, false
	}
	return *t.BaseType, true
}

// EnumMember is a named value of an enumeration.
type EnumMember struct {
	Name  string
	Value int64
}

// EnumType is an enumeration over an integral underlying type.
type EnumType struct {
	Name           FullQualifiedName
	UnderlyingType FullQualifiedName
	IsFlags        bool
	Members        []EnumMember
}

// Member returns the member with the given name.
func (t *EnumType) Member(name string) (EnumMember, bool) {
	if t == nil {
		return EnumMember{}, false
	}
	for _, member := range t.Members {
		if member.Name == name {
			return member, true
		}
	}
	return EnumMember{}, false
}

// MemberByValue returns the first member carrying value.
func (t *EnumType) MemberByValue(value int64) (EnumMember, bool) {
	if t == nil {
		return EnumMember{}, false
	}
	for _, member := range t.Members {
		if member.Value == value {
			return member, true
		}
	}
	return EnumMember{}, false
}

// TypeDefinition names a primitive type with fixed facets.
type TypeDefinition struct {
	Name           FullQualifiedName
	UnderlyingType FullQualifiedName
	Facets
}

// Term is a vocabulary term that annotations can apply.
type Term struct {
	Name         FullQualifiedName
	Type         TypeRef
	Nullable     bool
	AppliesTo    []string
	DefaultValue *string
	BaseTerm     *FullQualifiedName
}

// Schema groups the elements of one namespace.
type Schema struct {
	Namespace       string
	Alias           string
	EntityTypes     []*EntityType
	ComplexTypes    []*ComplexType
	EnumTypes       []*EnumType
	TypeDefinitions []*TypeDefinition
	Terms           []*Term
	Actions         []*Operation
	Functions       []*Operation
	EntityContainer *EntityContainer
}
