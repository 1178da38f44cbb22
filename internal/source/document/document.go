// Package document describes schemas declaratively so that they can be stored
// as YAML files or catalog rows and replayed onto a metadata.Builder.
package document

// Document is a set of schemas loaded together.
type Document struct {
	Schemas []Schema `yaml:"schemas"`
}

// Namespaces returns the namespaces declared by the document in order.
func (d *Document) Namespaces() []string {
	namespaces := make([]string, 0, len(d.Schemas))
	for _, s := range d.Schemas {
		namespaces = append(namespaces, s.Namespace)
	}
	return namespaces
}

// Schema declares the elements of one namespace.
type Schema struct {
	Namespace       string           `yaml:"namespace"`
	Alias           string           `yaml:"alias,omitempty"`
	EntityTypes     []EntityType     `yaml:"entityTypes,omitempty"`
	ComplexTypes    []ComplexType    `yaml:"complexTypes,omitempty"`
	EnumTypes       []EnumType       `yaml:"enumTypes,omitempty"`
	TypeDefinitions []TypeDefinition `yaml:"typeDefinitions,omitempty"`
	Terms           []Term           `yaml:"terms,omitempty"`
	Actions         []Operation      `yaml:"actions,omitempty"`
	Functions       []Operation      `yaml:"functions,omitempty"`
	EntityContainer *EntityContainer `yaml:"entityContainer,omitempty"`
}

// Facets are the optional type facets shared by properties, parameters and
// type definitions.
type Facets struct {
	MaxLength *int   `yaml:"maxLength,omitempty"`
	Precision *int   `yaml:"precision,omitempty"`
	Scale     *int   `yaml:"scale,omitempty"`
	SRID      string `yaml:"srid,omitempty"`
	Unicode   *bool  `yaml:"unicode,omitempty"`
}

// Property declares a structural property.
type Property struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"`
	Nullable     *bool   `yaml:"nullable,omitempty"`
	DefaultValue *string `yaml:"defaultValue,omitempty"`
	Facets       `yaml:",inline"`
}

// ReferentialConstraint ties a dependent property to a principal property.
type ReferentialConstraint struct {
	Property           string `yaml:"property"`
	ReferencedProperty string `yaml:"referencedProperty"`
}

// NavigationProperty declares a navigation property.
type NavigationProperty struct {
	Name                   string                  `yaml:"name"`
	Type                   string                  `yaml:"type"`
	Nullable               *bool                   `yaml:"nullable,omitempty"`
	Partner                string                  `yaml:"partner,omitempty"`
	ContainsTarget         bool                    `yaml:"containsTarget,omitempty"`
	ReferentialConstraints []ReferentialConstraint `yaml:"referentialConstraints,omitempty"`
}

// EntityType declares an entity type. Key lists the key properties in key
// order and is empty when the key is inherited.
type EntityType struct {
	Name                 string               `yaml:"name"`
	BaseType             string               `yaml:"baseType,omitempty"`
	Abstract             bool                 `yaml:"abstract,omitempty"`
	OpenType             bool                 `yaml:"openType,omitempty"`
	HasStream            bool                 `yaml:"hasStream,omitempty"`
	Key                  []string             `yaml:"key,omitempty"`
	Properties           []Property           `yaml:"properties,omitempty"`
	NavigationProperties []NavigationProperty `yaml:"navigationProperties,omitempty"`
}

// ComplexType declares a complex type.
type ComplexType struct {
	Name                 string               `yaml:"name"`
	BaseType             string               `yaml:"baseType,omitempty"`
	Abstract             bool                 `yaml:"abstract,omitempty"`
	OpenType             bool                 `yaml:"openType,omitempty"`
	Properties           []Property           `yaml:"properties,omitempty"`
	NavigationProperties []NavigationProperty `yaml:"navigationProperties,omitempty"`
}

// EnumMember declares an enumeration member.
type EnumMember struct {
	Name  string `yaml:"name"`
	Value *int64 `yaml:"value,omitempty"`
}

// EnumType declares an enumeration.
type EnumType struct {
	Name           string       `yaml:"name"`
	UnderlyingType string       `yaml:"underlyingType,omitempty"`
	IsFlags        bool         `yaml:"isFlags,omitempty"`
	Members        []EnumMember `yaml:"members"`
}

// TypeDefinition declares a named primitive type with facets.
type TypeDefinition struct {
	Name           string `yaml:"name"`
	UnderlyingType string `yaml:"underlyingType"`
	Facets         `yaml:",inline"`
}

// Term declares a vocabulary term.
type Term struct {
	Name         string   `yaml:"name"`
	Type         string   `yaml:"type"`
	BaseTerm     string   `yaml:"baseTerm,omitempty"`
	Nullable     *bool    `yaml:"nullable,omitempty"`
	AppliesTo    []string `yaml:"appliesTo,omitempty"`
	DefaultValue *string  `yaml:"defaultValue,omitempty"`
}

// Parameter declares an operation parameter.
type Parameter struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable,omitempty"`
	Facets   `yaml:",inline"`
}

// ReturnType declares what an operation returns.
type ReturnType struct {
	Type     string `yaml:"type"`
	Nullable *bool  `yaml:"nullable,omitempty"`
}

// Operation declares one action or function overload. For bound operations
// the first parameter is the binding parameter.
type Operation struct {
	Name          string      `yaml:"name"`
	IsBound       bool        `yaml:"isBound,omitempty"`
	IsComposable  bool        `yaml:"isComposable,omitempty"`
	EntitySetPath string      `yaml:"entitySetPath,omitempty"`
	Parameters    []Parameter `yaml:"parameters,omitempty"`
	ReturnType    *ReturnType `yaml:"returnType,omitempty"`
}

// Binding maps a navigation path to the entity set or singleton that holds
// its targets.
type Binding struct {
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
}

// EntitySet declares an entity set.
type EntitySet struct {
	Name                     string    `yaml:"name"`
	EntityType               string    `yaml:"entityType"`
	IncludeInServiceDocument *bool     `yaml:"includeInServiceDocument,omitempty"`
	Bindings                 []Binding `yaml:"navigationPropertyBindings,omitempty"`
}

// Singleton declares a singleton.
type Singleton struct {
	Name     string    `yaml:"name"`
	Type     string    `yaml:"type"`
	Bindings []Binding `yaml:"navigationPropertyBindings,omitempty"`
}

// ActionImport exposes an unbound action.
type ActionImport struct {
	Name      string `yaml:"name"`
	Action    string `yaml:"action"`
	EntitySet string `yaml:"entitySet,omitempty"`
}

// FunctionImport exposes an unbound function.
type FunctionImport struct {
	Name                     string `yaml:"name"`
	Function                 string `yaml:"function"`
	EntitySet                string `yaml:"entitySet,omitempty"`
	IncludeInServiceDocument bool   `yaml:"includeInServiceDocument,omitempty"`
}

// EntityContainer declares the entity container of a schema.
type EntityContainer struct {
	Name            string           `yaml:"name"`
	Default         bool             `yaml:"default,omitempty"`
	Extends         string           `yaml:"extends,omitempty"`
	EntitySets      []EntitySet      `yaml:"entitySets,omitempty"`
	Singletons      []Singleton      `yaml:"singletons,omitempty"`
	ActionImports   []ActionImport   `yaml:"actionImports,omitempty"`
	FunctionImports []FunctionImport `yaml:"functionImports,omitempty"`
}
