package metadata

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PropertyDef declares a structural property. Type names may use aliases and
// the Collection(...) wrapper. A nil Nullable means nullable.
type PropertyDef struct {
	Name         string
	Type         string
	Nullable     *bool
	MaxLength    *int
	Precision    *int
	Scale        *int
	SRID         string
	Unicode      *bool
	DefaultValue *string
}

func (d PropertyDef) facets() Facets {
	return Facets{MaxLength: d.MaxLength, Precision: d.Precision, Scale: d.Scale, SRID: d.SRID, Unicode: d.Unicode}
}

// NavigationPropertyDef declares a navigation property.
type NavigationPropertyDef struct {
	Name                   string
	Type                   string
	Nullable               *bool
	Partner                string
	ContainsTarget         bool
	ReferentialConstraints []ReferentialConstraint
}

// EntityTypeDef declares an entity type. Key is nil when the key is inherited.
type EntityTypeDef struct {
	Name                 string
	BaseType             string
	Abstract             bool
	OpenType             bool
	HasStream            bool
	Key                  *Key
	Properties           []PropertyDef
	NavigationProperties []NavigationPropertyDef
}

// ComplexTypeDef declares a complex type.
type ComplexTypeDef struct {
	Name                 string
	BaseType             string
	Abstract             bool
	OpenType             bool
	Properties           []PropertyDef
	NavigationProperties []NavigationPropertyDef
}

// EnumMemberDef declares an enumeration member. Values are either given for
// every member or for none, in which case they count up from 0.
type EnumMemberDef struct {
	Name  string
	Value *int64
}

// EnumTypeDef declares an enumeration. An empty UnderlyingType means Edm.Int32.
type EnumTypeDef struct {
	Name           string
	UnderlyingType string
	IsFlags        bool
	Members        []EnumMemberDef
}

// TypeDefinitionDef declares a type definition over a primitive type.
type TypeDefinitionDef struct {
	Name           string
	UnderlyingType string
	MaxLength      *int
	Precision      *int
	Scale          *int
	SRID           string
	Unicode        *bool
}

// TermDef declares a vocabulary term.
type TermDef struct {
	Name         string
	Type         string
	BaseTerm     string
	Nullable     *bool
	AppliesTo    []string
	DefaultValue *string
}

// ParameterDef declares an operation parameter.
type ParameterDef struct {
	Name      string
	Type      string
	Nullable  *bool
	MaxLength *int
	Precision *int
	Scale     *int
	SRID      string
}

// ReturnTypeDef declares an operation return type.
type ReturnTypeDef struct {
	Type     string
	Nullable *bool
}

// OperationDef declares one overload of an action or function.
// BindingParameter is required for bound operations and forbidden otherwise.
type OperationDef struct {
	Name             string
	IsBound          bool
	BindingParameter *ParameterDef
	Parameters       []ParameterDef
	ReturnType       *ReturnTypeDef
	IsComposable     bool
	EntitySetPath    string
}

// EntitySetDef declares an entity set. A nil IncludeInServiceDocument means true.
type EntitySetDef struct {
	Name                       string
	EntityType                 string
	IncludeInServiceDocument   *bool
	NavigationPropertyBindings []NavigationPropertyBinding
}

// SingletonDef declares a singleton.
type SingletonDef struct {
	Name                       string
	Type                       string
	NavigationPropertyBindings []NavigationPropertyBinding
}

// ActionImportDef declares an action import.
type ActionImportDef struct {
	Name      string
	Action    string
	EntitySet string
}

// FunctionImportDef declares a function import.
type FunctionImportDef struct {
	Name                     string
	Function                 string
	EntitySet                string
	IncludeInServiceDocument bool
}

// EntityContainerDef declares an entity container. Extends names another
// container by qualified name.
type EntityContainerDef struct {
	Name            string
	Default         bool
	Extends         string
	EntitySets      []EntitySetDef
	Singletons      []SingletonDef
	ActionImports   []ActionImportDef
	FunctionImports []FunctionImportDef
}

// Builder collects schema declarations and compiles them into an immutable
// Model. A Builder is not safe for concurrent use.
type Builder struct {
	schemas []*SchemaBuilder
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Schema starts a schema for namespace with an optional alias. Declaring the
// same namespace twice is reported by Build.
func (b *Builder) Schema(namespace, alias string) *SchemaBuilder {
	s := &SchemaBuilder{namespace: namespace, alias: alias}
	b.schemas = append(b.schemas, s)
	return s
}

// SchemaBuilder collects the declarations of one namespace.
type SchemaBuilder struct {
	namespace       string
	alias           string
	entityTypes     []EntityTypeDef
	complexTypes    []ComplexTypeDef
	enumTypes       []EnumTypeDef
	typeDefinitions []TypeDefinitionDef
	terms           []TermDef
	actions         []OperationDef
	functions       []OperationDef
	containers      []EntityContainerDef
}

// Namespace returns the schema namespace.
func (s *SchemaBuilder) Namespace() string { return s.namespace }

// EntityType adds an entity type declaration.
func (s *SchemaBuilder) EntityType(def EntityTypeDef) *SchemaBuilder {
	s.entityTypes = append(s.entityTypes, def)
	return s
}

// ComplexType adds a complex type declaration.
func (s *SchemaBuilder) ComplexType(def ComplexTypeDef) *SchemaBuilder {
	s.complexTypes = append(s.complexTypes, def)
	return s
}

// EnumType adds an enumeration declaration.
func (s *SchemaBuilder) EnumType(def EnumTypeDef) *SchemaBuilder {
	s.enumTypes = append(s.enumTypes, def)
	return s
}

// TypeDefinition adds a type definition declaration.
func (s *SchemaBuilder) TypeDefinition(def TypeDefinitionDef) *SchemaBuilder {
	s.typeDefinitions = append(s.typeDefinitions, def)
	return s
}

// Term adds a vocabulary term declaration.
func (s *SchemaBuilder) Term(def TermDef) *SchemaBuilder {
	s.terms = append(s.terms, def)
	return s
}

// Action adds an action overload.
func (s *SchemaBuilder) Action(def OperationDef) *SchemaBuilder {
	s.actions = append(s.actions, def)
	return s
}

// Function adds a function overload.
func (s *SchemaBuilder) Function(def OperationDef) *SchemaBuilder {
	s.functions = append(s.functions, def)
	return s
}

// EntityContainer sets the entity container of the schema. A schema holds at
// most one container.
func (s *SchemaBuilder) EntityContainer(def EntityContainerDef) *SchemaBuilder {
	s.containers = append(s.containers, def)
	return s
}

type buildOptions struct {
	geospatial bool
	cacheSize  int
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

// WithGeospatial allows Edm.Geography* and Edm.Geometry* types.
func WithGeospatial(enabled bool) BuildOption {
	return func(o *buildOptions) {
		o.geospatial = enabled
	}
}

// WithResolutionCacheSize sets the size of the overload resolution cache.
// Zero selects DefaultResolutionCacheSize; a negative size disables caching.
func WithResolutionCacheSize(size int) BuildOption {
	return func(o *buildOptions) {
		o.cacheSize = size
	}
}

// Build validates every declaration and returns the compiled model. All
// problems are reported together in a *ValidationError.
func (b *Builder) Build(opts ...BuildOption) (*Model, error) {
	options := buildOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.cacheSize == 0 {
		options.cacheSize = DefaultResolutionCacheSize
	}

	c := newCompiler(options)
	c.compile(b.schemas)
	if err := c.problems.err(); err != nil {
		return nil, err
	}

	m := c.model
	m.fingerprint = m.computeFingerprint()
	if options.cacheSize > 0 {
		cache, err := lru.New[uint64, resolution](options.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create resolution cache: %w", err)
		}
		m.resolutions = cache
	}
	return m, nil
}

// compiler turns declarations into model values, recording problems instead
// of stopping at the first one.
type compiler struct {
	options  buildOptions
	model    *Model
	problems problemSet

	declared map[FullQualifiedName]string
	kinds    map[FullQualifiedName]TypeKind

	entityDefs  map[FullQualifiedName]EntityTypeDef
	complexDefs map[FullQualifiedName]ComplexTypeDef
	enumDefs    map[FullQualifiedName]EnumTypeDef
	termDefs    map[FullQualifiedName]TermDef
	cyclic      map[FullQualifiedName]struct{}
	containers  []containerDraft
}

type containerDraft struct {
	container *EntityContainer
	def       EntityContainerDef
}

func newCompiler(options buildOptions) *compiler {
	return &compiler{
		options:     options,
		model:       newModel(),
		declared:    make(map[FullQualifiedName]string),
		kinds:       make(map[FullQualifiedName]TypeKind),
		entityDefs:  make(map[FullQualifiedName]EntityTypeDef),
		complexDefs: make(map[FullQualifiedName]ComplexTypeDef),
		enumDefs:    make(map[FullQualifiedName]EnumTypeDef),
		termDefs:    make(map[FullQualifiedName]TermDef),
		cyclic:      make(map[FullQualifiedName]struct{}),
	}
}

func (c *compiler) compile(schemas []*SchemaBuilder) {
	c.model.geospatial = c.options.geospatial

	refs := make([]SchemaRef, 0, len(schemas))
	for _, s := range schemas {
		switch {
		case s.namespace == EdmNamespace:
			c.problems.add(s.namespace, "namespace '%s' is reserved", EdmNamespace)
		case !isNamespace(s.namespace):
			c.problems.add(s.namespace, "invalid namespace '%s'", s.namespace)
		}
		if s.alias != "" && !IsSimpleIdentifier(s.alias) {
			c.problems.add(s.namespace, "invalid alias '%s'", s.alias)
		}
		refs = append(refs, SchemaRef{Namespace: s.namespace, Alias: s.alias})
	}
	resolver, conflicts := NewResolver(refs...)
	for _, conflict := range conflicts {
		c.problems.add("", "%s", conflict)
	}
	c.model.resolver = resolver

	for _, s := range schemas {
		c.declare(s)
	}
	for _, s := range schemas {
		c.convert(s)
	}

	c.checkInheritance()
	c.computeEffectiveMembers()
	c.checkKeys()
	c.checkNavigation()
	c.checkEnums()
	c.checkDefaults()
	c.checkOperations()
	c.checkContainers()
}

func (c *compiler) declareName(namespace, name, label string) (FullQualifiedName, bool) {
	path := namespace + "." + name
	if !IsSimpleIdentifier(name) {
		c.problems.add(path, "invalid %s name '%s'", label, name)
		return FullQualifiedName{}, false
	}
	fqn := NewFullQualifiedName(namespace, name)
	if existing, dup := c.declared[fqn]; dup {
		if existing == label && (label == "action" || label == "function") {
			return fqn, true
		}
		c.problems.add(path, "%s '%s' conflicts with %s of the same name", label, name, existing)
		return FullQualifiedName{}, false
	}
	c.declared[fqn] = label
	return fqn, true
}

// declare registers every element name so that references can be checked
// regardless of declaration order.
func (c *compiler) declare(s *SchemaBuilder) {
	for _, def := range s.entityTypes {
		if fqn, ok := c.declareName(s.namespace, def.Name, "entity type"); ok {
			c.kinds[fqn] = KindEntity
			c.entityDefs[fqn] = def
		}
	}
	for _, def := range s.complexTypes {
		if fqn, ok := c.declareName(s.namespace, def.Name, "complex type"); ok {
			c.kinds[fqn] = KindComplex
			c.complexDefs[fqn] = def
		}
	}
	for _, def := range s.enumTypes {
		if fqn, ok := c.declareName(s.namespace, def.Name, "enum type"); ok {
			c.kinds[fqn] = KindEnum
			c.enumDefs[fqn] = def
		}
	}
	for _, def := range s.typeDefinitions {
		if fqn, ok := c.declareName(s.namespace, def.Name, "type definition"); ok {
			c.kinds[fqn] = KindTypeDefinition
		}
	}
	for _, def := range s.terms {
		if fqn, ok := c.declareName(s.namespace, def.Name, "term"); ok {
			c.termDefs[fqn] = def
		}
	}
	for _, def := range s.actions {
		c.declareName(s.namespace, def.Name, "action")
	}
	for _, def := range s.functions {
		c.declareName(s.namespace, def.Name, "function")
	}
	if len(s.containers) > 1 {
		c.problems.add(s.namespace, "schema declares %d entity containers, at most one is allowed", len(s.containers))
	}
	for _, def := range s.containers {
		c.declareName(s.namespace, def.Name, "entity container")
	}
}

func (c *compiler) kindOf(name FullQualifiedName) TypeKind {
	if IsPrimitive(name) {
		return KindPrimitive
	}
	return c.kinds[name]
}

// typeRef resolves a raw type name and checks that it denotes a declared type
// of one of the allowed kinds.
func (c *compiler) typeRef(path, raw string, allowed ...TypeKind) (TypeRef, bool) {
	ref, ok, err := c.model.resolver.ResolveType(raw)
	if err != nil {
		c.problems.add(path, "malformed type '%s'", raw)
		return TypeRef{}, false
	}
	if !ok {
		c.problems.add(path, "type '%s' uses an unknown namespace or alias", raw)
		return TypeRef{}, false
	}

	kind := c.kindOf(ref.Name)
	if kind == KindNone {
		c.problems.add(path, "type '%s' is not declared", ref.Name)
		return TypeRef{}, false
	}
	if IsSpatial(ref.Name) && !c.options.geospatial {
		c.problems.add(path, "spatial type '%s' requires geospatial support to be enabled", ref.Name)
		return TypeRef{}, false
	}
	for _, k := range allowed {
		if k == kind {
			return ref, true
		}
	}
	c.problems.add(path, "type '%s' is a %s, which is not allowed here", ref.Name, kind)
	return TypeRef{}, false
}

// convert builds the model values of one schema.
func (c *compiler) convert(s *SchemaBuilder) {
	schema := &Schema{Namespace: s.namespace, Alias: s.alias}
	ns := s.namespace

	for _, def := range s.entityTypes {
		fqn := NewFullQualifiedName(ns, def.Name)
		if _, ok := c.entityDefs[fqn]; !ok || c.model.entityTypes[fqn] != nil {
			continue
		}
		t := &EntityType{
			Name:                 fqn,
			Abstract:             def.Abstract,
			OpenType:             def.OpenType,
			HasStream:            def.HasStream,
			Properties:           c.properties(fqn, def.Properties),
			NavigationProperties: c.navigationProperties(fqn, def.NavigationProperties),
		}
		if def.Key != nil {
			key := Key{Elements: append([]KeyElement(nil), def.Key.Elements...)}
			t.Key = &key
		}
		c.model.entityTypes[fqn] = t
		schema.EntityTypes = append(schema.EntityTypes, t)
	}

	for _, def := range s.complexTypes {
		fqn := NewFullQualifiedName(ns, def.Name)
		if _, ok := c.complexDefs[fqn]; !ok || c.model.complexTypes[fqn] != nil {
			continue
		}
		t := &ComplexType{
			Name:                 fqn,
			Abstract:             def.Abstract,
			OpenType:             def.OpenType,
			Properties:           c.properties(fqn, def.Properties),
			NavigationProperties: c.navigationProperties(fqn, def.NavigationProperties),
		}
		c.model.complexTypes[fqn] = t
		schema.ComplexTypes = append(schema.ComplexTypes, t)
	}

	for _, def := range s.enumTypes {
		fqn := NewFullQualifiedName(ns, def.Name)
		if _, ok := c.enumDefs[fqn]; !ok || c.model.enumTypes[fqn] != nil {
			continue
		}
		t := c.enumType(fqn, def)
		c.model.enumTypes[fqn] = t
		schema.EnumTypes = append(schema.EnumTypes, t)
	}

	for _, def := range s.typeDefinitions {
		fqn := NewFullQualifiedName(ns, def.Name)
		if c.kinds[fqn] != KindTypeDefinition || c.model.typeDefinitions[fqn] != nil {
			continue
		}
		t := &TypeDefinition{
			Name:   fqn,
			Facets: Facets{MaxLength: def.MaxLength, Precision: def.Precision, Scale: def.Scale, SRID: def.SRID, Unicode: def.Unicode},
		}
		if ref, ok := c.typeRef(fqn.String(), def.UnderlyingType, KindPrimitive); ok {
			if ref.Collection {
				c.problems.add(fqn.String(), "underlying type of a type definition cannot be a collection")
			}
			t.UnderlyingType = ref.Name
			for _, msg := range validateFacets(ref.Name, t.Facets) {
				c.problems.add(fqn.String(), "%s", msg)
			}
		}
		c.model.typeDefinitions[fqn] = t
		schema.TypeDefinitions = append(schema.TypeDefinitions, t)
	}

	for _, def := range s.terms {
		fqn := NewFullQualifiedName(ns, def.Name)
		if _, ok := c.termDefs[fqn]; !ok || c.model.terms[fqn] != nil {
			continue
		}
		t := &Term{
			Name:         fqn,
			Nullable:     boolOr(def.Nullable, true),
			AppliesTo:    append([]string(nil), def.AppliesTo...),
			DefaultValue: def.DefaultValue,
		}
		if ref, ok := c.typeRef(fqn.String(), def.Type, KindPrimitive, KindComplex, KindEnum, KindTypeDefinition, KindEntity); ok {
			t.Type = ref
		}
		c.model.terms[fqn] = t
		schema.Terms = append(schema.Terms, t)
	}

	for _, def := range s.actions {
		if op, ok := c.operation(ns, ActionKind, def); ok {
			c.model.actions[op.Name] = append(c.model.actions[op.Name], op)
			schema.Actions = append(schema.Actions, op)
		}
	}
	for _, def := range s.functions {
		if op, ok := c.operation(ns, FunctionKind, def); ok {
			c.model.functions[op.Name] = append(c.model.functions[op.Name], op)
			schema.Functions = append(schema.Functions, op)
		}
	}

	if len(s.containers) > 0 {
		def := s.containers[0]
		fqn := NewFullQualifiedName(ns, def.Name)
		if c.declared[fqn] == "entity container" && c.model.containers[fqn] == nil {
			container := c.container(fqn, def)
			c.model.containers[fqn] = container
			c.model.containersByName[def.Name] = append(c.model.containersByName[def.Name], container)
			schema.EntityContainer = container
			c.containers = append(c.containers, containerDraft{container: container, def: def})
		}
	}

	if c.model.schemaIndex(ns) < 0 {
		c.model.schemas = append(c.model.schemas, schema)
	}
}

func (m *Model) schemaIndex(namespace string) int {
	for i, schema := range m.schemas {
		if schema.Namespace == namespace {
			return i
		}
	}
	return -1
}

func (c *compiler) properties(owner FullQualifiedName, defs []PropertyDef) []Property {
	properties := make([]Property, 0, len(defs))
	for _, def := range defs {
		path := owner.String() + "/" + def.Name
		if !IsSimpleIdentifier(def.Name) {
			c.problems.add(path, "invalid property name '%s'", def.Name)
			continue
		}
		ref, ok := c.typeRef(path, def.Type, KindPrimitive, KindComplex, KindEnum, KindTypeDefinition)
		if !ok {
			continue
		}

		facets := def.facets()
		switch c.kindOf(ref.Name) {
		case KindPrimitive:
			for _, msg := range validateFacets(ref.Name, facets) {
				c.problems.add(path, "%s", msg)
			}
		default:
			if facets != (Facets{}) {
				c.problems.add(path, "facets do not apply to %s '%s'", c.kindOf(ref.Name), ref.Name)
			}
		}

		properties = append(properties, Property{
			Name:          def.Name,
			Type:          ref,
			Nullable:      boolOr(def.Nullable, true),
			DefaultValue:  def.DefaultValue,
			Facets:        facets,
			DeclaringType: owner,
		})
	}
	return properties
}

func (c *compiler) navigationProperties(owner FullQualifiedName, defs []NavigationPropertyDef) []NavigationProperty {
	navigation := make([]NavigationProperty, 0, len(defs))
	for _, def := range defs {
		path := owner.String() + "/" + def.Name
		if !IsSimpleIdentifier(def.Name) {
			c.problems.add(path, "invalid navigation property name '%s'", def.Name)
			continue
		}
		ref, ok := c.typeRef(path, def.Type, KindEntity)
		if !ok {
			continue
		}
		nullable := boolOr(def.Nullable, true)
		if ref.Collection {
			if def.Nullable != nil && *def.Nullable {
				c.problems.add(path, "collection-valued navigation property cannot be nullable")
			}
			nullable = false
		}
		navigation = append(navigation, NavigationProperty{
			Name:                   def.Name,
			Type:                   ref,
			Nullable:               nullable,
			Partner:                def.Partner,
			ContainsTarget:         def.ContainsTarget,
			ReferentialConstraints: append([]ReferentialConstraint(nil), def.ReferentialConstraints...),
			DeclaringType:          owner,
		})
	}
	return navigation
}

func (c *compiler) enumType(fqn FullQualifiedName, def EnumTypeDef) *EnumType {
	t := &EnumType{Name: fqn, UnderlyingType: EdmInt32, IsFlags: def.IsFlags}
	if def.UnderlyingType != "" {
		if ref, ok := c.typeRef(fqn.String(), def.UnderlyingType, KindPrimitive); ok {
			if !isIntegral(ref.Name) || ref.Collection {
				c.problems.add(fqn.String(), "underlying type '%s' of an enum type must be Edm.Byte, Edm.SByte, Edm.Int16, Edm.Int32 or Edm.Int64", ref)
			} else {
				t.UnderlyingType = ref.Name
			}
		}
	}

	next := int64(0)
	for _, member := range def.Members {
		value := next
		if member.Value != nil {
			value = *member.Value
		}
		t.Members = append(t.Members, EnumMember{Name: member.Name, Value: value})
		next = value + 1
	}
	return t
}

func (c *compiler) parameter(path string, def ParameterDef) (Parameter, bool) {
	if !IsSimpleIdentifier(def.Name) {
		c.problems.add(path, "invalid parameter name '%s'", def.Name)
		return Parameter{}, false
	}
	ref, ok := c.typeRef(path+"/"+def.Name, def.Type, KindPrimitive, KindComplex, KindEnum, KindTypeDefinition, KindEntity)
	if !ok {
		return Parameter{}, false
	}
	facets := Facets{MaxLength: def.MaxLength, Precision: def.Precision, Scale: def.Scale, SRID: def.SRID}
	if c.kindOf(ref.Name) == KindPrimitive {
		for _, msg := range validateFacets(ref.Name, facets) {
			c.problems.add(path+"/"+def.Name, "%s", msg)
		}
	}
	return Parameter{Name: def.Name, Type: ref, Nullable: boolOr(def.Nullable, true), Facets: facets}, true
}

func (c *compiler) operation(namespace string, kind OperationKind, def OperationDef) (*Operation, bool) {
	fqn := NewFullQualifiedName(namespace, def.Name)
	label := "action"
	if kind == FunctionKind {
		label = "function"
	}
	if c.declared[fqn] != label {
		return nil, false
	}

	path := fqn.String()
	valid := true
	op := &Operation{
		Kind:          kind,
		Name:          fqn,
		IsBound:       def.IsBound,
		IsComposable:  def.IsComposable,
		EntitySetPath: def.EntitySetPath,
	}

	switch {
	case def.IsBound && def.BindingParameter == nil:
		c.problems.add(path, "bound %s has no binding parameter", label)
		valid = false
	case !def.IsBound && def.BindingParameter != nil:
		c.problems.add(path, "unbound %s declares binding parameter '%s'", label, def.BindingParameter.Name)
		valid = false
	case def.BindingParameter != nil:
		if p, ok := c.parameter(path, *def.BindingParameter); ok {
			op.BindingParameter = &p
		} else {
			valid = false
		}
	}

	names := make(map[string]struct{})
	if def.BindingParameter != nil {
		names[def.BindingParameter.Name] = struct{}{}
	}
	for _, pdef := range def.Parameters {
		if _, dup := names[pdef.Name]; dup {
			c.problems.add(path, "parameter '%s' is declared more than once", pdef.Name)
			valid = false
			continue
		}
		names[pdef.Name] = struct{}{}
		p, ok := c.parameter(path, pdef)
		if !ok {
			valid = false
			continue
		}
		op.Parameters = append(op.Parameters, p)
	}

	if def.ReturnType != nil {
		if ref, ok := c.typeRef(path, def.ReturnType.Type, KindPrimitive, KindComplex, KindEnum, KindTypeDefinition, KindEntity); ok {
			op.ReturnType = &ReturnType{Type: ref, Nullable: boolOr(def.ReturnType.Nullable, true)}
		} else {
			valid = false
		}
	}
	return op, valid
}

func (c *compiler) container(fqn FullQualifiedName, def EntityContainerDef) *EntityContainer {
	container := &EntityContainer{Name: fqn, IsDefault: def.Default}
	path := fqn.String()
	names := make(map[string]string)
	claim := func(name, label string) bool {
		if !IsSimpleIdentifier(name) {
			c.problems.add(path, "invalid %s name '%s'", label, name)
			return false
		}
		if existing, dup := names[name]; dup {
			c.problems.add(path+"/"+name, "%s '%s' conflicts with %s of the same name", label, name, existing)
			return false
		}
		names[name] = label
		return true
	}

	for _, sdef := range def.EntitySets {
		if !claim(sdef.Name, "entity set") {
			continue
		}
		ref, ok := c.typeRef(path+"/"+sdef.Name, sdef.EntityType, KindEntity)
		if !ok {
			continue
		}
		if ref.Collection {
			c.problems.add(path+"/"+sdef.Name, "entity set type must not be a collection")
			continue
		}
		container.EntitySets = append(container.EntitySets, &EntitySet{
			Name:                       sdef.Name,
			Container:                  fqn,
			EntityType:                 ref.Name,
			IncludeInServiceDocument:   boolOr(sdef.IncludeInServiceDocument, true),
			NavigationPropertyBindings: append([]NavigationPropertyBinding(nil), sdef.NavigationPropertyBindings...),
		})
	}

	for _, sdef := range def.Singletons {
		if !claim(sdef.Name, "singleton") {
			continue
		}
		ref, ok := c.typeRef(path+"/"+sdef.Name, sdef.Type, KindEntity)
		if !ok {
			continue
		}
		if ref.Collection {
			c.problems.add(path+"/"+sdef.Name, "singleton type must not be a collection")
			continue
		}
		container.Singletons = append(container.Singletons, &Singleton{
			Name:                       sdef.Name,
			Container:                  fqn,
			Type:                       ref.Name,
			NavigationPropertyBindings: append([]NavigationPropertyBinding(nil), sdef.NavigationPropertyBindings...),
		})
	}

	for _, idef := range def.ActionImports {
		if !claim(idef.Name, "action import") {
			continue
		}
		name, ok := c.importTarget(path+"/"+idef.Name, idef.Action, "action")
		if !ok {
			continue
		}
		container.ActionImports = append(container.ActionImports, &ActionImport{
			Name: idef.Name, Container: fqn, Action: name, EntitySet: idef.EntitySet,
		})
	}

	for _, idef := range def.FunctionImports {
		if !claim(idef.Name, "function import") {
			continue
		}
		name, ok := c.importTarget(path+"/"+idef.Name, idef.Function, "function")
		if !ok {
			continue
		}
		container.FunctionImports = append(container.FunctionImports, &FunctionImport{
			Name: idef.Name, Container: fqn, Function: name, EntitySet: idef.EntitySet,
			IncludeInServiceDocument: idef.IncludeInServiceDocument,
		})
	}

	return container
}

func (c *compiler) importTarget(path, raw, label string) (FullQualifiedName, bool) {
	name, ok, err := c.model.resolver.Resolve(raw)
	if err != nil {
		c.problems.add(path, "malformed %s name '%s'", label, raw)
		return FullQualifiedName{}, false
	}
	if !ok || c.declared[name] != label {
		c.problems.add(path, "%s '%s' is not declared", label, raw)
		return FullQualifiedName{}, false
	}
	return name, true
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
