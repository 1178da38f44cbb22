package metadata

import (
	"errors"
	"testing"
)

// thing declares a minimal valid keyed entity type.
func thing(name string) EntityTypeDef {
	return EntityTypeDef{Name: name, Key: keyOf("ID"), Properties: []PropertyDef{
		{Name: "ID", Type: "Edm.Int32", Nullable: boolPtr(false)},
	}}
}

func TestBuild_WCFModelIsValid(t *testing.T) {
	m := buildWCF(t)

	if got := m.Namespaces(); len(got) != 1 || got[0] != wcfNamespace {
		t.Errorf("Namespaces() = %v", got)
	}
	if m.GeospatialEnabled() {
		t.Error("Expected geospatial support to be disabled by default")
	}
	if p, ok := m.FindProperty(wcf("Person"), "LastName"); !ok || !p.Nullable {
		t.Errorf("Expected properties to default to nullable, got %+v", p)
	}
	if set, _, _ := m.EntitySet("", "Products"); !set.IncludeInServiceDocument {
		t.Error("Expected IncludeInServiceDocument to default to true")
	}
}

func TestBuild_DanglingBaseTypeFailsAsOneError(t *testing.T) {
	b := NewBuilder()
	b.Schema("Other", "")
	s := b.Schema(wcfNamespace, "MTOWCF")
	s.EntityType(EntityTypeDef{Name: "Person", Key: keyOf("PersonID"), Properties: []PropertyDef{
		{Name: "PersonID", Type: "Edm.Int32", Nullable: boolPtr(false)},
	}})
	s.EntityType(EntityTypeDef{Name: "Employee", BaseType: "Other.Person"})

	m, err := b.Build()
	if m != nil {
		t.Fatal("Expected no model for an invalid declaration set")
	}
	requireProblem(t, err, "base type 'Other.Person' is not declared")

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	for _, p := range verr.Problems() {
		if p.Path == "" {
			t.Errorf("Expected every problem to carry a path, got %q", p.Message)
		}
	}
}

func TestBuild_AggregatesAllProblems(t *testing.T) {
	b := NewBuilder()
	s := b.Schema("NS", "")
	s.EntityType(EntityTypeDef{Name: "NoKey", Properties: []PropertyDef{{Name: "ID", Type: "Edm.Int32"}}})
	s.ComplexType(ComplexTypeDef{Name: "Dangling", BaseType: "NS.Missing"})
	s.Function(OperationDef{Name: "NoReturn"})

	_, err := b.Build()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %v", err)
	}
	if got := len(verr.Problems()); got != 3 {
		t.Errorf("Expected 3 problems, got %d:\n%v", got, err)
	}
	requireProblem(t, err, "entity type has no key")
	requireProblem(t, err, "base type 'NS.Missing' is not declared")
	requireProblem(t, err, "function has no return type")
}

func TestBuild_InvalidModels(t *testing.T) {
	tests := []struct {
		name    string
		declare func(b *Builder)
		want    string
	}{
		{
			name: "duplicate namespace",
			declare: func(b *Builder) {
				b.Schema("NS", "")
				b.Schema("NS", "")
			},
			want: "namespace 'NS' is declared more than once",
		},
		{
			name: "duplicate alias",
			declare: func(b *Builder) {
				b.Schema("A", "X")
				b.Schema("B", "X")
			},
			want: "alias 'X' is declared by more than one schema",
		},
		{
			name: "alias collides with namespace",
			declare: func(b *Builder) {
				b.Schema("A", "B")
				b.Schema("B", "")
			},
			want: "collides with a namespace",
		},
		{
			name:    "reserved namespace",
			declare: func(b *Builder) { b.Schema("Edm", "") },
			want:    "namespace 'Edm' is reserved",
		},
		{
			name: "duplicate element name",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(thing("Item")).ComplexType(ComplexTypeDef{Name: "Item"})
			},
			want: "complex type 'Item' conflicts with entity type",
		},
		{
			name: "base type of wrong kind",
			declare: func(b *Builder) {
				b.Schema("NS", "").
					ComplexType(ComplexTypeDef{Name: "Shape"}).
					EntityType(EntityTypeDef{Name: "Item", BaseType: "NS.Shape", Key: keyOf("ID"), Properties: []PropertyDef{{Name: "ID", Type: "Edm.Int32", Nullable: boolPtr(false)}}})
			},
			want: "base type 'NS.Shape' is a ComplexType, expected EntityType",
		},
		{
			name: "inheritance cycle",
			declare: func(b *Builder) {
				b.Schema("NS", "").
					ComplexType(ComplexTypeDef{Name: "A", BaseType: "NS.B"}).
					ComplexType(ComplexTypeDef{Name: "B", BaseType: "NS.A"})
			},
			want: "inheritance cycle",
		},
		{
			name: "duplicate key declaration",
			declare: func(b *Builder) {
				derived := thing("Derived")
				derived.BaseType = "NS.Base"
				derived.Properties = nil
				b.Schema("NS", "").EntityType(thing("Base")).EntityType(derived)
			},
			want: "key is already declared by base type NS.Base",
		},
		{
			name: "non-contiguous key positions",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(EntityTypeDef{
					Name: "Item",
					Key:  &Key{Elements: []KeyElement{{"A", 0}, {"B", 2}}},
					Properties: []PropertyDef{
						{Name: "A", Type: "Edm.Int32", Nullable: boolPtr(false)},
						{Name: "B", Type: "Edm.Int32", Nullable: boolPtr(false)},
					},
				})
			},
			want: "position 2 of 'B' is outside 0..1",
		},
		{
			name: "nullable key property",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(EntityTypeDef{Name: "Item", Key: keyOf("ID"), Properties: []PropertyDef{{Name: "ID", Type: "Edm.Int32"}}})
			},
			want: "key property 'ID' must not be nullable",
		},
		{
			name: "undeclared key property",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(EntityTypeDef{Name: "Item", Key: keyOf("ID")})
			},
			want: "key property 'ID' is not a structural property",
		},
		{
			name: "complex key property",
			declare: func(b *Builder) {
				b.Schema("NS", "").
					ComplexType(ComplexTypeDef{Name: "Code"}).
					EntityType(EntityTypeDef{Name: "Item", Key: keyOf("Code"), Properties: []PropertyDef{{Name: "Code", Type: "NS.Code", Nullable: boolPtr(false)}}})
			},
			want: "must be of a primitive, enum or type definition type",
		},
		{
			name: "incompatible override",
			declare: func(b *Builder) {
				base := thing("Base")
				base.Properties = append(base.Properties, PropertyDef{Name: "Name", Type: "Edm.String"})
				b.Schema("NS", "").EntityType(base).EntityType(EntityTypeDef{
					Name: "Derived", BaseType: "NS.Base",
					Properties: []PropertyDef{{Name: "Name", Type: "Edm.Int32"}},
				})
			},
			want: "property 'Name' is incompatible with the property inherited from NS.Base",
		},
		{
			name: "navigation clashes with property",
			declare: func(b *Builder) {
				item := thing("Item")
				item.NavigationProperties = []NavigationPropertyDef{{Name: "ID", Type: "NS.Item"}}
				b.Schema("NS", "").EntityType(item)
			},
			want: "navigation property 'ID' conflicts with a structural property",
		},
		{
			name: "property shadows inherited navigation",
			declare: func(b *Builder) {
				base := thing("Base")
				base.NavigationProperties = []NavigationPropertyDef{{Name: "Orders", Type: "Collection(NS.Base)"}}
				b.Schema("NS", "").EntityType(base).EntityType(EntityTypeDef{
					Name: "Derived", BaseType: "NS.Base",
					Properties: []PropertyDef{{Name: "Orders", Type: "Edm.String"}},
				})
			},
			want: "property 'Orders' conflicts with an inherited navigation property",
		},
		{
			name: "dangling property type",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Tag", Type: "NS.Tag"})
				b.Schema("NS", "").EntityType(item)
			},
			want: "type 'NS.Tag' is not declared",
		},
		{
			name: "navigation to complex type",
			declare: func(b *Builder) {
				item := thing("Item")
				item.NavigationProperties = []NavigationPropertyDef{{Name: "Shape", Type: "NS.Shape"}}
				b.Schema("NS", "").ComplexType(ComplexTypeDef{Name: "Shape"}).EntityType(item)
			},
			want: "type 'NS.Shape' is a ComplexType, which is not allowed here",
		},
		{
			name: "unknown partner",
			declare: func(b *Builder) {
				item := thing("Item")
				item.NavigationProperties = []NavigationPropertyDef{{Name: "Next", Type: "NS.Item", Partner: "Previous"}}
				b.Schema("NS", "").EntityType(item)
			},
			want: "partner 'Previous' is not a navigation property of NS.Item",
		},
		{
			name: "facet on wrong type",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Name", Type: "Edm.String", Scale: intPtr(2)})
				b.Schema("NS", "").EntityType(item)
			},
			want: "Scale does not apply to Edm.String",
		},
		{
			name: "scale exceeds precision",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Price", Type: "Edm.Decimal", Precision: intPtr(4), Scale: intPtr(6)})
				b.Schema("NS", "").EntityType(item)
			},
			want: "Scale 6 exceeds precision 4",
		},
		{
			name: "invalid integer default",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Count", Type: "Edm.Int32", DefaultValue: stringPtr("many")})
				b.Schema("NS", "").EntityType(item)
			},
			want: "invalid default value",
		},
		{
			name: "decimal default exceeds scale",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Price", Type: "Edm.Decimal", Precision: intPtr(6), Scale: intPtr(2), DefaultValue: stringPtr("1.234")})
				b.Schema("NS", "").EntityType(item)
			},
			want: "exceeds scale 2",
		},
		{
			name: "guid default",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Ref", Type: "Edm.Guid", DefaultValue: stringPtr("not-a-guid")})
				b.Schema("NS", "").EntityType(item)
			},
			want: "is not a guid",
		},
		{
			name: "unknown enum default",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Color", Type: "NS.Color", DefaultValue: stringPtr("Purple")})
				b.Schema("NS", "").
					EnumType(EnumTypeDef{Name: "Color", Members: []EnumMemberDef{{Name: "Red"}}}).
					EntityType(item)
			},
			want: "'Purple' is not a member of NS.Color",
		},
		{
			name: "enum value out of range",
			declare: func(b *Builder) {
				b.Schema("NS", "").EnumType(EnumTypeDef{Name: "Small", UnderlyingType: "Edm.Byte", Members: []EnumMemberDef{
					{Name: "Big", Value: int64Ptr(300)},
				}})
			},
			want: "value 300 is out of range for Edm.Byte",
		},
		{
			name: "enum with mixed values",
			declare: func(b *Builder) {
				b.Schema("NS", "").EnumType(EnumTypeDef{Name: "Mixed", Members: []EnumMemberDef{
					{Name: "A", Value: int64Ptr(1)}, {Name: "B"},
				}})
			},
			want: "either all or no enum members must specify a value",
		},
		{
			name: "enum over non-integral type",
			declare: func(b *Builder) {
				b.Schema("NS", "").EnumType(EnumTypeDef{Name: "Text", UnderlyingType: "Edm.String", Members: []EnumMemberDef{{Name: "A"}}})
			},
			want: "underlying type 'Edm.String' of an enum type",
		},
		{
			name: "spatial type without geospatial support",
			declare: func(b *Builder) {
				item := thing("Item")
				item.Properties = append(item.Properties, PropertyDef{Name: "Location", Type: "Edm.GeographyPoint"})
				b.Schema("NS", "").EntityType(item)
			},
			want: "requires geospatial support",
		},
		{
			name: "unbound operation with binding parameter",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(thing("Item")).Action(OperationDef{
					Name: "Touch", BindingParameter: &ParameterDef{Name: "item", Type: "NS.Item"},
				})
			},
			want: "unbound action declares binding parameter 'item'",
		},
		{
			name: "bound operation without binding parameter",
			declare: func(b *Builder) {
				b.Schema("NS", "").Action(OperationDef{Name: "Touch", IsBound: true})
			},
			want: "bound action has no binding parameter",
		},
		{
			name: "duplicate overload",
			declare: func(b *Builder) {
				fn := OperationDef{Name: "Count", Parameters: []ParameterDef{{Name: "n", Type: "Edm.Int32"}}, ReturnType: &ReturnTypeDef{Type: "Edm.Int32"}}
				b.Schema("NS", "").Function(fn).Function(fn)
			},
			want: "function overload unbound(Edm.Int32) is declared more than once",
		},
		{
			name: "composable action",
			declare: func(b *Builder) {
				b.Schema("NS", "").Action(OperationDef{Name: "Run", IsComposable: true})
			},
			want: "actions cannot be composable",
		},
		{
			name: "action and function share a name",
			declare: func(b *Builder) {
				b.Schema("NS", "").Action(OperationDef{Name: "Run"}).Function(OperationDef{Name: "Run", ReturnType: &ReturnTypeDef{Type: "Edm.Int32"}})
			},
			want: "function 'Run' conflicts with action",
		},
		{
			name: "two default containers",
			declare: func(b *Builder) {
				b.Schema("A", "").EntityContainer(EntityContainerDef{Name: "C", Default: true})
				b.Schema("B", "").EntityContainer(EntityContainerDef{Name: "C", Default: true})
			},
			want: "more than one entity container is marked as default",
		},
		{
			name: "container element name collision",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(thing("Item")).EntityContainer(EntityContainerDef{
					Name:       "C",
					EntitySets: []EntitySetDef{{Name: "Items", EntityType: "NS.Item"}},
					Singletons: []SingletonDef{{Name: "Items", Type: "NS.Item"}},
				})
			},
			want: "singleton 'Items' conflicts with entity set",
		},
		{
			name: "dangling binding target",
			declare: func(b *Builder) {
				item := thing("Item")
				item.NavigationProperties = []NavigationPropertyDef{{Name: "Next", Type: "NS.Item"}}
				b.Schema("NS", "").EntityType(item).EntityContainer(EntityContainerDef{
					Name: "C",
					EntitySets: []EntitySetDef{{Name: "Items", EntityType: "NS.Item", NavigationPropertyBindings: []NavigationPropertyBinding{
						{Path: "Next", Target: "Missing"},
					}}},
				})
			},
			want: "binding target 'Missing' is not an entity set or singleton",
		},
		{
			name: "binding to containment navigation",
			declare: func(b *Builder) {
				item := thing("Item")
				item.NavigationProperties = []NavigationPropertyDef{{Name: "Children", Type: "Collection(NS.Item)", ContainsTarget: true}}
				b.Schema("NS", "").EntityType(item).EntityContainer(EntityContainerDef{
					Name: "C",
					EntitySets: []EntitySetDef{{Name: "Items", EntityType: "NS.Item", NavigationPropertyBindings: []NavigationPropertyBinding{
						{Path: "Children", Target: "Items"},
					}}},
				})
			},
			want: "ends in containment navigation property 'Children'",
		},
		{
			name: "containment exposed as entity set",
			declare: func(b *Builder) {
				owner := thing("Owner")
				owner.NavigationProperties = []NavigationPropertyDef{{Name: "Parts", Type: "Collection(NS.Part)", ContainsTarget: true}}
				b.Schema("NS", "").EntityType(owner).EntityType(thing("Part")).EntityContainer(EntityContainerDef{
					Name: "C",
					EntitySets: []EntitySetDef{
						{Name: "Owners", EntityType: "NS.Owner"},
						{Name: "Parts", EntityType: "NS.Part"},
					},
				})
			},
			want: "entity set exposes entities contained by NS.Owner/Parts",
		},
		{
			name: "action import without unbound overload",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityType(thing("Item")).
					Action(OperationDef{Name: "Touch", IsBound: true, BindingParameter: &ParameterDef{Name: "item", Type: "NS.Item"}}).
					EntityContainer(EntityContainerDef{Name: "C", ActionImports: []ActionImportDef{{Name: "Touch", Action: "NS.Touch"}}})
			},
			want: "action 'NS.Touch' has no unbound overload",
		},
		{
			name: "function import of unknown function",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityContainer(EntityContainerDef{Name: "C", FunctionImports: []FunctionImportDef{{Name: "F", Function: "NS.F"}}})
			},
			want: "function 'NS.F' is not declared",
		},
		{
			name: "extends unknown container",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityContainer(EntityContainerDef{Name: "C", Extends: "NS.Missing"})
			},
			want: "extended container 'NS.Missing' is not declared",
		},
		{
			name: "two containers in one schema",
			declare: func(b *Builder) {
				b.Schema("NS", "").EntityContainer(EntityContainerDef{Name: "A"}).EntityContainer(EntityContainerDef{Name: "B"})
			},
			want: "schema declares 2 entity containers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.declare(b)
			m, err := b.Build()
			if m != nil {
				t.Error("Expected Build to return no model")
			}
			requireProblem(t, err, tt.want)
		})
	}
}

func TestBuild_AbstractTypeMayOmitKey(t *testing.T) {
	b := NewBuilder()
	b.Schema("NS", "").
		EntityType(EntityTypeDef{Name: "Base", Abstract: true, Properties: []PropertyDef{{Name: "ID", Type: "Edm.Int32", Nullable: boolPtr(false)}}}).
		EntityType(EntityTypeDef{Name: "Concrete", BaseType: "NS.Base", Key: keyOf("ID")})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	if _, ok := m.Key(NewFullQualifiedName("NS", "Base")); ok {
		t.Error("Expected abstract base to have no key")
	}
	if key, ok := m.Key(NewFullQualifiedName("NS", "Concrete")); !ok || key.Names()[0] != "ID" {
		t.Errorf("Key(Concrete) = %v, %v", key, ok)
	}
}

func TestBuild_GeospatialEnabled(t *testing.T) {
	b := NewBuilder()
	item := thing("Item")
	item.Properties = append(item.Properties, PropertyDef{Name: "Location", Type: "Edm.GeographyPoint", SRID: "4326"})
	b.Schema("NS", "").EntityType(item)

	m, err := b.Build(WithGeospatial(true))
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	if !m.GeospatialEnabled() {
		t.Error("Expected GeospatialEnabled() to be true")
	}

	b = NewBuilder()
	item.Properties[1].SRID = "-1"
	b.Schema("NS", "").EntityType(item)
	_, err = b.Build(WithGeospatial(true))
	requireProblem(t, err, "SRID must be 'variable' or a non-negative integer")
}

func TestBuild_TypeDefinitions(t *testing.T) {
	b := NewBuilder()
	s := b.Schema("NS", "")
	s.TypeDefinition(TypeDefinitionDef{Name: "Sku", UnderlyingType: "Edm.String", MaxLength: intPtr(8)})
	item := thing("Item")
	item.Properties = append(item.Properties, PropertyDef{Name: "Code", Type: "NS.Sku", DefaultValue: stringPtr("ABC-1")})
	s.EntityType(item)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	def, ok := m.TypeDefinition(NewFullQualifiedName("NS", "Sku"))
	if !ok || def.UnderlyingType != EdmString || *def.MaxLength != 8 {
		t.Errorf("TypeDefinition(Sku) = %+v, %v", def, ok)
	}

	b = NewBuilder()
	s = b.Schema("NS", "")
	s.TypeDefinition(TypeDefinitionDef{Name: "Sku", UnderlyingType: "Edm.String", MaxLength: intPtr(3)})
	s.EntityType(item)
	_, err = b.Build()
	requireProblem(t, err, "exceeds max length 3")
}

func TestBuild_Terms(t *testing.T) {
	b := NewBuilder()
	s := b.Schema("Org.Vocab", "Vocab")
	s.Term(TermDef{Name: "Description", Type: "Edm.String", AppliesTo: []string{"EntityType", "Property"}})
	s.Term(TermDef{Name: "LongDescription", Type: "Edm.String", BaseTerm: "Vocab.Description", DefaultValue: stringPtr("n/a")})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	term, ok := m.Term(NewFullQualifiedName("Org.Vocab", "LongDescription"))
	if !ok || term.BaseTerm == nil || *term.BaseTerm != NewFullQualifiedName("Org.Vocab", "Description") {
		t.Errorf("Term(LongDescription) = %+v, %v", term, ok)
	}
	if !term.Nullable {
		t.Error("Expected terms to default to nullable")
	}

	b = NewBuilder()
	b.Schema("NS", "").Term(TermDef{Name: "T", Type: "Edm.Int32", BaseTerm: "NS.Missing"})
	_, err = b.Build()
	requireProblem(t, err, "base term 'NS.Missing' is not declared")
}
