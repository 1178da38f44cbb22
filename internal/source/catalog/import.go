package catalog

import (
	"strings"

	"github.com/nlstn/go-edm/internal/source/document"
	"gorm.io/gorm"
)

func facetColumns(f document.Facets) FacetColumns {
	return FacetColumns{MaxLength: f.MaxLength, Precision: f.Precision, Scale: f.Scale, SRID: f.SRID, Unicode: f.Unicode}
}

// schemaRows accumulates the rows of one schema before insertion.
type schemaRows struct {
	namespace  string
	types      []TypeRow
	members    []MemberRow
	operations []OperationRow
	elements   []ContainerElementRow
}

func insertSchema(tx *gorm.DB, s document.Schema, position int) error {
	if err := tx.Create(&SchemaRow{Namespace: s.Namespace, Alias: s.Alias, Position: position}).Error; err != nil {
		return err
	}

	rows := &schemaRows{namespace: s.Namespace}
	rows.addTypes(s)
	rows.addOperations(operationAction, s.Actions)
	rows.addOperations(operationFunction, s.Functions)
	rows.addContainer(s.EntityContainer)

	if len(rows.types) > 0 {
		if err := tx.Create(&rows.types).Error; err != nil {
			return err
		}
	}
	if len(rows.members) > 0 {
		if err := tx.Create(&rows.members).Error; err != nil {
			return err
		}
	}
	if len(rows.operations) > 0 {
		if err := tx.Create(&rows.operations).Error; err != nil {
			return err
		}
	}
	if len(rows.elements) > 0 {
		if err := tx.Create(&rows.elements).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *schemaRows) addTypes(s document.Schema) {
	for _, t := range s.EntityTypes {
		r.types = append(r.types, TypeRow{
			Namespace: r.namespace, Name: t.Name, Kind: kindEntity,
			BaseType: t.BaseType, Abstract: t.Abstract, OpenType: t.OpenType, HasStream: t.HasStream,
		})
		for i, name := range t.Key {
			r.members = append(r.members, MemberRow{Namespace: r.namespace, TypeName: t.Name, Kind: memberKey, Name: name, Position: i})
		}
		r.addProperties(t.Name, t.Properties)
		r.addNavigation(t.Name, t.NavigationProperties)
	}
	for _, t := range s.ComplexTypes {
		r.types = append(r.types, TypeRow{
			Namespace: r.namespace, Name: t.Name, Kind: kindComplex,
			BaseType: t.BaseType, Abstract: t.Abstract, OpenType: t.OpenType,
		})
		r.addProperties(t.Name, t.Properties)
		r.addNavigation(t.Name, t.NavigationProperties)
	}
	for _, t := range s.EnumTypes {
		r.types = append(r.types, TypeRow{
			Namespace: r.namespace, Name: t.Name, Kind: kindEnum,
			UnderlyingType: t.UnderlyingType, IsFlags: t.IsFlags,
		})
		for i, m := range t.Members {
			r.members = append(r.members, MemberRow{Namespace: r.namespace, TypeName: t.Name, Kind: memberEnum, Name: m.Name, Value: m.Value, Position: i})
		}
	}
	for _, t := range s.TypeDefinitions {
		r.types = append(r.types, TypeRow{
			Namespace: r.namespace, Name: t.Name, Kind: kindTypeDefinition,
			UnderlyingType: t.UnderlyingType, FacetColumns: facetColumns(t.Facets),
		})
	}
	for _, t := range s.Terms {
		r.types = append(r.types, TypeRow{
			Namespace: r.namespace, Name: t.Name, Kind: kindTerm,
			Type: t.Type, BaseTerm: t.BaseTerm, Nullable: t.Nullable, DefaultValue: t.DefaultValue,
			AppliesTo: strings.Join(t.AppliesTo, " "),
		})
	}
}

func (r *schemaRows) addProperties(owner string, props []document.Property) {
	for i, p := range props {
		r.members = append(r.members, MemberRow{
			Namespace: r.namespace, TypeName: owner, Kind: memberProperty,
			Name: p.Name, Type: p.Type, Nullable: p.Nullable, DefaultValue: p.DefaultValue,
			FacetColumns: facetColumns(p.Facets), Position: i,
		})
	}
}

func (r *schemaRows) addNavigation(owner string, navs []document.NavigationProperty) {
	for i, n := range navs {
		r.members = append(r.members, MemberRow{
			Namespace: r.namespace, TypeName: owner, Kind: memberNavigation,
			Name: n.Name, Type: n.Type, Nullable: n.Nullable, Partner: n.Partner, ContainsTarget: n.ContainsTarget,
			Position: i,
		})
		for j, rc := range n.ReferentialConstraints {
			r.members = append(r.members, MemberRow{
				Namespace: r.namespace, TypeName: owner, Kind: memberConstraint,
				Name: n.Name, Property: rc.Property, Referenced: rc.ReferencedProperty, Position: j,
			})
		}
	}
}

func (r *schemaRows) addOperations(kind string, ops []document.Operation) {
	for _, op := range ops {
		row := OperationRow{
			Namespace: r.namespace, Name: op.Name, Kind: kind,
			IsBound: op.IsBound, IsComposable: op.IsComposable, EntitySetPath: op.EntitySetPath,
		}
		if op.ReturnType != nil {
			row.ReturnType = op.ReturnType.Type
			row.ReturnNullable = op.ReturnType.Nullable
		}
		for i, p := range op.Parameters {
			row.Parameters = append(row.Parameters, ParameterRow{
				Name: p.Name, Type: p.Type, Nullable: p.Nullable, FacetColumns: facetColumns(p.Facets), Position: i,
			})
		}
		r.operations = append(r.operations, row)
	}
}

func (r *schemaRows) addContainer(c *document.EntityContainer) {
	if c == nil {
		return
	}
	element := func(kind, name string) ContainerElementRow {
		return ContainerElementRow{Namespace: r.namespace, Container: c.Name, Kind: kind, Name: name}
	}
	addBindings := func(owner string, bindings []document.Binding) {
		for _, b := range bindings {
			row := element(elementBinding, owner)
			row.BindingPath = b.Path
			row.Target = b.Target
			r.elements = append(r.elements, row)
		}
	}

	root := element(elementContainer, c.Name)
	root.IsDefault = c.Default
	root.Extends = c.Extends
	r.elements = append(r.elements, root)

	for _, s := range c.EntitySets {
		row := element(elementEntitySet, s.Name)
		row.Target = s.EntityType
		row.IncludeInServiceDocument = s.IncludeInServiceDocument
		r.elements = append(r.elements, row)
		addBindings(s.Name, s.Bindings)
	}
	for _, s := range c.Singletons {
		row := element(elementSingleton, s.Name)
		row.Target = s.Type
		r.elements = append(r.elements, row)
		addBindings(s.Name, s.Bindings)
	}
	for _, ai := range c.ActionImports {
		row := element(elementActionImport, ai.Name)
		row.Target = ai.Action
		row.EntitySet = ai.EntitySet
		r.elements = append(r.elements, row)
	}
	for _, fi := range c.FunctionImports {
		row := element(elementFunctionImport, fi.Name)
		row.Target = fi.Function
		row.EntitySet = fi.EntitySet
		include := fi.IncludeInServiceDocument
		row.IncludeInServiceDocument = &include
		r.elements = append(r.elements, row)
	}
}
