package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlstn/go-edm/internal/scope"
	"github.com/nlstn/go-edm/internal/source/document"
	"gorm.io/gorm"
)

func documentFacets(f FacetColumns) document.Facets {
	return document.Facets{MaxLength: f.MaxLength, Precision: f.Precision, Scale: f.Scale, SRID: f.SRID, Unicode: f.Unicode}
}

type typeKey struct {
	namespace string
	name      string
}

// Export reads every schema visible through the catalog's scopes back into a
// document, in load order.
func (c *Catalog) Export(ctx context.Context) (*document.Document, error) {
	db := c.db.WithContext(ctx)
	scoped := func() *gorm.DB { return scope.Apply(db, c.scopes) }

	var schemas []SchemaRow
	if err := scoped().Order("position, id").Find(&schemas).Error; err != nil {
		return nil, fmt.Errorf("catalog: failed to read schemas: %w", err)
	}
	var types []TypeRow
	if err := scoped().Order("id").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("catalog: failed to read types: %w", err)
	}
	var members []MemberRow
	if err := scoped().Order("id").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("catalog: failed to read members: %w", err)
	}
	var operations []OperationRow
	err := scoped().
		Preload("Parameters", func(db *gorm.DB) *gorm.DB { return db.Order("position, id") }).
		Order("id").
		Find(&operations).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to read operations: %w", err)
	}
	var elements []ContainerElementRow
	if err := scoped().Order("id").Find(&elements).Error; err != nil {
		return nil, fmt.Errorf("catalog: failed to read container elements: %w", err)
	}

	doc := &document.Document{Schemas: make([]document.Schema, len(schemas))}
	index := make(map[string]int, len(schemas))
	for i, s := range schemas {
		doc.Schemas[i] = document.Schema{Namespace: s.Namespace, Alias: s.Alias}
		index[s.Namespace] = i
	}

	byType := make(map[typeKey][]MemberRow)
	for _, m := range members {
		k := typeKey{m.Namespace, m.TypeName}
		byType[k] = append(byType[k], m)
	}

	for _, t := range types {
		i, ok := index[t.Namespace]
		if !ok {
			continue
		}
		exportType(&doc.Schemas[i], t, byType[typeKey{t.Namespace, t.Name}])
	}
	for _, op := range operations {
		i, ok := index[op.Namespace]
		if !ok {
			continue
		}
		exported := exportOperation(op)
		if op.Kind == operationAction {
			doc.Schemas[i].Actions = append(doc.Schemas[i].Actions, exported)
		} else {
			doc.Schemas[i].Functions = append(doc.Schemas[i].Functions, exported)
		}
	}
	for _, e := range elements {
		i, ok := index[e.Namespace]
		if !ok {
			continue
		}
		exportElement(&doc.Schemas[i], e)
	}
	return doc, nil
}

func exportType(s *document.Schema, t TypeRow, members []MemberRow) {
	switch t.Kind {
	case kindEntity:
		et := document.EntityType{
			Name: t.Name, BaseType: t.BaseType, Abstract: t.Abstract, OpenType: t.OpenType, HasStream: t.HasStream,
		}
		for _, m := range members {
			if m.Kind == memberKey {
				et.Key = append(et.Key, m.Name)
			}
		}
		et.Properties, et.NavigationProperties = exportMembers(members)
		s.EntityTypes = append(s.EntityTypes, et)
	case kindComplex:
		ct := document.ComplexType{Name: t.Name, BaseType: t.BaseType, Abstract: t.Abstract, OpenType: t.OpenType}
		ct.Properties, ct.NavigationProperties = exportMembers(members)
		s.ComplexTypes = append(s.ComplexTypes, ct)
	case kindEnum:
		enum := document.EnumType{Name: t.Name, UnderlyingType: t.UnderlyingType, IsFlags: t.IsFlags}
		for _, m := range members {
			if m.Kind == memberEnum {
				enum.Members = append(enum.Members, document.EnumMember{Name: m.Name, Value: m.Value})
			}
		}
		s.EnumTypes = append(s.EnumTypes, enum)
	case kindTypeDefinition:
		s.TypeDefinitions = append(s.TypeDefinitions, document.TypeDefinition{
			Name: t.Name, UnderlyingType: t.UnderlyingType, Facets: documentFacets(t.FacetColumns),
		})
	case kindTerm:
		term := document.Term{
			Name: t.Name, Type: t.Type, BaseTerm: t.BaseTerm, Nullable: t.Nullable, DefaultValue: t.DefaultValue,
		}
		if t.AppliesTo != "" {
			term.AppliesTo = strings.Fields(t.AppliesTo)
		}
		s.Terms = append(s.Terms, term)
	}
}

func exportMembers(members []MemberRow) ([]document.Property, []document.NavigationProperty) {
	var (
		props []document.Property
		navs  []document.NavigationProperty
	)
	for _, m := range members {
		switch m.Kind {
		case memberProperty:
			props = append(props, document.Property{
				Name: m.Name, Type: m.Type, Nullable: m.Nullable, DefaultValue: m.DefaultValue, Facets: documentFacets(m.FacetColumns),
			})
		case memberNavigation:
			navs = append(navs, document.NavigationProperty{
				Name: m.Name, Type: m.Type, Nullable: m.Nullable, Partner: m.Partner, ContainsTarget: m.ContainsTarget,
			})
		case memberConstraint:
			for i := range navs {
				if navs[i].Name == m.Name {
					navs[i].ReferentialConstraints = append(navs[i].ReferentialConstraints, document.ReferentialConstraint{
						Property: m.Property, ReferencedProperty: m.Referenced,
					})
				}
			}
		}
	}
	return props, navs
}

func exportOperation(op OperationRow) document.Operation {
	exported := document.Operation{
		Name: op.Name, IsBound: op.IsBound, IsComposable: op.IsComposable, EntitySetPath: op.EntitySetPath,
	}
	if op.ReturnType != "" {
		exported.ReturnType = &document.ReturnType{Type: op.ReturnType, Nullable: op.ReturnNullable}
	}
	for _, p := range op.Parameters {
		exported.Parameters = append(exported.Parameters, document.Parameter{
			Name: p.Name, Type: p.Type, Nullable: p.Nullable, Facets: documentFacets(p.FacetColumns),
		})
	}
	return exported
}

func exportElement(s *document.Schema, e ContainerElementRow) {
	if e.Kind == elementContainer {
		s.EntityContainer = &document.EntityContainer{Name: e.Container, Default: e.IsDefault, Extends: e.Extends}
		return
	}
	c := s.EntityContainer
	if c == nil {
		return
	}
	switch e.Kind {
	case elementEntitySet:
		c.EntitySets = append(c.EntitySets, document.EntitySet{
			Name: e.Name, EntityType: e.Target, IncludeInServiceDocument: e.IncludeInServiceDocument,
		})
	case elementSingleton:
		c.Singletons = append(c.Singletons, document.Singleton{Name: e.Name, Type: e.Target})
	case elementActionImport:
		c.ActionImports = append(c.ActionImports, document.ActionImport{Name: e.Name, Action: e.Target, EntitySet: e.EntitySet})
	case elementFunctionImport:
		c.FunctionImports = append(c.FunctionImports, document.FunctionImport{
			Name: e.Name, Function: e.Target, EntitySet: e.EntitySet,
			IncludeInServiceDocument: e.IncludeInServiceDocument != nil && *e.IncludeInServiceDocument,
		})
	case elementBinding:
		binding := document.Binding{Path: e.BindingPath, Target: e.Target}
		for i := range c.EntitySets {
			if c.EntitySets[i].Name == e.Name {
				c.EntitySets[i].Bindings = append(c.EntitySets[i].Bindings, binding)
				return
			}
		}
		for i := range c.Singletons {
			if c.Singletons[i].Name == e.Name {
				c.Singletons[i].Bindings = append(c.Singletons[i].Bindings, binding)
				return
			}
		}
	}
}
