package document

import (
	"github.com/nlstn/go-edm/internal/metadata"
)

// Apply declares every schema of doc on b. Consistency is checked later by
// b.Build, so Apply never fails.
func Apply(doc *Document, b *metadata.Builder) {
	if doc == nil {
		return
	}
	for _, s := range doc.Schemas {
		applySchema(s, b.Schema(s.Namespace, s.Alias))
	}
}

func applySchema(s Schema, sb *metadata.SchemaBuilder) {
	for _, t := range s.EntityTypes {
		def := metadata.EntityTypeDef{
			Name:                 t.Name,
			BaseType:             t.BaseType,
			Abstract:             t.Abstract,
			OpenType:             t.OpenType,
			HasStream:            t.HasStream,
			Properties:           properties(t.Properties),
			NavigationProperties: navigationProperties(t.NavigationProperties),
		}
		if len(t.Key) > 0 {
			key := metadata.NewKey(t.Key...)
			def.Key = &key
		}
		sb.EntityType(def)
	}
	for _, t := range s.ComplexTypes {
		sb.ComplexType(metadata.ComplexTypeDef{
			Name:                 t.Name,
			BaseType:             t.BaseType,
			Abstract:             t.Abstract,
			OpenType:             t.OpenType,
			Properties:           properties(t.Properties),
			NavigationProperties: navigationProperties(t.NavigationProperties),
		})
	}
	for _, t := range s.EnumTypes {
		members := make([]metadata.EnumMemberDef, len(t.Members))
		for i, m := range t.Members {
			members[i] = metadata.EnumMemberDef{Name: m.Name, Value: m.Value}
		}
		sb.EnumType(metadata.EnumTypeDef{Name: t.Name, UnderlyingType: t.UnderlyingType, IsFlags: t.IsFlags, Members: members})
	}
	for _, t := range s.TypeDefinitions {
		sb.TypeDefinition(metadata.TypeDefinitionDef{
			Name:           t.Name,
			UnderlyingType: t.UnderlyingType,
			MaxLength:      t.MaxLength,
			Precision:      t.Precision,
			Scale:          t.Scale,
			SRID:           t.SRID,
			Unicode:        t.Unicode,
		})
	}
	for _, t := range s.Terms {
		sb.Term(metadata.TermDef{
			Name:         t.Name,
			Type:         t.Type,
			BaseTerm:     t.BaseTerm,
			Nullable:     t.Nullable,
			AppliesTo:    t.AppliesTo,
			DefaultValue: t.DefaultValue,
		})
	}
	for _, op := range s.Actions {
		sb.Action(operation(op))
	}
	for _, op := range s.Functions {
		sb.Function(operation(op))
	}
	if c := s.EntityContainer; c != nil {
		sb.EntityContainer(container(c))
	}
}

func properties(props []Property) []metadata.PropertyDef {
	defs := make([]metadata.PropertyDef, len(props))
	for i, p := range props {
		defs[i] = metadata.PropertyDef{
			Name:         p.Name,
			Type:         p.Type,
			Nullable:     p.Nullable,
			DefaultValue: p.DefaultValue,
			MaxLength:    p.MaxLength,
			Precision:    p.Precision,
			Scale:        p.Scale,
			SRID:         p.SRID,
			Unicode:      p.Unicode,
		}
	}
	return defs
}

func navigationProperties(navs []NavigationProperty) []metadata.NavigationPropertyDef {
	defs := make([]metadata.NavigationPropertyDef, len(navs))
	for i, n := range navs {
		constraints := make([]metadata.ReferentialConstraint, len(n.ReferentialConstraints))
		for j, rc := range n.ReferentialConstraints {
			constraints[j] = metadata.ReferentialConstraint{Property: rc.Property, ReferencedProperty: rc.ReferencedProperty}
		}
		defs[i] = metadata.NavigationPropertyDef{
			Name:                   n.Name,
			Type:                   n.Type,
			Nullable:               n.Nullable,
			Partner:                n.Partner,
			ContainsTarget:         n.ContainsTarget,
			ReferentialConstraints: constraints,
		}
	}
	return defs
}

func parameter(p Parameter) metadata.ParameterDef {
	return metadata.ParameterDef{
		Name:      p.Name,
		Type:      p.Type,
		Nullable:  p.Nullable,
		MaxLength: p.MaxLength,
		Precision: p.Precision,
		Scale:     p.Scale,
		SRID:      p.SRID,
	}
}

func operation(op Operation) metadata.OperationDef {
	def := metadata.OperationDef{
		Name:          op.Name,
		IsBound:       op.IsBound,
		IsComposable:  op.IsComposable,
		EntitySetPath: op.EntitySetPath,
	}
	params := op.Parameters
	if op.IsBound && len(params) > 0 {
		binding := parameter(params[0])
		def.BindingParameter = &binding
		params = params[1:]
	}
	for _, p := range params {
		def.Parameters = append(def.Parameters, parameter(p))
	}
	if op.ReturnType != nil {
		def.ReturnType = &metadata.ReturnTypeDef{Type: op.ReturnType.Type, Nullable: op.ReturnType.Nullable}
	}
	return def
}

func bindings(in []Binding) []metadata.NavigationPropertyBinding {
	out := make([]metadata.NavigationPropertyBinding, len(in))
	for i, b := range in {
		out[i] = metadata.NavigationPropertyBinding{Path: b.Path, Target: b.Target}
	}
	return out
}

func container(c *EntityContainer) metadata.EntityContainerDef {
	def := metadata.EntityContainerDef{Name: c.Name, Default: c.Default, Extends: c.Extends}
	for _, s := range c.EntitySets {
		def.EntitySets = append(def.EntitySets, metadata.EntitySetDef{
			Name:                       s.Name,
			EntityType:                 s.EntityType,
			IncludeInServiceDocument:   s.IncludeInServiceDocument,
			NavigationPropertyBindings: bindings(s.Bindings),
		})
	}
	for _, s := range c.Singletons {
		def.Singletons = append(def.Singletons, metadata.SingletonDef{
			Name:                       s.Name,
			Type:                       s.Type,
			NavigationPropertyBindings: bindings(s.Bindings),
		})
	}
	for _, ai := range c.ActionImports {
		def.ActionImports = append(def.ActionImports, metadata.ActionImportDef{Name: ai.Name, Action: ai.Action, EntitySet: ai.EntitySet})
	}
	for _, fi := range c.FunctionImports {
		def.FunctionImports = append(def.FunctionImports, metadata.FunctionImportDef{
			Name:                     fi.Name,
			Function:                 fi.Function,
			EntitySet:                fi.EntitySet,
			IncludeInServiceDocument: fi.IncludeInServiceDocument,
		})
	}
	return def
}
