package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrInvalidModel matches every error returned by Builder.Build for an
// inconsistent set of declarations.
var ErrInvalidModel = errors.New("edm: invalid model")

// Problem is one consistency violation found while building a model. Path
// locates the offending element, e.g. "NS.Customer/Orders".
type Problem struct {
	Path    string
	Message string
}

func (p *Problem) Error() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// ValidationError aggregates every problem found in one build.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.errs.Error()
}

// Problems returns the individual problems in detection order.
func (e *ValidationError) Problems() []*Problem {
	problems := make([]*Problem, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var problem *Problem
		if errors.As(err, &problem) {
			problems = append(problems, problem)
		}
	}
	return problems
}

// Is makes errors.Is(err, ErrInvalidModel) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidModel
}

// Unwrap exposes the individual problems to errors.As.
func (e *ValidationError) Unwrap() []error {
	return e.errs.Errors
}

// problemSet collects problems in detection order.
type problemSet struct {
	errs *multierror.Error
}

func (s *problemSet) add(path, format string, args ...any) {
	s.errs = multierror.Append(s.errs, &Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (s *problemSet) len() int {
	if s.errs == nil {
		return 0
	}
	return len(s.errs.Errors)
}

func (s *problemSet) err() error {
	if s.errs.ErrorOrNil() == nil {
		return nil
	}
	s.errs.ErrorFormat = formatProblems
	return &ValidationError{errs: s.errs}
}

func formatProblems(errs []error) string {
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  - " + err.Error()
	}
	return fmt.Sprintf("edm: model validation failed with %d problem(s):\n%s", len(errs), strings.Join(lines, "\n"))
}

// checkInheritance resolves base types and reports dangling references, kind
// mismatches and cycles.
func (c *compiler) checkInheritance() {
	for _, schema := range c.model.schemas {
		for _, t := range schema.EntityTypes {
			if raw := c.entityDefs[t.Name].BaseType; raw != "" {
				if base, ok := c.baseType(t.Name, raw, KindEntity); ok {
					t.BaseType = &base
					c.model.derived[base] = append(c.model.derived[base], t.Name)
				}
			}
		}
		for _, t := range schema.ComplexTypes {
			if raw := c.complexDefs[t.Name].BaseType; raw != "" {
				if base, ok := c.baseType(t.Name, raw, KindComplex); ok {
					t.BaseType = &base
					c.model.derived[base] = append(c.model.derived[base], t.Name)
				}
			}
		}
	}

	for _, name := range c.structuralTypeNames() {
		if c.inCycle(name) {
			c.cyclic[name] = struct{}{}
			c.problems.add(name.String(), "inheritance cycle through base type chain %v", c.model.BaseTypeChain(name))
		}
	}
}

func (c *compiler) baseType(owner FullQualifiedName, raw string, kind TypeKind) (FullQualifiedName, bool) {
	path := owner.String()
	base, ok, err := c.model.resolver.Resolve(raw)
	if err != nil {
		c.problems.add(path, "malformed base type '%s'", raw)
		return FullQualifiedName{}, false
	}
	if !ok || c.kindOf(base) == KindNone {
		c.problems.add(path, "base type '%s' is not declared", raw)
		return FullQualifiedName{}, false
	}
	if actual := c.kindOf(base); actual != kind {
		c.problems.add(path, "base type '%s' is a %s, expected %s", base, actual, kind)
		return FullQualifiedName{}, false
	}
	return base, true
}

func (c *compiler) inCycle(name FullQualifiedName) bool {
	seen := map[FullQualifiedName]struct{}{}
	current := name
	for {
		t, ok := c.model.StructuralType(current)
		if !ok {
			return false
		}
		base, hasBase := t.Base()
		if !hasBase {
			return false
		}
		if base == name {
			return true
		}
		if _, revisit := seen[base]; revisit {
			return false
		}
		seen[base] = struct{}{}
		current = base
	}
}

func (c *compiler) structuralTypeNames() []FullQualifiedName {
	var names []FullQualifiedName
	for _, schema := range c.model.schemas {
		for _, t := range schema.EntityTypes {
			names = append(names, t.Name)
		}
		for _, t := range schema.ComplexTypes {
			names = append(names, t.Name)
		}
	}
	return names
}

func declaredNavigation(t StructuralType) []NavigationProperty {
	switch v := t.(type) {
	case *EntityType:
		return v.NavigationProperties
	case *ComplexType:
		return v.NavigationProperties
	}
	return nil
}

// computeEffectiveMembers merges inherited and declared members, base first.
// Identical redeclarations collapse into the inherited member; any other
// redeclaration is a problem.
func (c *compiler) computeEffectiveMembers() {
	done := make(map[FullQualifiedName]bool)

	var compute func(name FullQualifiedName)
	compute = func(name FullQualifiedName) {
		if done[name] {
			return
		}
		done[name] = true

		t, ok := c.model.StructuralType(name)
		if !ok {
			return
		}

		var properties []Property
		var navigation []NavigationProperty
		if base, hasBase := t.Base(); hasBase {
			if _, cyclic := c.cyclic[name]; !cyclic {
				compute(base)
				properties = append(properties, c.model.properties[base]...)
				navigation = append(navigation, c.model.navigation[base]...)
			}
		}

		path := name.String()
		inherited := len(properties)
		for _, p := range t.DeclaredProperties() {
			if indexOfNavigation(navigation, p.Name) >= 0 {
				c.problems.add(path+"/"+p.Name, "property '%s' conflicts with an inherited navigation property of the same name", p.Name)
				continue
			}
			idx := indexOfProperty(properties, p.Name)
			switch {
			case idx < 0:
				properties = append(properties, p)
			case idx >= inherited:
				c.problems.add(path+"/"+p.Name, "property '%s' is declared more than once", p.Name)
			case properties[idx].compatibleWith(p):
			default:
				c.problems.add(path+"/"+p.Name, "property '%s' is incompatible with the property inherited from %s", p.Name, properties[idx].DeclaringType)
			}
		}

		inherited = len(navigation)
		for _, n := range declaredNavigation(t) {
			if indexOfProperty(properties, n.Name) >= 0 {
				c.problems.add(path+"/"+n.Name, "navigation property '%s' conflicts with a structural property of the same name", n.Name)
				continue
			}
			idx := indexOfNavigation(navigation, n.Name)
			switch {
			case idx < 0:
				navigation = append(navigation, n)
			case idx >= inherited:
				c.problems.add(path+"/"+n.Name, "navigation property '%s' is declared more than once", n.Name)
			case navigation[idx].Type == n.Type && navigation[idx].ContainsTarget == n.ContainsTarget && navigation[idx].Nullable == n.Nullable:
			default:
				c.problems.add(path+"/"+n.Name, "navigation property '%s' is incompatible with the navigation property inherited from %s", n.Name, navigation[idx].DeclaringType)
			}
		}

		c.model.properties[name] = properties
		c.model.navigation[name] = navigation
	}

	for _, name := range c.structuralTypeNames() {
		compute(name)
	}
}

func indexOfProperty(properties []Property, name string) int {
	for i := range properties {
		if properties[i].Name == name {
			return i
		}
	}
	return -1
}

func indexOfNavigation(navigation []NavigationProperty, name string) int {
	for i := range navigation {
		if navigation[i].Name == name {
			return i
		}
	}
	return -1
}

// checkKeys assigns each entity type its effective key. A key is declared at
// most once per inheritance chain and every concrete entity type needs one.
func (c *compiler) checkKeys() {
	for _, t := range c.model.EntityTypes() {
		if _, cyclic := c.cyclic[t.Name]; cyclic {
			continue
		}
		path := t.Name.String()

		var declaring *EntityType
		for _, ancestor := range c.model.BaseTypeChain(t.Name)[1:] {
			if et, ok := c.model.entityTypes[ancestor]; ok && et.Key != nil {
				declaring = et
				break
			}
		}

		switch {
		case t.Key != nil && declaring != nil:
			c.problems.add(path, "key is already declared by base type %s", declaring.Name)
			c.model.keys[t.Name] = declaring.Key
		case t.Key != nil:
			if err := t.Key.Validate(); err != nil {
				c.problems.add(path, "%v", err)
			} else {
				c.checkKeyProperties(t)
			}
			c.model.keys[t.Name] = t.Key
		case declaring != nil:
			c.model.keys[t.Name] = declaring.Key
		case !t.Abstract:
			c.problems.add(path, "entity type has no key and no base type declares one")
		}
	}
}

func (c *compiler) checkKeyProperties(t *EntityType) {
	for _, element := range t.Key.Ordered() {
		path := t.Name.String() + "/" + element.PropertyName
		idx := indexOfProperty(c.model.properties[t.Name], element.PropertyName)
		if idx < 0 {
			c.problems.add(path, "key property '%s' is not a structural property of %s", element.PropertyName, t.Name)
			continue
		}
		p := c.model.properties[t.Name][idx]
		kind := c.kindOf(p.Type.Name)
		switch {
		case p.Type.Collection:
			c.problems.add(path, "key property '%s' cannot be a collection", p.Name)
		case kind != KindPrimitive && kind != KindEnum && kind != KindTypeDefinition:
			c.problems.add(path, "key property '%s' must be of a primitive, enum or type definition type, got %s", p.Name, kind)
		case p.Type.Name == EdmStream || p.Type.Name == EdmUntyped || IsSpatial(p.Type.Name):
			c.problems.add(path, "key property '%s' cannot be of type %s", p.Name, p.Type.Name)
		case p.Nullable:
			c.problems.add(path, "key property '%s' must not be nullable", p.Name)
		}
	}
}

// checkNavigation verifies partners and referential constraints.
func (c *compiler) checkNavigation() {
	for _, owner := range c.structuralTypeNames() {
		t, _ := c.model.StructuralType(owner)
		for _, n := range declaredNavigation(t) {
			path := owner.String() + "/" + n.Name
			target := n.Target()

			if n.Partner != "" {
				partner, ok := c.model.FindNavigationProperty(target, n.Partner)
				switch {
				case !ok:
					c.problems.add(path, "partner '%s' is not a navigation property of %s", n.Partner, target)
				case !c.model.IsSubtypeOf(owner, partner.Target()) && !c.model.IsSubtypeOf(partner.Target(), owner):
					c.problems.add(path, "partner '%s' of %s does not navigate back to %s", n.Partner, target, owner)
				case partner.Partner != "" && partner.Partner != n.Name:
					c.problems.add(path, "partner '%s' names '%s' as its partner", n.Partner, partner.Partner)
				}
			}

			for _, rc := range n.ReferentialConstraints {
				if _, ok := c.model.FindProperty(owner, rc.Property); !ok {
					c.problems.add(path, "referential constraint property '%s' is not a property of %s", rc.Property, owner)
				}
				if _, ok := c.model.FindProperty(target, rc.ReferencedProperty); !ok {
					c.problems.add(path, "referenced property '%s' is not a property of %s", rc.ReferencedProperty, target)
				}
			}
		}
	}
}

// checkEnums validates member names and values.
func (c *compiler) checkEnums() {
	for _, schema := range c.model.schemas {
		for _, t := range schema.EnumTypes {
			path := t.Name.String()
			def := c.enumDefs[t.Name]
			if len(def.Members) == 0 {
				c.problems.add(path, "enum type has no members")
				continue
			}

			explicit := 0
			names := make(map[string]struct{})
			for _, member := range def.Members {
				if member.Value != nil {
					explicit++
				}
				if !IsSimpleIdentifier(member.Name) {
					c.problems.add(path, "invalid enum member name '%s'", member.Name)
					continue
				}
				if _, dup := names[member.Name]; dup {
					c.problems.add(path+"/"+member.Name, "enum member '%s' is declared more than once", member.Name)
				}
				names[member.Name] = struct{}{}
			}
			if explicit != 0 && explicit != len(def.Members) {
				c.problems.add(path, "either all or no enum members must specify a value")
			}
			if t.IsFlags && explicit != len(def.Members) {
				c.problems.add(path, "members of a flags enum type must specify values")
			}

			for _, member := range t.Members {
				if !fitsIntegral(t.UnderlyingType, member.Value) {
					c.problems.add(path+"/"+member.Name, "value %d is out of range for %s", member.Value, t.UnderlyingType)
				}
			}
		}
	}
}

// checkDefaults validates default values of properties and terms.
func (c *compiler) checkDefaults() {
	for _, owner := range c.structuralTypeNames() {
		t, _ := c.model.StructuralType(owner)
		for _, p := range t.DeclaredProperties() {
			if p.DefaultValue != nil {
				c.checkLiteral(owner.String()+"/"+p.Name, p.Type, *p.DefaultValue, p.Facets)
			}
		}
	}

	for _, schema := range c.model.schemas {
		for _, term := range schema.Terms {
			if raw := c.termDefs[term.Name].BaseTerm; raw != "" {
				base, ok, err := c.model.resolver.Resolve(raw)
				if err != nil || !ok || c.model.terms[base] == nil {
					c.problems.add(term.Name.String(), "base term '%s' is not declared", raw)
				} else {
					term.BaseTerm = &base
				}
			}
			if term.DefaultValue != nil && !term.Type.Name.IsZero() {
				c.checkLiteral(term.Name.String(), term.Type, *term.DefaultValue, Facets{})
			}
		}
	}
}

func (c *compiler) checkLiteral(path string, ref TypeRef, raw string, facets Facets) {
	if ref.Collection {
		c.problems.add(path, "default value is not allowed for collection type %s", ref)
		return
	}
	if err := c.model.validateLiteral(ref.Name, raw, facets); err != nil {
		c.problems.add(path, "invalid default value: %v", err)
	}
}

// validateLiteral checks raw against a primitive, enum or type definition.
func (m *Model) validateLiteral(name FullQualifiedName, raw string, facets Facets) error {
	if enum, ok := m.EnumType(name); ok {
		members := []string{raw}
		if enum.IsFlags {
			members = strings.Split(raw, ",")
		}
		for _, member := range members {
			if _, ok := enum.Member(strings.TrimSpace(member)); !ok {
				return fmt.Errorf("%w: '%s' is not a member of %s", errInvalidLiteral, member, name)
			}
		}
		return nil
	}
	if def, ok := m.TypeDefinition(name); ok {
		return validatePrimitiveLiteral(def.UnderlyingType, raw, def.Facets)
	}
	if IsPrimitive(name) {
		return validatePrimitiveLiteral(name, raw, facets)
	}
	return fmt.Errorf("%w: default values are not supported for %s", errInvalidLiteral, name)
}

// checkOperations enforces overload uniqueness and the per-kind rules.
func (c *compiler) checkOperations() {
	signatures := make(map[string]struct{})
	check := func(op *Operation) {
		path := op.Name.String()
		key := op.Kind.String() + " " + path + " " + op.signature()
		if _, dup := signatures[key]; dup {
			c.problems.add(path, "%s overload %s is declared more than once", strings.ToLower(op.Kind.String()), op.signature())
		}
		signatures[key] = struct{}{}

		if op.Kind == FunctionKind && op.ReturnType == nil {
			c.problems.add(path, "function has no return type")
		}
		if op.Kind == ActionKind && op.IsComposable {
			c.problems.add(path, "actions cannot be composable")
		}
		if op.EntitySetPath != "" {
			first := strings.SplitN(op.EntitySetPath, "/", 2)[0]
			switch {
			case !op.IsBound:
				c.problems.add(path, "entity set path requires a bound operation")
			case op.BindingParameter != nil && first != op.BindingParameter.Name:
				c.problems.add(path, "entity set path '%s' must start with binding parameter '%s'", op.EntitySetPath, op.BindingParameter.Name)
			}
		}
	}

	for _, schema := range c.model.schemas {
		for _, op := range schema.Actions {
			check(op)
		}
		for _, op := range schema.Functions {
			check(op)
		}
	}
}

// checkContainers settles the default container, extends chains, imports,
// navigation property bindings and containment exposure.
func (c *compiler) checkContainers() {
	var defaults []*EntityContainer
	for _, draft := range c.containers {
		if draft.container.IsDefault {
			defaults = append(defaults, draft.container)
		}
	}
	switch {
	case len(defaults) > 1:
		names := make([]string, len(defaults))
		for i, d := range defaults {
			names[i] = d.Name.String()
		}
		c.problems.add("", "more than one entity container is marked as default: %s", strings.Join(names, ", "))
	case len(defaults) == 1:
		c.model.defaultContainer = defaults[0]
	case len(c.containers) == 1:
		c.containers[0].container.IsDefault = true
		c.model.defaultContainer = c.containers[0].container
	}

	for _, draft := range c.containers {
		if draft.def.Extends == "" {
			continue
		}
		path := draft.container.Name.String()
		name, ok, err := c.model.resolver.Resolve(draft.def.Extends)
		switch {
		case err != nil:
			c.problems.add(path, "malformed extended container name '%s'", draft.def.Extends)
		case !ok || c.model.containers[name] == nil:
			c.problems.add(path, "extended container '%s' is not declared", draft.def.Extends)
		default:
			draft.container.Extends = &name
		}
	}
	for _, draft := range c.containers {
		if c.extendsCycle(draft.container) {
			c.problems.add(draft.container.Name.String(), "entity container extends itself")
		}
	}

	for _, draft := range c.containers {
		container := draft.container
		path := container.Name.String()

		for _, ai := range container.ActionImports {
			if !hasUnbound(c.model.actions[ai.Action]) {
				c.problems.add(path+"/"+ai.Name, "action '%s' has no unbound overload", ai.Action)
			}
			c.checkImportEntitySet(path+"/"+ai.Name, container, ai.EntitySet)
		}
		for _, fi := range container.FunctionImports {
			if !hasUnbound(c.model.functions[fi.Function]) {
				c.problems.add(path+"/"+fi.Name, "function '%s' has no unbound overload", fi.Function)
			}
			c.checkImportEntitySet(path+"/"+fi.Name, container, fi.EntitySet)
		}

		for _, set := range container.EntitySets {
			c.checkBindings(path+"/"+set.Name, container.Name, set.EntityType, set.NavigationPropertyBindings)
			c.checkContainmentExposure(path+"/"+set.Name, set)
		}
		for _, singleton := range container.Singletons {
			c.checkBindings(path+"/"+singleton.Name, container.Name, singleton.Type, singleton.NavigationPropertyBindings)
		}
	}
}

func (c *compiler) extendsCycle(container *EntityContainer) bool {
	seen := map[FullQualifiedName]struct{}{}
	current := container
	for current.Extends != nil {
		if *current.Extends == container.Name {
			return true
		}
		if _, revisit := seen[*current.Extends]; revisit {
			return false
		}
		seen[*current.Extends] = struct{}{}
		next, ok := c.model.containers[*current.Extends]
		if !ok {
			return false
		}
		current = next
	}
	return false
}

func hasUnbound(ops []*Operation) bool {
	for _, op := range ops {
		if !op.IsBound {
			return true
		}
	}
	return false
}

func (c *compiler) checkImportEntitySet(path string, container *EntityContainer, entitySet string) {
	if entitySet == "" {
		return
	}
	if _, ok, _ := c.model.EntitySet(container.Name.String(), entitySet); !ok {
		c.problems.add(path, "entity set '%s' is not declared in %s", entitySet, container.Name)
	}
}

func (c *compiler) checkBindings(path string, container, sourceType FullQualifiedName, bindings []NavigationPropertyBinding) {
	seen := make(map[string]struct{})
	for i, binding := range bindings {
		if _, dup := seen[binding.Path]; dup {
			c.problems.add(path, "navigation property binding for path '%s' is declared more than once", binding.Path)
			continue
		}
		seen[binding.Path] = struct{}{}

		nav, canonical, ok := c.walkBindingPath(sourceType, binding.Path)
		if !ok {
			c.problems.add(path, "navigation property binding path '%s' does not resolve from %s", binding.Path, sourceType)
			continue
		}
		if nav.ContainsTarget {
			c.problems.add(path, "navigation property binding path '%s' ends in containment navigation property '%s'", binding.Path, nav.Name)
			continue
		}
		bindings[i].Path = canonical

		set, singleton, ok := c.model.resolveBindingTarget(container, binding.Target)
		if !ok {
			c.problems.add(path, "navigation property binding target '%s' is not an entity set or singleton", binding.Target)
			continue
		}
		targetType := singleton.typeOrZero()
		if set != nil {
			targetType = set.EntityType
		}
		if !c.model.IsSubtypeOf(targetType, nav.Target()) && !c.model.IsSubtypeOf(nav.Target(), targetType) {
			c.problems.add(path, "navigation property binding target '%s' holds %s, which does not match %s", binding.Target, targetType, nav.Target())
		}
	}
}

func (s *Singleton) typeOrZero() FullQualifiedName {
	if s == nil {
		return FullQualifiedName{}
	}
	return s.Type
}

// walkBindingPath follows navigation properties, complex properties and type
// casts and returns the final navigation property together with the path in
// canonical form, type casts spelled with their namespace.
func (c *compiler) walkBindingPath(start FullQualifiedName, path string) (*NavigationProperty, string, bool) {
	segments := strings.Split(path, "/")
	canonical := make([]string, 0, len(segments))
	current := start
	var last *NavigationProperty
	for _, segment := range segments {
		last = nil
		switch {
		case segment == "":
			return nil, "", false
		case strings.Contains(segment, "."):
			cast, ok, err := c.model.resolver.Resolve(segment)
			if err != nil || !ok || !c.model.IsSubtypeOf(cast, current) {
				return nil, "", false
			}
			current = cast
			canonical = append(canonical, cast.String())
		default:
			canonical = append(canonical, segment)
			if nav, ok := c.model.FindNavigationProperty(current, segment); ok {
				last = nav
				current = nav.Target()
				continue
			}
			p, ok := c.model.FindProperty(current, segment)
			if !ok || c.kindOf(p.Type.Name) != KindComplex {
				return nil, "", false
			}
			current = p.Type.Name
		}
	}
	if last == nil {
		return nil, "", false
	}
	return last, strings.Join(canonical, "/"), true
}

// checkContainmentExposure reports entity sets that duplicate a containment
// navigation property, which would give contained entities a second identity.
func (c *compiler) checkContainmentExposure(path string, set *EntitySet) {
	for _, owner := range c.structuralTypeNames() {
		t, _ := c.model.StructuralType(owner)
		for _, n := range declaredNavigation(t) {
			if n.ContainsTarget && n.Name == set.Name && n.Target() == set.EntityType {
				c.problems.add(path, "entity set exposes entities contained by %s/%s", owner, n.Name)
			}
		}
	}
}
