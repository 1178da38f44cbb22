package metadata

import (
	"fmt"
	"strings"
)

// NavigationPropertyBinding maps a navigation path of an entity set or
// singleton to the entity set or singleton holding the related entities.
type NavigationPropertyBinding struct {
	Path   string
	Target string
}

// EntitySet is an addressable collection of entities.
type EntitySet struct {
	Name                       string
	Container                  FullQualifiedName
	EntityType                 FullQualifiedName
	IncludeInServiceDocument   bool
	NavigationPropertyBindings []NavigationPropertyBinding
}

// Singleton is a single addressable entity.
type Singleton struct {
	Name                       string
	Container                  FullQualifiedName
	Type                       FullQualifiedName
	NavigationPropertyBindings []NavigationPropertyBinding
}

// ActionImport exposes an unbound action at the service root.
type ActionImport struct {
	Name      string
	Container FullQualifiedName
	Action    FullQualifiedName
	EntitySet string
}

// FunctionImport exposes an unbound function at the service root.
type FunctionImport struct {
	Name                     string
	Container                FullQualifiedName
	Function                 FullQualifiedName
	EntitySet                string
	IncludeInServiceDocument bool
}

// EntityContainer groups the top-level addressable elements of a service.
type EntityContainer struct {
	Name            FullQualifiedName
	Extends         *FullQualifiedName
	IsDefault       bool
	EntitySets      []*EntitySet
	Singletons      []*Singleton
	ActionImports   []*ActionImport
	FunctionImports []*FunctionImport
}

func (c *EntityContainer) entitySet(name string) (*EntitySet, bool) {
	for _, set := range c.EntitySets {
		if set.Name == name {
			return set, true
		}
	}
	return nil, false
}

func (c *EntityContainer) singleton(name string) (*Singleton, bool) {
	for _, singleton := range c.Singletons {
		if singleton.Name == name {
			return singleton, true
		}
	}
	return nil, false
}

func (c *EntityContainer) actionImport(name string) (*ActionImport, bool) {
	for _, ai := range c.ActionImports {
		if ai.Name == name {
			return ai, true
		}
	}
	return nil, false
}

func (c *EntityContainer) functionImport(name string) (*FunctionImport, bool) {
	for _, fi := range c.FunctionImports {
		if fi.Name == name {
			return fi, true
		}
	}
	return nil, false
}

// DefaultContainer returns the container that serves unqualified requests.
func (m *Model) DefaultContainer() (*EntityContainer, bool) {
	if m == nil || m.defaultContainer == nil {
		return nil, false
	}
	return m.defaultContainer, true
}

// Containers returns every entity container in load order.
func (m *Model) Containers() []*EntityContainer {
	if m == nil {
		return nil
	}
	var result []*EntityContainer
	for _, schema := range m.schemas {
		if schema.EntityContainer != nil {
			result = append(result, schema.EntityContainer)
		}
	}
	return result
}

// EntityContainer looks up a container. An empty name selects the default
// container; a simple name matches when exactly one container carries it; a
// qualified name may use an alias.
func (m *Model) EntityContainer(name string) (*EntityContainer, bool, error) {
	if m == nil {
		if name != "" && strings.Contains(name, ".") {
			if _, err := ParseFullQualifiedName(name); err != nil {
				return nil, false, err
			}
		}
		return nil, false, nil
	}

	name = strings.TrimSpace(name)
	if name == "" {
		c, ok := m.DefaultContainer()
		return c, ok, nil
	}
	if !strings.Contains(name, ".") {
		candidates := m.containersByName[name]
		if len(candidates) != 1 {
			return nil, false, nil
		}
		return candidates[0], true, nil
	}

	fqn, ok, err := m.resolver.Resolve(name)
	if err != nil || !ok {
		return nil, false, err
	}
	c, ok := m.containers[fqn]
	return c, ok, nil
}

// containerChain returns the container followed by the containers it extends.
func (m *Model) containerChain(c *EntityContainer) []*EntityContainer {
	chain := []*EntityContainer{c}
	seen := map[FullQualifiedName]struct{}{c.Name: {}}
	for c.Extends != nil {
		next, ok := m.containers[*c.Extends]
		if !ok {
			break
		}
		if _, cycle := seen[next.Name]; cycle {
			break
		}
		seen[next.Name] = struct{}{}
		chain = append(chain, next)
		c = next
	}
	return chain
}

func lookupElement[T any](m *Model, container, name string, find func(*EntityContainer, string) (T, bool)) (T, bool, error) {
	var zero T
	if strings.TrimSpace(name) == "" {
		return zero, false, ErrEmptyName
	}
	c, ok, err := m.EntityContainer(container)
	if err != nil {
		return zero, false, fmt.Errorf("container '%s': %w", container, err)
	}
	if !ok {
		return zero, false, nil
	}
	for _, candidate := range m.containerChain(c) {
		if element, found := find(candidate, name); found {
			return element, true, nil
		}
	}
	return zero, false, nil
}

// EntitySet looks up an entity set in a container and the containers it
// extends. Contained entity sets are never returned. The result is shared with
// the model and must be treated as read-only.
func (m *Model) EntitySet(container, name string) (*EntitySet, bool, error) {
	return lookupElement(m, container, name, (*EntityContainer).entitySet)
}

// Singleton looks up a singleton in a container and the containers it extends.
func (m *Model) Singleton(container, name string) (*Singleton, bool, error) {
	return lookupElement(m, container, name, (*EntityContainer).singleton)
}

// ActionImport looks up an action import in a container and the containers it extends.
func (m *Model) ActionImport(container, name string) (*ActionImport, bool, error) {
	return lookupElement(m, container, name, (*EntityContainer).actionImport)
}

// FunctionImport looks up a function import in a container and the containers it extends.
func (m *Model) FunctionImport(container, name string) (*FunctionImport, bool, error) {
	return lookupElement(m, container, name, (*EntityContainer).functionImport)
}

// NavigationSource is a position reached while navigating from an entity set
// or singleton. Exactly one of EntitySet and Singleton is set for top-level
// sources and for non-contained targets resolved through a binding.
type NavigationSource struct {
	EntitySet  *EntitySet
	Singleton  *Singleton
	Parent     *NavigationSource
	Navigation *NavigationProperty
	EntityType FullQualifiedName
	Collection bool

	// path is the navigation path from the nearest named source, used to
	// match navigation property bindings.
	path  []string
	owner *NavigationSource
}

// Contained reports whether the source was reached through a containment
// navigation property. Contained sources have no identity of their own.
func (s *NavigationSource) Contained() bool {
	return s != nil && s.Navigation != nil && s.Navigation.ContainsTarget
}

// Unbound reports whether a non-contained navigation has no binding to a
// named source.
func (s *NavigationSource) Unbound() bool {
	return s != nil && s.EntitySet == nil && s.Singleton == nil && !s.Contained()
}

// Name returns the entity set or singleton name, or the navigation property
// name for contained and unbound sources.
func (s *NavigationSource) Name() string {
	switch {
	case s == nil:
		return ""
	case s.EntitySet != nil:
		return s.EntitySet.Name
	case s.Singleton != nil:
		return s.Singleton.Name
	case s.Navigation != nil:
		return s.Navigation.Name
	}
	return ""
}

// Source returns the entity set or singleton called name as a navigation root.
func (m *Model) Source(container, name string) (*NavigationSource, bool, error) {
	set, ok, err := m.EntitySet(container, name)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return &NavigationSource{EntitySet: set, EntityType: set.EntityType, Collection: true}, true, nil
	}
	singleton, ok, err := m.Singleton(container, name)
	if err != nil || !ok {
		return nil, false, err
	}
	return &NavigationSource{Singleton: singleton, EntityType: singleton.Type}, true, nil
}

// NavigationTarget follows a slash-separated path of navigation properties and
// type casts from source. Containment navigation yields a contained source;
// other navigation resolves through the navigation property bindings of the
// nearest named source.
func (m *Model) NavigationTarget(source *NavigationSource, path string) (*NavigationSource, bool) {
	if m == nil || source == nil || strings.TrimSpace(path) == "" {
		return nil, false
	}

	current := source
	currentType := source.EntityType
	var pending []string
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return nil, false
		}
		if strings.Contains(segment, ".") {
			cast, ok, err := m.resolver.Resolve(segment)
			if err != nil || !ok || !m.IsSubtypeOf(cast, currentType) {
				return nil, false
			}
			pending = append(pending, cast.String())
			currentType = cast
			continue
		}

		nav, ok := m.FindNavigationProperty(currentType, segment)
		if !ok {
			return nil, false
		}
		pending = append(pending, segment)
		next := m.follow(current, nav, pending)
		current, currentType, pending = next, next.EntityType, nil
	}

	if len(pending) > 0 {
		cast := *current
		cast.EntityType = currentType
		cast.path = append(append([]string(nil), current.path...), pending...)
		return &cast, true
	}
	return current, true
}

// follow resolves a single navigation step. pending holds the segments since
// current, including type casts and the navigation property itself.
func (m *Model) follow(current *NavigationSource, nav *NavigationProperty, pending []string) *NavigationSource {
	owner := current.owner
	path := append(append([]string(nil), current.path...), pending...)
	if current.EntitySet != nil || current.Singleton != nil {
		owner = current
		path = append([]string(nil), pending...)
	}

	next := &NavigationSource{
		Parent:     current,
		Navigation: nav,
		EntityType: nav.Target(),
		Collection: nav.IsCollection(),
		path:       path,
		owner:      owner,
	}
	if nav.ContainsTarget {
		return next
	}

	if owner != nil {
		if set, singleton, ok := m.bindingTarget(owner, strings.Join(path, "/")); ok {
			next.EntitySet, next.Singleton = set, singleton
			next.path, next.owner = nil, nil
		}
	}
	return next
}

// bindingTarget resolves the navigation property binding of owner for path.
func (m *Model) bindingTarget(owner *NavigationSource, path string) (*EntitySet, *Singleton, bool) {
	var bindings []NavigationPropertyBinding
	var container FullQualifiedName
	switch {
	case owner.EntitySet != nil:
		bindings, container = owner.EntitySet.NavigationPropertyBindings, owner.EntitySet.Container
	case owner.Singleton != nil:
		bindings, container = owner.Singleton.NavigationPropertyBindings, owner.Singleton.Container
	}

	for _, binding := range bindings {
		if binding.Path == path {
			return m.resolveBindingTarget(container, binding.Target)
		}
	}
	return nil, nil, false
}

// resolveBindingTarget resolves "SetName", "Container/SetName" or
// "NS.Container/SetName" relative to container.
func (m *Model) resolveBindingTarget(container FullQualifiedName, target string) (*EntitySet, *Singleton, bool) {
	containerName := container.String()
	name := target
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		containerName, name = target[:idx], target[idx+1:]
	}
	if set, ok, _ := m.EntitySet(containerName, name); ok {
		return set, nil, true
	}
	if singleton, ok, _ := m.Singleton(containerName, name); ok {
		return nil, singleton, true
	}
	return nil, nil, false
}
