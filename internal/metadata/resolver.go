package metadata

import (
	"fmt"
	"sort"
)

// SchemaRef names a schema and its optional alias for qualified-name resolution.
type SchemaRef struct {
	Namespace string
	Alias     string
}

// Resolver maps "namespace-or-alias.Name" strings to canonical qualified names.
// It is built once per model and is safe for concurrent use.
type Resolver struct {
	namespaces map[string]struct{}
	aliases    map[string]string
	ambiguous  map[string]struct{}
}

// NewResolver builds a resolver for the given schemas. The returned conflicts
// describe duplicate namespaces and ambiguous aliases; ambiguous qualifiers are
// never resolved.
func NewResolver(refs ...SchemaRef) (*Resolver, []string) {
	r := &Resolver{
		namespaces: map[string]struct{}{EdmNamespace: {}},
		aliases:    make(map[string]string),
		ambiguous:  make(map[string]struct{}),
	}

	var conflicts []string
	aliasTargets := make(map[string][]string)
	for _, ref := range refs {
		if _, exists := r.namespaces[ref.Namespace]; exists {
			conflicts = append(conflicts, fmt.Sprintf("namespace '%s' is declared more than once", ref.Namespace))
		}
		r.namespaces[ref.Namespace] = struct{}{}
		if ref.Alias != "" {
			aliasTargets[ref.Alias] = append(aliasTargets[ref.Alias], ref.Namespace)
		}
	}

	aliases := make([]string, 0, len(aliasTargets))
	for alias := range aliasTargets {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		targets := aliasTargets[alias]
		if len(targets) > 1 {
			r.ambiguous[alias] = struct{}{}
			conflicts = append(conflicts, fmt.Sprintf("alias '%s' is declared by more than one schema (%v)", alias, targets))
			continue
		}
		target := targets[0]
		if _, isNamespace := r.namespaces[alias]; isNamespace && alias != target {
			r.ambiguous[alias] = struct{}{}
			conflicts = append(conflicts, fmt.Sprintf("alias '%s' of namespace '%s' collides with a namespace of the same name", alias, target))
			continue
		}
		r.aliases[alias] = target
	}

	return r, conflicts
}

// Namespace returns the canonical namespace for a namespace or alias qualifier.
func (r *Resolver) Namespace(qualifier string) (string, bool) {
	if r == nil {
		return "", false
	}
	if _, ambiguous := r.ambiguous[qualifier]; ambiguous {
		return "", false
	}
	if _, ok := r.namespaces[qualifier]; ok {
		return qualifier, true
	}
	if namespace, ok := r.aliases[qualifier]; ok {
		return namespace, true
	}
	return "", false
}

// Resolve maps raw to its canonical qualified name. An unknown or ambiguous
// qualifier yields ok == false; err is only set for malformed input.
func (r *Resolver) Resolve(raw string) (FullQualifiedName, bool, error) {
	parsed, err := ParseFullQualifiedName(raw)
	if err != nil {
		return FullQualifiedName{}, false, err
	}

	namespace, ok := r.Namespace(parsed.Namespace)
	if !ok {
		return FullQualifiedName{}, false, nil
	}
	return FullQualifiedName{Namespace: namespace, Name: parsed.Name}, true, nil
}

// ResolveType resolves a raw type reference such as "Collection(Alias.Address)".
func (r *Resolver) ResolveType(raw string) (TypeRef, bool, error) {
	inner, collection, err := splitCollection(raw)
	if err != nil {
		return TypeRef{}, false, err
	}

	name, ok, err := r.Resolve(inner)
	if err != nil || !ok {
		return TypeRef{}, ok, err
	}
	return TypeRef{Name: name, Collection: collection}, true, nil
}

// Aliases returns a copy of the alias table.
func (r *Resolver) Aliases() map[string]string {
	if r == nil {
		return nil
	}
	result := make(map[string]string, len(r.aliases))
	for alias, namespace := range r.aliases {
		result[alias] = namespace
	}
	return result
}
