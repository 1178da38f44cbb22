package metadata

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// EdmNamespace is the namespace of the built-in primitive types.
const EdmNamespace = "Edm"

var (
	// ErrEmptyName is returned when a lookup receives an empty name.
	ErrEmptyName = errors.New("edm: name cannot be empty")
	// ErrMalformedName is returned when a raw name cannot be split into qualifier and name.
	ErrMalformedName = errors.New("edm: malformed qualified name")
)

// FullQualifiedName identifies a schema element by namespace and local name.
// It is a comparable value type and is used as the key of every lookup.
type FullQualifiedName struct {
	Namespace string
	Name      string
}

// NewFullQualifiedName returns the qualified name namespace.name.
func NewFullQualifiedName(namespace, name string) FullQualifiedName {
	return FullQualifiedName{Namespace: namespace, Name: name}
}

// String returns the dotted form, e.g. "Microsoft.Test.Account".
func (n FullQualifiedName) String() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

// IsZero reports whether n is the zero value.
func (n FullQualifiedName) IsZero() bool {
	return n.Namespace == "" && n.Name == ""
}

// ParseFullQualifiedName splits raw at its last dot. It does not resolve aliases.
func ParseFullQualifiedName(raw string) (FullQualifiedName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FullQualifiedName{}, ErrEmptyName
	}

	idx := strings.LastIndex(trimmed, ".")
	if idx <= 0 || idx == len(trimmed)-1 {
		return FullQualifiedName{}, fmt.Errorf("%w: '%s'", ErrMalformedName, raw)
	}

	qualifier, name := trimmed[:idx], trimmed[idx+1:]
	if !isNamespace(qualifier) || !IsSimpleIdentifier(name) {
		return FullQualifiedName{}, fmt.Errorf("%w: '%s'", ErrMalformedName, raw)
	}

	return FullQualifiedName{Namespace: qualifier, Name: name}, nil
}

// TypeRef references a type, optionally as a collection of that type.
type TypeRef struct {
	Name       FullQualifiedName
	Collection bool
}

// String renders the reference as "NS.Type" or "Collection(NS.Type)".
func (t TypeRef) String() string {
	if t.Collection {
		return "Collection(" + t.Name.String() + ")"
	}
	return t.Name.String()
}

// Element returns the reference without its collection wrapper.
func (t TypeRef) Element() TypeRef {
	return TypeRef{Name: t.Name}
}

// splitCollection strips a Collection(...) wrapper from a raw type name.
func splitCollection(raw string) (string, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false, ErrEmptyName
	}
	if !strings.HasPrefix(trimmed, "Collection(") {
		return trimmed, false, nil
	}
	if !strings.HasSuffix(trimmed, ")") {
		return "", false, fmt.Errorf("%w: unterminated collection type '%s'", ErrMalformedName, raw)
	}
	inner := strings.TrimSpace(trimmed[len("Collection(") : len(trimmed)-1])
	if inner == "" || strings.HasPrefix(inner, "Collection(") {
		return "", false, fmt.Errorf("%w: invalid collection type '%s'", ErrMalformedName, raw)
	}
	return inner, true, nil
}

// IsSimpleIdentifier reports whether s is a valid CSDL simple identifier.
func IsSimpleIdentifier(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && (unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)) {
			continue
		}
		return false
	}
	return true
}

// isNamespace checks that every dot-separated segment is a simple identifier.
func isNamespace(s string) bool {
	if s == "" {
		return false
	}
	for _, segment := range strings.Split(s, ".") {
		if !IsSimpleIdentifier(segment) {
			return false
		}
	}
	return true
}
