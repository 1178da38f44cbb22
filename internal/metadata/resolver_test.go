package metadata

import (
	"errors"
	"testing"
)

func TestResolver_AliasAndNamespaceResolveAlike(t *testing.T) {
	r, conflicts := NewResolver(SchemaRef{Namespace: wcfNamespace, Alias: "MTOWCF"})
	if len(conflicts) != 0 {
		t.Fatalf("Expected no conflicts, got %v", conflicts)
	}

	byAlias, ok, err := r.Resolve("MTOWCF.Account")
	if err != nil || !ok {
		t.Fatalf("Resolve(alias) = %v, %v, %v", byAlias, ok, err)
	}
	byNamespace, ok, err := r.Resolve(wcfNamespace + ".Account")
	if err != nil || !ok {
		t.Fatalf("Resolve(namespace) = %v, %v, %v", byNamespace, ok, err)
	}
	if byAlias != byNamespace {
		t.Errorf("Expected alias and namespace forms to match, got %v and %v", byAlias, byNamespace)
	}
	if byAlias.Namespace != wcfNamespace {
		t.Errorf("Expected canonical namespace %q, got %q", wcfNamespace, byAlias.Namespace)
	}
}

func TestResolver_UnknownQualifierIsNotFound(t *testing.T) {
	r, _ := NewResolver(SchemaRef{Namespace: "NS"})

	got, ok, err := r.Resolve("Other.Type")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ok {
		t.Errorf("Expected not found, got %v", got)
	}
}

func TestResolver_MalformedInput(t *testing.T) {
	r, _ := NewResolver(SchemaRef{Namespace: "NS"})

	if _, _, err := r.Resolve(""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Resolve(\"\") error = %v, want ErrEmptyName", err)
	}
	if _, _, err := r.Resolve("Type"); !errors.Is(err, ErrMalformedName) {
		t.Errorf("Resolve(\"Type\") error = %v, want ErrMalformedName", err)
	}
}

func TestResolver_EdmNamespaceIsBuiltIn(t *testing.T) {
	r, _ := NewResolver()

	got, ok, err := r.Resolve("Edm.String")
	if err != nil || !ok || got != EdmString {
		t.Errorf("Resolve(\"Edm.String\") = %v, %v, %v", got, ok, err)
	}
}

func TestResolver_AmbiguousQualifiers(t *testing.T) {
	tests := []struct {
		name      string
		refs      []SchemaRef
		qualifier string
	}{
		{
			name:      "alias shared by two schemas",
			refs:      []SchemaRef{{Namespace: "A", Alias: "X"}, {Namespace: "B", Alias: "X"}},
			qualifier: "X",
		},
		{
			name:      "alias equal to another namespace",
			refs:      []SchemaRef{{Namespace: "A", Alias: "B"}, {Namespace: "B"}},
			qualifier: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, conflicts := NewResolver(tt.refs...)
			if len(conflicts) != 1 {
				t.Fatalf("Expected 1 conflict, got %v", conflicts)
			}
			if _, ok, err := r.Resolve(tt.qualifier + ".Type"); ok || err != nil {
				t.Errorf("Expected ambiguous qualifier %q to be not found, got ok=%v err=%v", tt.qualifier, ok, err)
			}
		})
	}
}

func TestResolver_AliasEqualToOwnNamespace(t *testing.T) {
	_, conflicts := NewResolver(SchemaRef{Namespace: "NS", Alias: "NS"})
	if len(conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %v", conflicts)
	}
}

func TestResolver_DuplicateNamespace(t *testing.T) {
	_, conflicts := NewResolver(SchemaRef{Namespace: "NS"}, SchemaRef{Namespace: "NS"})
	if len(conflicts) != 1 {
		t.Errorf("Expected 1 conflict, got %v", conflicts)
	}
}

func TestResolver_ResolveType(t *testing.T) {
	r, _ := NewResolver(SchemaRef{Namespace: wcfNamespace, Alias: "MTOWCF"})

	got, ok, err := r.ResolveType("Collection(MTOWCF.Address)")
	if err != nil || !ok {
		t.Fatalf("ResolveType() = %v, %v, %v", got, ok, err)
	}
	want := TypeRef{Name: wcf("Address"), Collection: true}
	if got != want {
		t.Errorf("ResolveType() = %v, want %v", got, want)
	}

	for _, raw := range []string{"Collection(", "Collection()", "Collection(Collection(Edm.String))"} {
		if _, _, err := r.ResolveType(raw); !errors.Is(err, ErrMalformedName) {
			t.Errorf("ResolveType(%q) error = %v, want ErrMalformedName", raw, err)
		}
	}
}

func TestModel_ResolveAlias(t *testing.T) {
	m := buildWCF(t)

	a, _, _ := m.Resolve("MTOWCF.Account")
	b, _, _ := m.Resolve(wcfNamespace + ".Account")
	if a != b {
		t.Errorf("Expected %v == %v", a, b)
	}
	if _, ok := m.EntityType(a); !ok {
		t.Errorf("Expected entity type %v to exist", a)
	}
	if s, ok := m.Schema("MTOWCF"); !ok || s.Namespace != wcfNamespace {
		t.Errorf("Schema(\"MTOWCF\") = %v, %v", s, ok)
	}
}
