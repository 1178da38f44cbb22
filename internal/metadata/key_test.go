package metadata

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{name: "single", key: NewKey("ID")},
		{name: "compound", key: NewKey("OrderID", "ProductID")},
		{name: "declared out of order", key: Key{Elements: []KeyElement{{"B", 1}, {"A", 0}}}},
		{name: "empty", key: Key{}, wantErr: true},
		{name: "gap", key: Key{Elements: []KeyElement{{"A", 0}, {"B", 2}}}, wantErr: true},
		{name: "negative", key: Key{Elements: []KeyElement{{"A", -1}}}, wantErr: true},
		{name: "duplicate position", key: Key{Elements: []KeyElement{{"A", 0}, {"B", 0}}}, wantErr: true},
		{name: "duplicate name", key: Key{Elements: []KeyElement{{"A", 0}, {"A", 1}}}, wantErr: true},
		{name: "unnamed", key: Key{Elements: []KeyElement{{"", 0}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("Validate() error = %v, want ErrInvalidKey", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestKey_OrderedIgnoresDeclarationOrder(t *testing.T) {
	key := Key{Elements: []KeyElement{{"ProductID", 1}, {"OrderID", 0}}}

	names := key.Names()
	if len(names) != 2 || names[0] != "OrderID" || names[1] != "ProductID" {
		t.Errorf("Names() = %v, want [OrderID ProductID]", names)
	}
	if !key.Equal(NewKey("OrderID", "ProductID")) {
		t.Error("Expected key to equal NewKey(OrderID, ProductID)")
	}
	if key.Equal(NewKey("ProductID", "OrderID")) {
		t.Error("Expected key order to matter for equality")
	}
	if !key.IsCompound() || !key.Contains("OrderID") || key.Contains("Quantity") {
		t.Error("Unexpected IsCompound/Contains result")
	}
}

func TestCompareKeyValues(t *testing.T) {
	key := NewKey("OrderID", "ProductID")

	tests := []struct {
		name string
		a, b map[string]any
		want int
	}{
		{name: "equal", a: map[string]any{"OrderID": 1, "ProductID": 2}, b: map[string]any{"OrderID": 1, "ProductID": 2}, want: 0},
		{name: "first element decides", a: map[string]any{"OrderID": 1, "ProductID": 9}, b: map[string]any{"OrderID": 2, "ProductID": 1}, want: -1},
		{name: "second element breaks tie", a: map[string]any{"OrderID": 1, "ProductID": 3}, b: map[string]any{"OrderID": 1, "ProductID": 2}, want: 1},
		{name: "mixed integer widths", a: map[string]any{"OrderID": int64(5), "ProductID": int32(1)}, b: map[string]any{"OrderID": 5, "ProductID": uint8(1)}, want: 0},
		{name: "missing sorts first", a: map[string]any{"OrderID": 1}, b: map[string]any{"OrderID": 1, "ProductID": 0}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareKeyValues(key, tt.a, tt.b); got != tt.want {
				t.Errorf("CompareKeyValues() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompareKeyValues_TypedValues(t *testing.T) {
	key := NewKey("V")
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pairs := []struct {
		name string
		a, b any
	}{
		{name: "string", a: "alpha", b: "beta"},
		{name: "bool", a: false, b: true},
		{name: "time", a: early, b: early.Add(time.Hour)},
		{name: "decimal", a: decimal.RequireFromString("1.50"), b: decimal.RequireFromString("1.51")},
		{name: "uuid", a: uuid.MustParse("00000000-0000-0000-0000-000000000001"), b: uuid.MustParse("00000000-0000-0000-0000-000000000002")},
		{name: "float", a: 1.5, b: 2.25},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			a := map[string]any{"V": tt.a}
			b := map[string]any{"V": tt.b}
			if got := CompareKeyValues(key, a, b); got != -1 {
				t.Errorf("CompareKeyValues(a, b) = %d, want -1", got)
			}
			if got := CompareKeyValues(key, b, a); got != 1 {
				t.Errorf("CompareKeyValues(b, a) = %d, want 1", got)
			}
		})
	}
}

func TestModel_KeysAreContiguous(t *testing.T) {
	m := buildWCF(t)

	for _, et := range m.EntityTypes() {
		key, ok := m.Key(et.Name)
		if !ok {
			t.Errorf("Expected key for %v", et.Name)
			continue
		}
		for i, element := range key.Ordered() {
			if element.Position != i {
				t.Errorf("%v: key element %q has position %d, want %d", et.Name, element.PropertyName, element.Position, i)
			}
		}
	}
}

func TestModel_KeyString(t *testing.T) {
	m := buildWCF(t)

	got, err := m.KeyString(wcf("Order"), map[string]any{"OrderID": 1})
	if err != nil {
		t.Fatalf("KeyString() unexpected error: %v", err)
	}
	if got != "(1)" {
		t.Errorf("KeyString() = %q, want %q", got, "(1)")
	}

	got, err = m.KeyString(wcf("OrderDetail"), map[string]any{"ProductID": 2, "OrderID": 1})
	if err != nil {
		t.Fatalf("KeyString() unexpected error: %v", err)
	}
	if got != "(OrderID=1,ProductID=2)" {
		t.Errorf("KeyString() = %q, want %q", got, "(OrderID=1,ProductID=2)")
	}

	got, err = m.KeyString(wcf("Employee"), map[string]any{"PersonID": int64(7)})
	if err != nil || got != "(7)" {
		t.Errorf("KeyString(Employee) = %q, %v, want (7)", got, err)
	}
}

func TestModel_KeyStringErrors(t *testing.T) {
	m := buildWCF(t)

	tests := []struct {
		name   string
		entity FullQualifiedName
		values map[string]any
	}{
		{name: "missing element", entity: wcf("OrderDetail"), values: map[string]any{"OrderID": 1}},
		{name: "wrong type", entity: wcf("Order"), values: map[string]any{"OrderID": "one"}},
		{name: "out of range", entity: wcf("Order"), values: map[string]any{"OrderID": int64(1) << 40}},
		{name: "unknown entity", entity: wcf("Nope"), values: map[string]any{"ID": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.KeyString(tt.entity, tt.values); !errors.Is(err, ErrInvalidKeyValue) {
				t.Errorf("KeyString() error = %v, want ErrInvalidKeyValue", err)
			}
		})
	}
}

func TestModel_KeyStringLiterals(t *testing.T) {
	b := NewBuilder()
	s := b.Schema("Lit", "")
	s.EnumType(EnumTypeDef{Name: "Kind", Members: []EnumMemberDef{{Name: "Small"}, {Name: "Large"}}})
	s.EntityType(EntityTypeDef{Name: "ByName", Key: keyOf("Name"), Properties: []PropertyDef{
		{Name: "Name", Type: "Edm.String", Nullable: boolPtr(false)},
	}})
	s.EntityType(EntityTypeDef{Name: "ByGuid", Key: keyOf("ID"), Properties: []PropertyDef{
		{Name: "ID", Type: "Edm.Guid", Nullable: boolPtr(false)},
	}})
	s.EntityType(EntityTypeDef{Name: "ByAmount", Key: keyOf("Amount", "Kind"), Properties: []PropertyDef{
		{Name: "Amount", Type: "Edm.Decimal", Nullable: boolPtr(false)},
		{Name: "Kind", Type: "Lit.Kind", Nullable: boolPtr(false)},
	}})
	s.EntityType(EntityTypeDef{Name: "ByDate", Key: keyOf("Day"), Properties: []PropertyDef{
		{Name: "Day", Type: "Edm.Date", Nullable: boolPtr(false)},
	}})

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}

	tests := []struct {
		entity string
		values map[string]any
		want   string
	}{
		{entity: "ByName", values: map[string]any{"Name": "O'Neil"}, want: "('O''Neil')"},
		{entity: "ByGuid", values: map[string]any{"ID": uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")}, want: "(6ba7b810-9dad-11d1-80b4-00c04fd430c8)"},
		{entity: "ByGuid", values: map[string]any{"ID": "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"}, want: "(6ba7b810-9dad-11d1-80b4-00c04fd430c8)"},
		{entity: "ByAmount", values: map[string]any{"Amount": decimal.RequireFromString("12.50"), "Kind": "Large"}, want: "(Amount=12.5,Kind=Lit.Kind'Large')"},
		{entity: "ByAmount", values: map[string]any{"Amount": 3, "Kind": 0}, want: "(Amount=3,Kind=Lit.Kind'Small')"},
		{entity: "ByDate", values: map[string]any{"Day": time.Date(2024, 2, 29, 15, 0, 0, 0, time.UTC)}, want: "(2024-02-29)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, err := m.KeyString(NewFullQualifiedName("Lit", tt.entity), tt.values)
			if err != nil {
				t.Fatalf("KeyString() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("KeyString() = %q, want %q", got, tt.want)
			}
		})
	}
}
