package metadata

import (
	"errors"
	"strings"
	"testing"
)

const wcfNamespace = "Microsoft.Test.OData.Services.ODataWCFService"

func intPtr(v int) *int          { return &v }
func int64Ptr(v int64) *int64    { return &v }
func boolPtr(v bool) *bool       { return &v }
func stringPtr(v string) *string { return &v }

func keyOf(names ...string) *Key {
	key := NewKey(names...)
	return &key
}

func wcf(name string) FullQualifiedName {
	return NewFullQualifiedName(wcfNamespace, name)
}

func ref(name string) *TypeRef {
	return &TypeRef{Name: wcf(name)}
}

// wcfBuilder declares a trimmed-down version of the ODataWCFService sample model.
func wcfBuilder() *Builder {
	b := NewBuilder()
	s := b.Schema(wcfNamespace, "MTOWCF")

	s.ComplexType(ComplexTypeDef{Name: "Address", Properties: []PropertyDef{
		{Name: "Street", Type: "Edm.String", Nullable: boolPtr(false)},
		{Name: "City", Type: "Edm.String", Nullable: boolPtr(false), MaxLength: intPtr(64)},
		{Name: "PostalCode", Type: "Edm.String"},
	}})
	s.ComplexType(ComplexTypeDef{Name: "HomeAddress", BaseType: "MTOWCF.Address", Properties: []PropertyDef{
		{Name: "FamilyName", Type: "Edm.String"},
	}})

	s.EnumType(EnumTypeDef{Name: "AccessLevel", IsFlags: true, Members: []EnumMemberDef{
		{Name: "None", Value: int64Ptr(0)},
		{Name: "Read", Value: int64Ptr(1)},
		{Name: "Write", Value: int64Ptr(2)},
		{Name: "ReadWrite", Value: int64Ptr(3)},
	}})
	s.EnumType(EnumTypeDef{Name: "Color", Members: []EnumMemberDef{{Name: "Red"}, {Name: "Green"}, {Name: "Blue"}}})

	s.EntityType(EntityTypeDef{
		Name: "Person",
		Key:  keyOf("PersonID"),
		Properties: []PropertyDef{
			{Name: "PersonID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "FirstName", Type: "Edm.String", Nullable: boolPtr(false)},
			{Name: "LastName", Type: "Edm.String"},
			{Name: "HomeAddress", Type: "MTOWCF.Address"},
			{Name: "Emails", Type: "Collection(Edm.String)"},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "Parent", Type: "MTOWCF.Person"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name:     "Customer",
		BaseType: "MTOWCF.Person",
		Properties: []PropertyDef{
			{Name: "City", Type: "Edm.String"},
			{Name: "Birthday", Type: "Edm.DateTimeOffset"},
			{Name: "TimeBetweenLastTwoOrders", Type: "Edm.Duration"},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "Orders", Type: "Collection(MTOWCF.Order)", Partner: "CustomerForOrder"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name:     "Employee",
		BaseType: wcfNamespace + ".Person",
		Properties: []PropertyDef{
			{Name: "DateHired", Type: "Edm.DateTimeOffset", Nullable: boolPtr(false)},
			{Name: "Office", Type: "MTOWCF.Address"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "Product",
		Key:  keyOf("ProductID"),
		Properties: []PropertyDef{
			{Name: "ProductID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "Name", Type: "Edm.String", Nullable: boolPtr(false)},
			{Name: "UnitPrice", Type: "Edm.Single"},
			{Name: "SkinColor", Type: "MTOWCF.Color", DefaultValue: stringPtr("Red")},
			{Name: "UserAccess", Type: "MTOWCF.AccessLevel", DefaultValue: stringPtr("Read,Write")},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "Order",
		Key:  keyOf("OrderID"),
		Properties: []PropertyDef{
			{Name: "OrderID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "OrderDate", Type: "Edm.DateTimeOffset"},
			{Name: "ShelfLife", Type: "Edm.Duration"},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "CustomerForOrder", Type: "MTOWCF.Customer", Nullable: boolPtr(false), Partner: "Orders"},
			{Name: "OrderDetails", Type: "Collection(MTOWCF.OrderDetail)"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "OrderDetail",
		Key: &Key{Elements: []KeyElement{
			{PropertyName: "ProductID", Position: 1},
			{PropertyName: "OrderID", Position: 0},
		}},
		Properties: []PropertyDef{
			{Name: "OrderID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "ProductID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "Quantity", Type: "Edm.Int32"},
			{Name: "UnitPrice", Type: "Edm.Decimal", Precision: intPtr(10), Scale: intPtr(2), DefaultValue: stringPtr("0.00")},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "ProductOrdered", Type: "MTOWCF.Product", Nullable: boolPtr(false), ReferentialConstraints: []ReferentialConstraint{
				{Property: "ProductID", ReferencedProperty: "ProductID"},
			}},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "Account",
		Key:  keyOf("AccountID"),
		Properties: []PropertyDef{
			{Name: "AccountID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "Country", Type: "Edm.String"},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "MyGiftCard", Type: "MTOWCF.GiftCard", ContainsTarget: true},
			{Name: "MyPaymentInstruments", Type: "Collection(MTOWCF.PaymentInstrument)", ContainsTarget: true},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "GiftCard",
		Key:  keyOf("GiftCardID"),
		Properties: []PropertyDef{
			{Name: "GiftCardID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "Amount", Type: "Edm.Double"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "PaymentInstrument",
		Key:  keyOf("PaymentInstrumentID"),
		Properties: []PropertyDef{
			{Name: "PaymentInstrumentID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "FriendlyName", Type: "Edm.String"},
		},
		NavigationProperties: []NavigationPropertyDef{
			{Name: "TheStoredPI", Type: "MTOWCF.StoredPI"},
		},
	})
	s.EntityType(EntityTypeDef{
		Name: "StoredPI",
		Key:  keyOf("StoredPIID"),
		Properties: []PropertyDef{
			{Name: "StoredPIID", Type: "Edm.Int32", Nullable: boolPtr(false)},
			{Name: "PIName", Type: "Edm.String"},
		},
	})

	s.Function(OperationDef{
		Name: "GetTotal", IsBound: true,
		BindingParameter: &ParameterDef{Name: "order", Type: "MTOWCF.Order"},
		ReturnType:       &ReturnTypeDef{Type: "Edm.Decimal"},
	})
	s.Function(OperationDef{
		Name: "GetTotal", IsBound: true,
		BindingParameter: &ParameterDef{Name: "customer", Type: "MTOWCF.Customer"},
		ReturnType:       &ReturnTypeDef{Type: "Edm.Decimal"},
	})
	s.Function(OperationDef{
		Name: "GetDisplayName", IsBound: true,
		BindingParameter: &ParameterDef{Name: "person", Type: "MTOWCF.Person"},
		ReturnType:       &ReturnTypeDef{Type: "Edm.String"},
	})
	s.Function(OperationDef{
		Name: "GetDisplayName", IsBound: true,
		BindingParameter: &ParameterDef{Name: "employee", Type: "MTOWCF.Employee"},
		ReturnType:       &ReturnTypeDef{Type: "Edm.String"},
	})
	s.Function(OperationDef{
		Name: "GetHomeAddress", IsBound: true, IsComposable: true,
		BindingParameter: &ParameterDef{Name: "person", Type: "MTOWCF.Person"},
		ReturnType:       &ReturnTypeDef{Type: "MTOWCF.HomeAddress"},
	})
	s.Function(OperationDef{
		Name: "FormatAddress", IsBound: true,
		BindingParameter: &ParameterDef{Name: "address", Type: "MTOWCF.Address"},
		ReturnType:       &ReturnTypeDef{Type: "Edm.String"},
	})
	s.Function(OperationDef{
		Name:       "GetPerson",
		Parameters: []ParameterDef{{Name: "address", Type: "MTOWCF.Address"}},
		ReturnType: &ReturnTypeDef{Type: "MTOWCF.Person"}, IsComposable: true,
	})
	s.Function(OperationDef{
		Name:       "GetDefaultColor",
		ReturnType: &ReturnTypeDef{Type: "MTOWCF.Color"},
	})
	s.Function(OperationDef{
		Name:       "Scale",
		Parameters: []ParameterDef{{Name: "value", Type: "Edm.Int64"}},
		ReturnType: &ReturnTypeDef{Type: "Edm.Int64"},
	})
	s.Function(OperationDef{
		Name:       "Scale",
		Parameters: []ParameterDef{{Name: "value", Type: "Edm.Double"}},
		ReturnType: &ReturnTypeDef{Type: "Edm.Double"},
	})
	s.Action(OperationDef{
		Name: "Discount", IsBound: true,
		BindingParameter: &ParameterDef{Name: "products", Type: "Collection(MTOWCF.Product)"},
		Parameters:       []ParameterDef{{Name: "percentage", Type: "Edm.Int32", Nullable: boolPtr(false)}},
	})
	s.Action(OperationDef{Name: "ResetDataSource"})

	s.EntityContainer(EntityContainerDef{
		Name: "InMemoryEntities",
		EntitySets: []EntitySetDef{
			{Name: "People", EntityType: "MTOWCF.Person", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "Parent", Target: "People"},
			}},
			{Name: "Customers", EntityType: "MTOWCF.Customer", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "Orders", Target: "Orders"},
			}},
			{Name: "Orders", EntityType: "MTOWCF.Order", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "CustomerForOrder", Target: "Customers"},
				{Path: "OrderDetails", Target: "OrderDetails"},
			}},
			{Name: "OrderDetails", EntityType: "MTOWCF.OrderDetail", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "ProductOrdered", Target: "Products"},
			}},
			{Name: "Products", EntityType: "MTOWCF.Product"},
			{Name: "Accounts", EntityType: "MTOWCF.Account", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "MyPaymentInstruments/TheStoredPI", Target: "StoredPIs"},
			}},
			{Name: "StoredPIs", EntityType: "MTOWCF.StoredPI"},
		},
		Singletons: []SingletonDef{
			{Name: "Boss", Type: "MTOWCF.Person", NavigationPropertyBindings: []NavigationPropertyBinding{
				{Path: "Parent", Target: "People"},
			}},
		},
		ActionImports: []ActionImportDef{
			{Name: "ResetDataSource", Action: "MTOWCF.ResetDataSource"},
		},
		FunctionImports: []FunctionImportDef{
			{Name: "GetDefaultColor", Function: "MTOWCF.GetDefaultColor"},
			{Name: "GetPerson", Function: "MTOWCF.GetPerson", EntitySet: "People"},
		},
	})

	return b
}

func buildWCF(t *testing.T, opts ...BuildOption) *Model {
	t.Helper()
	m, err := wcfBuilder().Build(opts...)
	if err != nil {
		t.Fatalf("Failed to build model: %v", err)
	}
	return m
}

// requireProblem fails unless err is a validation error carrying a problem
// whose text contains want.
func requireProblem(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected validation error containing %q, got nil", want)
	}
	if !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("Expected errors.Is(err, ErrInvalidModel), got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	for _, p := range verr.Problems() {
		if strings.Contains(p.Error(), want) {
			return
		}
	}
	t.Fatalf("Expected a problem containing %q, got:\n%v", want, err)
}
