package catalog

import "time"

// Member and element kinds stored in the Kind columns.
const (
	kindEntity         = "entity"
	kindComplex        = "complex"
	kindEnum           = "enum"
	kindTypeDefinition = "typedef"
	kindTerm           = "term"

	memberProperty   = "property"
	memberNavigation = "navigation"
	memberEnum       = "member"
	memberKey        = "key"
	memberConstraint = "constraint"

	operationAction   = "action"
	operationFunction = "function"

	elementContainer      = "container"
	elementEntitySet      = "entity_set"
	elementSingleton      = "singleton"
	elementActionImport   = "action_import"
	elementFunctionImport = "function_import"
	elementBinding        = "binding"
)

// FacetColumns holds the optional type facets shared by several tables.
type FacetColumns struct {
	MaxLength *int
	Precision *int
	Scale     *int
	SRID      string `gorm:"column:srid;size:32"`
	Unicode   *bool
}

// SchemaRow is one namespace in the catalog.
type SchemaRow struct {
	ID         uint      `gorm:"primaryKey"`
	Namespace  string    `gorm:"size:255;not null;uniqueIndex"`
	Alias      string    `gorm:"size:128"`
	Position   int       `gorm:"not null;index"`
	ImportedAt time.Time `gorm:"autoCreateTime"`
}

func (SchemaRow) TableName() string { return "edm_schemas" }

// TypeRow stores entity types, complex types, enumerations, type definitions
// and terms, distinguished by Kind.
type TypeRow struct {
	ID             uint   `gorm:"primaryKey"`
	Namespace      string `gorm:"size:255;not null;index"`
	Name           string `gorm:"size:128;not null"`
	Kind           string `gorm:"size:16;not null"`
	BaseType       string `gorm:"size:255"`
	Abstract       bool
	OpenType       bool
	HasStream      bool
	IsFlags        bool
	UnderlyingType string `gorm:"size:255"`
	Type           string `gorm:"size:255"`
	BaseTerm       string `gorm:"size:255"`
	Nullable       *bool
	DefaultValue   *string
	AppliesTo      string
	FacetColumns   `gorm:"embedded"`
}

func (TypeRow) TableName() string { return "edm_types" }

// MemberRow stores the members of a type: properties, navigation properties,
// enumeration members, key elements and referential constraints.
type MemberRow struct {
	ID             uint   `gorm:"primaryKey"`
	Namespace      string `gorm:"size:255;not null;index"`
	TypeName       string `gorm:"size:128;not null;index"`
	Kind           string `gorm:"size:16;not null"`
	Name           string `gorm:"size:128;not null"`
	Type           string `gorm:"size:255"`
	Nullable       *bool
	DefaultValue   *string
	Partner        string `gorm:"size:128"`
	ContainsTarget bool
	Value          *int64
	Property       string `gorm:"size:128"`
	Referenced     string `gorm:"size:128"`
	Position       int
	FacetColumns   `gorm:"embedded"`
}

func (MemberRow) TableName() string { return "edm_members" }

// OperationRow is one action or function overload.
type OperationRow struct {
	ID             uint   `gorm:"primaryKey"`
	Namespace      string `gorm:"size:255;not null;index"`
	Name           string `gorm:"size:128;not null"`
	Kind           string `gorm:"size:16;not null"`
	IsBound        bool
	IsComposable   bool
	EntitySetPath  string `gorm:"size:255"`
	ReturnType     string `gorm:"size:255"`
	ReturnNullable *bool
	Parameters     []ParameterRow `gorm:"foreignKey:OperationID;constraint:OnDelete:CASCADE"`
}

func (OperationRow) TableName() string { return "edm_operations" }

// ParameterRow is one operation parameter; the binding parameter of a bound
// operation has Position 0.
type ParameterRow struct {
	ID           uint   `gorm:"primaryKey"`
	OperationID  uint   `gorm:"not null;index"`
	Name         string `gorm:"size:128;not null"`
	Type         string `gorm:"size:255;not null"`
	Nullable     *bool
	Position     int
	FacetColumns `gorm:"embedded"`
}

func (ParameterRow) TableName() string { return "edm_parameters" }

// ContainerElementRow stores an entity container and its children. Bindings
// name their owning entity set or singleton in Name.
type ContainerElementRow struct {
	ID                       uint   `gorm:"primaryKey"`
	Namespace                string `gorm:"size:255;not null;index"`
	Container                string `gorm:"size:128;not null"`
	Kind                     string `gorm:"size:16;not null"`
	Name                     string `gorm:"size:128"`
	Target                   string `gorm:"size:255"`
	EntitySet                string `gorm:"size:128"`
	BindingPath              string `gorm:"size:255"`
	IsDefault                bool
	Extends                  string `gorm:"size:255"`
	IncludeInServiceDocument *bool
}

func (ContainerElementRow) TableName() string { return "edm_container_elements" }

func allModels() []interface{} {
	return []interface{}{
		&SchemaRow{},
		&TypeRow{},
		&MemberRow{},
		&OperationRow{},
		&ParameterRow{},
		&ContainerElementRow{},
	}
}
