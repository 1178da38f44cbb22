// Package catalog stores model documents in a SQL database through GORM and
// replays them onto a metadata.Builder.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nlstn/go-edm/internal/metadata"
	"github.com/nlstn/go-edm/internal/scope"
	"github.com/nlstn/go-edm/internal/source/document"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Catalog is a metadata source backed by the edm_* tables.
type Catalog struct {
	db     *gorm.DB
	logger *slog.Logger
	scopes []scope.QueryScope
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for import and populate diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Open connects to a catalog database. driver is "sqlite" or "postgres".
func Open(driver, dsn string, opts ...Option) (*Catalog, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "sqlite3":
		dialector = sqlite.Open(dsn)
	case DriverPostgres, "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("catalog: unsupported driver '%s'", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to open %s database: %w", driver, err)
	}
	return New(db, opts...)
}

// New wraps an existing GORM handle.
func New(db *gorm.DB, opts ...Option) (*Catalog, error) {
	if db == nil {
		return nil, fmt.Errorf("catalog: database handle is required")
	}
	c := &Catalog{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Name identifies the catalog in logs.
func (c *Catalog) Name() string {
	return "catalog:" + c.db.Dialector.Name()
}

// Migrate creates or updates the catalog tables.
func (c *Catalog) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("catalog: failed to migrate: %w", err)
	}
	return nil
}

// WithScopes returns a view of the catalog whose Populate and Export only
// see rows matching every scope.
func (c *Catalog) WithScopes(scopes ...scope.QueryScope) *Catalog {
	clone := *c
	clone.scopes = append(append([]scope.QueryScope(nil), c.scopes...), scopes...)
	return &clone
}

// Namespaces lists the stored namespaces in load order.
func (c *Catalog) Namespaces(ctx context.Context) ([]string, error) {
	var namespaces []string
	err := scope.Apply(c.db.WithContext(ctx).Model(&SchemaRow{}), c.scopes).
		Order("position, id").
		Pluck("namespace", &namespaces).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to list namespaces: %w", err)
	}
	return namespaces, nil
}

// Import stores doc, replacing any namespaces it declares, in a single
// transaction. Replaced namespaces move to the end of the load order.
func (c *Catalog) Import(ctx context.Context, doc *document.Document) error {
	if doc == nil || len(doc.Schemas) == 0 {
		return fmt.Errorf("catalog: document declares no schemas")
	}
	namespaces := doc.Namespaces()

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteNamespaces(tx, namespaces); err != nil {
			return err
		}

		var next int
		if err := tx.Model(&SchemaRow{}).Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to determine load position: %w", err)
		}
		for i, s := range doc.Schemas {
			if err := insertSchema(tx, s, next+i); err != nil {
				return fmt.Errorf("schema %s: %w", s.Namespace, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: import failed: %w", err)
	}

	c.logger.Info("Imported schemas", "namespaces", namespaces, "catalog", c.Name())
	return nil
}

// Delete removes namespaces from the catalog.
func (c *Catalog) Delete(ctx context.Context, namespaces ...string) error {
	if len(namespaces) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteNamespaces(tx, namespaces)
	})
	if err != nil {
		return fmt.Errorf("catalog: delete failed: %w", err)
	}
	return nil
}

func deleteNamespaces(tx *gorm.DB, namespaces []string) error {
	operations := tx.Model(&OperationRow{}).Select("id").Where("namespace IN ?", namespaces)
	if err := tx.Where("operation_id IN (?)", operations).Delete(&ParameterRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete parameters: %w", err)
	}
	for _, model := range []interface{}{&OperationRow{}, &MemberRow{}, &TypeRow{}, &ContainerElementRow{}, &SchemaRow{}} {
		if err := tx.Where("namespace IN ?", namespaces).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to delete %T rows: %w", model, err)
		}
	}
	return nil
}

// Populate declares every stored schema visible through the catalog's scopes
// on b.
func (c *Catalog) Populate(ctx context.Context, b *metadata.Builder) error {
	doc, err := c.Export(ctx)
	if err != nil {
		return err
	}
	document.Apply(doc, b)
	c.logger.Debug("Populated builder from catalog", "namespaces", doc.Namespaces(), "catalog", c.Name())
	return nil
}
