package edm

import (
	"context"
	"io"
	"log/slog"

	"github.com/nlstn/go-edm/internal/scope"
	"github.com/nlstn/go-edm/internal/source/catalog"
	"github.com/nlstn/go-edm/internal/source/document"
	"github.com/nlstn/go-edm/internal/source/yamlsource"
	"gorm.io/gorm"
)

// Document is a declarative description of one or more schemas, as stored in
// YAML model files and in the catalog.
type Document = document.Document

// Catalog stores documents in a SQL database and serves them as a Source.
type Catalog = catalog.Catalog

// CatalogOption configures a Catalog.
type CatalogOption = catalog.Option

// QueryScope narrows the rows a Catalog reads.
type QueryScope = scope.QueryScope

// Catalog drivers.
const (
	CatalogSQLite   = catalog.DriverSQLite
	CatalogPostgres = catalog.DriverPostgres
)

// YAMLFile returns a Source that reads the YAML document at path on every
// Load, so a reload picks up edits.
func YAMLFile(path string) Source {
	return yamlsource.File(path)
}

// YAMLBytes returns a Source backed by an in-memory YAML document.
func YAMLBytes(data []byte) Source {
	return yamlsource.Bytes(data)
}

// ReadYAML decodes the YAML document at path. Unknown fields are rejected.
func ReadYAML(path string) (*Document, error) {
	return yamlsource.ReadFile(path)
}

// DecodeYAML decodes a YAML document from r.
func DecodeYAML(r io.Reader) (*Document, error) {
	return yamlsource.Decode(r)
}

// EncodeYAML writes doc to w as YAML.
func EncodeYAML(w io.Writer, doc *Document) error {
	return yamlsource.Encode(w, doc)
}

// DocumentSource returns a Source that declares doc.
func DocumentSource(doc *Document) Source {
	return SourceFunc(func(ctx context.Context, b *Builder) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		document.Apply(doc, b)
		return nil
	})
}

// OpenCatalog connects to a catalog database. driver is CatalogSQLite or
// CatalogPostgres. Call Migrate before the first Import.
func OpenCatalog(driver, dsn string, opts ...CatalogOption) (*Catalog, error) {
	return catalog.Open(driver, dsn, opts...)
}

// NewCatalog wraps an existing GORM handle.
func NewCatalog(db *gorm.DB, opts ...CatalogOption) (*Catalog, error) {
	return catalog.New(db, opts...)
}

// WithCatalogLogger sets the logger used by a Catalog.
func WithCatalogLogger(logger *slog.Logger) CatalogOption {
	return catalog.WithLogger(logger)
}

// NamespaceScope restricts a Catalog to the given namespaces.
func NamespaceScope(namespaces ...string) QueryScope {
	return scope.Namespaces(namespaces...)
}

// Sources combines several sources into one. They populate the same Builder
// in order and the first error stops the load.
func Sources(sources ...Source) Source {
	return multiSource(sources)
}

type multiSource []Source

func (m multiSource) Name() string {
	name := ""
	for i, src := range m {
		if i > 0 {
			name += "+"
		}
		name += sourceName(src)
	}
	return name
}

func (m multiSource) Populate(ctx context.Context, b *Builder) error {
	for _, src := range m {
		if src == nil {
			continue
		}
		if err := src.Populate(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
