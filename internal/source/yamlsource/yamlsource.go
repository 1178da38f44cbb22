// Package yamlsource reads model documents from YAML.
package yamlsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nlstn/go-edm/internal/metadata"
	"github.com/nlstn/go-edm/internal/source/document"
	"gopkg.in/yaml.v3"
)

// Decode reads one document from r. Unknown keys are rejected so that typos
// in a model file surface as errors instead of silently missing declarations.
func Decode(r io.Reader) (*document.Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document.Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("yamlsource: document is empty")
		}
		return nil, fmt.Errorf("yamlsource: failed to decode document: %w", err)
	}
	if len(doc.Schemas) == 0 {
		return nil, fmt.Errorf("yamlsource: document declares no schemas")
	}
	return &doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("yamlsource: failed to read %s: %w", path, err)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *document.Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("yamlsource: failed to encode document: %w", err)
	}
	return enc.Close()
}

// Source populates a builder from YAML. The file is read on every Populate,
// so reloading a Provider picks up edits.
type Source struct {
	name string
	read func() (*document.Document, error)
}

// File returns a Source reading path.
func File(path string) *Source {
	return &Source{
		name: "yaml:" + filepath.Base(path),
		read: func() (*document.Document, error) { return ReadFile(path) },
	}
}

// Bytes returns a Source decoding data.
func Bytes(data []byte) *Source {
	return &Source{
		name: "yaml:inline",
		read: func() (*document.Document, error) { return Decode(bytes.NewReader(data)) },
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string {
	return s.name
}

// Document decodes the underlying YAML.
func (s *Source) Document() (*document.Document, error) {
	return s.read()
}

// Populate declares the document's schemas on b.
func (s *Source) Populate(ctx context.Context, b *metadata.Builder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := s.read()
	if err != nil {
		return err
	}
	document.Apply(doc, b)
	return nil
}
