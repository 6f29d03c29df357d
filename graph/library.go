package graph

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
)

// Library maps graph identifiers to their (schema, properties) pair. It is
// consulted at build time only, never during query execution.
type Library interface {
	// Get returns the pair registered under graphID, or an error wrapping
	// errors.ErrKeyNotFound when the id is unknown.
	Get(graphID string) (*schema.Schema, *store.Properties, error)
	// Add registers a pair. Registration is append-only: re-adding the
	// same content is a no-op, re-adding different content is an error.
	Add(graphID string, sch *schema.Schema, props *store.Properties) error
}

// libraryEntry is one registered (schema, properties) pair.
type libraryEntry struct {
	schema     *schema.Schema
	properties *store.Properties
}

// MemoryLibrary is an in-process Library.
type MemoryLibrary struct {
	mu      sync.RWMutex
	entries map[string]libraryEntry
}

func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{entries: make(map[string]libraryEntry)}
}

func (l *MemoryLibrary) Get(graphID string) (*schema.Schema, *store.Properties, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[graphID]
	if !ok {
		return nil, nil, errors.WrapInvalid(errors.ErrKeyNotFound, "MemoryLibrary", "Get", graphID)
	}
	return entry.schema.Clone(), entry.properties.Clone(), nil
}

func (l *MemoryLibrary) Add(graphID string, sch *schema.Schema, props *store.Properties) error {
	if graphID == "" {
		return errors.WrapInvalid(errors.ErrGraphIDRequired, "MemoryLibrary", "Add", "register pair")
	}
	if sch == nil {
		return errors.WrapInvalid(errors.ErrMissingSchema, "MemoryLibrary", "Add", graphID)
	}
	if props == nil {
		props = store.NewProperties()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.entries[graphID]; ok {
		if err := samePair(existing, sch, props); err != nil {
			return errors.WrapInvalid(err, "MemoryLibrary", "Add", graphID)
		}
		return nil
	}
	l.entries[graphID] = libraryEntry{schema: sch.Clone(), properties: props.Clone()}
	return nil
}

// samePair reports ErrLibraryMismatch unless the registered entry matches
// the incoming pair exactly.
func samePair(existing libraryEntry, sch *schema.Schema, props *store.Properties) error {
	a, err := existing.schema.ToJSON()
	if err != nil {
		return err
	}
	b, err := sch.ToJSON()
	if err != nil {
		return err
	}
	if !bytes.Equal(a, b) || !existing.properties.Equal(props) {
		return errors.ErrLibraryMismatch
	}
	return nil
}

// FileLibrary persists pairs as documents under a directory, one
// `<graphID>.schema.json` and one `<graphID>.properties.yaml` per graph.
type FileLibrary struct {
	dir string
	mu  sync.Mutex
}

func NewFileLibrary(dir string) (*FileLibrary, error) {
	if dir == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "FileLibrary", "New", "library directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapFatal(err, "FileLibrary", "New", "create library directory")
	}
	return &FileLibrary{dir: dir}, nil
}

func (l *FileLibrary) schemaPath(graphID string) string {
	return filepath.Join(l.dir, graphID+".schema.json")
}

func (l *FileLibrary) propertiesPath(graphID string) string {
	return filepath.Join(l.dir, graphID+".properties.yaml")
}

func (l *FileLibrary) Get(graphID string) (*schema.Schema, *store.Properties, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read(graphID)
}

func (l *FileLibrary) read(graphID string) (*schema.Schema, *store.Properties, error) {
	schemaBytes, err := os.ReadFile(l.schemaPath(graphID))
	if os.IsNotExist(err) {
		return nil, nil, errors.WrapInvalid(errors.ErrKeyNotFound, "FileLibrary", "Get", graphID)
	}
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "FileLibrary", "Get", "read schema document")
	}
	sch, err := schema.FromJSON(schemaBytes)
	if err != nil {
		return nil, nil, errors.WrapInvalid(err, "FileLibrary", "Get",
			fmt.Sprintf("parse schema for %s", graphID))
	}

	props := store.NewProperties()
	propBytes, err := os.ReadFile(l.propertiesPath(graphID))
	if err == nil {
		if props, err = store.ParseProperties(propBytes); err != nil {
			return nil, nil, errors.WrapInvalid(err, "FileLibrary", "Get",
				fmt.Sprintf("parse properties for %s", graphID))
		}
	} else if !os.IsNotExist(err) {
		return nil, nil, errors.WrapTransient(err, "FileLibrary", "Get", "read properties document")
	}
	return sch, props, nil
}

func (l *FileLibrary) Add(graphID string, sch *schema.Schema, props *store.Properties) error {
	if graphID == "" {
		return errors.WrapInvalid(errors.ErrGraphIDRequired, "FileLibrary", "Add", "register pair")
	}
	if sch == nil {
		return errors.WrapInvalid(errors.ErrMissingSchema, "FileLibrary", "Add", graphID)
	}
	if props == nil {
		props = store.NewProperties()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existingSchema, existingProps, err := l.read(graphID)
	switch {
	case err == nil:
		if serr := samePair(libraryEntry{schema: existingSchema, properties: existingProps}, sch, props); serr != nil {
			return errors.WrapInvalid(serr, "FileLibrary", "Add", graphID)
		}
		return nil
	case !errors.Is(err, errors.ErrKeyNotFound):
		return err
	}

	schemaBytes, err := sch.ToJSON()
	if err != nil {
		return errors.WrapInvalid(err, "FileLibrary", "Add", "encode schema")
	}
	propBytes, err := props.ToYAML()
	if err != nil {
		return errors.WrapInvalid(err, "FileLibrary", "Add", "encode properties")
	}

	if err := os.WriteFile(l.schemaPath(graphID), schemaBytes, 0o644); err != nil {
		return errors.WrapTransient(err, "FileLibrary", "Add", "write schema document")
	}
	if err := os.WriteFile(l.propertiesPath(graphID), propBytes, 0o644); err != nil {
		return errors.WrapTransient(err, "FileLibrary", "Add", "write properties document")
	}
	return nil
}
