// Package sqlstore provides a Store backed by SQLite through database/sql.
// Elements live in a single table with JSON-encoded vertices and properties;
// results stream directly off sql.Rows, so iteration stays lazy and Close on
// a never-iterated result releases the rows.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/dyna-dot/gaffer/element"
	"github.com/dyna-dot/gaffer/errors"
	"github.com/dyna-dot/gaffer/operation"
	"github.com/dyna-dot/gaffer/schema"
	"github.com/dyna-dot/gaffer/store"
	"github.com/dyna-dot/gaffer/view"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed element store.
type Store struct {
	graphID    string
	schema     *schema.Schema
	properties *store.Properties
	logger     *slog.Logger

	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// New opens (or creates) the SQLite database for the given graph. The data
// path comes from the store.data.path property; when absent the store runs
// on an in-memory database.
func New(graphID string, sch *schema.Schema, props *store.Properties) (*Store, error) {
	if graphID == "" {
		return nil, errors.WrapInvalid(errors.ErrGraphIDRequired, "sqlstore", "New", "create store")
	}
	if sch == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingSchema, "sqlstore", "New", "create store")
	}
	if err := sch.Validate(); err != nil {
		return nil, err
	}
	if props == nil {
		props = store.NewProperties()
	}

	dsn := props.GetDefault(store.PropDataPath, "")
	if dsn == "" {
		// one private in-memory database per open store
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", graphID)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.WrapTransient(err, "sqlstore", "New", "open database")
	}
	// shared-cache in-memory databases vanish when the last conn closes
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, errors.WrapFatal(err, "sqlstore", "New", "initialise schema")
	}

	return &Store{
		graphID:    graphID,
		schema:     sch.Clone(),
		properties: props.Clone(),
		logger:     slog.Default().With("component", "sqlstore", "graphId", graphID),
		db:         db,
	}, nil
}

// GraphID returns the store's graph identifier.
func (s *Store) GraphID() string { return s.graphID }

// Schema returns the store's schema.
func (s *Store) Schema() *schema.Schema { return s.schema }

// Properties returns the store's configuration.
func (s *Store) Properties() *store.Properties { return s.properties }

// Execute runs the chain's operations in order, as mapstore does, but with
// results streaming off the database cursor.
func (s *Store) Execute(ctx context.Context, chain *operation.Chain, _ store.User) (operation.Iterable, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, errors.WrapFatal(errors.ErrStoreNotInitialised, "sqlstore", "Execute", "store closed")
	}
	if chain == nil || len(chain.Operations) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyChain, "sqlstore", "Execute", "run chain")
	}

	var result operation.Iterable
	for _, op := range chain.Operations {
		if err := ctx.Err(); err != nil {
			operation.CloseQuietly(result)
			return nil, errors.WrapTransient(err, "sqlstore", "Execute", "context cancelled")
		}

		var err error
		switch o := op.(type) {
		case *operation.AddElements:
			err = s.addElements(ctx, o)
			result = nil
		case *operation.GetAllElements:
			operation.CloseQuietly(result)
			result = s.query(ctx, o.View(), nil)
		case *operation.GetElements:
			operation.CloseQuietly(result)
			result = s.query(ctx, o.View(), o.Seeds)
		default:
			err = errors.WrapInvalid(errors.ErrUnsupportedOp, "sqlstore", "Execute", op.Name())
		}
		if err != nil {
			operation.CloseQuietly(result)
			return nil, err
		}
	}
	return result, nil
}

func (s *Store) addElements(ctx context.Context, op *operation.AddElements) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapTransient(err, "sqlstore", "addElements", "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO elements (kind, grp, vertex, source, destination, directed, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapTransient(err, "sqlstore", "addElements", "prepare insert")
	}
	defer stmt.Close()

	for _, el := range op.Elements {
		if el == nil {
			return errors.WrapInvalid(errors.ErrInvalidChain, "sqlstore", "addElements", "nil element")
		}
		props, err := encodeJSON(el.Props())
		if err != nil {
			return err
		}

		switch e := el.(type) {
		case *element.Entity:
			if !s.schema.HasEntityGroup(e.GroupName) {
				return errors.WrapInvalid(errors.ErrInvalidChain, "sqlstore", "addElements",
					fmt.Sprintf("Entity group %s not in schema", e.GroupName))
			}
			vertex, err := encodeJSON(e.Vertex)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				string(element.KindEntity), e.GroupName, vertex, nil, nil, 0, props); err != nil {
				return errors.WrapTransient(err, "sqlstore", "addElements", "insert entity")
			}
		case *element.Edge:
			if !s.schema.HasEdgeGroup(e.GroupName) {
				return errors.WrapInvalid(errors.ErrInvalidChain, "sqlstore", "addElements",
					fmt.Sprintf("Edge group %s not in schema", e.GroupName))
			}
			src, err := encodeJSON(e.Source)
			if err != nil {
				return err
			}
			dst, err := encodeJSON(e.Destination)
			if err != nil {
				return err
			}
			directed := 0
			if e.Directed {
				directed = 1
			}
			if _, err := stmt.ExecContext(ctx,
				string(element.KindEdge), e.GroupName, nil, src, dst, directed, props); err != nil {
				return errors.WrapTransient(err, "sqlstore", "addElements", "insert edge")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapTransient(err, "sqlstore", "addElements", "commit")
	}
	s.logger.Debug("added elements", "count", len(op.Elements))
	return nil
}

// query returns a lazy iterable; the SELECT only runs on first pull.
func (s *Store) query(ctx context.Context, v *view.View, seeds []any) operation.Iterable {
	if v == nil {
		v = view.FromSchema(s.schema)
	}

	return operation.Lazy(func() (operation.Iterable, error) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT kind, grp, vertex, source, destination, directed, properties
			 FROM elements ORDER BY id`)
		if err != nil {
			return nil, errors.WrapTransient(err, "sqlstore", "query", "select elements")
		}
		return &rowsIterable{rows: rows, view: v, seeds: seeds}, nil
	})
}

// rowsIterable streams elements off a database cursor, applying seed match
// and view filtering row by row. A scan failure or a cursor error ends the
// stream and is reported through Err, never as a clean end-of-stream.
type rowsIterable struct {
	rows   *sql.Rows
	view   *view.View
	seeds  []any
	err    error
	closed bool
}

func (r *rowsIterable) Next() (element.Element, bool) {
	if r.closed || r.err != nil {
		return nil, false
	}
	for r.rows.Next() {
		el, err := scanElement(r.rows)
		if err != nil {
			r.err = errors.WrapTransient(err, "sqlstore", "query", "decode row")
			return nil, false
		}
		if r.seeds != nil && !matchesSeed(el, r.seeds) {
			continue
		}
		if filtered, ok := r.view.Filter(el); ok {
			return filtered, true
		}
	}
	if err := r.rows.Err(); err != nil {
		r.err = errors.WrapTransient(err, "sqlstore", "query", "iterate rows")
	}
	return nil, false
}

// Err returns the error that ended the stream early, if any.
func (r *rowsIterable) Err() error { return r.err }

func (r *rowsIterable) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}

func scanElement(rows *sql.Rows) (element.Element, error) {
	var (
		kind, grp                string
		vertex, src, dst, props  sql.NullString
		directed                 int
	)
	if err := rows.Scan(&kind, &grp, &vertex, &src, &dst, &directed, &props); err != nil {
		return nil, err
	}

	properties, err := decodeProps(props)
	if err != nil {
		return nil, err
	}

	if element.Kind(kind) == element.KindEntity {
		v, err := decodeJSON(vertex)
		if err != nil {
			return nil, err
		}
		return &element.Entity{GroupName: grp, Vertex: v, Properties: properties}, nil
	}

	source, err := decodeJSON(src)
	if err != nil {
		return nil, err
	}
	destination, err := decodeJSON(dst)
	if err != nil {
		return nil, err
	}
	return &element.Edge{
		GroupName:   grp,
		Source:      source,
		Destination: destination,
		Directed:    directed != 0,
		Properties:  properties,
	}, nil
}

// matchesSeed compares with element.VertexEqual: vertices read back from
// JSON columns carry float64 numerics and must still match the seed values
// they were stored as.
func matchesSeed(el element.Element, seeds []any) bool {
	for _, seed := range seeds {
		switch e := el.(type) {
		case *element.Entity:
			if element.VertexEqual(e.Vertex, seed) {
				return true
			}
		case *element.Edge:
			if element.VertexEqual(e.Source, seed) || element.VertexEqual(e.Destination, seed) {
				return true
			}
		}
	}
	return false
}

func encodeJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapInvalid(err, "sqlstore", "encodeJSON", "marshal value")
	}
	return string(data), nil
}

func decodeJSON(v sql.NullString) (any, error) {
	if !v.Valid {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeProps(v sql.NullString) (element.Properties, error) {
	if !v.Valid || v.String == "" || v.String == "null" {
		return nil, nil
	}
	var out element.Properties
	if err := json.Unmarshal([]byte(v.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database. Further Execute calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
