package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
	_ "modernc.org/sqlite"
)

// SolutionDB is a single solution file backed by SQLite, using modernc.org/sqlite.
//
// A save runs CreateOrReplace, WriteEnumSnapshot, WriteHierarchy and Commit.
// The rows go to a staging file that Commit renames onto the destination.
// A load runs OpenForRead, ReadEnumSnapshot, a registry check and
// ReadHierarchy. Close must follow either sequence on every path.
type SolutionDB struct {
	path    string
	reg     *itemtype.Registry
	log     logger.Logger
	db      *sql.DB
	tx      *sql.Tx
	staging bool
	written map[int64]string
}

// New creates a SolutionDB for path. The file is not touched until
// CreateOrReplace or OpenForRead is called.
func New(path string, reg *itemtype.Registry, log logger.Logger) *SolutionDB {
	if reg == nil {
		reg = itemtype.Default
	}
	if log == nil {
		log = logger.Default
	}
	return &SolutionDB{path: path, reg: reg, log: log}
}

// Path returns the destination file.
func (s *SolutionDB) Path() string {
	return s.path
}

// IsOpen reports whether a connection is held.
func (s *SolutionDB) IsOpen() bool {
	return s.db != nil
}

// CreateOrReplace opens a fresh staging file and recreates the schema inside
// a transaction. Any stale staging file is removed first.
func (s *SolutionDB) CreateOrReplace(ctx context.Context) error {
	const op = "create"
	if s.db != nil {
		return solution.Errorf(solution.ConnectionFailure, op, s.path, "database already open")
	}
	if err := store.DiscardStaging(s.path); err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, err)
	}

	db, err := sql.Open("sqlite", store.StagingPath(s.path))
	if err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, fmt.Errorf("failed to open database: %w", err))
	}
	s.db, s.staging = db, true
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return solution.Wrap(solution.ConnectionFailure, op, s.path, fmt.Errorf("failed to set pragma %q: %w", pragma, err))
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, fmt.Errorf("failed to begin transaction: %w", err))
	}
	s.tx = tx

	if _, err := tx.ExecContext(ctx, solutionSchema); err != nil {
		return solution.Wrap(solution.IOFailure, op, s.path, fmt.Errorf("failed to create schema: %w", err))
	}
	if _, err := tx.ExecContext(ctx, insertStoreInfo, store.Version.String()); err != nil {
		return solution.Wrap(solution.IOFailure, op, s.path, fmt.Errorf("failed to insert store version: %w", err))
	}
	return nil
}

// WriteEnumSnapshot inserts one itemtype row per entry and returns the row count.
func (s *SolutionDB) WriteEnumSnapshot(ctx context.Context, entries []itemtype.Entry) (int, error) {
	const op = "write item types"
	if s.tx == nil {
		return 0, solution.Errorf(solution.IOFailure, op, s.path, "no open transaction")
	}
	stmt, err := s.tx.PrepareContext(ctx, insertItemType)
	if err != nil {
		return 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	defer stmt.Close()

	written := make(map[int64]string, len(entries))
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, int64(e.Code), e.Name); err != nil {
			return 0, solution.Wrap(solution.IOFailure, op, s.path, fmt.Errorf("insert item type %d %q: %w", e.Code, e.Name, err))
		}
		written[int64(e.Code)] = e.Name
	}
	s.written = written
	s.log.Debug("%03d records written to itemtype table", len(entries))
	return len(entries), nil
}

// WriteHierarchy flattens m in pre-order into solution_item rows. Row ids are
// the pre-order index starting at 1; position is the index among siblings.
// The item type snapshot must have been written first.
func (s *SolutionDB) WriteHierarchy(ctx context.Context, m *solution.Model) (int, error) {
	const op = "write hierarchy"
	if s.tx == nil {
		return 0, solution.Errorf(solution.IOFailure, op, s.path, "no open transaction")
	}
	if s.written == nil {
		return 0, solution.Errorf(solution.IOFailure, op, s.path, "item type snapshot has not been written")
	}
	if err := m.Validate(); err != nil {
		return 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	stmt, err := s.tx.PrepareContext(ctx, insertSolutionItem)
	if err != nil {
		return 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	defer stmt.Close()

	ids := make(map[*solution.Item]int64)
	var next int64
	err = m.Walk(func(item, parent *solution.Item, depth, position int) error {
		if _, ok := s.written[int64(item.Type)]; !ok {
			return solution.Errorf(solution.UnknownItemType, op, s.path, "item %q has type code %d", item.Name, int64(item.Type))
		}
		next++
		ids[item] = next
		var parentID sql.NullInt64
		if parent != nil {
			parentID = sql.NullInt64{Int64: ids[parent], Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, next, parentID, position, depth, int64(item.Type), item.Name, item.IsExpanded); err != nil {
			return fmt.Errorf("insert item %q: %w", item.Name, err)
		}
		return nil
	})
	if err != nil {
		return 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	s.log.Debug("%03d records written to solution_item table", next)
	return int(next), nil
}

// Commit commits the transaction, closes the connection and moves the
// staging file onto the destination path.
func (s *SolutionDB) Commit() error {
	const op = "commit"
	if s.tx == nil {
		return solution.Errorf(solution.IOFailure, op, s.path, "no open transaction")
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return solution.Wrap(solution.IOFailure, op, s.path, fmt.Errorf("failed to commit transaction: %w", err))
	}
	err = s.db.Close()
	s.db = nil
	if err != nil {
		return solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	if err := store.Publish(s.path); err != nil {
		return solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	s.staging = false
	return nil
}

// OpenForRead opens an existing solution file read-only.
func (s *SolutionDB) OpenForRead(ctx context.Context) error {
	const op = "open"
	if s.db != nil {
		return solution.Errorf(solution.ConnectionFailure, op, s.path, "database already open")
	}
	exists, err := store.CheckExists(s.path)
	if err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, err)
	}
	if !exists {
		return solution.Errorf(solution.ConnectionFailure, op, s.path, "file does not exist")
	}

	dsn, err := readOnlyDSN(s.path)
	if err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, fmt.Errorf("failed to open database: %w", err))
	}
	s.db = db
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, err)
	}
	// touches the file header, so non-SQLite files fail here
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master`).Scan(&n); err != nil {
		return solution.Wrap(solution.ConnectionFailure, op, s.path, err)
	}
	return nil
}

// ReadEnumSnapshot returns the stored item type table.
func (s *SolutionDB) ReadEnumSnapshot(ctx context.Context) (map[int64]string, error) {
	const op = "read item types"
	if s.db == nil {
		return nil, solution.Errorf(solution.ConnectionFailure, op, s.path, "database not opened")
	}
	ok, err := s.hasTable(ctx, "itemtype")
	if err != nil {
		return nil, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	if !ok {
		return nil, solution.Errorf(solution.IncompatibleSchema, op, s.path, "no itemtype table")
	}

	rows, err := s.db.QueryContext(ctx, selectItemTypes)
	if err != nil {
		return nil, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	defer rows.Close()

	snapshot := make(map[int64]string)
	for rows.Next() {
		var code int64
		var name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, solution.Wrap(solution.IOFailure, op, s.path, err)
		}
		snapshot[code] = name
	}
	if err := rows.Err(); err != nil {
		return nil, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	return snapshot, nil
}

// ReadHierarchy rebuilds the tree. Parents must precede their children in id
// order, exactly one row may lack a parent, and every type code must be
// registered.
func (s *SolutionDB) ReadHierarchy(ctx context.Context) (*solution.Model, int, error) {
	const op = "read hierarchy"
	if s.db == nil {
		return nil, 0, solution.Errorf(solution.ConnectionFailure, op, s.path, "database not opened")
	}
	rows, err := s.db.QueryContext(ctx, selectSolutionItems)
	if err != nil {
		return nil, 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	defer rows.Close()

	var root *solution.Item
	items := make(map[int64]*solution.Item)
	positions := make(map[*solution.Item]int64)
	count := 0
	for rows.Next() {
		var (
			id, position, code int64
			parentID           sql.NullInt64
			name               string
			expanded           bool
		)
		if err := rows.Scan(&id, &parentID, &position, &code, &name, &expanded); err != nil {
			return nil, 0, solution.Wrap(solution.IOFailure, op, s.path, err)
		}
		if !s.reg.Contains(itemtype.Type(code)) {
			return nil, 0, solution.Errorf(solution.UnknownItemType, op, s.path, "item %d has type code %d", id, code)
		}
		item := &solution.Item{ID: id, Type: itemtype.Type(code), Name: name, IsExpanded: expanded}
		positions[item] = position
		if !parentID.Valid {
			if root != nil {
				return nil, 0, solution.Errorf(solution.IOFailure, op, s.path, "more than one root item (%d and %d)", root.ID, id)
			}
			root = item
		} else {
			parent, ok := items[parentID.Int64]
			if !ok {
				return nil, 0, solution.Errorf(solution.IOFailure, op, s.path, "item %d references unknown parent %d", id, parentID.Int64)
			}
			parent.AddChild(item)
		}
		items[id] = item
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, 0, solution.Wrap(solution.IOFailure, op, s.path, err)
	}
	if root == nil {
		return nil, 0, solution.Errorf(solution.IOFailure, op, s.path, "no root item")
	}

	for _, item := range items {
		children := item.Children
		sort.SliceStable(children, func(i, j int) bool {
			return positions[children[i]] < positions[children[j]]
		})
	}
	return solution.New(root), count, nil
}

// StoredVersion returns the writer version recorded in the file.
func (s *SolutionDB) StoredVersion(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}
	var version string
	err := s.db.QueryRowContext(ctx, selectStoreVersion).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query store version: %w", err)
	}
	return version, nil
}

// CheckState returns the condition of the opened file.
func (s *SolutionDB) CheckState(ctx context.Context) (store.State, error) {
	if s.db == nil {
		return store.StateMissing, fmt.Errorf("database not opened")
	}
	for _, table := range []string{"itemtype", "solution_item"} {
		ok, err := s.hasTable(ctx, table)
		if err != nil {
			return store.StateUninitialized, fmt.Errorf("failed to check %s table: %w", table, err)
		}
		if !ok {
			return store.StateUninitialized, nil
		}
	}
	snapshot, err := s.ReadEnumSnapshot(ctx)
	if err != nil {
		return store.StateUninitialized, err
	}
	if err := s.reg.Check(snapshot); err != nil {
		return store.StateIncompatible, nil
	}
	return store.StateReady, nil
}

// Close rolls back any open transaction, closes the connection and removes
// an unpublished staging file. It is safe to call more than once.
func (s *SolutionDB) Close() error {
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		s.tx = nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, err)
		}
		s.db = nil
	}
	if s.staging {
		if err := store.DiscardStaging(s.path); err != nil {
			errs = append(errs, err)
		}
		s.staging = false
	}
	s.written = nil
	return errors.Join(errs...)
}

func (s *SolutionDB) hasTable(ctx context.Context, name string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, countTable, name).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// readOnlyDSN builds a file: URI so that SQLite honours mode=ro.
func readOnlyDSN(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro"}
	return u.String(), nil
}
