package sqlite

import (
	"context"

	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
)

// Store implements store.Store with one SolutionDB per operation.
type Store struct {
	reg *itemtype.Registry
	log logger.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a relational store for reg.
func NewStore(reg *itemtype.Registry, log logger.Logger) *Store {
	if reg == nil {
		reg = itemtype.Default
	}
	if log == nil {
		log = logger.Default
	}
	return &Store{reg: reg, log: log}
}

// Save writes the item type snapshot and then the tree of m to path.
func (st *Store) Save(ctx context.Context, path string, m *solution.Model) (store.Counts, error) {
	db := New(path, st.reg, st.log)
	defer st.close(db)

	st.log.Info("writing solution into SQLite file %q", path)
	if err := db.CreateOrReplace(ctx); err != nil {
		return store.Counts{}, err
	}
	itemTypes, err := db.WriteEnumSnapshot(ctx, st.reg.Entries())
	if err != nil {
		return store.Counts{}, err
	}
	items, err := db.WriteHierarchy(ctx, m)
	if err != nil {
		return store.Counts{}, err
	}
	if err := db.Commit(); err != nil {
		return store.Counts{}, err
	}

	st.log.Debug("%03d records written to itemtype enumeration table", itemTypes)
	st.log.Debug("%03d records written to solution data table", items)
	return store.Counts{ItemTypes: itemTypes, Items: items}, nil
}

// Load reads path. The hierarchy is only read after the stored item type
// snapshot has passed the registry check.
func (st *Store) Load(ctx context.Context, path string) (*solution.Model, store.Counts, error) {
	db := New(path, st.reg, st.log)
	defer st.close(db)

	st.log.Info("reading solution from SQLite file %q", path)
	if err := db.OpenForRead(ctx); err != nil {
		return nil, store.Counts{}, err
	}
	snapshot, err := db.ReadEnumSnapshot(ctx)
	if err != nil {
		return nil, store.Counts{}, err
	}
	if err := st.reg.Check(snapshot); err != nil {
		return nil, store.Counts{}, solution.Wrap(solution.IncompatibleSchema, "load", path, err)
	}
	m, items, err := db.ReadHierarchy(ctx)
	if err != nil {
		return nil, store.Counts{}, err
	}

	st.log.Info("%03d records read from solution data table", items)
	return m, store.Counts{ItemTypes: len(snapshot), Items: items}, nil
}

// Inspect opens path read-only and reports its state and writer version.
func (st *Store) Inspect(ctx context.Context, path string) (store.State, string, error) {
	exists, err := store.CheckExists(path)
	if err != nil {
		return store.StateMissing, "", err
	}
	if !exists {
		return store.StateMissing, "", nil
	}

	db := New(path, st.reg, st.log)
	defer st.close(db)
	if err := db.OpenForRead(ctx); err != nil {
		return store.StateMissing, "", err
	}
	state, err := db.CheckState(ctx)
	if err != nil || state == store.StateUninitialized {
		return state, "", err
	}
	version, err := db.StoredVersion(ctx)
	if err != nil {
		return state, "", err
	}
	return state, version, nil
}

func (st *Store) close(db *SolutionDB) {
	if err := db.Close(); err != nil {
		st.log.Warn("closing %q: %v", db.Path(), err)
	}
}
