// Package session drives save and load of a view-model solution: it asks an
// Explorer for a path, picks the store by file extension, runs the
// operation off the caller's goroutine and reports the outcome.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/maloquacious/soltool/internal/convert"
	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/solution"
	"github.com/maloquacious/soltool/internal/store"
	"github.com/maloquacious/soltool/internal/store/sqlite"
	"github.com/maloquacious/soltool/internal/store/xmlfile"
	"github.com/maloquacious/soltool/internal/viewmodel"
)

// Explorer is the file dialog service. The second result is false when the
// user cancelled.
type Explorer interface {
	PickSaveDestination(defaultPath, defaultDir string, overwritePrompt bool, fileFilter string) (string, bool)
	PickOpenSource(fileFilter, defaultPath, defaultDir string) (string, bool)
}

// FixedPath is an Explorer that always picks the same file. An empty
// FixedPath behaves like a cancelled dialog.
type FixedPath string

func (p FixedPath) PickSaveDestination(string, string, bool, string) (string, bool) {
	return string(p), p != ""
}

func (p FixedPath) PickOpenSource(string, string, string) (string, bool) {
	return string(p), p != ""
}

// Reporter receives the outcome of every operation that was not cancelled.
type Reporter interface {
	Written(path string, counts store.Counts)
	Loaded(path string, counts store.Counts)
	Failed(op, path string, err error)
}

// Outcome tells a successful, cancelled and failed operation apart.
type Outcome int

const (
	Success Outcome = iota
	NoOp
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NoOp:
		return "no-op"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Result is delivered once per operation.
type Result struct {
	Outcome Outcome
	Path    string
	Counts  store.Counts
	Err     error
}

// Kind classifies a failed result.
func (r Result) Kind() solution.Kind {
	return solution.KindOf(r.Err)
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	DocDir      string
	DefaultName string
	Registry    *itemtype.Registry
	Logger      logger.Logger

	// Relational and Tree override the stores chosen by file extension.
	Relational store.Store
	Tree       store.Store
}

// Session saves and loads one view-model solution.
type Session struct {
	sol        *viewmodel.Solution
	explorer   Explorer
	reporter   Reporter
	conv       *convert.Converter
	log        logger.Logger
	docDir     string
	name       string
	relational store.Store
	tree       store.Store

	mu   sync.Mutex // serializes operations
	busy atomic.Int32
}

// New creates a session for sol.
func New(sol *viewmodel.Solution, explorer Explorer, reporter Reporter, opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = itemtype.Default
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default
	}
	if opts.DefaultName == "" {
		opts.DefaultName = "New Solution"
	}
	if opts.Relational == nil {
		opts.Relational = sqlite.NewStore(opts.Registry, opts.Logger)
	}
	if opts.Tree == nil {
		opts.Tree = xmlfile.NewStore(opts.Registry, opts.Logger)
	}
	if reporter == nil {
		reporter = NewLogReporter(opts.Logger)
	}
	return &Session{
		sol:        sol,
		explorer:   explorer,
		reporter:   reporter,
		conv:       convert.New(opts.Registry),
		log:        opts.Logger,
		docDir:     opts.DocDir,
		name:       opts.DefaultName,
		relational: opts.Relational,
		tree:       opts.Tree,
	}
}

// Solution returns the view-model this session works on.
func (s *Session) Solution() *viewmodel.Solution {
	return s.sol
}

// IsProcessing reports whether a save or load is in flight.
func (s *Session) IsProcessing() bool {
	return s.busy.Load() > 0
}

// Save asks the explorer for a destination and saves in the background.
// The channel receives exactly one Result.
func (s *Session) Save(ctx context.Context) <-chan Result {
	path, ok := s.explorer.PickSaveDestination(store.DefaultPath(s.docDir, s.name), s.docDir, true, s.sol.SolutionFileFilter())
	if !ok || path == "" {
		return done(Result{Outcome: NoOp})
	}
	return s.background(func() Result { return s.SaveTo(ctx, path) })
}

// Load asks the explorer for a source file and loads it in the background.
// The channel receives exactly one Result.
func (s *Session) Load(ctx context.Context) <-chan Result {
	path, ok := s.explorer.PickOpenSource(s.sol.SolutionFileFilter(), store.DefaultPath(s.docDir, s.name), s.docDir)
	if !ok || path == "" {
		return done(Result{Outcome: NoOp})
	}
	return s.background(func() Result { return s.LoadFrom(ctx, path) })
}

// SaveTo converts the view-model and writes it to path.
func (s *Session) SaveTo(ctx context.Context, path string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Add(1)
	defer s.busy.Add(-1)

	m, err := s.conv.ToModel(s.sol)
	if err != nil {
		return s.fail("save", path, err)
	}
	counts, err := s.storeFor(path).Save(ctx, path, m)
	if err != nil {
		return s.fail("save", path, err)
	}
	s.reporter.Written(path, counts)
	return Result{Outcome: Success, Path: path, Counts: counts}
}

// LoadFrom reads path and, only if every step succeeded, replaces the
// view-model tree. The new root is shown expanded.
func (s *Session) LoadFrom(ctx context.Context, path string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy.Add(1)
	defer s.busy.Add(-1)

	m, counts, err := s.storeFor(path).Load(ctx, path)
	if err != nil {
		return s.fail("load", path, err)
	}
	if err := s.conv.ToViewModel(m, s.sol); err != nil {
		return s.fail("load", path, err)
	}
	if root := s.sol.GetRootItem(); root != nil {
		root.IsItemExpanded = true
	}
	s.reporter.Loaded(path, counts)
	return Result{Outcome: Success, Path: path, Counts: counts}
}

func (s *Session) storeFor(path string) store.Store {
	format := store.FormatForPath(path)
	s.log.Debug("using %s store for %q", format, path)
	if format == store.FormatTree {
		return s.tree
	}
	return s.relational
}

func (s *Session) fail(op, path string, err error) Result {
	s.reporter.Failed(op, path, err)
	return Result{Outcome: Failure, Path: path, Err: err}
}

// background marks the session busy before the worker starts, so a caller
// that checks IsProcessing right after Save or Load sees it set.
func (s *Session) background(fn func() Result) <-chan Result {
	ch := make(chan Result, 1)
	s.busy.Add(1)
	go func() {
		defer close(ch)
		r := func() Result {
			defer s.busy.Add(-1)
			return fn()
		}()
		ch <- r
	}()
	return ch
}

func done(r Result) <-chan Result {
	ch := make(chan Result, 1)
	ch <- r
	close(ch)
	return ch
}
