package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-indexer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-indexer/internal/core/domain"
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/scope"
)

// Ensure Store implements the interface.
var _ driven.ScopeProvider = (*Store)(nil)

// querier is the subset of *sql.DB and *sql.Tx the stores use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQLite content store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-indexer/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-indexer", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL lets background readers run next to a writing scope.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Entities returns an entity store that runs outside any scope.
func (s *Store) Entities() driven.EntityStore {
	return &entityStore{q: s.db}
}

// Protection returns a protection service that runs outside any scope.
func (s *Store) Protection() driven.ProtectionService {
	return &protectionService{q: s.db}
}

// Users returns a user store that runs outside any scope.
func (s *Store) Users() *UserStore {
	return &UserStore{q: s.db}
}

// Begin opens a scope over a new transaction.
func (s *Store) Begin(ctx context.Context, opts driven.ScopeOptions) (driven.Scope, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	sc := &Scope{id: uuid.NewString(), readOnly: opts.ReadOnly, tx: tx}
	sc.enlistments.Enlist(storageKey, driven.PriorityStorage, func() driven.Enlistment {
		return scope.Func(sc.record)
	})
	return sc, nil
}

// storageKey is the enlistment key of the transaction's own hook.
const storageKey = "storage"

// Scope is a unit of work over one transaction.
type Scope struct {
	id       string
	readOnly bool
	tx       *sql.Tx

	enlistments scope.Enlistments
	committed   bool
}

// Ensure Scope implements the interface.
var _ driven.Scope = (*Scope)(nil)

// ID identifies the scope.
func (s *Scope) ID() string {
	return s.id
}

// ReadOnly reports whether writes are rejected.
func (s *Scope) ReadOnly() bool {
	return s.readOnly
}

// Committed reports whether the transaction committed. It is settled
// before index synchronisation and application hooks run.
func (s *Scope) Committed() bool {
	return s.committed
}

// record runs at storage priority and notes the transaction outcome.
func (s *Scope) record(committed bool) error {
	s.committed = committed
	return nil
}

// Enlist registers scope completion state.
func (s *Scope) Enlist(key string, priority int, create func() driven.Enlistment) driven.Enlistment {
	return s.enlistments.Enlist(key, priority, create)
}

// Entities returns the entity store bound to the transaction.
func (s *Scope) Entities() driven.EntityStore {
	return &entityStore{q: s.tx, readOnly: s.readOnly}
}

// Protection returns the protection service bound to the transaction.
func (s *Scope) Protection() driven.ProtectionService {
	return &protectionService{q: s.tx, readOnly: s.readOnly}
}

// Users returns the user lookup bound to the transaction.
func (s *Scope) Users() driven.UserLookup {
	return &UserStore{q: s.tx}
}

// Commit commits the transaction, then runs completions. A failed commit
// runs completions as rolled back.
func (s *Scope) Commit() error {
	if err := s.tx.Commit(); err != nil {
		if cerr := s.enlistments.Complete(false); errors.Is(cerr, domain.ErrScopeClosed) {
			return cerr
		}
		return fmt.Errorf("committing transaction: %w", err)
	}
	return s.enlistments.Complete(true)
}

// Rollback rolls the transaction back, then runs completions.
func (s *Scope) Rollback() error {
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	return s.enlistments.Complete(false)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}
