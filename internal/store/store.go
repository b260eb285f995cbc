// Package store persists BuildFamily Variable definitions behind
// database/sql, selecting a driver from the DSN's URL scheme so Open can
// connect to SQLite (local/dev), Postgres, MySQL, or SQL Server without a
// build-tag per backend. Migrate also creates lookup_tables and
// lookup_rows tables; no Store method reads or writes them. The
// statements Migrate, PutVariable and ListVariables issue are written in
// SQLite's dialect ("?" placeholders, an ON CONFLICT upsert, TEXT primary
// keys), which the Postgres, MySQL and SQL Server backends do not accept
// as written.
//
// Grounded on the teacher's cmd/dwscript persistence-free CLI shape for
// the store's API surface (thin, explicit, no ORM); the multi-driver
// dispatch itself is new, built the way the rest of the pack's projects
// register database/sql drivers purely for their side effect (blank
// import) and select by DSN scheme.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/maruel/natural"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"bomgen/internal/formula"
)

// Store is a handle on a BuildFamily definition database.
type Store struct {
	db     *sql.DB
	driver string
}

// Open selects a database/sql driver from dsn's scheme and opens it.
// Recognized schemes: "sqlite", "postgres"/"postgresql", "mysql",
// "sqlserver". The scheme prefix is stripped before the DSN is handed to
// the underlying driver where that driver expects a bare DSN (sqlite,
// mysql); postgres and sqlserver DSNs are passed through unchanged since
// their drivers parse the full URL themselves.
func Open(ctx context.Context, dsn string) (*Store, error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("store: dsn %q has no scheme", dsn)
	}

	var driverName, driverDSN string
	switch scheme {
	case "sqlite":
		driverName, driverDSN = "sqlite", rest
	case "postgres", "postgresql":
		driverName, driverDSN = "postgres", dsn
	case "mysql":
		driverName, driverDSN = "mysql", rest
	case "sqlserver":
		driverName, driverDSN = "sqlserver", dsn
	default:
		return nil, fmt.Errorf("store: unsupported dsn scheme %q", scheme)
	}

	db, err := sql.Open(driverName, driverDSN)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", driverName, err)
	}
	return &Store{db: db, driver: driverName}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the store's tables if they do not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS variables (
			id TEXT PRIMARY KEY,
			build_family_id TEXT NOT NULL,
			name TEXT NOT NULL,
			declared_type TEXT NOT NULL,
			formula TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lookup_tables (
			id TEXT PRIMARY KEY,
			build_family_id TEXT NOT NULL,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lookup_rows (
			id TEXT PRIMARY KEY,
			lookup_table_id TEXT NOT NULL,
			sort_key REAL NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// VariableRecord is one persisted Variable row.
type VariableRecord struct {
	ID            string
	BuildFamilyID string
	Name          string
	DeclaredType  formula.VariableType
	Formula       string
}

// PutVariable inserts or replaces a Variable definition, assigning a new
// ID via google/uuid when rec.ID is empty.
func (s *Store) PutVariable(ctx context.Context, rec VariableRecord) (VariableRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO variables (id, build_family_id, name, declared_type, formula) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, declared_type=excluded.declared_type, formula=excluded.formula`,
		rec.ID, rec.BuildFamilyID, rec.Name, string(rec.DeclaredType), rec.Formula)
	if err != nil {
		return VariableRecord{}, fmt.Errorf("store: put variable: %w", err)
	}
	return rec, nil
}

// ListVariables returns every Variable for a BuildFamily, ordered the way
// a human reading a parts list expects a mix of letters and numbers to
// sort ("A2" before "A10"), via github.com/maruel/natural.
func (s *Store) ListVariables(ctx context.Context, buildFamilyID string) ([]VariableRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_family_id, name, declared_type, formula FROM variables WHERE build_family_id = ?`,
		buildFamilyID)
	if err != nil {
		return nil, fmt.Errorf("store: list variables: %w", err)
	}
	defer rows.Close()

	var out []VariableRecord
	for rows.Next() {
		var rec VariableRecord
		var declaredType string
		if err := rows.Scan(&rec.ID, &rec.BuildFamilyID, &rec.Name, &declaredType, &rec.Formula); err != nil {
			return nil, fmt.Errorf("store: scan variable: %w", err)
		}
		rec.DeclaredType = formula.VariableType(declaredType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return natural.Less(out[i].Name, out[j].Name) })
	return out, nil
}
