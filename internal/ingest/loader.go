// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package ingest loads cleaned retail tables from CSV and Parquet files.

Files are read through an in-memory DuckDB instance (read_csv_auto and
read_parquet), so column types are sniffed by DuckDB and mapped onto
table kinds:

	VARCHAR and other types      -> string
	integer, float, decimal      -> float
	BOOLEAN                      -> float (0 or 1)
	DATE and TIMESTAMP variants  -> time
	any column named *_id        -> string

LoadDir looks for {name}.parquet, then {name}.csv, for every known source
table and skips the ones that are absent.
*/
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // registers the duckdb driver
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/table"
)

// KnownTables lists the source tables LoadDir looks for.
var KnownTables = []string{
	features.TableTransactionItems,
	features.TableTransaction,
	features.TableProduct,
	features.TableStore,
	features.TableCustomer,
	features.TablePromotion,
	features.TableWeather,
	features.TableHoliday,
	features.TableInventory,
}

var (
	// ErrNoTables is returned when a directory holds none of the known tables.
	ErrNoTables = errors.New("no known tables found")

	// ErrUnsupportedFormat is returned for files that are neither CSV nor Parquet.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Config holds DuckDB resource limits for the loader.
type Config struct {
	// Threads is the DuckDB worker count. Zero uses the CPU count.
	Threads int `koanf:"threads" json:"threads"`

	// MaxMemory is a DuckDB memory limit such as "1GB".
	MaxMemory string `koanf:"max_memory" json:"max_memory"`

	// DataDir is the directory preloaded at startup, if any.
	DataDir string `koanf:"data_dir" json:"data_dir"`
}

// DefaultConfig returns the default loader configuration.
func DefaultConfig() Config {
	return Config{MaxMemory: "1GB"}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("ingest threads must be non-negative, got %d", c.Threads)
	}
	if c.MaxMemory == "" {
		return errors.New("ingest max_memory is required")
	}
	return nil
}

// Loader reads files into tables.
type Loader struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewLoader opens an in-memory DuckDB instance.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(cfg Config, logger zerolog.Logger) (*Loader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	threads := cfg.Threads
	if threads == 0 {
		threads = runtime.NumCPU()
	}
	// Extension autoload stays off; CSV and Parquet readers are built in.
	dsn := fmt.Sprintf(":memory:?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		threads, cfg.MaxMemory)
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return &Loader{
		db:     db,
		logger: logger.With().Str("component", "ingest").Logger(),
	}, nil
}

// Close releases the DuckDB instance.
func (l *Loader) Close() error {
	l.db.SetConnMaxLifetime(0)
	l.db.SetMaxIdleConns(0)
	return l.db.Close()
}

// LoadDir loads every known table present in dir.
func (l *Loader) LoadDir(ctx context.Context, dir string) (features.Tables, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read data dir: %s is not a directory", dir)
	}

	tables := make(features.Tables)
	for _, name := range KnownTables {
		path := findFile(dir, name)
		if path == "" {
			continue
		}
		t, err := l.LoadFile(ctx, name, path)
		if err != nil {
			return nil, err
		}
		tables[name] = t
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoTables)
	}
	return tables, nil
}

func findFile(dir, name string) string {
	for _, ext := range []string{".parquet", ".csv"} {
		p := filepath.Join(dir, name+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// LoadFile loads a single CSV or Parquet file as the named table.
func (l *Loader) LoadFile(ctx context.Context, name, path string) (*table.Table, error) {
	start := time.Now()
	source, err := sourceExpr(path)
	if err != nil {
		return nil, err
	}

	fields, err := l.describe(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	t, err := l.read(ctx, name, source, fields)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	metrics.RecordIngestRows(name, t.Len())
	l.logger.Info().
		Str("table", name).
		Str("path", path).
		Int("rows", t.Len()).
		Int("columns", t.Width()).
		Dur("duration", time.Since(start)).
		Msg("table loaded")
	return t, nil
}

func sourceExpr(path string) (string, error) {
	quoted := "'" + strings.ReplaceAll(path, "'", "''") + "'"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "read_csv_auto(" + quoted + ", header = true)", nil
	case ".parquet":
		return "read_parquet(" + quoted + ")", nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}

// describe returns the file's columns with their mapped kinds.
func (l *Loader) describe(ctx context.Context, source string) ([]table.Field, error) {
	rows, err := l.db.QueryContext(ctx, "DESCRIBE SELECT * FROM "+source)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var fields []table.Field
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("describe: %w", err)
		}
		// column_name, column_type, ...
		fields = append(fields, table.Field{
			Name: vals[0].String,
			Kind: KindFor(vals[0].String, vals[1].String),
		})
	}
	return fields, rows.Err()
}

// KindFor maps a DuckDB column type to a table kind.
func KindFor(column, duckType string) table.Kind {
	if strings.HasSuffix(strings.ToLower(column), "_id") {
		return table.KindString
	}
	t := strings.ToUpper(strings.TrimSpace(duckType))
	switch {
	case t == "DATE" || strings.HasPrefix(t, "TIMESTAMP"):
		return table.KindTime
	case strings.HasPrefix(t, "DECIMAL"), t == "BOOLEAN":
		return table.KindFloat
	}
	switch t {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT", "UHUGEINT",
		"FLOAT", "REAL", "DOUBLE":
		return table.KindFloat
	}
	return table.KindString
}

// castExpr projects a column so its scanned Go type matches the kind.
func castExpr(f table.Field) string {
	col := `"` + strings.ReplaceAll(f.Name, `"`, `""`) + `"`
	switch f.Kind {
	case table.KindFloat:
		return "CAST(" + col + " AS DOUBLE)"
	case table.KindTime:
		return "CAST(" + col + " AS TIMESTAMP)"
	default:
		return "CAST(" + col + " AS VARCHAR)"
	}
}

func (l *Loader) read(ctx context.Context, name, source string, fields []table.Field) (*table.Table, error) {
	if len(fields) == 0 {
		return nil, errors.New("file has no columns")
	}
	exprs := make([]string, len(fields))
	for i, f := range fields {
		exprs[i] = castExpr(f)
	}
	rows, err := l.db.QueryContext(ctx, "SELECT "+strings.Join(exprs, ", ")+" FROM "+source)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	b := table.NewBuilder(name, fields)
	strs := make([]sql.NullString, len(fields))
	nums := make([]sql.NullFloat64, len(fields))
	times := make([]sql.NullTime, len(fields))
	ptrs := make([]interface{}, len(fields))
	for i, f := range fields {
		switch f.Kind {
		case table.KindFloat:
			ptrs[i] = &nums[i]
		case table.KindTime:
			ptrs[i] = &times[i]
		default:
			ptrs[i] = &strs[i]
		}
	}

	vals := make([]interface{}, len(fields))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, f := range fields {
			vals[i] = nil
			switch f.Kind {
			case table.KindFloat:
				if nums[i].Valid {
					vals[i] = nums[i].Float64
				}
			case table.KindTime:
				if times[i].Valid {
					vals[i] = times[i].Time.UTC()
				}
			default:
				if strs[i].Valid {
					vals[i] = strs[i].String
				}
			}
		}
		if err := b.Append(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return b.Build()
}
