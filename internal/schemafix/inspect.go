package schemafix

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Inspector reads information_schema over a single pgx connection.
type Inspector struct {
	conn   *pgx.Conn
	schema string
}

// Connect opens and pings a connection to url.
func Connect(ctx context.Context, url, schema string) (*Inspector, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if schema == "" {
		schema = "public"
	}
	return &Inspector{conn: conn, schema: schema}, nil
}

func (i *Inspector) Close(ctx context.Context) error {
	return i.conn.Close(ctx)
}

// TableNames lists the base tables of the schema.
func (i *Inspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, i.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Inspect describes the given tables, or every table when none are given.
func (i *Inspector) Inspect(ctx context.Context, tables []string) ([]Table, error) {
	if len(tables) == 0 {
		var err error
		if tables, err = i.TableNames(ctx); err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
	}
	out := make([]Table, 0, len(tables))
	for _, name := range tables {
		t, err := i.table(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", name, err)
		}
		out = append(out, *t)
	}
	return out, nil
}

func (i *Inspector) table(ctx context.Context, name string) (*Table, error) {
	t := &Table{Name: name}

	rows, err := i.conn.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES', COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, i.schema, name)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable, &c.Default); err != nil {
			rows.Close()
			return nil, err
		}
		t.Columns = append(t.Columns, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pk, err := i.conn.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`, i.schema, name)
	if err != nil {
		return nil, err
	}
	defer pk.Close()
	for pk.Next() {
		var col string
		if err := pk.Scan(&col); err != nil {
			return nil, err
		}
		t.PrimaryKey = append(t.PrimaryKey, col)
	}
	return t, pk.Err()
}

// Duplicates finds legacy copies of the canonical tables and fills in the
// columns each pair has in common.
func (i *Inspector) Duplicates(ctx context.Context, canonical []string) ([]Duplicate, error) {
	names, err := i.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	dups := FindDuplicates(names, canonical)
	for n := range dups {
		tables, err := i.Inspect(ctx, []string{dups[n].Canonical, dups[n].Legacy})
		if err != nil {
			return nil, err
		}
		dups[n].Shared = SharedColumns(tables[0].ColumnNames(), tables[1].ColumnNames())
	}
	return dups, nil
}

// Merge copies the legacy rows into the canonical table over the shared
// columns, skipping conflicts, then renames the legacy table. Both steps run
// in one transaction. It returns the number of rows copied.
func (i *Inspector) Merge(ctx context.Context, d Duplicate, now time.Time) (int64, error) {
	if len(d.Shared) == 0 {
		return 0, fmt.Errorf("%s and %s share no columns", d.Legacy, d.Canonical)
	}

	cols := ""
	for n, c := range d.Shared {
		if n > 0 {
			cols += ", "
		}
		cols += pgx.Identifier{c}.Sanitize()
	}
	legacy := pgx.Identifier{i.schema, d.Legacy}.Sanitize()
	canonical := pgx.Identifier{i.schema, d.Canonical}.Sanitize()
	archived := pgx.Identifier{ArchiveName(d.Legacy, now)}.Sanitize()

	tx, err := i.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT DO NOTHING",
		canonical, cols, cols, legacy))
	if err != nil {
		return 0, fmt.Errorf("failed to copy %s: %w", d.Legacy, err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", legacy, archived)); err != nil {
		return 0, fmt.Errorf("failed to archive %s: %w", d.Legacy, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
