package mcp

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaRepo provides column metadata of the workout tables.
type SchemaRepo interface {
	GetColumns(ctx context.Context) ([]SchemaColumn, error)
}

type SchemaColumn struct {
	TableName  string
	ColumnName string
	DataType   string
	IsNullable string
	ColumnDef  *string
}

var workoutTables = []string{"exercises", "workout_logs"}

type poolSchemaRepo struct {
	pool *pgxpool.Pool
}

func NewPoolSchemaRepo(pool *pgxpool.Pool) SchemaRepo {
	return &poolSchemaRepo{pool: pool}
}

func (r *poolSchemaRepo) GetColumns(ctx context.Context) ([]SchemaColumn, error) {
	query := `
		SELECT table_name, column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = ANY($1)
		ORDER BY table_name, ordinal_position`
	rows, err := r.pool.Query(ctx, query, workoutTables)
	if err != nil {
		return nil, fmt.Errorf("query information_schema: %w", err)
	}
	defer rows.Close()

	var cols []SchemaColumn
	for rows.Next() {
		var c SchemaColumn
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.DataType, &c.IsNullable, &c.ColumnDef); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}

	return cols, nil
}

type sqliteSchemaRepo struct {
	db *sql.DB
}

func NewSQLiteSchemaRepo(db *sql.DB) SchemaRepo {
	return &sqliteSchemaRepo{db: db}
}

func (r *sqliteSchemaRepo) GetColumns(ctx context.Context) ([]SchemaColumn, error) {
	var cols []SchemaColumn
	for _, table := range workoutTables {
		tableCols, err := r.tableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		cols = append(cols, tableCols...)
	}
	return cols, nil
}

func (r *sqliteSchemaRepo) tableColumns(ctx context.Context, table string) ([]SchemaColumn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, type, "notnull", dflt_value FROM pragma_table_info(?) ORDER BY cid`,
		table,
	)
	if err != nil {
		return nil, fmt.Errorf("query table info [%s]: %w", table, err)
	}
	defer rows.Close()

	var cols []SchemaColumn
	for rows.Next() {
		var (
			c       SchemaColumn
			notNull int
			def     sql.NullString
		)
		if err := rows.Scan(&c.ColumnName, &c.DataType, &notNull, &def); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		c.TableName = table
		c.IsNullable = "YES"
		if notNull == 1 {
			c.IsNullable = "NO"
		}
		if def.Valid {
			c.ColumnDef = &def.String
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}

	return cols, nil
}
