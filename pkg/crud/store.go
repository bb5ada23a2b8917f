package crud

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNoRows reports an UPDATE or DELETE that matched nothing. It is a
// client-side rejection (400), distinct from a transport or database
// failure (500).
var ErrNoRows = errors.New("no rows affected")

// DB is the query surface the store needs; *pgxpool.Pool satisfies it.
// The pool is owned by the caller: connections are checked out per query
// and returned when the rows are closed, on every exit path.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// selectRows runs a built SELECT and returns the rows as JSON-ready maps.
func selectRows(ctx context.Context, db DB, table string, filters Pairs, ownerID string) ([]map[string]any, error) {
	query, args := buildSelect(table, filters, ownerID)

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

// insertRow runs a built INSERT and returns the generated identifier.
func insertRow(ctx context.Context, db DB, table string, values Pairs) (uuid.UUID, error) {
	query, args := buildInsert(table, values)

	var id uuid.UUID
	if err := db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// updateRow runs a built UPDATE; ErrNoRows when the id (plus owner
// constraint, if any) matched nothing.
func updateRow(ctx context.Context, db DB, table string, id uuid.UUID, values Pairs, ownerID string) error {
	query, args := buildUpdate(table, id, values, ownerID)

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// deleteRows runs a built DELETE; ErrNoRows when nothing matched.
func deleteRows(ctx context.Context, db DB, table string, ids []uuid.UUID, ownerID string) error {
	query, args := buildDelete(table, ids, ownerID)

	tag, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// rowsToMaps converts pgx rows into []map[string]any using the result's
// field descriptions, so callers need no compile-time row type.
func rowsToMaps(rows pgx.Rows) ([]map[string]any, error) {
	fieldDescriptions := rows.FieldDescriptions()
	columnNames := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columnNames[i] = string(fd.Name)
	}

	result := []map[string]any{}

	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePointers := make([]any, len(columnNames))
		for i := range values {
			valuePointers[i] = &values[i]
		}

		if err := rows.Scan(valuePointers...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]any, len(columnNames))
		for i, name := range columnNames {
			rowMap[name] = values[i]
		}
		result = append(result, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// createTables executes every registered resource's DDL in registration
// order.
func createTables(ctx context.Context, db DB, reg *Registry) error {
	for _, res := range reg.Resources() {
		if _, err := db.Exec(ctx, res.DDL()); err != nil {
			return fmt.Errorf("create table %s: %w", res.TableName(), err)
		}
	}
	return nil
}

// resetSchema drops and recreates the public schema, then re-runs every
// registered DDL.
func resetSchema(ctx context.Context, db DB, reg *Registry) error {
	if _, err := db.Exec(ctx, "DROP SCHEMA public CASCADE"); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if _, err := db.Exec(ctx, "CREATE SCHEMA public"); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return createTables(ctx, db, reg)
}

// dropTable drops a single table. The name must belong to a registered
// resource; free-form identifiers never reach the statement.
func dropTable(ctx context.Context, db DB, table string) error {
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}
