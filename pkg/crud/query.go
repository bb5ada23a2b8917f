package crud

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ownerColumn is the column every owned table stores its owning identity in.
const ownerColumn = "user_id"

// defaultOrderColumn is used when a filter carries no order_by key.
const defaultOrderColumn = "id"

// Reserved filter keys consumed by the builder instead of becoming
// predicates.
const (
	orderByKey  = "order_by"
	orderDirKey = "order_dir"
)

// comparisonOp maps a 3-character field-name suffix to its SQL operator.
// Names shorter than 4 characters, or without a matching suffix, compare
// with equality. There is no escaping: a column legitimately named with
// one of these suffixes cannot be filtered by equality.
func comparisonOp(key string) (column, op string) {
	if len(key) < 4 {
		return key, "="
	}
	switch key[len(key)-3:] {
	case "_gt":
		return key[:len(key)-3], ">"
	case "_lt":
		return key[:len(key)-3], "<"
	case "_ge":
		return key[:len(key)-3], ">="
	case "_le":
		return key[:len(key)-3], "<="
	}
	return key, "="
}

// buildSelect constructs a SELECT over table from filter pairs. When
// ownerID is non-empty the ownership predicate is the first predicate and
// consumes $1; field predicates follow in pair order. The reserved keys
// order_by and order_dir control the ORDER BY clause: default is the id
// column descending, and only the exact value "asc" flips direction. The
// sort column is interpolated, so order_by is honored only when it carries
// a Column validated by the filter parser.
func buildSelect(table string, filters Pairs, ownerID string) (string, []any) {
	var query strings.Builder
	var args []any
	var predicates []string

	orderCol := defaultOrderColumn
	orderDir := "DESC"

	if ownerID != "" {
		args = append(args, ownerID)
		predicates = append(predicates, fmt.Sprintf("%s = $%d", ownerColumn, len(args)))
	}

	for _, pair := range filters {
		switch pair.Key {
		case orderByKey:
			// Only a validated Column may name the sort key. A Text value
			// here is request text and is ignored in favor of the default.
			if col, ok := pair.Value.(Column); ok {
				orderCol = string(col)
			}
			continue
		case orderDirKey:
			if dir, ok := pair.Value.(Text); ok && string(dir) == "asc" {
				orderDir = "ASC"
			}
			continue
		}

		column, op := comparisonOp(pair.Key)
		args = append(args, pair.Value.arg())
		predicates = append(predicates, fmt.Sprintf("%s %s $%d", column, op, len(args)))
	}

	query.WriteString("SELECT * FROM ")
	query.WriteString(table)
	if len(predicates) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(predicates, " AND "))
	}
	query.WriteString(" ORDER BY ")
	query.WriteString(orderCol)
	query.WriteString(" ")
	query.WriteString(orderDir)

	return query.String(), args
}

// buildInsert constructs an INSERT emitting exactly the columns present in
// values, in pair order, and returns the generated identifier via
// RETURNING.
func buildInsert(table string, values Pairs) (string, []any) {
	var query strings.Builder
	columns := make([]string, 0, len(values))
	placeholders := make([]string, 0, len(values))

	args := values.args()
	for i, pair := range values {
		columns = append(columns, pair.Key)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query.WriteString("INSERT INTO ")
	query.WriteString(table)
	query.WriteString(" (")
	query.WriteString(strings.Join(columns, ", "))
	query.WriteString(") VALUES (")
	query.WriteString(strings.Join(placeholders, ", "))
	query.WriteString(") RETURNING id")

	return query.String(), args
}

// buildUpdate constructs an UPDATE setting every pair in values (a full
// replace of the listed columns), then the id predicate, then the optional
// ownership predicate, each consuming the next parameter index in that
// order.
func buildUpdate(table string, id uuid.UUID, values Pairs, ownerID string) (string, []any) {
	var query strings.Builder
	setClauses := make([]string, 0, len(values))

	args := values.args()
	for i, pair := range values {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", pair.Key, i+1))
	}

	query.WriteString("UPDATE ")
	query.WriteString(table)
	query.WriteString(" SET ")
	query.WriteString(strings.Join(setClauses, ", "))

	args = append(args, id)
	fmt.Fprintf(&query, " WHERE id = $%d", len(args))

	if ownerID != "" {
		args = append(args, ownerID)
		fmt.Fprintf(&query, " AND %s = $%d", ownerColumn, len(args))
	}

	return query.String(), args
}

// buildDelete constructs a DELETE over one or more ids via an IN list of
// positional parameters, followed by the optional ownership predicate.
func buildDelete(table string, ids []uuid.UUID, ownerID string) (string, []any) {
	var query strings.Builder
	var args []any
	placeholders := make([]string, 0, len(ids))

	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query.WriteString("DELETE FROM ")
	query.WriteString(table)
	query.WriteString(" WHERE id IN (")
	query.WriteString(strings.Join(placeholders, ", "))
	query.WriteString(")")

	if ownerID != "" {
		args = append(args, ownerID)
		fmt.Fprintf(&query, " AND %s = $%d", ownerColumn, len(args))
	}

	return query.String(), args
}
