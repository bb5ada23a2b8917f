package crud

import (
	"time"

	"github.com/google/uuid"
)

// FieldValue is a typed scalar extracted from an entity, input payload or
// query filter. The variant set is closed: the unexported method keeps
// outside packages from adding variants, so the binding switch in the query
// builder stays exhaustive. The builder never looks inside a value; it only
// hands it to the driver as a positional argument.
type FieldValue interface {
	arg() any
}

type Identifier uuid.UUID

type Text string

type Integer int64

type Float float64

type Boolean bool

// Timestamp is a timezone-aware instant.
type Timestamp time.Time

// Column names a declared column. It is produced only after validation
// against a resource's declared fields, never from free-form request text,
// because the query builder writes it into SQL verbatim.
type Column string

func (v Identifier) arg() any { return uuid.UUID(v) }
func (v Text) arg() any       { return string(v) }
func (v Integer) arg() any    { return int64(v) }
func (v Float) arg() any      { return float64(v) }
func (v Boolean) arg() any    { return bool(v) }
func (v Timestamp) arg() any  { return time.Time(v) }
func (v Column) arg() any     { return string(v) }

// Pair is one (column name, value) element of a key-value projection.
type Pair struct {
	Key   string
	Value FieldValue
}

// Pairs is an ordered key-value projection of an object. Order is the
// declaration order of the producing type; keys must be unique within one
// sequence (a duplicate is a caller bug, not checked at runtime). A Pairs
// is produced fresh per request and never retained.
type Pairs []Pair

// Add appends a pair and returns the sequence, allowing chained building.
func (p Pairs) Add(key string, value FieldValue) Pairs {
	return append(p, Pair{Key: key, Value: value})
}

// args returns the bind arguments in sequence order.
func (p Pairs) args() []any {
	out := make([]any, len(p))
	for i, pair := range p {
		out[i] = pair.Value.arg()
	}
	return out
}
