package crud

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// FilterParser accumulates typed query-string fields into an ordered
// Pairs. Declared keys are consumed in call order, so predicate order
// follows the resource's declaration order; keys absent from the query
// contribute nothing, and undeclared query keys are ignored. The first
// value that fails to parse poisons the parser and surfaces from Result.
type FilterParser struct {
	values  url.Values
	pairs   Pairs
	columns map[string]bool
	err     error
}

// NewFilterParser wraps the request's query values.
func NewFilterParser(values url.Values) *FilterParser {
	return &FilterParser{values: values, columns: map[string]bool{defaultOrderColumn: true}}
}

// Identifier declares a 128-bit id field.
func (p *FilterParser) Identifier(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		id, err := uuid.Parse(s)
		return Identifier(id), err
	})
}

// Text declares a string field. Parsing never fails.
func (p *FilterParser) Text(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		return Text(s), nil
	})
}

// Integer declares a 64-bit signed field.
func (p *FilterParser) Integer(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		n, err := strconv.ParseInt(s, 10, 64)
		return Integer(n), err
	})
}

// Float declares a 64-bit float field.
func (p *FilterParser) Float(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		f, err := strconv.ParseFloat(s, 64)
		return Float(f), err
	})
}

// Boolean declares a bool field.
func (p *FilterParser) Boolean(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		b, err := strconv.ParseBool(s)
		return Boolean(b), err
	})
}

// Timestamp declares an RFC 3339 instant field.
func (p *FilterParser) Timestamp(key string) *FilterParser {
	return p.field(key, func(s string) (FieldValue, error) {
		t, err := time.Parse(time.RFC3339, s)
		return Timestamp(t), err
	})
}

// Ordering declares the reserved order_by and order_dir control keys.
// Declare it after the typed fields: an order_by value is accepted only
// when it names a previously declared column (comparison suffixes
// stripped) or the default id column. Anything else is dropped and the
// default ordering applies, so request text never becomes an identifier.
func (p *FilterParser) Ordering() *FilterParser {
	if p.err == nil {
		if col := p.values.Get(orderByKey); col != "" && p.columns[col] {
			p.pairs = p.pairs.Add(orderByKey, Column(col))
		}
	}
	return p.Text(orderDirKey)
}

func (p *FilterParser) field(key string, parse func(string) (FieldValue, error)) *FilterParser {
	if p.err != nil {
		return p
	}
	column, _ := comparisonOp(key)
	p.columns[column] = true
	raw := p.values.Get(key)
	if raw == "" {
		return p
	}
	value, err := parse(raw)
	if err != nil {
		p.err = fmt.Errorf("filter %s: %w", key, err)
		return p
	}
	p.pairs = p.pairs.Add(key, value)
	return p
}

// Result returns the accumulated pairs, or the first parse error.
func (p *FilterParser) Result() (Pairs, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.pairs, nil
}
