package s3access

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Query builds a SelectObjectContent SQL expression over the conventional
// "S3Object s" alias.
//
// An empty Query selects every column of every record. Columns are
// projected as s.<name>; filters are ANDed into a WHERE clause.
type Query struct {
	Columns []string
	Filters []Filter
}

// Filter is a single comparison in the WHERE clause.
//
// Op is emitted verbatim (=, !=, <, <=, >, >=, LIKE, IN, ...). Value is
// quoted according to its Go type; slice values render as a parenthesized
// list for IN.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// Select is shorthand for a projection-only query.
func Select(columns ...string) Query {
	return Query{Columns: columns}
}

// Where returns a copy of the query with an additional filter.
func (q Query) Where(column, op string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Column: column, Op: op, Value: value})
	return q
}

// Expression renders the SQL expression.
func (q Query) Expression() string {
	projection := "*"
	if len(q.Columns) > 0 {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = "s." + c
		}
		projection = strings.Join(cols, ",")
	}
	expr := fmt.Sprintf("SELECT %s FROM S3Object s", projection)
	if len(q.Filters) == 0 {
		return expr
	}
	clauses := make([]string, len(q.Filters))
	for i, f := range q.Filters {
		clauses[i] = fmt.Sprintf("s.%s %s %s", f.Column, f.Op, quoteValue(f.Value))
	}
	return expr + " WHERE " + strings.Join(clauses, " AND ")
}

// quoteValue renders a filter value as a SQL literal.
//
// Strings are single-quoted with embedded quotes doubled. Times render as
// quoted RFC 3339. Slices and arrays render as parenthesized lists.
// Everything else falls through to its Go formatting.
func quoteValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'"
	case time.Time:
		return "'" + val.Format(time.RFC3339) + "'"
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		members := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			members[i] = quoteValue(rv.Index(i).Interface())
		}
		return "(" + strings.Join(members, ",") + ")"
	}

	return fmt.Sprintf("%v", v)
}
