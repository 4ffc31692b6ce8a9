/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"reflect"
	"strings"

	"github.com/uptrace/bun"
)

// Predicate is a composable WHERE condition. Column names are rendered as
// quoted identifiers and values as placeholders, so the result can be passed
// straight to a bun Where call.
type Predicate interface {
	render(sb *strings.Builder, args []interface{}) []interface{}
	empty() bool
}

type comparison struct {
	column string
	op     string
	value  interface{}
}

func (c comparison) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString("? ")
	sb.WriteString(c.op)
	sb.WriteString(" ?")
	return append(args, bun.Ident(c.column), c.value)
}

func (c comparison) empty() bool { return c.column == "" }

// Eq matches rows where column equals value.
func Eq(column string, value interface{}) Predicate { return comparison{column, "=", value} }

// Ne matches rows where column differs from value.
func Ne(column string, value interface{}) Predicate { return comparison{column, "<>", value} }

// Lt matches rows where column is strictly lower than value.
func Lt(column string, value interface{}) Predicate { return comparison{column, "<", value} }

// Lte matches rows where column is lower than or equal to value.
func Lte(column string, value interface{}) Predicate { return comparison{column, "<=", value} }

// Gt matches rows where column is strictly greater than value.
func Gt(column string, value interface{}) Predicate { return comparison{column, ">", value} }

// Gte matches rows where column is greater than or equal to value.
func Gte(column string, value interface{}) Predicate { return comparison{column, ">=", value} }

type inList struct {
	column string
	values interface{}
	negate bool
}

func (p inList) render(sb *strings.Builder, args []interface{}) []interface{} {
	if sliceLen(p.values) == 0 {
		// an empty IN list matches nothing, an empty NOT IN list matches everything
		if p.negate {
			sb.WriteString("1 = 1")
		} else {
			sb.WriteString("1 = 0")
		}
		return args
	}
	if p.negate {
		sb.WriteString("? NOT IN (?)")
	} else {
		sb.WriteString("? IN (?)")
	}
	return append(args, bun.Ident(p.column), bun.In(p.values))
}

func (p inList) empty() bool { return p.column == "" }

// In matches rows where column is one of values. values must be a slice.
func In(column string, values interface{}) Predicate { return inList{column: column, values: values} }

// NotIn matches rows where column is none of values. values must be a slice.
func NotIn(column string, values interface{}) Predicate {
	return inList{column: column, values: values, negate: true}
}

// likeEscape prefixes the LIKE metacharacters of a Match query. A backslash
// would need doubling on mysql, so a plain character is used instead.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

type like struct {
	column  string
	pattern string
	escaped bool
}

func (p like) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString("LOWER(?) LIKE ?")
	if p.escaped {
		sb.WriteString(" ESCAPE '" + likeEscape + "'")
	}
	return append(args, bun.Ident(p.column), strings.ToLower(p.pattern))
}

func (p like) empty() bool { return p.column == "" }

// Like matches column against an SQL LIKE pattern, ignoring case.
func Like(column, pattern string) Predicate { return like{column: column, pattern: pattern} }

// Match turns a user search query into a predicate: '*' is the only
// wildcard, '%' and '_' match themselves, and a query without wildcard must
// match the whole value, ignoring case.
func Match(column, query string) Predicate {
	pattern := strings.ReplaceAll(likeEscaper.Replace(query), "*", "%")
	return like{column: column, pattern: pattern, escaped: true}
}

type nullCheck struct {
	column string
	not    bool
}

func (p nullCheck) render(sb *strings.Builder, args []interface{}) []interface{} {
	if p.not {
		sb.WriteString("? IS NOT NULL")
	} else {
		sb.WriteString("? IS NULL")
	}
	return append(args, bun.Ident(p.column))
}

func (p nullCheck) empty() bool { return p.column == "" }

// IsNull matches rows where column is NULL.
func IsNull(column string) Predicate { return nullCheck{column: column} }

// NotNull matches rows where column is not NULL.
func NotNull(column string) Predicate { return nullCheck{column: column, not: true} }

type raw struct {
	expr string
	args []interface{}
}

func (p raw) render(sb *strings.Builder, args []interface{}) []interface{} {
	sb.WriteString(p.expr)
	return append(args, p.args...)
}

func (p raw) empty() bool { return strings.TrimSpace(p.expr) == "" }

// Raw wraps a hand-written fragment, e.g. a sub-select passed as argument.
func Raw(expr string, args ...interface{}) Predicate { return raw{expr, args} }

type group struct {
	op    string
	items []Predicate
}

func (g group) present() []Predicate {
	out := make([]Predicate, 0, len(g.items))
	for _, p := range g.items {
		if !IsEmpty(p) {
			out = append(out, p)
		}
	}
	return out
}

func (g group) render(sb *strings.Builder, args []interface{}) []interface{} {
	items := g.present()
	if len(items) == 1 {
		return items[0].render(sb, args)
	}
	for i, p := range items {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(g.op)
			sb.WriteString(" ")
		}
		sb.WriteString("(")
		args = p.render(sb, args)
		sb.WriteString(")")
	}
	return args
}

func (g group) empty() bool { return len(g.present()) == 0 }

// And matches rows satisfying every non-empty predicate.
func And(preds ...Predicate) Predicate { return group{"AND", preds} }

// Or matches rows satisfying at least one non-empty predicate.
func Or(preds ...Predicate) Predicate { return group{"OR", preds} }

// Combine joins preds with OR when logicalOr is set, AND otherwise.
func Combine(logicalOr bool, preds ...Predicate) Predicate {
	if logicalOr {
		return Or(preds...)
	}
	return And(preds...)
}

// IsEmpty reports whether p carries no condition at all.
func IsEmpty(p Predicate) bool {
	return p == nil || p.empty()
}

// Render returns the SQL fragment and its arguments. An empty predicate
// renders to an empty string.
func Render(p Predicate) (string, []interface{}) {
	if IsEmpty(p) {
		return "", nil
	}
	var sb strings.Builder
	args := p.render(&sb, make([]interface{}, 0, 4))
	return sb.String(), args
}

// Filter converts p into a QueryFilter, or nil when p is empty.
func Filter(p Predicate) *QueryFilter {
	if IsEmpty(p) {
		return nil
	}
	schema, args := Render(p)
	return NewQueryFilter(schema, args...)
}

func sliceLen(v interface{}) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 1
	}
	return rv.Len()
}
