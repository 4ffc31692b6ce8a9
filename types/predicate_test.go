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
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// toSQL renders p as the WHERE clause of a sqlite select.
func toSQL(t *testing.T, p Predicate) string {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	db := bun.NewDB(sqldb, sqlitedialect.New())

	q := db.NewSelect().TableExpr("t")
	if f := Filter(p); f != nil {
		q = q.Where(f.Schema, f.Args...)
	}
	return q.String()
}

func TestRenderComparisons(t *testing.T) {
	s, args := Render(Eq("name", "acme"))
	assert.Equal(t, "? = ?", s)
	assert.Equal(t, []interface{}{bun.Ident("name"), "acme"}, args)

	for pred, op := range map[Predicate]string{
		Ne("n", 1):  "<>",
		Lt("n", 1):  "<",
		Lte("n", 1): "<=",
		Gt("n", 1):  ">",
		Gte("n", 1): ">=",
	} {
		s, _ := Render(pred)
		assert.Equal(t, "? "+op+" ?", s)
	}
}

func TestRenderGroups(t *testing.T) {
	p := And(Eq("a", 1), Or(IsNull("b"), Gt("c", 2)))
	s, args := Render(p)
	assert.Equal(t, "(? = ?) AND ((? IS NULL) OR (? > ?))", s)
	assert.Equal(t, []interface{}{bun.Ident("a"), 1, bun.Ident("b"), bun.Ident("c"), 2}, args)
}

func TestGroupsSkipEmptyMembers(t *testing.T) {
	s, _ := Render(And(nil, Eq("a", 1), Or()))
	assert.Equal(t, "? = ?", s)

	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(And()))
	assert.True(t, IsEmpty(Or(And(), nil)))
	assert.True(t, IsEmpty(Raw("  ")))
	assert.False(t, IsEmpty(IsNull("a")))
	assert.Nil(t, Filter(And(nil)))

	s, args := Render(And())
	assert.Empty(t, s)
	assert.Nil(t, args)
}

func TestCombine(t *testing.T) {
	and, _ := Render(Combine(false, Eq("a", 1), Eq("b", 2)))
	or, _ := Render(Combine(true, Eq("a", 1), Eq("b", 2)))
	assert.Equal(t, "(? = ?) AND (? = ?)", and)
	assert.Equal(t, "(? = ?) OR (? = ?)", or)
}

func TestInLists(t *testing.T) {
	assert.Contains(t, toSQL(t, In("id", []string{"a", "b"})), `"id" IN ('a', 'b')`)
	assert.Contains(t, toSQL(t, NotIn("id", []string{"a"})), `"id" NOT IN ('a')`)
	assert.Contains(t, toSQL(t, In("id", []string{})), "1 = 0")
	assert.Contains(t, toSQL(t, NotIn("id", nil)), "1 = 1")
}

func TestMatchAndLike(t *testing.T) {
	got := toSQL(t, Match("name", "Ac*"))
	assert.Contains(t, got, `LOWER("name") LIKE 'ac%' ESCAPE '!'`)

	got = toSQL(t, Match("name", "Acme"))
	assert.Contains(t, got, `LOWER("name") LIKE 'acme' ESCAPE '!'`)

	got = toSQL(t, Match("name", "50%_Off!*"))
	assert.Contains(t, got, `LOWER("name") LIKE '50!%!_off!!%' ESCAPE '!'`)

	got = toSQL(t, Like("email", "%@EXAMPLE.com"))
	assert.Contains(t, got, `LOWER("email") LIKE '%@example.com'`)
}

func TestMatchTreatsPercentAndUnderscoreLiterally(t *testing.T) {
	ctx := context.Background()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.ExecContext(ctx, "CREATE TABLE offers (name TEXT)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO offers (name) VALUES ('50% off'), ('500 off'), ('a_b'), ('axb'), ('hey!')")
	require.NoError(t, err)

	search := func(query string) []string {
		names := make([]string, 0)
		f := Filter(Match("name", query))
		err := db.NewSelect().TableExpr("offers").ColumnExpr("name").Where(f.Schema, f.Args...).OrderExpr("name").Scan(ctx, &names)
		require.NoError(t, err)
		return names
	}

	assert.Equal(t, []string{"50% off"}, search("50%*"))
	assert.Equal(t, []string{"a_b"}, search("A_B"))
	assert.Equal(t, []string{"hey!"}, search("*!"))
	assert.Equal(t, []string{"50% off", "500 off"}, search("50*off"))
}

func TestRawKeepsArguments(t *testing.T) {
	p := Raw("? IN (SELECT ? FROM ?)", bun.Ident("id"), bun.Ident("parent_id"), bun.Ident("links"))
	got := toSQL(t, And(p, NotNull("name")))
	assert.Contains(t, got, `("id" IN (SELECT "parent_id" FROM "links")) AND ("name" IS NOT NULL)`)
}
