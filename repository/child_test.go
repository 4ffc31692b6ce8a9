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

package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/repository/repotest"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

func newTagRepository(t *testing.T) (*bun.DB, repository.ChildRepository[gadgetTag]) {
	t.Helper()
	db := repotest.NewDB(t)
	createTables(t, db)
	tags := repository.NewChildRepository[gadgetTag]("gadget_id",
		func(tag *gadgetTag) string { return tag.GadgetID }, "tag ASC")
	return db, tags
}

func tagsOf(items []*gadgetTag) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Tag)
	}
	return out
}

func TestReplaceChildren(t *testing.T) {
	ctx := context.Background()
	db, tags := newTagRepository(t)

	require.NoError(t, tags.ReplaceChildren(ctx, db, "g1", []*gadgetTag{
		{GadgetID: "g1", Tag: "steel"},
		{GadgetID: "g1", Tag: "heavy"},
	}))
	require.NoError(t, tags.ReplaceChildren(ctx, db, "g2", []*gadgetTag{{GadgetID: "g2", Tag: "plastic"}}))

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return tags.ReplaceChildren(ctx, tx, "g1", []*gadgetTag{
			{GadgetID: "g1", Tag: "iron"},
			{GadgetID: "g1", Tag: "antique"},
		})
	})
	require.NoError(t, err)

	got, err := tags.FindByParent(ctx, db, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"antique", "iron"}, tagsOf(got))

	require.NoError(t, tags.ReplaceChildren(ctx, db, "g1", nil))
	got, err = tags.FindByParent(ctx, db, "g1")
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := tags.FindByParent(ctx, db, "g2")
	require.NoError(t, err)
	assert.Equal(t, []string{"plastic"}, tagsOf(other))
}

func TestGroupByParent(t *testing.T) {
	ctx := context.Background()
	db, tags := newTagRepository(t)

	require.NoError(t, tags.ReplaceChildren(ctx, db, "g1", []*gadgetTag{
		{GadgetID: "g1", Tag: "b"},
		{GadgetID: "g1", Tag: "a"},
	}))
	require.NoError(t, tags.ReplaceChildren(ctx, db, "g2", []*gadgetTag{{GadgetID: "g2", Tag: "c"}}))

	grouped, err := tags.GroupByParent(ctx, db, []string{"g1", "g3"})
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, []string{"a", "b"}, tagsOf(grouped["g1"]))
	assert.NotNil(t, grouped["g3"])
	assert.Empty(t, grouped["g3"])

	none, err := tags.GroupByParent(ctx, db, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParentIDs(t *testing.T) {
	ctx := context.Background()
	db, tags := newTagRepository(t)

	require.NoError(t, tags.ReplaceChildren(ctx, db, "g1", []*gadgetTag{
		{GadgetID: "g1", Tag: "red"},
		{GadgetID: "g1", Tag: "blue"},
	}))
	require.NoError(t, tags.ReplaceChildren(ctx, db, "g2", []*gadgetTag{{GadgetID: "g2", Tag: "red"}}))
	require.NoError(t, tags.ReplaceChildren(ctx, db, "g3", []*gadgetTag{{GadgetID: "g3", Tag: "green"}}))

	ids, err := tags.ParentIDs(ctx, db, types.Eq("tag", "red"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2"}, ids)

	all, err := tags.ParentIDs(ctx, db, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"g1", "g2", "g3"}, all)

	none, err := tags.ParentIDs(ctx, db, types.Eq("tag", "violet"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteByParents(t *testing.T) {
	ctx := context.Background()
	db, tags := newTagRepository(t)

	for _, id := range []string{"g1", "g2", "g3"} {
		require.NoError(t, tags.ReplaceChildren(ctx, db, id, []*gadgetTag{{GadgetID: id, Tag: "x"}}))
	}

	require.NoError(t, tags.DeleteByParents(ctx, db, nil))
	require.NoError(t, tags.DeleteByParents(ctx, db, []string{"g1", "g3"}))
	require.NoError(t, tags.DeleteByParent(ctx, db, "missing"))

	left, err := tags.ParentIDs(ctx, db, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, left)
}
