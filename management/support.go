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

package management

import (
	"context"
	"time"

	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

const defaultPageSize = 50

// stampCreate sets the creation time of a new row, and its update time when
// the caller left it zero.
func stampCreate(created, updated *time.Time) {
	now := repository.Now()
	*created = now
	if updated != nil && updated.IsZero() {
		*updated = now
	}
}

func pageOf(page *types.PageRequest) *types.PageRequest {
	if page == nil {
		return types.NewDefaultPageRequest(1, defaultPageSize)
	}
	return page
}

func rowIDs[T any](rows []*T, id func(*T) string) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, id(row))
	}
	return ids
}

// loadChildren schedules the load of the children of parentIDs on g and
// stores them, grouped by parent, into out.
func loadChildren[C any](ctx context.Context, g *errgroup.Group, db bun.IDB, children repository.ChildRepository[C], parentIDs []string, out *map[string][]*C) {
	g.Go(func() error {
		grouped, err := children.GroupByParent(ctx, db, parentIDs)
		if err != nil {
			return err
		}
		*out = grouped
		return nil
	})
}

func first[T any](rows []*T) *T {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
