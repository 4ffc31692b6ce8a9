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

package repository

import (
	"context"

	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type childRepositoryImpl[C any] struct {
	parentColumn string
	parentOf     func(*C) string
	orders       []string
}

// NewChildRepository returns the ChildRepository of the association table
// mapped by C. parentColumn holds the owner id and parentOf reads it back
// from a row; rows are read back in the given order.
func NewChildRepository[C any](parentColumn string, parentOf func(*C) string, orders ...string) ChildRepository[C] {
	return &childRepositoryImpl[C]{
		parentColumn: parentColumn,
		parentOf:     parentOf,
		orders:       orders,
	}
}

func (r *childRepositoryImpl[C]) find(ctx context.Context, db bun.IDB, pred types.Predicate) ([]*C, error) {
	items := make([]*C, 0)
	query := Where(db.NewSelect().Model(&items), pred)
	if len(r.orders) > 0 {
		query = query.Order(r.orders...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *childRepositoryImpl[C]) FindByParent(ctx context.Context, db bun.IDB, parentID string) ([]*C, error) {
	return r.find(ctx, db, types.Eq(r.parentColumn, parentID))
}

func (r *childRepositoryImpl[C]) GroupByParent(ctx context.Context, db bun.IDB, parentIDs []string) (map[string][]*C, error) {
	grouped := make(map[string][]*C, len(parentIDs))
	for _, id := range parentIDs {
		grouped[id] = make([]*C, 0)
	}
	if len(parentIDs) == 0 {
		return grouped, nil
	}
	items, err := r.find(ctx, db, types.In(r.parentColumn, parentIDs))
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		parent := r.parentOf(item)
		grouped[parent] = append(grouped[parent], item)
	}
	return grouped, nil
}

func (r *childRepositoryImpl[C]) ParentIDs(ctx context.Context, db bun.IDB, pred types.Predicate) ([]string, error) {
	ids := make([]string, 0)
	err := Where(db.NewSelect().Model((*C)(nil)).ColumnExpr("DISTINCT ?", bun.Ident(r.parentColumn)), pred).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *childRepositoryImpl[C]) ReplaceChildren(ctx context.Context, db bun.IDB, parentID string, items []*C) error {
	if err := r.DeleteByParent(ctx, db, parentID); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&items).Exec(ctx)
	return err
}

func (r *childRepositoryImpl[C]) DeleteByParent(ctx context.Context, db bun.IDB, parentID string) error {
	_, err := db.NewDelete().
		Model((*C)(nil)).
		Where("? = ?", bun.Ident(r.parentColumn), parentID).
		Exec(ctx)
	return err
}

func (r *childRepositoryImpl[C]) DeleteByParents(ctx context.Context, db bun.IDB, parentIDs []string) error {
	if len(parentIDs) == 0 {
		return nil
	}
	_, err := Where(db.NewDelete().Model((*C)(nil)), types.In(r.parentColumn, parentIDs)).Exec(ctx)
	return err
}
