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
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
// Single-row finders return (nil, nil) when no row matches.
type CrudRepository[T any] interface {
	FindByID(ctx context.Context, id any) (*T, error)

	FindOne(ctx context.Context, pred types.Predicate) (*T, error)

	FindAll(ctx context.Context, orders ...string) ([]*T, error)

	Find(ctx context.Context, pred types.Predicate, orders ...string) ([]*T, error)

	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	Query(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	Count(ctx context.Context, pred types.Predicate) (int, error)

	Exists(ctx context.Context, pred types.Predicate) (bool, error)

	Create(ctx context.Context, entity ...*T) error

	Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	Delete(ctx context.Context, id any) error

	DeleteWhere(ctx context.Context, pred types.Predicate) (int64, error)
}

// TransactionRepository runs the write operations on db, which is either
// the repository's *bun.DB or a bun.Tx.
type TransactionRepository[T any] interface {
	FindByIDWithTx(ctx context.Context, db bun.IDB, id any) (*T, error)
	CreateWithTx(ctx context.Context, db bun.IDB, entity ...*T) error
	UpsertWithTx(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error
	UpdateWithTx(ctx context.Context, db bun.IDB, entity *T) error
	DeleteWithTx(ctx context.Context, db bun.IDB, id any) error
	DeleteWhereWithTx(ctx context.Context, db bun.IDB, pred types.Predicate) (int64, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, pagination, and transactional operations and
// exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]
	TransactionRepository[T]
	DB() *bun.DB
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// ChildRepository is the contract of an association table wholly owned by a
// parent row. Every method takes the bun.IDB to run on so children are
// written in the parent's transaction.
type ChildRepository[C any] interface {
	FindByParent(ctx context.Context, db bun.IDB, parentID string) ([]*C, error)

	// GroupByParent loads the children of every parent in one query. Each
	// requested parent has an entry, empty when it has no children.
	GroupByParent(ctx context.Context, db bun.IDB, parentIDs []string) (map[string][]*C, error)

	// ParentIDs returns the distinct parent ids of the children matching pred.
	ParentIDs(ctx context.Context, db bun.IDB, pred types.Predicate) ([]string, error)

	// ReplaceChildren deletes every child of parentID then inserts items.
	ReplaceChildren(ctx context.Context, db bun.IDB, parentID string, items []*C) error

	DeleteByParent(ctx context.Context, db bun.IDB, parentID string) error

	DeleteByParents(ctx context.Context, db bun.IDB, parentIDs []string) error
}
