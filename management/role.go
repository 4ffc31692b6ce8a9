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
	"errors"

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type RoleRepository interface {
	FindAll(ctx context.Context, ref model.Reference) ([]*model.Role, error)
	FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.Role], error)
	Search(ctx context.Context, ref model.Reference, query string, page *types.PageRequest) (*types.Pagination[model.Role], error)
	FindByIDIn(ctx context.Context, ids []string) ([]*model.Role, error)
	FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Role, error)
	FindByID(ctx context.Context, id string) (*model.Role, error)
	FindByNameAndAssignableType(ctx context.Context, ref model.Reference, name string, assignable model.ReferenceType) (*model.Role, error)
	FindByNamesAndAssignableType(ctx context.Context, ref model.Reference, names []string, assignable model.ReferenceType) ([]*model.Role, error)
	Create(ctx context.Context, role *model.Role) (*model.Role, error)
	Update(ctx context.Context, role *model.Role) (*model.Role, error)
	Delete(ctx context.Context, id string) error
}

type roleRepository struct {
	base   repository.Repository[model.Role]
	scopes repository.ChildRepository[model.RoleOAuthScope]
}

func NewRoleRepository(db *bun.DB) RoleRepository {
	return &roleRepository{
		base: repository.NewRepository[model.Role](db),
		scopes: repository.NewChildRepository("role_id",
			func(r *model.RoleOAuthScope) string { return r.RoleID }, "scope ASC"),
	}
}

func (r *roleRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.Role, error) {
	return r.find(ctx, "find roles", ref.Predicate(), "reference", ref.String())
}

func (r *roleRepository) FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.Role], error) {
	return r.page(ctx, "find roles", ref.Predicate(), page, "reference", ref.String())
}

func (r *roleRepository) Search(ctx context.Context, ref model.Reference, query string, page *types.PageRequest) (*types.Pagination[model.Role], error) {
	pred := types.And(ref.Predicate(), types.Match("name", query))
	return r.page(ctx, "search roles", pred, page, "reference", ref.String(), "query", query)
}

func (r *roleRepository) FindByIDIn(ctx context.Context, ids []string) ([]*model.Role, error) {
	return r.find(ctx, "find roles by ids", types.In("id", ids), "ids", ids)
}

func (r *roleRepository) FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Role, error) {
	return r.findOne(ctx, "find role", types.And(ref.Predicate(), types.Eq("id", id)), "reference", ref.String(), "id", id)
}

func (r *roleRepository) FindByID(ctx context.Context, id string) (*model.Role, error) {
	return r.findOne(ctx, "find role", types.Eq("id", id), "id", id)
}

func (r *roleRepository) FindByNameAndAssignableType(ctx context.Context, ref model.Reference, name string, assignable model.ReferenceType) (*model.Role, error) {
	pred := types.And(ref.Predicate(), types.Eq("name", name), types.Eq("assignable_type", string(assignable)))
	return r.findOne(ctx, "find role by name", pred, "reference", ref.String(), "name", name, "assignable_type", assignable)
}

func (r *roleRepository) FindByNamesAndAssignableType(ctx context.Context, ref model.Reference, names []string, assignable model.ReferenceType) ([]*model.Role, error) {
	pred := types.And(ref.Predicate(), types.In("name", names), types.Eq("assignable_type", string(assignable)))
	return r.find(ctx, "find roles by names", pred, "reference", ref.String(), "names", names, "assignable_type", assignable)
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) (*model.Role, error) {
	role.ID = repository.EnsureID(role.ID)
	stampCreate(&role.CreatedAt, &role.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, role); err != nil {
			return err
		}
		return r.scopes.ReplaceChildren(ctx, tx, role.ID, role.OAuthScopeRows())
	})
	if err != nil {
		return nil, repository.Fail("create role", err, "id", role.ID)
	}
	return r.FindByID(ctx, role.ID)
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) (*model.Role, error) {
	role.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, role); err != nil {
			return err
		}
		return r.scopes.ReplaceChildren(ctx, tx, role.ID, role.OAuthScopeRows())
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update role", err, "id", role.ID)
	}
	return r.FindByID(ctx, role.ID)
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.scopes.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete role", err, "id", id)
}

func (r *roleRepository) page(ctx context.Context, op string, pred types.Predicate, page *types.PageRequest, kv ...interface{}) (*types.Pagination[model.Role], error) {
	result, err := r.base.Page(ctx, pageOf(page).Where(pred).OrderBy("name ASC"))
	if err == nil {
		err = r.complete(ctx, result.Items...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return result, nil
}

func (r *roleRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.Role, error) {
	roles, err := r.base.Find(ctx, pred, "name ASC")
	if err == nil {
		err = r.complete(ctx, roles...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return roles, nil
}

func (r *roleRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.Role, error) {
	role, err := r.base.FindOne(ctx, pred)
	if err == nil && role != nil {
		err = r.complete(ctx, role)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return role, nil
}

func (r *roleRepository) complete(ctx context.Context, roles ...*model.Role) error {
	if len(roles) == 0 {
		return nil
	}
	scopes, err := r.scopes.GroupByParent(ctx, r.base.DB(), rowIDs(roles, func(role *model.Role) string { return role.ID }))
	if err != nil {
		return err
	}
	for _, role := range roles {
		role.SetOAuthScopes(scopes[role.ID])
		role.Normalize()
	}
	return nil
}
