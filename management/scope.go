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

type ScopeRepository interface {
	FindByDomain(ctx context.Context, domain string, page *types.PageRequest) (*types.Pagination[model.Scope], error)
	// Search matches query against scope keys; '*' is a wildcard.
	Search(ctx context.Context, domain, query string, page *types.PageRequest) (*types.Pagination[model.Scope], error)
	FindByDomainAndKey(ctx context.Context, domain, key string) (*model.Scope, error)
	FindByDomainAndKeys(ctx context.Context, domain string, keys []string) ([]*model.Scope, error)
	FindByID(ctx context.Context, id string) (*model.Scope, error)
	Create(ctx context.Context, scope *model.Scope) (*model.Scope, error)
	Update(ctx context.Context, scope *model.Scope) (*model.Scope, error)
	Delete(ctx context.Context, id string) error
}

type scopeRepository struct {
	base   repository.Repository[model.Scope]
	claims repository.ChildRepository[model.ScopeClaim]
}

func NewScopeRepository(db *bun.DB) ScopeRepository {
	return &scopeRepository{
		base: repository.NewRepository[model.Scope](db),
		claims: repository.NewChildRepository("scope_id",
			func(r *model.ScopeClaim) string { return r.ScopeID }, "claim ASC"),
	}
}

func (r *scopeRepository) FindByDomain(ctx context.Context, domain string, page *types.PageRequest) (*types.Pagination[model.Scope], error) {
	return r.page(ctx, "find scopes by domain", types.Eq("domain", domain), page, "domain", domain)
}

func (r *scopeRepository) Search(ctx context.Context, domain, query string, page *types.PageRequest) (*types.Pagination[model.Scope], error) {
	pred := types.And(types.Eq("domain", domain), types.Match("key", query))
	return r.page(ctx, "search scopes", pred, page, "domain", domain, "query", query)
}

func (r *scopeRepository) FindByDomainAndKey(ctx context.Context, domain, key string) (*model.Scope, error) {
	scope, err := r.base.FindOne(ctx, types.And(types.Eq("domain", domain), types.Eq("key", key)))
	if err == nil && scope != nil {
		err = r.complete(ctx, scope)
	}
	if err != nil {
		return nil, repository.Fail("find scope by key", err, "domain", domain, "key", key)
	}
	return scope, nil
}

func (r *scopeRepository) FindByDomainAndKeys(ctx context.Context, domain string, keys []string) ([]*model.Scope, error) {
	scopes, err := r.base.Find(ctx, types.And(types.Eq("domain", domain), types.In("key", keys)), "key ASC")
	if err == nil {
		err = r.complete(ctx, scopes...)
	}
	if err != nil {
		return nil, repository.Fail("find scopes by keys", err, "domain", domain, "keys", keys)
	}
	return scopes, nil
}

func (r *scopeRepository) FindByID(ctx context.Context, id string) (*model.Scope, error) {
	scope, err := r.base.FindByID(ctx, id)
	if err == nil && scope != nil {
		err = r.complete(ctx, scope)
	}
	if err != nil {
		return nil, repository.Fail("find scope", err, "id", id)
	}
	return scope, nil
}

func (r *scopeRepository) Create(ctx context.Context, scope *model.Scope) (*model.Scope, error) {
	scope.ID = repository.EnsureID(scope.ID)
	stampCreate(&scope.CreatedAt, &scope.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, scope); err != nil {
			return err
		}
		return r.claims.ReplaceChildren(ctx, tx, scope.ID, scope.ClaimRows())
	})
	if err != nil {
		return nil, repository.Fail("create scope", err, "id", scope.ID, "key", scope.Key)
	}
	return r.FindByID(ctx, scope.ID)
}

func (r *scopeRepository) Update(ctx context.Context, scope *model.Scope) (*model.Scope, error) {
	scope.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, scope); err != nil {
			return err
		}
		return r.claims.ReplaceChildren(ctx, tx, scope.ID, scope.ClaimRows())
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update scope", err, "id", scope.ID, "key", scope.Key)
	}
	return r.FindByID(ctx, scope.ID)
}

func (r *scopeRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.claims.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete scope", err, "id", id)
}

func (r *scopeRepository) page(ctx context.Context, op string, pred types.Predicate, page *types.PageRequest, kv ...interface{}) (*types.Pagination[model.Scope], error) {
	result, err := r.base.Page(ctx, pageOf(page).Where(pred).OrderBy("key ASC"))
	if err == nil {
		err = r.complete(ctx, result.Items...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return result, nil
}

func (r *scopeRepository) complete(ctx context.Context, scopes ...*model.Scope) error {
	if len(scopes) == 0 {
		return nil
	}
	claims, err := r.claims.GroupByParent(ctx, r.base.DB(), rowIDs(scopes, func(s *model.Scope) string { return s.ID }))
	if err != nil {
		return err
	}
	for _, s := range scopes {
		s.SetClaims(claims[s.ID])
		s.Normalize()
	}
	return nil
}
