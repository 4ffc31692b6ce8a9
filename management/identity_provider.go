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

type IdentityProviderRepository interface {
	FindAll(ctx context.Context) ([]*model.IdentityProvider, error)
	FindAllByReference(ctx context.Context, ref model.Reference) ([]*model.IdentityProvider, error)
	FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.IdentityProvider, error)
	FindByID(ctx context.Context, id string) (*model.IdentityProvider, error)
	Create(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error)
	Update(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error)
	Delete(ctx context.Context, id string) error
}

type identityProviderRepository struct {
	base repository.Repository[model.IdentityProvider]
}

func NewIdentityProviderRepository(db *bun.DB) IdentityProviderRepository {
	return &identityProviderRepository{base: repository.NewRepository[model.IdentityProvider](db)}
}

func (r *identityProviderRepository) FindAll(ctx context.Context) ([]*model.IdentityProvider, error) {
	return r.find(ctx, "find identity providers", nil)
}

func (r *identityProviderRepository) FindAllByReference(ctx context.Context, ref model.Reference) ([]*model.IdentityProvider, error) {
	return r.find(ctx, "find identity providers by reference", ref.Predicate(), "reference", ref.String())
}

func (r *identityProviderRepository) FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.IdentityProvider, error) {
	return r.findOne(ctx, "find identity provider", types.And(ref.Predicate(), types.Eq("id", id)),
		"reference", ref.String(), "id", id)
}

func (r *identityProviderRepository) FindByID(ctx context.Context, id string) (*model.IdentityProvider, error) {
	return r.findOne(ctx, "find identity provider", types.Eq("id", id), "id", id)
}

func (r *identityProviderRepository) Create(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	idp.ID = repository.EnsureID(idp.ID)
	stampCreate(&idp.CreatedAt, &idp.UpdatedAt)
	if err := r.base.Create(ctx, idp); err != nil {
		return nil, repository.Fail("create identity provider", err, "id", idp.ID)
	}
	return r.FindByID(ctx, idp.ID)
}

func (r *identityProviderRepository) Update(ctx context.Context, idp *model.IdentityProvider) (*model.IdentityProvider, error) {
	idp.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, idp); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update identity provider", err, "id", idp.ID)
	}
	return r.FindByID(ctx, idp.ID)
}

func (r *identityProviderRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete identity provider", r.base.Delete(ctx, id), "id", id)
}

func (r *identityProviderRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.IdentityProvider, error) {
	idps, err := r.base.Find(ctx, pred, "name ASC")
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	for _, idp := range idps {
		idp.Normalize()
	}
	return idps, nil
}

func (r *identityProviderRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.IdentityProvider, error) {
	idp, err := r.base.FindOne(ctx, pred)
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	if idp != nil {
		idp.Normalize()
	}
	return idp, nil
}
