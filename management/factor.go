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

type FactorRepository interface {
	FindAll(ctx context.Context) ([]*model.Factor, error)
	FindByDomain(ctx context.Context, domain string) ([]*model.Factor, error)
	FindByID(ctx context.Context, id string) (*model.Factor, error)
	Create(ctx context.Context, factor *model.Factor) (*model.Factor, error)
	Update(ctx context.Context, factor *model.Factor) (*model.Factor, error)
	Delete(ctx context.Context, id string) error
}

type factorRepository struct {
	base repository.Repository[model.Factor]
}

func NewFactorRepository(db *bun.DB) FactorRepository {
	return &factorRepository{base: repository.NewRepository[model.Factor](db)}
}

func (r *factorRepository) FindAll(ctx context.Context) ([]*model.Factor, error) {
	factors, err := r.base.FindAll(ctx, "name ASC")
	return factors, repository.Fail("find factors", err)
}

func (r *factorRepository) FindByDomain(ctx context.Context, domain string) ([]*model.Factor, error) {
	factors, err := r.base.Find(ctx, types.Eq("domain", domain), "name ASC")
	return factors, repository.Fail("find factors by domain", err, "domain", domain)
}

func (r *factorRepository) FindByID(ctx context.Context, id string) (*model.Factor, error) {
	factor, err := r.base.FindByID(ctx, id)
	return factor, repository.Fail("find factor", err, "id", id)
}

func (r *factorRepository) Create(ctx context.Context, factor *model.Factor) (*model.Factor, error) {
	factor.ID = repository.EnsureID(factor.ID)
	stampCreate(&factor.CreatedAt, &factor.UpdatedAt)
	if err := r.base.Create(ctx, factor); err != nil {
		return nil, repository.Fail("create factor", err, "id", factor.ID, "domain", factor.Domain)
	}
	return r.FindByID(ctx, factor.ID)
}

func (r *factorRepository) Update(ctx context.Context, factor *model.Factor) (*model.Factor, error) {
	factor.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, factor); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update factor", err, "id", factor.ID, "domain", factor.Domain)
	}
	return r.FindByID(ctx, factor.ID)
}

func (r *factorRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete factor", r.base.Delete(ctx, id), "id", id)
}
