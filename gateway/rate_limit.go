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

package gateway

import (
	"context"
	"errors"

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type RateLimitRepository interface {
	FindByID(ctx context.Context, id string) (*model.RateLimit, error)
	FindByCriteria(ctx context.Context, criteria model.RateLimitCriteria) (*model.RateLimit, error)
	Create(ctx context.Context, limit *model.RateLimit) (*model.RateLimit, error)
	Update(ctx context.Context, limit *model.RateLimit) (*model.RateLimit, error)
	Delete(ctx context.Context, id string) error
	// DeleteByCriteria fails with repository.ErrIllegalQuery when criteria
	// is empty.
	DeleteByCriteria(ctx context.Context, criteria model.RateLimitCriteria) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteByReference(ctx context.Context, ref model.Reference) error
}

type rateLimitRepository struct {
	base repository.Repository[model.RateLimit]
}

func NewRateLimitRepository(db *bun.DB) RateLimitRepository {
	return &rateLimitRepository{base: repository.NewRepository[model.RateLimit](db)}
}

func (r *rateLimitRepository) FindByID(ctx context.Context, id string) (*model.RateLimit, error) {
	limit, err := r.base.FindByID(ctx, id)
	return limit, repository.Fail("find rate limit", err, "id", id)
}

func (r *rateLimitRepository) FindByCriteria(ctx context.Context, criteria model.RateLimitCriteria) (*model.RateLimit, error) {
	limit, err := r.base.FindOne(ctx, criteria.Predicate())
	return limit, repository.Fail("find rate limit by criteria", err,
		"user_id", criteria.UserID, "factor_id", criteria.FactorID)
}

func (r *rateLimitRepository) Create(ctx context.Context, limit *model.RateLimit) (*model.RateLimit, error) {
	limit.ID = repository.EnsureID(limit.ID)
	stamp(&limit.CreatedAt, &limit.UpdatedAt)
	if err := r.base.Create(ctx, limit); err != nil {
		return nil, repository.Fail("create rate limit", err, "id", limit.ID)
	}
	return r.FindByID(ctx, limit.ID)
}

func (r *rateLimitRepository) Update(ctx context.Context, limit *model.RateLimit) (*model.RateLimit, error) {
	limit.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, limit); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update rate limit", err, "id", limit.ID)
	}
	return r.FindByID(ctx, limit.ID)
}

func (r *rateLimitRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete rate limit", r.base.Delete(ctx, id), "id", id)
}

func (r *rateLimitRepository) DeleteByCriteria(ctx context.Context, criteria model.RateLimitCriteria) error {
	_, err := r.base.DeleteWhere(ctx, criteria.Predicate())
	return repository.Fail("delete rate limits by criteria", err,
		"user_id", criteria.UserID, "factor_id", criteria.FactorID)
}

func (r *rateLimitRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.base.DeleteWhere(ctx, types.Eq("user_id", userID))
	return repository.Fail("delete rate limits by user", err, "user_id", userID)
}

func (r *rateLimitRepository) DeleteByReference(ctx context.Context, ref model.Reference) error {
	_, err := r.base.DeleteWhere(ctx, ref.Predicate())
	return repository.Fail("delete rate limits by reference", err, "reference", ref.String())
}
