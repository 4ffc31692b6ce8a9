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

type LoginAttemptRepository interface {
	Purger
	FindByID(ctx context.Context, id string) (*model.LoginAttempt, error)
	// FindByCriteria returns the first attempt matching criteria that has
	// not expired yet.
	FindByCriteria(ctx context.Context, criteria model.LoginAttemptCriteria) (*model.LoginAttempt, error)
	Create(ctx context.Context, attempt *model.LoginAttempt) (*model.LoginAttempt, error)
	Update(ctx context.Context, attempt *model.LoginAttempt) (*model.LoginAttempt, error)
	Delete(ctx context.Context, id string) error
	// DeleteByCriteria fails with repository.ErrIllegalQuery when criteria
	// is empty.
	DeleteByCriteria(ctx context.Context, criteria model.LoginAttemptCriteria) error
}

type loginAttemptRepository struct {
	base repository.Repository[model.LoginAttempt]
}

func NewLoginAttemptRepository(db *bun.DB) LoginAttemptRepository {
	return &loginAttemptRepository{base: repository.NewRepository[model.LoginAttempt](db)}
}

func (r *loginAttemptRepository) FindByID(ctx context.Context, id string) (*model.LoginAttempt, error) {
	attempt, err := r.base.FindOne(ctx, types.And(types.Eq("id", id), notExpired(repository.Now())))
	return attempt, repository.Fail("find login attempt", err, "id", id)
}

func (r *loginAttemptRepository) FindByCriteria(ctx context.Context, criteria model.LoginAttemptCriteria) (*model.LoginAttempt, error) {
	attempt, err := r.base.FindOne(ctx, types.And(criteria.Predicate(), notExpired(repository.Now())))
	return attempt, repository.Fail("find login attempt by criteria", err,
		"domain", criteria.Domain, "client", criteria.Client, "username", criteria.Username)
}

func (r *loginAttemptRepository) Create(ctx context.Context, attempt *model.LoginAttempt) (*model.LoginAttempt, error) {
	attempt.ID = repository.EnsureID(attempt.ID)
	stamp(&attempt.CreatedAt, &attempt.UpdatedAt)
	if err := r.base.Create(ctx, attempt); err != nil {
		return nil, repository.Fail("create login attempt", err, "id", attempt.ID)
	}
	return r.FindByID(ctx, attempt.ID)
}

func (r *loginAttemptRepository) Update(ctx context.Context, attempt *model.LoginAttempt) (*model.LoginAttempt, error) {
	attempt.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update login attempt", err, "id", attempt.ID)
	}
	return r.FindByID(ctx, attempt.ID)
}

func (r *loginAttemptRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete login attempt", r.base.Delete(ctx, id), "id", id)
}

func (r *loginAttemptRepository) DeleteByCriteria(ctx context.Context, criteria model.LoginAttemptCriteria) error {
	_, err := r.base.DeleteWhere(ctx, criteria.Predicate())
	return repository.Fail("delete login attempts by criteria", err,
		"domain", criteria.Domain, "client", criteria.Client, "username", criteria.Username)
}

func (r *loginAttemptRepository) PurgeExpiredData(ctx context.Context) (int64, error) {
	return purgeExpired(ctx, r.base, "login_attempts")
}
