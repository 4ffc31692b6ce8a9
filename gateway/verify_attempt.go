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

type VerifyAttemptRepository interface {
	FindByID(ctx context.Context, id string) (*model.VerifyAttempt, error)
	FindByCriteria(ctx context.Context, criteria model.VerifyAttemptCriteria) (*model.VerifyAttempt, error)
	Create(ctx context.Context, attempt *model.VerifyAttempt) (*model.VerifyAttempt, error)
	Update(ctx context.Context, attempt *model.VerifyAttempt) (*model.VerifyAttempt, error)
	Delete(ctx context.Context, id string) error
	// DeleteByCriteria fails with repository.ErrIllegalQuery when criteria
	// is empty.
	DeleteByCriteria(ctx context.Context, criteria model.VerifyAttemptCriteria) error
	DeleteByUser(ctx context.Context, userID string) error
	DeleteByReference(ctx context.Context, ref model.Reference) error
}

type verifyAttemptRepository struct {
	base repository.Repository[model.VerifyAttempt]
}

func NewVerifyAttemptRepository(db *bun.DB) VerifyAttemptRepository {
	return &verifyAttemptRepository{base: repository.NewRepository[model.VerifyAttempt](db)}
}

func (r *verifyAttemptRepository) FindByID(ctx context.Context, id string) (*model.VerifyAttempt, error) {
	attempt, err := r.base.FindByID(ctx, id)
	return attempt, repository.Fail("find verify attempt", err, "id", id)
}

func (r *verifyAttemptRepository) FindByCriteria(ctx context.Context, criteria model.VerifyAttemptCriteria) (*model.VerifyAttempt, error) {
	attempt, err := r.base.FindOne(ctx, criteria.Predicate())
	return attempt, repository.Fail("find verify attempt by criteria", err,
		"user_id", criteria.UserID, "factor_id", criteria.FactorID)
}

func (r *verifyAttemptRepository) Create(ctx context.Context, attempt *model.VerifyAttempt) (*model.VerifyAttempt, error) {
	attempt.ID = repository.EnsureID(attempt.ID)
	stamp(&attempt.CreatedAt, &attempt.UpdatedAt)
	if err := r.base.Create(ctx, attempt); err != nil {
		return nil, repository.Fail("create verify attempt", err, "id", attempt.ID)
	}
	return r.FindByID(ctx, attempt.ID)
}

func (r *verifyAttemptRepository) Update(ctx context.Context, attempt *model.VerifyAttempt) (*model.VerifyAttempt, error) {
	attempt.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update verify attempt", err, "id", attempt.ID)
	}
	return r.FindByID(ctx, attempt.ID)
}

func (r *verifyAttemptRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete verify attempt", r.base.Delete(ctx, id), "id", id)
}

func (r *verifyAttemptRepository) DeleteByCriteria(ctx context.Context, criteria model.VerifyAttemptCriteria) error {
	_, err := r.base.DeleteWhere(ctx, criteria.Predicate())
	return repository.Fail("delete verify attempts by criteria", err,
		"user_id", criteria.UserID, "factor_id", criteria.FactorID)
}

func (r *verifyAttemptRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.base.DeleteWhere(ctx, types.Eq("user_id", userID))
	return repository.Fail("delete verify attempts by user", err, "user_id", userID)
}

func (r *verifyAttemptRepository) DeleteByReference(ctx context.Context, ref model.Reference) error {
	_, err := r.base.DeleteWhere(ctx, ref.Predicate())
	return repository.Fail("delete verify attempts by reference", err, "reference", ref.String())
}
