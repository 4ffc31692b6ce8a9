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

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type UserActivityRepository interface {
	Purger
	FindByID(ctx context.Context, id string) (*model.UserActivity, error)
	// FindByReferenceAndTypeAndKeyAndLimit returns at most limit unexpired
	// activities, newest first. A limit below one returns all of them.
	FindByReferenceAndTypeAndKeyAndLimit(ctx context.Context, ref model.Reference, activityType, key string, limit int) ([]*model.UserActivity, error)
	Create(ctx context.Context, activity *model.UserActivity) (*model.UserActivity, error)
	Delete(ctx context.Context, id string) error
	DeleteByReferenceAndKey(ctx context.Context, ref model.Reference, key string) error
	DeleteByReference(ctx context.Context, ref model.Reference) error
}

type userActivityRepository struct {
	base repository.Repository[model.UserActivity]
}

func NewUserActivityRepository(db *bun.DB) UserActivityRepository {
	return &userActivityRepository{base: repository.NewRepository[model.UserActivity](db)}
}

func (r *userActivityRepository) FindByID(ctx context.Context, id string) (*model.UserActivity, error) {
	activity, err := r.base.FindOne(ctx, types.And(types.Eq("id", id), notExpired(repository.Now())))
	return activity, repository.Fail("find user activity", err, "id", id)
}

func (r *userActivityRepository) FindByReferenceAndTypeAndKeyAndLimit(ctx context.Context, ref model.Reference, activityType, key string, limit int) ([]*model.UserActivity, error) {
	activities := make([]*model.UserActivity, 0)
	pred := types.And(
		ref.Predicate(),
		types.Eq("activity_type", activityType),
		types.Eq("activity_key", key),
		notExpired(repository.Now()),
	)
	query := repository.Where(r.base.NewSelect().Model(&activities), pred).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, repository.Fail("find user activities", err, "reference", ref.String(), "type", activityType, "key", key)
	}
	return activities, nil
}

func (r *userActivityRepository) Create(ctx context.Context, activity *model.UserActivity) (*model.UserActivity, error) {
	activity.ID = repository.EnsureID(activity.ID)
	stamp(&activity.CreatedAt, nil)
	if err := r.base.Create(ctx, activity); err != nil {
		return nil, repository.Fail("create user activity", err, "id", activity.ID)
	}
	return r.FindByID(ctx, activity.ID)
}

func (r *userActivityRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete user activity", r.base.Delete(ctx, id), "id", id)
}

func (r *userActivityRepository) DeleteByReferenceAndKey(ctx context.Context, ref model.Reference, key string) error {
	_, err := r.base.DeleteWhere(ctx, types.And(ref.Predicate(), types.Eq("activity_key", key)))
	return repository.Fail("delete user activities by key", err, "reference", ref.String(), "key", key)
}

func (r *userActivityRepository) DeleteByReference(ctx context.Context, ref model.Reference) error {
	_, err := r.base.DeleteWhere(ctx, ref.Predicate())
	return repository.Fail("delete user activities by reference", err, "reference", ref.String())
}

func (r *userActivityRepository) PurgeExpiredData(ctx context.Context) (int64, error) {
	return purgeExpired(ctx, r.base, "user_activities")
}
