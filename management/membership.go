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

type MembershipRepository interface {
	FindByReference(ctx context.Context, ref model.Reference) ([]*model.Membership, error)
	FindByMember(ctx context.Context, memberType model.MemberType, memberID string) ([]*model.Membership, error)
	FindByCriteria(ctx context.Context, ref model.Reference, criteria model.MembershipCriteria) ([]*model.Membership, error)
	FindByReferenceAndMember(ctx context.Context, ref model.Reference, memberType model.MemberType, memberID string) (*model.Membership, error)
	FindByID(ctx context.Context, id string) (*model.Membership, error)
	Create(ctx context.Context, membership *model.Membership) (*model.Membership, error)
	Update(ctx context.Context, membership *model.Membership) (*model.Membership, error)
	Delete(ctx context.Context, id string) error
}

type membershipRepository struct {
	base repository.Repository[model.Membership]
}

func NewMembershipRepository(db *bun.DB) MembershipRepository {
	return &membershipRepository{base: repository.NewRepository[model.Membership](db)}
}

func (r *membershipRepository) FindByReference(ctx context.Context, ref model.Reference) ([]*model.Membership, error) {
	memberships, err := r.base.Find(ctx, ref.Predicate(), "created_at ASC")
	return memberships, repository.Fail("find memberships by reference", err, "reference", ref.String())
}

func (r *membershipRepository) FindByMember(ctx context.Context, memberType model.MemberType, memberID string) ([]*model.Membership, error) {
	pred := types.And(types.Eq("member_type", string(memberType)), types.Eq("member_id", memberID))
	memberships, err := r.base.Find(ctx, pred, "created_at ASC")
	return memberships, repository.Fail("find memberships by member", err, "member_type", memberType, "member_id", memberID)
}

// FindByCriteria always narrows the criteria to ref.
func (r *membershipRepository) FindByCriteria(ctx context.Context, ref model.Reference, criteria model.MembershipCriteria) ([]*model.Membership, error) {
	memberships, err := r.base.Find(ctx, types.And(ref.Predicate(), criteria.Predicate()), "created_at ASC")
	return memberships, repository.Fail("find memberships by criteria", err, "reference", ref.String())
}

func (r *membershipRepository) FindByReferenceAndMember(ctx context.Context, ref model.Reference, memberType model.MemberType, memberID string) (*model.Membership, error) {
	pred := types.And(ref.Predicate(), types.Eq("member_type", string(memberType)), types.Eq("member_id", memberID))
	membership, err := r.base.FindOne(ctx, pred)
	return membership, repository.Fail("find membership", err, "reference", ref.String(), "member_type", memberType, "member_id", memberID)
}

func (r *membershipRepository) FindByID(ctx context.Context, id string) (*model.Membership, error) {
	membership, err := r.base.FindByID(ctx, id)
	return membership, repository.Fail("find membership", err, "id", id)
}

func (r *membershipRepository) Create(ctx context.Context, membership *model.Membership) (*model.Membership, error) {
	membership.ID = repository.EnsureID(membership.ID)
	stampCreate(&membership.CreatedAt, &membership.UpdatedAt)
	if err := r.base.Create(ctx, membership); err != nil {
		return nil, repository.Fail("create membership", err, "id", membership.ID)
	}
	return r.FindByID(ctx, membership.ID)
}

func (r *membershipRepository) Update(ctx context.Context, membership *model.Membership) (*model.Membership, error) {
	membership.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, membership); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update membership", err, "id", membership.ID)
	}
	return r.FindByID(ctx, membership.ID)
}

func (r *membershipRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete membership", r.base.Delete(ctx, id), "id", id)
}
