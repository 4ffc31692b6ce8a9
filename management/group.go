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
	"golang.org/x/sync/errgroup"
)

type GroupRepository interface {
	FindByMember(ctx context.Context, memberID string) ([]*model.Group, error)
	FindAll(ctx context.Context, ref model.Reference) ([]*model.Group, error)
	FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.Group], error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Group, error)
	FindByName(ctx context.Context, ref model.Reference, name string) (*model.Group, error)
	FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Group, error)
	FindByID(ctx context.Context, id string) (*model.Group, error)
	Create(ctx context.Context, group *model.Group) (*model.Group, error)
	Update(ctx context.Context, group *model.Group) (*model.Group, error)
	Delete(ctx context.Context, id string) error
}

type groupRepository struct {
	base    repository.Repository[model.Group]
	members repository.ChildRepository[model.GroupMember]
	roles   repository.ChildRepository[model.GroupRole]
}

func NewGroupRepository(db *bun.DB) GroupRepository {
	return &groupRepository{
		base: repository.NewRepository[model.Group](db),
		members: repository.NewChildRepository("group_id",
			func(r *model.GroupMember) string { return r.GroupID }),
		roles: repository.NewChildRepository("group_id",
			func(r *model.GroupRole) string { return r.GroupID }),
	}
}

func (r *groupRepository) FindByMember(ctx context.Context, memberID string) ([]*model.Group, error) {
	ids, err := r.members.ParentIDs(ctx, r.base.DB(), types.Eq("member", memberID))
	if err != nil {
		return nil, repository.Fail("find groups by member", err, "member", memberID)
	}
	return r.find(ctx, "find groups by member", types.In("id", ids), "member", memberID)
}

func (r *groupRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.Group, error) {
	return r.find(ctx, "find groups", ref.Predicate(), "reference", ref.String())
}

func (r *groupRepository) FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.Group], error) {
	result, err := r.base.Page(ctx, pageOf(page).Where(ref.Predicate()).OrderBy("name ASC"))
	if err == nil {
		err = r.complete(ctx, result.Items...)
	}
	if err != nil {
		return nil, repository.Fail("find groups", err, "reference", ref.String())
	}
	return result, nil
}

func (r *groupRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Group, error) {
	return r.find(ctx, "find groups by ids", types.In("id", ids), "ids", ids)
}

func (r *groupRepository) FindByName(ctx context.Context, ref model.Reference, name string) (*model.Group, error) {
	return r.findOne(ctx, "find group by name", types.And(ref.Predicate(), types.Eq("name", name)),
		"reference", ref.String(), "name", name)
}

func (r *groupRepository) FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Group, error) {
	return r.findOne(ctx, "find group", types.And(ref.Predicate(), types.Eq("id", id)), "reference", ref.String(), "id", id)
}

func (r *groupRepository) FindByID(ctx context.Context, id string) (*model.Group, error) {
	return r.findOne(ctx, "find group", types.Eq("id", id), "id", id)
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) (*model.Group, error) {
	group.ID = repository.EnsureID(group.ID)
	stampCreate(&group.CreatedAt, &group.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, group); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, group)
	})
	if err != nil {
		return nil, repository.Fail("create group", err, "id", group.ID)
	}
	return r.FindByID(ctx, group.ID)
}

func (r *groupRepository) Update(ctx context.Context, group *model.Group) (*model.Group, error) {
	group.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, group); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, group)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update group", err, "id", group.ID)
	}
	return r.FindByID(ctx, group.ID)
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.members.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.roles.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete group", err, "id", id)
}

func (r *groupRepository) writeChildren(ctx context.Context, tx bun.Tx, group *model.Group) error {
	if err := r.members.ReplaceChildren(ctx, tx, group.ID, group.MemberRows()); err != nil {
		return err
	}
	return r.roles.ReplaceChildren(ctx, tx, group.ID, group.RoleRows())
}

func (r *groupRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.Group, error) {
	groups, err := r.base.Find(ctx, pred, "name ASC")
	if err == nil {
		err = r.complete(ctx, groups...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return groups, nil
}

func (r *groupRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.Group, error) {
	group, err := r.base.FindOne(ctx, pred)
	if err == nil && group != nil {
		err = r.complete(ctx, group)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return group, nil
}

func (r *groupRepository) complete(ctx context.Context, groups ...*model.Group) error {
	if len(groups) == 0 {
		return nil
	}
	ids := rowIDs(groups, func(g *model.Group) string { return g.ID })
	var (
		members map[string][]*model.GroupMember
		roles   map[string][]*model.GroupRole
	)
	g, gctx := errgroup.WithContext(ctx)
	loadChildren(gctx, g, r.base.DB(), r.members, ids, &members)
	loadChildren(gctx, g, r.base.DB(), r.roles, ids, &roles)
	if err := g.Wait(); err != nil {
		return err
	}
	for _, group := range groups {
		group.SetMembers(members[group.ID])
		group.SetRoles(roles[group.ID])
		group.Normalize()
	}
	return nil
}
