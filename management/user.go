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
	"strings"

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

type UserRepository interface {
	FindAll(ctx context.Context, ref model.Reference) ([]*model.User, error)
	FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.User], error)
	// Search matches query against username, email, display, first and last
	// names; '*' is a wildcard.
	Search(ctx context.Context, ref model.Reference, query string, page *types.PageRequest) (*types.Pagination[model.User], error)
	FindByUsernameAndSource(ctx context.Context, ref model.Reference, username, source string) (*model.User, error)
	FindByExternalIDAndSource(ctx context.Context, ref model.Reference, externalID, source string) (*model.User, error)
	// FindByDomainAndEmail compares emails exactly when strict is set, ignoring
	// case otherwise.
	FindByDomainAndEmail(ctx context.Context, domain, email string, strict bool) ([]*model.User, error)
	FindByIDIn(ctx context.Context, ids []string) ([]*model.User, error)
	FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Count(ctx context.Context, ref model.Reference) (int, error)
	Create(ctx context.Context, user *model.User) (*model.User, error)
	Update(ctx context.Context, user *model.User) (*model.User, error)
	Delete(ctx context.Context, id string) error
	DeleteByReference(ctx context.Context, ref model.Reference) error
}

type userRepository struct {
	base         repository.Repository[model.User]
	roles        repository.ChildRepository[model.UserRole]
	entitlements repository.ChildRepository[model.UserEntitlement]
	emails       repository.ChildRepository[model.UserEmailRow]
}

func NewUserRepository(db *bun.DB) UserRepository {
	return &userRepository{
		base: repository.NewRepository[model.User](db),
		roles: repository.NewChildRepository("user_id",
			func(r *model.UserRole) string { return r.UserID }),
		entitlements: repository.NewChildRepository("user_id",
			func(r *model.UserEntitlement) string { return r.UserID }),
		emails: repository.NewChildRepository("user_id",
			func(r *model.UserEmailRow) string { return r.UserID }, "is_primary DESC", "email ASC"),
	}
}

func (r *userRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.User, error) {
	return r.find(ctx, "find users", ref.Predicate(), "reference", ref.String())
}

func (r *userRepository) FindAllPaged(ctx context.Context, ref model.Reference, page *types.PageRequest) (*types.Pagination[model.User], error) {
	return r.page(ctx, "find users", ref.Predicate(), page, "reference", ref.String())
}

func (r *userRepository) Search(ctx context.Context, ref model.Reference, query string, page *types.PageRequest) (*types.Pagination[model.User], error) {
	pred := types.And(ref.Predicate(), types.Or(
		types.Match("username", query),
		types.Match("email", query),
		types.Match("display_name", query),
		types.Match("first_name", query),
		types.Match("last_name", query),
	))
	return r.page(ctx, "search users", pred, page, "reference", ref.String(), "query", query)
}

func (r *userRepository) FindByUsernameAndSource(ctx context.Context, ref model.Reference, username, source string) (*model.User, error) {
	pred := types.And(ref.Predicate(), types.Eq("username", username), types.Eq("source", source))
	return r.findOne(ctx, "find user by username", pred, "reference", ref.String(), "username", username, "source", source)
}

func (r *userRepository) FindByExternalIDAndSource(ctx context.Context, ref model.Reference, externalID, source string) (*model.User, error) {
	pred := types.And(ref.Predicate(), types.Eq("external_id", externalID), types.Eq("source", source))
	return r.findOne(ctx, "find user by external id", pred, "reference", ref.String(), "external_id", externalID, "source", source)
}

func (r *userRepository) FindByDomainAndEmail(ctx context.Context, domain, email string, strict bool) ([]*model.User, error) {
	match := types.Eq("email", email)
	if !strict {
		match = types.Raw("LOWER(?) = ?", bun.Ident("email"), strings.ToLower(email))
	}
	pred := types.And(model.DomainRef(domain).Predicate(), match)
	return r.find(ctx, "find users by email", pred, "domain", domain, "email", email)
}

func (r *userRepository) FindByIDIn(ctx context.Context, ids []string) ([]*model.User, error) {
	return r.find(ctx, "find users by ids", types.In("id", ids), "ids", ids)
}

func (r *userRepository) FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.User, error) {
	return r.findOne(ctx, "find user", types.And(ref.Predicate(), types.Eq("id", id)), "reference", ref.String(), "id", id)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "find user", types.Eq("id", id), "id", id)
}

func (r *userRepository) Count(ctx context.Context, ref model.Reference) (int, error) {
	n, err := r.base.Count(ctx, ref.Predicate())
	if err != nil {
		return 0, repository.Fail("count users", err, "reference", ref.String())
	}
	return n, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	user.ID = repository.EnsureID(user.ID)
	stampCreate(&user.CreatedAt, &user.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, user); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, user)
	})
	if err != nil {
		return nil, repository.Fail("create user", err, "id", user.ID, "reference", user.Reference.String())
	}
	return r.FindByID(ctx, user.ID)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) (*model.User, error) {
	user.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, user); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update user", err, "id", user.ID, "reference", user.Reference.String())
	}
	return r.FindByID(ctx, user.ID)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return r.deleteAll(ctx, tx, []string{id})
	})
	return repository.Fail("delete user", err, "id", id)
}

func (r *userRepository) DeleteByReference(ctx context.Context, ref model.Reference) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		ids := make([]string, 0)
		err := repository.Where(tx.NewSelect().Model((*model.User)(nil)).Column("id"), ref.Predicate()).
			Scan(ctx, &ids)
		if err != nil {
			return err
		}
		return r.deleteAll(ctx, tx, ids)
	})
	return repository.Fail("delete users by reference", err, "reference", ref.String())
}

func (r *userRepository) deleteAll(ctx context.Context, tx bun.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.roles.DeleteByParents(ctx, tx, ids); err != nil {
		return err
	}
	if err := r.entitlements.DeleteByParents(ctx, tx, ids); err != nil {
		return err
	}
	if err := r.emails.DeleteByParents(ctx, tx, ids); err != nil {
		return err
	}
	_, err := r.base.DeleteWhereWithTx(ctx, tx, types.In("id", ids))
	return err
}

func (r *userRepository) writeChildren(ctx context.Context, tx bun.Tx, user *model.User) error {
	if err := r.roles.ReplaceChildren(ctx, tx, user.ID, user.RoleRows()); err != nil {
		return err
	}
	if err := r.entitlements.ReplaceChildren(ctx, tx, user.ID, user.EntitlementRows()); err != nil {
		return err
	}
	return r.emails.ReplaceChildren(ctx, tx, user.ID, user.EmailRows())
}

func (r *userRepository) page(ctx context.Context, op string, pred types.Predicate, page *types.PageRequest, kv ...interface{}) (*types.Pagination[model.User], error) {
	result, err := r.base.Page(ctx, pageOf(page).Where(pred).OrderBy("username ASC"))
	if err == nil {
		err = r.complete(ctx, result.Items...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return result, nil
}

func (r *userRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.User, error) {
	users, err := r.base.Find(ctx, pred, "username ASC")
	if err == nil {
		err = r.complete(ctx, users...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return users, nil
}

func (r *userRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.User, error) {
	user, err := r.base.FindOne(ctx, pred)
	if err == nil && user != nil {
		err = r.complete(ctx, user)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return user, nil
}

func (r *userRepository) complete(ctx context.Context, users ...*model.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := rowIDs(users, func(u *model.User) string { return u.ID })
	var (
		roles        map[string][]*model.UserRole
		entitlements map[string][]*model.UserEntitlement
		emails       map[string][]*model.UserEmailRow
	)
	g, gctx := errgroup.WithContext(ctx)
	loadChildren(gctx, g, r.base.DB(), r.roles, ids, &roles)
	loadChildren(gctx, g, r.base.DB(), r.entitlements, ids, &entitlements)
	loadChildren(gctx, g, r.base.DB(), r.emails, ids, &emails)
	if err := g.Wait(); err != nil {
		return err
	}
	for _, u := range users {
		u.SetRoles(roles[u.ID])
		u.SetEntitlements(entitlements[u.ID])
		u.SetEmails(emails[u.ID])
		u.Normalize()
	}
	return nil
}
