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

type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	FindByHrids(ctx context.Context, hrids []string) ([]*model.Organization, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, org *model.Organization) (*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) (*model.Organization, error)
	Delete(ctx context.Context, id string) error
}

type organizationRepository struct {
	base         repository.Repository[model.Organization]
	restrictions repository.ChildRepository[model.OrganizationDomainRestriction]
	hrids        repository.ChildRepository[model.OrganizationHrid]
}

func NewOrganizationRepository(db *bun.DB) OrganizationRepository {
	return &organizationRepository{
		base: repository.NewRepository[model.Organization](db),
		restrictions: repository.NewChildRepository("organization_id",
			func(r *model.OrganizationDomainRestriction) string { return r.OrganizationID }),
		hrids: repository.NewChildRepository("organization_id",
			func(r *model.OrganizationHrid) string { return r.OrganizationID }, "pos ASC"),
	}
}

func (r *organizationRepository) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	org, err := r.base.FindByID(ctx, id)
	if err != nil {
		return nil, repository.Fail("find organization", err, "id", id)
	}
	if org == nil {
		return nil, nil
	}
	if err := r.complete(ctx, org); err != nil {
		return nil, repository.Fail("find organization", err, "id", id)
	}
	return org, nil
}

func (r *organizationRepository) FindByHrids(ctx context.Context, hrids []string) ([]*model.Organization, error) {
	ids, err := r.hrids.ParentIDs(ctx, r.base.DB(), types.In("hrid", hrids))
	if err != nil {
		return nil, repository.Fail("find organizations by hrids", err, "hrids", hrids)
	}
	orgs, err := r.base.Find(ctx, types.In("id", ids))
	if err == nil {
		err = r.complete(ctx, orgs...)
	}
	if err != nil {
		return nil, repository.Fail("find organizations by hrids", err, "hrids", hrids)
	}
	return orgs, nil
}

func (r *organizationRepository) Count(ctx context.Context) (int, error) {
	n, err := r.base.Count(ctx, nil)
	if err != nil {
		return 0, repository.Fail("count organizations", err)
	}
	return n, nil
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	org.ID = repository.EnsureID(org.ID)
	stampCreate(&org.CreatedAt, &org.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, org); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, org)
	})
	if err != nil {
		return nil, repository.Fail("create organization", err, "id", org.ID)
	}
	return r.FindByID(ctx, org.ID)
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) (*model.Organization, error) {
	org.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, org); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, org)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update organization", err, "id", org.ID)
	}
	return r.FindByID(ctx, org.ID)
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.restrictions.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.hrids.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete organization", err, "id", id)
}

func (r *organizationRepository) writeChildren(ctx context.Context, tx bun.Tx, org *model.Organization) error {
	if err := r.restrictions.ReplaceChildren(ctx, tx, org.ID, org.DomainRestrictionRows()); err != nil {
		return err
	}
	return r.hrids.ReplaceChildren(ctx, tx, org.ID, org.HridRows())
}

func (r *organizationRepository) complete(ctx context.Context, orgs ...*model.Organization) error {
	if len(orgs) == 0 {
		return nil
	}
	ids := rowIDs(orgs, func(o *model.Organization) string { return o.ID })
	var (
		restrictions map[string][]*model.OrganizationDomainRestriction
		hrids        map[string][]*model.OrganizationHrid
	)
	g, gctx := errgroup.WithContext(ctx)
	loadChildren(gctx, g, r.base.DB(), r.restrictions, ids, &restrictions)
	loadChildren(gctx, g, r.base.DB(), r.hrids, ids, &hrids)
	if err := g.Wait(); err != nil {
		return err
	}
	for _, org := range orgs {
		org.SetDomainRestrictions(restrictions[org.ID])
		org.SetHrids(hrids[org.ID])
		org.Normalize()
	}
	return nil
}
