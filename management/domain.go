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

type DomainRepository interface {
	FindAll(ctx context.Context) ([]*model.Domain, error)
	FindAllByReference(ctx context.Context, ref model.Reference) ([]*model.Domain, error)
	FindByID(ctx context.Context, id string) (*model.Domain, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Domain, error)
	FindByHrid(ctx context.Context, ref model.Reference, hrid string) (*model.Domain, error)
	// Search matches query against the name and hrid of the domains of an
	// environment; '*' is a wildcard.
	Search(ctx context.Context, environmentID, query string) ([]*model.Domain, error)
	Create(ctx context.Context, domain *model.Domain) (*model.Domain, error)
	Update(ctx context.Context, domain *model.Domain) (*model.Domain, error)
	Delete(ctx context.Context, id string) error
}

type domainRepository struct {
	base       repository.Repository[model.Domain]
	identities repository.ChildRepository[model.DomainIdentity]
	tags       repository.ChildRepository[model.DomainTag]
	vhosts     repository.ChildRepository[model.DomainVhost]
}

func NewDomainRepository(db *bun.DB) DomainRepository {
	return &domainRepository{
		base: repository.NewRepository[model.Domain](db),
		identities: repository.NewChildRepository("domain_id",
			func(r *model.DomainIdentity) string { return r.DomainID }),
		tags: repository.NewChildRepository("domain_id",
			func(r *model.DomainTag) string { return r.DomainID }),
		vhosts: repository.NewChildRepository("domain_id",
			func(r *model.DomainVhost) string { return r.DomainID }, "host ASC", "path ASC"),
	}
}

func (r *domainRepository) FindAll(ctx context.Context) ([]*model.Domain, error) {
	return r.find(ctx, "find domains", nil)
}

func (r *domainRepository) FindAllByReference(ctx context.Context, ref model.Reference) ([]*model.Domain, error) {
	return r.find(ctx, "find domains by reference", ref.Predicate(), "reference", ref.String())
}

func (r *domainRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Domain, error) {
	return r.find(ctx, "find domains by ids", types.In("id", ids), "ids", ids)
}

func (r *domainRepository) Search(ctx context.Context, environmentID, query string) ([]*model.Domain, error) {
	pred := types.And(
		model.EnvironmentRef(environmentID).Predicate(),
		types.Or(types.Match("name", query), types.Match("hrid", query)),
	)
	return r.find(ctx, "search domains", pred, "environment", environmentID, "query", query)
}

func (r *domainRepository) FindByID(ctx context.Context, id string) (*model.Domain, error) {
	return r.findOne(ctx, "find domain", types.Eq("id", id), "id", id)
}

func (r *domainRepository) FindByHrid(ctx context.Context, ref model.Reference, hrid string) (*model.Domain, error) {
	return r.findOne(ctx, "find domain by hrid", types.And(ref.Predicate(), types.Eq("hrid", hrid)),
		"reference", ref.String(), "hrid", hrid)
}

func (r *domainRepository) Create(ctx context.Context, domain *model.Domain) (*model.Domain, error) {
	domain.ID = repository.EnsureID(domain.ID)
	stampCreate(&domain.CreatedAt, &domain.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, domain); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, domain)
	})
	if err != nil {
		return nil, repository.Fail("create domain", err, "id", domain.ID)
	}
	return r.FindByID(ctx, domain.ID)
}

func (r *domainRepository) Update(ctx context.Context, domain *model.Domain) (*model.Domain, error) {
	domain.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, domain); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, domain)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update domain", err, "id", domain.ID)
	}
	return r.FindByID(ctx, domain.ID)
}

func (r *domainRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.identities.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.tags.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.vhosts.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete domain", err, "id", id)
}

func (r *domainRepository) writeChildren(ctx context.Context, tx bun.Tx, domain *model.Domain) error {
	if err := r.identities.ReplaceChildren(ctx, tx, domain.ID, domain.IdentityRows()); err != nil {
		return err
	}
	if err := r.tags.ReplaceChildren(ctx, tx, domain.ID, domain.TagRows()); err != nil {
		return err
	}
	return r.vhosts.ReplaceChildren(ctx, tx, domain.ID, domain.VhostRows())
}

func (r *domainRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.Domain, error) {
	domains, err := r.base.Find(ctx, pred, "name ASC")
	if err == nil {
		err = r.complete(ctx, domains...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return domains, nil
}

func (r *domainRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.Domain, error) {
	domain, err := r.base.FindOne(ctx, pred)
	if err == nil && domain != nil {
		err = r.complete(ctx, domain)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return domain, nil
}

func (r *domainRepository) complete(ctx context.Context, domains ...*model.Domain) error {
	if len(domains) == 0 {
		return nil
	}
	ids := rowIDs(domains, func(d *model.Domain) string { return d.ID })
	var (
		identities map[string][]*model.DomainIdentity
		tags       map[string][]*model.DomainTag
		vhosts     map[string][]*model.DomainVhost
	)
	g, gctx := errgroup.WithContext(ctx)
	loadChildren(gctx, g, r.base.DB(), r.identities, ids, &identities)
	loadChildren(gctx, g, r.base.DB(), r.tags, ids, &tags)
	loadChildren(gctx, g, r.base.DB(), r.vhosts, ids, &vhosts)
	if err := g.Wait(); err != nil {
		return err
	}
	for _, d := range domains {
		d.SetIdentities(identities[d.ID])
		d.SetTags(tags[d.ID])
		d.SetVhosts(vhosts[d.ID])
		d.Normalize()
	}
	return nil
}
