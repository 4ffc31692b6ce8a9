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

type ApplicationRepository interface {
	FindAll(ctx context.Context, page *types.PageRequest) (*types.Pagination[model.Application], error)
	FindByDomain(ctx context.Context, domain string, page *types.PageRequest) (*types.Pagination[model.Application], error)
	Search(ctx context.Context, domain, query string, page *types.PageRequest) (*types.Pagination[model.Application], error)
	FindByCertificate(ctx context.Context, certificate string) ([]*model.Application, error)
	FindByIdentityProvider(ctx context.Context, identity string) ([]*model.Application, error)
	FindByFactor(ctx context.Context, factor string) ([]*model.Application, error)
	FindByDomainAndExtensionGrant(ctx context.Context, domain, grant string) ([]*model.Application, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.Application, error)
	Count(ctx context.Context) (int, error)
	CountByDomain(ctx context.Context, domain string) (int, error)
	FindByID(ctx context.Context, id string) (*model.Application, error)
	FindByDomainAndID(ctx context.Context, domain, id string) (*model.Application, error)
	Create(ctx context.Context, app *model.Application) (*model.Application, error)
	Update(ctx context.Context, app *model.Application) (*model.Application, error)
	Delete(ctx context.Context, id string) error
}

type applicationRepository struct {
	base          repository.Repository[model.Application]
	identities    repository.ChildRepository[model.ApplicationIdentity]
	factors       repository.ChildRepository[model.ApplicationFactor]
	grants        repository.ChildRepository[model.ApplicationGrant]
	scopeSettings repository.ChildRepository[model.ApplicationScopeSetting]
}

func NewApplicationRepository(db *bun.DB) ApplicationRepository {
	return &applicationRepository{
		base: repository.NewRepository[model.Application](db),
		identities: repository.NewChildRepository("application_id",
			func(r *model.ApplicationIdentity) string { return r.ApplicationID }),
		factors: repository.NewChildRepository("application_id",
			func(r *model.ApplicationFactor) string { return r.ApplicationID }),
		grants: repository.NewChildRepository("application_id",
			func(r *model.ApplicationGrant) string { return r.ApplicationID }),
		scopeSettings: repository.NewChildRepository("application_id",
			func(r *model.ApplicationScopeSetting) string { return r.ApplicationID }, "scope ASC"),
	}
}

func (r *applicationRepository) FindAll(ctx context.Context, page *types.PageRequest) (*types.Pagination[model.Application], error) {
	return r.page(ctx, "find applications", nil, page)
}

func (r *applicationRepository) FindByDomain(ctx context.Context, domain string, page *types.PageRequest) (*types.Pagination[model.Application], error) {
	return r.page(ctx, "find applications by domain", types.Eq("domain", domain), page, "domain", domain)
}

func (r *applicationRepository) Search(ctx context.Context, domain, query string, page *types.PageRequest) (*types.Pagination[model.Application], error) {
	pred := types.And(types.Eq("domain", domain), types.Match("name", query))
	return r.page(ctx, "search applications", pred, page, "domain", domain, "query", query)
}

func (r *applicationRepository) FindByCertificate(ctx context.Context, certificate string) ([]*model.Application, error) {
	return r.find(ctx, "find applications by certificate", types.Eq("certificate", certificate), "certificate", certificate)
}

func (r *applicationRepository) FindByIdentityProvider(ctx context.Context, identity string) ([]*model.Application, error) {
	ids, err := r.identities.ParentIDs(ctx, r.base.DB(), types.Eq("identity", identity))
	if err != nil {
		return nil, repository.Fail("find applications by identity provider", err, "identity", identity)
	}
	return r.find(ctx, "find applications by identity provider", types.In("id", ids), "identity", identity)
}

func (r *applicationRepository) FindByFactor(ctx context.Context, factor string) ([]*model.Application, error) {
	ids, err := r.factors.ParentIDs(ctx, r.base.DB(), types.Eq("factor", factor))
	if err != nil {
		return nil, repository.Fail("find applications by factor", err, "factor", factor)
	}
	return r.find(ctx, "find applications by factor", types.In("id", ids), "factor", factor)
}

func (r *applicationRepository) FindByDomainAndExtensionGrant(ctx context.Context, domain, grant string) ([]*model.Application, error) {
	ids, err := r.grants.ParentIDs(ctx, r.base.DB(), types.Eq("grant_type", grant))
	if err != nil {
		return nil, repository.Fail("find applications by extension grant", err, "domain", domain, "grant", grant)
	}
	pred := types.And(types.Eq("domain", domain), types.In("id", ids))
	return r.find(ctx, "find applications by extension grant", pred, "domain", domain, "grant", grant)
}

func (r *applicationRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.Application, error) {
	return r.find(ctx, "find applications by ids", types.In("id", ids), "ids", ids)
}

func (r *applicationRepository) Count(ctx context.Context) (int, error) {
	n, err := r.base.Count(ctx, nil)
	if err != nil {
		return 0, repository.Fail("count applications", err)
	}
	return n, nil
}

func (r *applicationRepository) CountByDomain(ctx context.Context, domain string) (int, error) {
	n, err := r.base.Count(ctx, types.Eq("domain", domain))
	if err != nil {
		return 0, repository.Fail("count applications by domain", err, "domain", domain)
	}
	return n, nil
}

func (r *applicationRepository) FindByID(ctx context.Context, id string) (*model.Application, error) {
	return r.findOne(ctx, "find application", types.Eq("id", id), "id", id)
}

func (r *applicationRepository) FindByDomainAndID(ctx context.Context, domain, id string) (*model.Application, error) {
	return r.findOne(ctx, "find application by domain", types.And(types.Eq("domain", domain), types.Eq("id", id)),
		"domain", domain, "id", id)
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) (*model.Application, error) {
	app.ID = repository.EnsureID(app.ID)
	stampCreate(&app.CreatedAt, &app.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, app); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, app)
	})
	if err != nil {
		return nil, repository.Fail("create application", err, "id", app.ID, "domain", app.Domain)
	}
	return r.FindByID(ctx, app.ID)
}

func (r *applicationRepository) Update(ctx context.Context, app *model.Application) (*model.Application, error) {
	app.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, app); err != nil {
			return err
		}
		return r.writeChildren(ctx, tx, app)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update application", err, "id", app.ID, "domain", app.Domain)
	}
	return r.FindByID(ctx, app.ID)
}

func (r *applicationRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.identities.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.factors.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.grants.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		if err := r.scopeSettings.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete application", err, "id", id)
}

func (r *applicationRepository) writeChildren(ctx context.Context, tx bun.Tx, app *model.Application) error {
	if err := r.identities.ReplaceChildren(ctx, tx, app.ID, app.IdentityRows()); err != nil {
		return err
	}
	if err := r.factors.ReplaceChildren(ctx, tx, app.ID, app.FactorRows()); err != nil {
		return err
	}
	if err := r.grants.ReplaceChildren(ctx, tx, app.ID, app.GrantRows()); err != nil {
		return err
	}
	return r.scopeSettings.ReplaceChildren(ctx, tx, app.ID, app.ScopeSettingRows())
}

func (r *applicationRepository) page(ctx context.Context, op string, pred types.Predicate, page *types.PageRequest, kv ...interface{}) (*types.Pagination[model.Application], error) {
	result, err := r.base.Page(ctx, pageOf(page).Where(pred).OrderBy("updated_at DESC"))
	if err == nil {
		err = r.complete(ctx, result.Items...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return result, nil
}

func (r *applicationRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.Application, error) {
	apps, err := r.base.Find(ctx, pred, "name ASC")
	if err == nil {
		err = r.complete(ctx, apps...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return apps, nil
}

func (r *applicationRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.Application, error) {
	app, err := r.base.FindOne(ctx, pred)
	if err == nil && app != nil {
		err = r.complete(ctx, app)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return app, nil
}

func (r *applicationRepository) complete(ctx context.Context, apps ...*model.Application) error {
	if len(apps) == 0 {
		return nil
	}
	ids := rowIDs(apps, func(a *model.Application) string { return a.ID })
	var (
		identities    map[string][]*model.ApplicationIdentity
		factors       map[string][]*model.ApplicationFactor
		grants        map[string][]*model.ApplicationGrant
		scopeSettings map[string][]*model.ApplicationScopeSetting
	)
	g, gctx := errgroup.WithContext(ctx)
	loadChildren(gctx, g, r.base.DB(), r.identities, ids, &identities)
	loadChildren(gctx, g, r.base.DB(), r.factors, ids, &factors)
	loadChildren(gctx, g, r.base.DB(), r.grants, ids, &grants)
	loadChildren(gctx, g, r.base.DB(), r.scopeSettings, ids, &scopeSettings)
	if err := g.Wait(); err != nil {
		return err
	}
	for _, a := range apps {
		a.SetIdentities(identities[a.ID])
		a.SetFactors(factors[a.ID])
		a.SetGrants(grants[a.ID])
		a.SetScopeSettings(scopeSettings[a.ID])
		a.Normalize()
	}
	return nil
}
