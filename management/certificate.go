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

type CertificateRepository interface {
	FindAll(ctx context.Context) ([]*model.Certificate, error)
	FindByDomain(ctx context.Context, domain string) ([]*model.Certificate, error)
	FindByID(ctx context.Context, id string) (*model.Certificate, error)
	Create(ctx context.Context, cert *model.Certificate) (*model.Certificate, error)
	Update(ctx context.Context, cert *model.Certificate) (*model.Certificate, error)
	Delete(ctx context.Context, id string) error
}

type certificateRepository struct {
	base repository.Repository[model.Certificate]
}

func NewCertificateRepository(db *bun.DB) CertificateRepository {
	return &certificateRepository{base: repository.NewRepository[model.Certificate](db)}
}

func (r *certificateRepository) FindAll(ctx context.Context) ([]*model.Certificate, error) {
	certs, err := r.base.FindAll(ctx, "name ASC")
	if err != nil {
		return nil, repository.Fail("find certificates", err)
	}
	return normalizeCertificates(certs), nil
}

func (r *certificateRepository) FindByDomain(ctx context.Context, domain string) ([]*model.Certificate, error) {
	certs, err := r.base.Find(ctx, types.Eq("domain", domain), "name ASC")
	if err != nil {
		return nil, repository.Fail("find certificates by domain", err, "domain", domain)
	}
	return normalizeCertificates(certs), nil
}

func (r *certificateRepository) FindByID(ctx context.Context, id string) (*model.Certificate, error) {
	cert, err := r.base.FindByID(ctx, id)
	if err != nil {
		return nil, repository.Fail("find certificate", err, "id", id)
	}
	if cert != nil {
		cert.Normalize()
	}
	return cert, nil
}

func (r *certificateRepository) Create(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	cert.ID = repository.EnsureID(cert.ID)
	stampCreate(&cert.CreatedAt, &cert.UpdatedAt)
	if err := r.base.Create(ctx, cert); err != nil {
		return nil, repository.Fail("create certificate", err, "id", cert.ID, "domain", cert.Domain)
	}
	return r.FindByID(ctx, cert.ID)
}

func (r *certificateRepository) Update(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	cert.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, cert); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update certificate", err, "id", cert.ID, "domain", cert.Domain)
	}
	return r.FindByID(ctx, cert.ID)
}

func (r *certificateRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete certificate", r.base.Delete(ctx, id), "id", id)
}

func normalizeCertificates(certs []*model.Certificate) []*model.Certificate {
	for _, c := range certs {
		c.Normalize()
	}
	return certs
}
