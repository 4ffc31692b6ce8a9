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
	"github.com/uptrace/bun"
)

type InstallationRepository interface {
	// Find returns the installation row, or nil when the platform is not
	// installed yet.
	Find(ctx context.Context) (*model.Installation, error)
	FindByID(ctx context.Context, id string) (*model.Installation, error)
	Create(ctx context.Context, inst *model.Installation) (*model.Installation, error)
	Update(ctx context.Context, inst *model.Installation) (*model.Installation, error)
	// Save inserts the installation or overwrites the row with the same id.
	Save(ctx context.Context, inst *model.Installation) (*model.Installation, error)
	Delete(ctx context.Context, id string) error
}

type installationRepository struct {
	base repository.Repository[model.Installation]
}

func NewInstallationRepository(db *bun.DB) InstallationRepository {
	return &installationRepository{base: repository.NewRepository[model.Installation](db)}
}

func (r *installationRepository) Find(ctx context.Context) (*model.Installation, error) {
	rows, err := r.base.FindAll(ctx, "created_at ASC")
	if err != nil {
		return nil, repository.Fail("find installation", err)
	}
	inst := first(rows)
	if inst != nil {
		inst.Normalize()
	}
	return inst, nil
}

func (r *installationRepository) FindByID(ctx context.Context, id string) (*model.Installation, error) {
	inst, err := r.base.FindByID(ctx, id)
	if err != nil {
		return nil, repository.Fail("find installation", err, "id", id)
	}
	if inst != nil {
		inst.Normalize()
	}
	return inst, nil
}

func (r *installationRepository) Create(ctx context.Context, inst *model.Installation) (*model.Installation, error) {
	inst.ID = repository.EnsureID(inst.ID)
	stampCreate(&inst.CreatedAt, &inst.UpdatedAt)
	if err := r.base.Create(ctx, inst); err != nil {
		return nil, repository.Fail("create installation", err, "id", inst.ID)
	}
	return r.FindByID(ctx, inst.ID)
}

func (r *installationRepository) Update(ctx context.Context, inst *model.Installation) (*model.Installation, error) {
	inst.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, inst); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update installation", err, "id", inst.ID)
	}
	return r.FindByID(ctx, inst.ID)
}

func (r *installationRepository) Save(ctx context.Context, inst *model.Installation) (*model.Installation, error) {
	inst.ID = repository.EnsureID(inst.ID)
	now := repository.Now()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	err := r.base.Upsert(ctx, []string{"additional_information", "updated_at"}, []string{"id"}, inst)
	if err != nil {
		return nil, repository.Fail("save installation", err, "id", inst.ID)
	}
	return r.FindByID(ctx, inst.ID)
}

func (r *installationRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete installation", r.base.Delete(ctx, id), "id", id)
}
