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

type SystemTaskRepository interface {
	FindByID(ctx context.Context, id string) (*model.SystemTask, error)
	Create(ctx context.Context, task *model.SystemTask) (*model.SystemTask, error)
	Update(ctx context.Context, task *model.SystemTask) (*model.SystemTask, error)
	// UpdateIf writes task only while the stored operation id still equals
	// expectedOperationID, then returns the stored row. Callers compare its
	// OperationID to learn whether they won.
	UpdateIf(ctx context.Context, task *model.SystemTask, expectedOperationID string) (*model.SystemTask, error)
	Delete(ctx context.Context, id string) error
}

type systemTaskRepository struct {
	base repository.Repository[model.SystemTask]
}

func NewSystemTaskRepository(db *bun.DB) SystemTaskRepository {
	return &systemTaskRepository{base: repository.NewRepository[model.SystemTask](db)}
}

func (r *systemTaskRepository) FindByID(ctx context.Context, id string) (*model.SystemTask, error) {
	task, err := r.base.FindByID(ctx, id)
	return task, repository.Fail("find system task", err, "id", id)
}

func (r *systemTaskRepository) Create(ctx context.Context, task *model.SystemTask) (*model.SystemTask, error) {
	task.ID = repository.EnsureID(task.ID)
	stampCreate(&task.CreatedAt, &task.UpdatedAt)
	if err := r.base.Create(ctx, task); err != nil {
		return nil, repository.Fail("create system task", err, "id", task.ID)
	}
	return r.FindByID(ctx, task.ID)
}

func (r *systemTaskRepository) Update(ctx context.Context, task *model.SystemTask) (*model.SystemTask, error) {
	task.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update system task", err, "id", task.ID)
	}
	return r.FindByID(ctx, task.ID)
}

func (r *systemTaskRepository) UpdateIf(ctx context.Context, task *model.SystemTask, expectedOperationID string) (*model.SystemTask, error) {
	task.UpdatedAt = repository.Now()
	_, err := r.base.NewUpdate().
		Model(task).
		Column("type", "status", "operation_id", "updated_at").
		Where("? = ?", bun.Ident("id"), task.ID).
		Where("? = ?", bun.Ident("operation_id"), expectedOperationID).
		Exec(ctx)
	if err != nil {
		return nil, repository.Fail("update system task", err, "id", task.ID, "expected_operation_id", expectedOperationID)
	}
	return r.FindByID(ctx, task.ID)
}

func (r *systemTaskRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete system task", r.base.Delete(ctx, id), "id", id)
}
