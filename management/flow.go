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

type FlowRepository interface {
	FindAll(ctx context.Context, ref model.Reference) ([]*model.Flow, error)
	FindByApplication(ctx context.Context, ref model.Reference, application string) ([]*model.Flow, error)
	FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Flow, error)
	FindByID(ctx context.Context, id string) (*model.Flow, error)
	Create(ctx context.Context, flow *model.Flow) (*model.Flow, error)
	Update(ctx context.Context, flow *model.Flow) (*model.Flow, error)
	Delete(ctx context.Context, id string) error
}

type flowRepository struct {
	base  repository.Repository[model.Flow]
	steps repository.ChildRepository[model.FlowStep]
}

func NewFlowRepository(db *bun.DB) FlowRepository {
	return &flowRepository{
		base: repository.NewRepository[model.Flow](db),
		steps: repository.NewChildRepository("flow_id",
			func(r *model.FlowStep) string { return r.FlowID }, "stage ASC", "stage_order ASC"),
	}
}

func (r *flowRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.Flow, error) {
	return r.find(ctx, "find flows", ref.Predicate(), "reference", ref.String())
}

func (r *flowRepository) FindByApplication(ctx context.Context, ref model.Reference, application string) ([]*model.Flow, error) {
	pred := types.And(ref.Predicate(), types.Eq("application", application))
	return r.find(ctx, "find flows by application", pred, "reference", ref.String(), "application", application)
}

func (r *flowRepository) FindByReferenceAndID(ctx context.Context, ref model.Reference, id string) (*model.Flow, error) {
	return r.findOne(ctx, "find flow", types.And(ref.Predicate(), types.Eq("id", id)), "reference", ref.String(), "id", id)
}

func (r *flowRepository) FindByID(ctx context.Context, id string) (*model.Flow, error) {
	return r.findOne(ctx, "find flow", types.Eq("id", id), "id", id)
}

func (r *flowRepository) Create(ctx context.Context, flow *model.Flow) (*model.Flow, error) {
	flow.ID = repository.EnsureID(flow.ID)
	stampCreate(&flow.CreatedAt, &flow.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, flow); err != nil {
			return err
		}
		return r.steps.ReplaceChildren(ctx, tx, flow.ID, flow.StepRows())
	})
	if err != nil {
		return nil, repository.Fail("create flow", err, "id", flow.ID)
	}
	return r.FindByID(ctx, flow.ID)
}

func (r *flowRepository) Update(ctx context.Context, flow *model.Flow) (*model.Flow, error) {
	flow.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, flow); err != nil {
			return err
		}
		return r.steps.ReplaceChildren(ctx, tx, flow.ID, flow.StepRows())
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update flow", err, "id", flow.ID)
	}
	return r.FindByID(ctx, flow.ID)
}

func (r *flowRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.steps.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete flow", err, "id", id)
}

func (r *flowRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.Flow, error) {
	flows, err := r.base.Find(ctx, pred, "flow_order ASC", "name ASC")
	if err == nil {
		err = r.complete(ctx, flows...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return flows, nil
}

func (r *flowRepository) findOne(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) (*model.Flow, error) {
	flow, err := r.base.FindOne(ctx, pred)
	if err == nil && flow != nil {
		err = r.complete(ctx, flow)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return flow, nil
}

func (r *flowRepository) complete(ctx context.Context, flows ...*model.Flow) error {
	if len(flows) == 0 {
		return nil
	}
	steps, err := r.steps.GroupByParent(ctx, r.base.DB(), rowIDs(flows, func(f *model.Flow) string { return f.ID }))
	if err != nil {
		return err
	}
	for _, f := range flows {
		f.SetSteps(steps[f.ID])
		f.Normalize()
	}
	return nil
}
