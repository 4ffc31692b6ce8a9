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

type AlertTriggerRepository interface {
	FindByID(ctx context.Context, id string) (*model.AlertTrigger, error)
	FindAll(ctx context.Context, ref model.Reference) ([]*model.AlertTrigger, error)
	FindByCriteria(ctx context.Context, ref model.Reference, criteria model.AlertTriggerCriteria) ([]*model.AlertTrigger, error)
	Create(ctx context.Context, trigger *model.AlertTrigger) (*model.AlertTrigger, error)
	Update(ctx context.Context, trigger *model.AlertTrigger) (*model.AlertTrigger, error)
	Delete(ctx context.Context, id string) error
}

type alertTriggerRepository struct {
	base      repository.Repository[model.AlertTrigger]
	notifiers repository.ChildRepository[model.AlertTriggerNotifier]
}

func NewAlertTriggerRepository(db *bun.DB) AlertTriggerRepository {
	return &alertTriggerRepository{
		base: repository.NewRepository[model.AlertTrigger](db),
		notifiers: repository.NewChildRepository("alert_trigger_id",
			func(r *model.AlertTriggerNotifier) string { return r.AlertTriggerID }, "alert_notifier_id ASC"),
	}
}

func (r *alertTriggerRepository) FindByID(ctx context.Context, id string) (*model.AlertTrigger, error) {
	trigger, err := r.base.FindByID(ctx, id)
	if err == nil && trigger != nil {
		err = r.complete(ctx, trigger)
	}
	if err != nil {
		return nil, repository.Fail("find alert trigger", err, "id", id)
	}
	return trigger, nil
}

func (r *alertTriggerRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.AlertTrigger, error) {
	return r.find(ctx, "find alert triggers", ref.Predicate(), "reference", ref.String())
}

// FindByCriteria always narrows the criteria to ref.
func (r *alertTriggerRepository) FindByCriteria(ctx context.Context, ref model.Reference, criteria model.AlertTriggerCriteria) ([]*model.AlertTrigger, error) {
	return r.find(ctx, "find alert triggers by criteria", types.And(ref.Predicate(), criteria.Predicate()),
		"reference", ref.String())
}

func (r *alertTriggerRepository) Create(ctx context.Context, trigger *model.AlertTrigger) (*model.AlertTrigger, error) {
	trigger.ID = repository.EnsureID(trigger.ID)
	stampCreate(&trigger.CreatedAt, &trigger.UpdatedAt)
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.CreateWithTx(ctx, tx, trigger); err != nil {
			return err
		}
		return r.notifiers.ReplaceChildren(ctx, tx, trigger.ID, trigger.NotifierRows())
	})
	if err != nil {
		return nil, repository.Fail("create alert trigger", err, "id", trigger.ID)
	}
	return r.FindByID(ctx, trigger.ID)
}

func (r *alertTriggerRepository) Update(ctx context.Context, trigger *model.AlertTrigger) (*model.AlertTrigger, error) {
	trigger.UpdatedAt = repository.Now()
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.base.UpdateWithTx(ctx, tx, trigger); err != nil {
			return err
		}
		return r.notifiers.ReplaceChildren(ctx, tx, trigger.ID, trigger.NotifierRows())
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update alert trigger", err, "id", trigger.ID)
	}
	return r.FindByID(ctx, trigger.ID)
}

func (r *alertTriggerRepository) Delete(ctx context.Context, id string) error {
	err := r.base.RunInTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := r.notifiers.DeleteByParent(ctx, tx, id); err != nil {
			return err
		}
		return r.base.DeleteWithTx(ctx, tx, id)
	})
	return repository.Fail("delete alert trigger", err, "id", id)
}

func (r *alertTriggerRepository) find(ctx context.Context, op string, pred types.Predicate, kv ...interface{}) ([]*model.AlertTrigger, error) {
	triggers, err := r.base.Find(ctx, pred, "type ASC")
	if err == nil {
		err = r.complete(ctx, triggers...)
	}
	if err != nil {
		return nil, repository.Fail(op, err, kv...)
	}
	return triggers, nil
}

func (r *alertTriggerRepository) complete(ctx context.Context, triggers ...*model.AlertTrigger) error {
	if len(triggers) == 0 {
		return nil
	}
	notifiers, err := r.notifiers.GroupByParent(ctx, r.base.DB(), rowIDs(triggers, func(t *model.AlertTrigger) string { return t.ID }))
	if err != nil {
		return err
	}
	for _, t := range triggers {
		t.SetAlertNotifiers(notifiers[t.ID])
		t.Normalize()
	}
	return nil
}

type AlertNotifierRepository interface {
	FindByID(ctx context.Context, id string) (*model.AlertNotifier, error)
	FindAll(ctx context.Context, ref model.Reference) ([]*model.AlertNotifier, error)
	FindByCriteria(ctx context.Context, ref model.Reference, criteria model.AlertNotifierCriteria) ([]*model.AlertNotifier, error)
	Create(ctx context.Context, notifier *model.AlertNotifier) (*model.AlertNotifier, error)
	Update(ctx context.Context, notifier *model.AlertNotifier) (*model.AlertNotifier, error)
	Delete(ctx context.Context, id string) error
}

type alertNotifierRepository struct {
	base repository.Repository[model.AlertNotifier]
}

func NewAlertNotifierRepository(db *bun.DB) AlertNotifierRepository {
	return &alertNotifierRepository{base: repository.NewRepository[model.AlertNotifier](db)}
}

func (r *alertNotifierRepository) FindByID(ctx context.Context, id string) (*model.AlertNotifier, error) {
	notifier, err := r.base.FindByID(ctx, id)
	return notifier, repository.Fail("find alert notifier", err, "id", id)
}

func (r *alertNotifierRepository) FindAll(ctx context.Context, ref model.Reference) ([]*model.AlertNotifier, error) {
	notifiers, err := r.base.Find(ctx, ref.Predicate(), "name ASC")
	return notifiers, repository.Fail("find alert notifiers", err, "reference", ref.String())
}

// FindByCriteria always narrows the criteria to ref.
func (r *alertNotifierRepository) FindByCriteria(ctx context.Context, ref model.Reference, criteria model.AlertNotifierCriteria) ([]*model.AlertNotifier, error) {
	notifiers, err := r.base.Find(ctx, types.And(ref.Predicate(), criteria.Predicate()), "name ASC")
	return notifiers, repository.Fail("find alert notifiers by criteria", err, "reference", ref.String())
}

func (r *alertNotifierRepository) Create(ctx context.Context, notifier *model.AlertNotifier) (*model.AlertNotifier, error) {
	notifier.ID = repository.EnsureID(notifier.ID)
	stampCreate(&notifier.CreatedAt, &notifier.UpdatedAt)
	if err := r.base.Create(ctx, notifier); err != nil {
		return nil, repository.Fail("create alert notifier", err, "id", notifier.ID)
	}
	return r.FindByID(ctx, notifier.ID)
}

func (r *alertNotifierRepository) Update(ctx context.Context, notifier *model.AlertNotifier) (*model.AlertNotifier, error) {
	notifier.UpdatedAt = repository.Now()
	if err := r.base.Update(ctx, notifier); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update alert notifier", err, "id", notifier.ID)
	}
	return r.FindByID(ctx, notifier.ID)
}

func (r *alertNotifierRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete alert notifier", r.base.Delete(ctx, id), "id", id)
}
