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

package gateway

import (
	"context"
	"errors"

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type PermissionTicketRepository interface {
	Purger
	// FindByID returns nil once the ticket has expired.
	FindByID(ctx context.Context, id string) (*model.PermissionTicket, error)
	Create(ctx context.Context, ticket *model.PermissionTicket) (*model.PermissionTicket, error)
	Update(ctx context.Context, ticket *model.PermissionTicket) (*model.PermissionTicket, error)
	Delete(ctx context.Context, id string) error
}

type permissionTicketRepository struct {
	base repository.Repository[model.PermissionTicket]
}

func NewPermissionTicketRepository(db *bun.DB) PermissionTicketRepository {
	return &permissionTicketRepository{base: repository.NewRepository[model.PermissionTicket](db)}
}

func (r *permissionTicketRepository) FindByID(ctx context.Context, id string) (*model.PermissionTicket, error) {
	ticket, err := r.base.FindOne(ctx, types.And(types.Eq("id", id), notExpired(repository.Now())))
	if err != nil {
		return nil, repository.Fail("find permission ticket", err, "id", id)
	}
	if ticket != nil {
		ticket.Normalize()
	}
	return ticket, nil
}

func (r *permissionTicketRepository) Create(ctx context.Context, ticket *model.PermissionTicket) (*model.PermissionTicket, error) {
	ticket.ID = repository.EnsureID(ticket.ID)
	stamp(&ticket.CreatedAt, nil)
	if err := r.base.Create(ctx, ticket); err != nil {
		return nil, repository.Fail("create permission ticket", err, "id", ticket.ID, "domain", ticket.Domain)
	}
	return r.FindByID(ctx, ticket.ID)
}

func (r *permissionTicketRepository) Update(ctx context.Context, ticket *model.PermissionTicket) (*model.PermissionTicket, error) {
	if err := r.base.Update(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update permission ticket", err, "id", ticket.ID, "domain", ticket.Domain)
	}
	return r.FindByID(ctx, ticket.ID)
}

func (r *permissionTicketRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete permission ticket", r.base.Delete(ctx, id), "id", id)
}

func (r *permissionTicketRepository) PurgeExpiredData(ctx context.Context) (int64, error) {
	return purgeExpired(ctx, r.base, "uma_permission_ticket")
}
