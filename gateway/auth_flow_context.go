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

	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

// AuthenticationFlowContextRepository stores one row per version of an
// authentication transaction.
type AuthenticationFlowContextRepository interface {
	Purger
	FindByID(ctx context.Context, id string) (*model.AuthenticationFlowContext, error)
	// FindLastByTransactionID returns the highest unexpired version.
	FindLastByTransactionID(ctx context.Context, transactionID string) (*model.AuthenticationFlowContext, error)
	// FindByTransactionID returns the unexpired versions, newest first.
	FindByTransactionID(ctx context.Context, transactionID string) ([]*model.AuthenticationFlowContext, error)
	// Create stores the context under the id "transactionID-version".
	Create(ctx context.Context, flowCtx *model.AuthenticationFlowContext) (*model.AuthenticationFlowContext, error)
	// Delete removes every version of the transaction.
	Delete(ctx context.Context, transactionID string) error
	DeleteVersion(ctx context.Context, transactionID string, version int) error
}

type authFlowContextRepository struct {
	base repository.Repository[model.AuthenticationFlowContext]
}

func NewAuthenticationFlowContextRepository(db *bun.DB) AuthenticationFlowContextRepository {
	return &authFlowContextRepository{base: repository.NewRepository[model.AuthenticationFlowContext](db)}
}

func (r *authFlowContextRepository) FindByID(ctx context.Context, id string) (*model.AuthenticationFlowContext, error) {
	flowCtx, err := r.base.FindOne(ctx, types.And(types.Eq("id", id), notExpired(repository.Now())))
	if err != nil {
		return nil, repository.Fail("find auth flow context", err, "id", id)
	}
	if flowCtx != nil {
		flowCtx.Normalize()
	}
	return flowCtx, nil
}

func (r *authFlowContextRepository) FindLastByTransactionID(ctx context.Context, transactionID string) (*model.AuthenticationFlowContext, error) {
	versions, err := r.FindByTransactionID(ctx, transactionID)
	if err != nil || len(versions) == 0 {
		return nil, err
	}
	return versions[0], nil
}

func (r *authFlowContextRepository) FindByTransactionID(ctx context.Context, transactionID string) ([]*model.AuthenticationFlowContext, error) {
	pred := types.And(types.Eq("transaction_id", transactionID), notExpired(repository.Now()))
	versions, err := r.base.Find(ctx, pred, "version DESC")
	if err != nil {
		return nil, repository.Fail("find auth flow contexts", err, "transaction_id", transactionID)
	}
	for _, v := range versions {
		v.Normalize()
	}
	return versions, nil
}

func (r *authFlowContextRepository) Create(ctx context.Context, flowCtx *model.AuthenticationFlowContext) (*model.AuthenticationFlowContext, error) {
	flowCtx.ID = model.AuthFlowContextID(flowCtx.TransactionID, flowCtx.Version)
	stamp(&flowCtx.CreatedAt, nil)
	if err := r.base.Create(ctx, flowCtx); err != nil {
		return nil, repository.Fail("create auth flow context", err, "id", flowCtx.ID)
	}
	return r.FindByID(ctx, flowCtx.ID)
}

func (r *authFlowContextRepository) Delete(ctx context.Context, transactionID string) error {
	_, err := r.base.DeleteWhere(ctx, types.Eq("transaction_id", transactionID))
	return repository.Fail("delete auth flow contexts", err, "transaction_id", transactionID)
}

func (r *authFlowContextRepository) DeleteVersion(ctx context.Context, transactionID string, version int) error {
	id := model.AuthFlowContextID(transactionID, version)
	return repository.Fail("delete auth flow context", r.base.Delete(ctx, id), "id", id)
}

func (r *authFlowContextRepository) PurgeExpiredData(ctx context.Context) (int64, error) {
	return purgeExpired(ctx, r.base, "auth_flow_ctx")
}
