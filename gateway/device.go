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

// DeviceRepository stores the devices a user asked to remember. Finders
// skip expired devices.
type DeviceRepository interface {
	Purger
	FindByID(ctx context.Context, id string) (*model.Device, error)
	FindByReferenceAndUser(ctx context.Context, ref model.Reference, userID string) ([]*model.Device, error)
	FindByReferenceAndClientAndUserAndDeviceIdentifierAndDeviceID(ctx context.Context, ref model.Reference, client, userID, deviceIdentifierID, deviceID string) (*model.Device, error)
	Create(ctx context.Context, device *model.Device) (*model.Device, error)
	Update(ctx context.Context, device *model.Device) (*model.Device, error)
	Delete(ctx context.Context, id string) error
}

type deviceRepository struct {
	base repository.Repository[model.Device]
}

func NewDeviceRepository(db *bun.DB) DeviceRepository {
	return &deviceRepository{base: repository.NewRepository[model.Device](db)}
}

func (r *deviceRepository) FindByID(ctx context.Context, id string) (*model.Device, error) {
	device, err := r.base.FindOne(ctx, types.And(types.Eq("id", id), notExpired(repository.Now())))
	return device, repository.Fail("find device", err, "id", id)
}

func (r *deviceRepository) FindByReferenceAndUser(ctx context.Context, ref model.Reference, userID string) ([]*model.Device, error) {
	pred := types.And(ref.Predicate(), types.Eq("user_id", userID), notExpired(repository.Now()))
	devices, err := r.base.Find(ctx, pred, "created_at DESC")
	return devices, repository.Fail("find devices by user", err, "reference", ref.String(), "user_id", userID)
}

func (r *deviceRepository) FindByReferenceAndClientAndUserAndDeviceIdentifierAndDeviceID(ctx context.Context, ref model.Reference, client, userID, deviceIdentifierID, deviceID string) (*model.Device, error) {
	pred := types.And(
		ref.Predicate(),
		types.Eq("client", client),
		types.Eq("user_id", userID),
		types.Eq("device_identifier_id", deviceIdentifierID),
		types.Eq("device_id", deviceID),
		notExpired(repository.Now()),
	)
	device, err := r.base.FindOne(ctx, pred)
	return device, repository.Fail("find device", err, "reference", ref.String(), "client", client,
		"user_id", userID, "device_identifier_id", deviceIdentifierID, "device_id", deviceID)
}

func (r *deviceRepository) Create(ctx context.Context, device *model.Device) (*model.Device, error) {
	device.ID = repository.EnsureID(device.ID)
	stamp(&device.CreatedAt, nil)
	if err := r.base.Create(ctx, device); err != nil {
		return nil, repository.Fail("create device", err, "id", device.ID)
	}
	return r.FindByID(ctx, device.ID)
}

func (r *deviceRepository) Update(ctx context.Context, device *model.Device) (*model.Device, error) {
	if err := r.base.Update(ctx, device); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, repository.Fail("update device", err, "id", device.ID)
	}
	return r.FindByID(ctx, device.ID)
}

func (r *deviceRepository) Delete(ctx context.Context, id string) error {
	return repository.Fail("delete device", r.base.Delete(ctx, id), "id", id)
}

func (r *deviceRepository) PurgeExpiredData(ctx context.Context) (int64, error) {
	return purgeExpired(ctx, r.base, "devices")
}
