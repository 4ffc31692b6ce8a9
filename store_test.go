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

package iamstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/iamstore/database"
	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/repository/repotest"
)

type failingPurger struct{ err error }

func (f failingPurger) PurgeExpiredData(context.Context) (int64, error) { return 0, f.err }

func TestStorePurgeExpiredData(t *testing.T) {
	ctx := context.Background()
	metrics := database.NewMetrics(prometheus.NewRegistry())
	store := New(repotest.NewDB(t), WithMetrics(metrics))

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	_, err := store.LoginAttempts.Create(ctx, &model.LoginAttempt{Domain: "d1", Username: "a", ExpireAt: past})
	require.NoError(t, err)
	_, err = store.LoginAttempts.Create(ctx, &model.LoginAttempt{Domain: "d1", Username: "b", ExpireAt: future})
	require.NoError(t, err)
	_, err = store.Devices.Create(ctx, &model.Device{Reference: model.DomainRef("d1"), UserID: "u1", ExpireAt: past})
	require.NoError(t, err)
	_, err = store.UserActivities.Create(ctx, &model.UserActivity{Reference: model.DomainRef("d1"), Type: "LOGIN", Key: "k"})
	require.NoError(t, err)

	n, err := store.PurgeExpiredData(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PurgedRows.WithLabelValues("login_attempts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PurgedRows.WithLabelValues("devices")))

	left, err := store.DB().NewSelect().Table("login_attempts").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	n, err = store.PurgeExpiredData(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStorePurgeKeepsGoingAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := New(repotest.NewDB(t))

	_, err := store.Devices.Create(ctx, &model.Device{Reference: model.DomainRef("d1"), UserID: "u1", ExpireAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	boom := errors.New("boom")
	store.purgers = append([]expiring{{"broken", failingPurger{boom}}}, store.purgers...)

	n, err := store.PurgeExpiredData(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "purge broken")
	assert.Equal(t, int64(1), n)
}

func TestStoreWiresEveryRepository(t *testing.T) {
	store := New(repotest.NewDB(t))

	assert.NotNil(t, store.Organizations)
	assert.NotNil(t, store.Domains)
	assert.NotNil(t, store.Users)
	assert.NotNil(t, store.SystemTasks)
	assert.NotNil(t, store.UserActivities)
	assert.Len(t, store.purgers, 5)
	assert.NoError(t, store.Close())
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &database.Config{ConnectionConfig: *repotest.Config()}
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.Installations.Save(ctx, &model.Installation{})
	require.NoError(t, err)
	found, err := store.Installations.Find(ctx)
	require.NoError(t, err)
	require.NotNil(t, found)
}
