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

// Package repotest opens throwaway databases for repository tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/iamstore/database"
	_ "github.com/tomoncle/iamstore/model"
	"github.com/uptrace/bun"
)

// Config returns the connection settings of a private in-memory SQLite
// database with no background health check.
func Config() *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.Driver = ""
	cfg.DBName = database.MemoryDBName
	cfg.HealthCheckInterval = 0
	cfg.EnableReconnect = false
	cfg.EnableQueryLog = false
	cfg.EnableMetrics = false
	cfg.EnableTracing = false
	cfg.ConnectTimeout = 5 * time.Second
	return cfg
}

// NewDB connects to a fresh in-memory database holding every registered
// table. The database is closed when the test ends.
func NewDB(t testing.TB) *bun.DB {
	t.Helper()
	ctx := context.Background()

	manager := database.NewDatabaseManager(Config())
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })

	require.NoError(t, manager.RunMigrations(ctx, database.MigrationOptions{}))
	return manager.GetDB()
}
