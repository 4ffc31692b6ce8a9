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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, "postgres", conn.Type)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, 100, conn.MaxOpenConns)
	assert.Equal(t, time.Hour, conn.ConnMaxLifetime)
	assert.Equal(t, "bundebug", conn.QueryLogStyle)
	assert.False(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Purge.Schedule)
	assert.Equal(t, 5*time.Minute, cfg.Purge.Timeout)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iamstore.yaml")
	content := `
database:
  connection:
    type: sqlite
    dbname: ":memory:"
    max_open_conns: 1
    slow_query_time: 500ms
  migrate:
    enable_migrate_on_startup: true
    enable_foreign_key: true
    foreign_key_file: fk.yaml
log:
  level: debug
purge:
  schedule: "*/5 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("IAMSTORE_LOG_FORMAT", "json")
	t.Setenv("IAMSTORE_DATABASE_CONNECTION_MAX_OPEN_CONNS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, "sqlite", conn.Type)
	assert.Equal(t, ":memory:", conn.DBName)
	assert.Equal(t, 4, conn.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)

	migrate := cfg.Database.DataMigrateConfig
	assert.True(t, migrate.EnableMigrateOnStartup)
	assert.True(t, migrate.EnableForeignKey)
	assert.Equal(t, "fk.yaml", migrate.ForeignKeyFile)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "*/5 * * * *", cfg.Purge.Schedule)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := valid()
	cfg.Database.ConnectionConfig.Type = "oracle"
	assert.ErrorContains(t, cfg.Validate(), "unsupported database type")

	cfg = valid()
	cfg.Log.Format = "xml"
	assert.ErrorContains(t, cfg.Validate(), "log format")

	cfg = valid()
	cfg.Purge.Schedule = "every five minutes"
	assert.ErrorContains(t, cfg.Validate(), "purge schedule")

	cfg = valid()
	cfg.Purge.Schedule = "@hourly"
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Purge.Timeout = -time.Second
	assert.Error(t, cfg.Validate())
}
