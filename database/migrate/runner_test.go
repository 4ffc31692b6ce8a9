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

package migrate

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/iamstore/database"
)

func TestRunRejectsEmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, DirectionUp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dsn is not set")
	}
}

func TestRunRejectsUnknownDirection(t *testing.T) {
	for _, direction := range []string{"", "sideways", "UP", "Down"} {
		err := Run("postgres://localhost/iam", direction)
		require.Error(t, err, direction)
		assert.Contains(t, err.Error(), "direction must be up or down")
	}
}

func TestEmbeddedVersions(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, versions)
}

func TestEmbeddedMigrationsHaveBothDirections(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	for _, v := range []uint{1, 2} {
		up, name, err := src.ReadUp(v)
		require.NoError(t, err)
		body, err := io.ReadAll(up)
		require.NoError(t, err)
		_ = up.Close()
		assert.Contains(t, string(body), "CREATE TABLE", name)

		down, name, err := src.ReadDown(v)
		require.NoError(t, err)
		body, err = io.ReadAll(down)
		require.NoError(t, err)
		_ = down.Close()
		assert.Contains(t, string(body), "DROP TABLE", name)
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &database.ConnectionConfig{
		Host:     "db",
		Port:     5432,
		Username: "iam",
		Password: "secret",
		DBName:   "iam",
	}
	assert.Equal(t, "postgres://iam:secret@db:5432/iam?sslmode=disable", PostgresDSN(cfg))

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://iam:secret@db:5432/iam?sslmode=require", PostgresDSN(cfg))

	cfg.DSN = "postgres://other/iam"
	assert.Equal(t, "postgres://other/iam", PostgresDSN(cfg))
}
