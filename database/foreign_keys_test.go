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

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildOfSQL(t *testing.T) {
	fk := ChildOf("domain_tags", "domain_id", "domains")
	assert.Equal(t, "fk_domain_tags_domain_id", fk.GenerateConstraintName())
	assert.Equal(t,
		"ALTER TABLE domain_tags ADD CONSTRAINT fk_domain_tags_domain_id FOREIGN KEY (domain_id) REFERENCES domains(id) ON DELETE CASCADE",
		fk.GenerateSQL())

	fk.ConstraintName = "fk_tags"
	fk.OnUpdate = "NO ACTION"
	assert.Contains(t, fk.GenerateSQL(), "ADD CONSTRAINT fk_tags ")
	assert.Contains(t, fk.GenerateSQL(), "ON UPDATE NO ACTION")
}

func TestValidateConstraints(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		ChildOf("user_roles", "user_id", "users"),
		{Table: "t", Column: "c", ReferenceTable: "p"},
		{Table: "t", Column: "c", ReferenceTable: "p", ReferenceColumn: "id", OnDelete: "EXPLODE"},
	}}
	errs := fkm.ValidateConstraints()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "reference column")
	assert.Contains(t, errs[1].Error(), "invalid delete policy")

	assert.Len(t, fkm.GetConstraintsByTable("USER_ROLES"), 1)
}

func TestForeignKeyYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := &ConfigurableForeignKeyManager{ForeignKeyManager: &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		ChildOf("group_members", "group_id", "groups"),
		ChildOf("scope_claims", "scope_id", "scopes"),
	}}}
	path := filepath.Join(dir, "nested", "fk.yaml")
	require.NoError(t, source.ExportToConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "group_members.group_id -> groups.id")

	loaded := NewConfigurableForeignKeyManager(nil, path)
	assert.Equal(t, path, loaded.GetConfigPath())
	assert.Equal(t, source.ListAllConstraints(), loaded.ListAllConstraints())

	require.NoError(t, os.WriteFile(path, []byte("foreign_keys:\n  - table: a\n    column: b_id\n    reference_table: b\n    reference_column: id\n"), 0o600))
	require.NoError(t, loaded.ReloadConfig())
	require.Len(t, loaded.ListAllConstraints(), 1)
	assert.Equal(t, "a", loaded.ListAllConstraints()[0].Table)
}

func TestForeignKeyConfigFallsBackToCode(t *testing.T) {
	fkm := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, getForeignKeyConstraints(), fkm.ListAllConstraints())
	assert.Error(t, fkm.ReloadConfig())
}
