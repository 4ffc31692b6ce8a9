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

package model

import (
	"time"

	"github.com/uptrace/bun"
)

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID             string              `bun:"id,pk"`
	Reference      Reference           `bun:"embed:reference_"`
	Name           string              `bun:"name,notnull"`
	Description    string              `bun:"description"`
	AssignableType ReferenceType       `bun:"assignable_type"`
	System         bool                `bun:"system,notnull"`
	DefaultRole    bool                `bun:"default_role,notnull"`
	InternalOnly   bool                `bun:"internal_only,notnull"`
	PermissionACLs map[string][]string `bun:"permission_acls"`
	CreatedAt      time.Time           `bun:"created_at,notnull"`
	UpdatedAt      time.Time           `bun:"updated_at,notnull"`

	OAuthScopes []string `bun:"-"`
}

func (r *Role) Normalize() {
	if r.PermissionACLs == nil {
		r.PermissionACLs = make(map[string][]string)
	}
	r.OAuthScopes = nonNilStrings(r.OAuthScopes)
}

type RoleOAuthScope struct {
	bun.BaseModel `bun:"table:role_oauth_scopes"`

	RoleID string `bun:"role_id,pk"`
	Scope  string `bun:"scope,pk"`
}

func (r *Role) OAuthScopeRows() []*RoleOAuthScope {
	return stringRows(r.OAuthScopes, func(v string) *RoleOAuthScope { return &RoleOAuthScope{RoleID: r.ID, Scope: v} })
}

func (r *Role) SetOAuthScopes(rows []*RoleOAuthScope) {
	r.OAuthScopes = rowStrings(rows, func(row *RoleOAuthScope) string { return row.Scope })
}
