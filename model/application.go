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

	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID          string           `bun:"id,pk"`
	Name        string           `bun:"name,notnull"`
	Type        string           `bun:"type"`
	Description string           `bun:"description"`
	Domain      string           `bun:"domain,notnull"`
	Enabled     bool             `bun:"enabled,notnull"`
	Template    bool             `bun:"template,notnull"`
	Certificate string           `bun:"certificate"`
	Metadata    types.JsonObject `bun:"metadata"`
	Settings    types.JsonObject `bun:"settings"`
	CreatedAt   time.Time        `bun:"created_at,notnull"`
	UpdatedAt   time.Time        `bun:"updated_at,notnull"`

	Identities    []string              `bun:"-"`
	Factors       []string              `bun:"-"`
	Grants        []string              `bun:"-"`
	ScopeSettings []ApplicationScopeSet `bun:"-"`
}

// ApplicationScopeSet is the per-application configuration of a scope.
type ApplicationScopeSet struct {
	Scope         string `json:"scope"`
	DefaultScope  bool   `json:"defaultScope"`
	ScopeApproval int    `json:"scopeApproval"`
}

func (a *Application) Normalize() {
	a.Metadata = nonNilObject(a.Metadata)
	a.Settings = nonNilObject(a.Settings)
	a.Identities = nonNilStrings(a.Identities)
	a.Factors = nonNilStrings(a.Factors)
	a.Grants = nonNilStrings(a.Grants)
	a.ScopeSettings = nonNilSlice(a.ScopeSettings)
}

type ApplicationIdentity struct {
	bun.BaseModel `bun:"table:application_identities"`

	ApplicationID string `bun:"application_id,pk"`
	Identity      string `bun:"identity,pk"`
}

type ApplicationFactor struct {
	bun.BaseModel `bun:"table:application_factors"`

	ApplicationID string `bun:"application_id,pk"`
	Factor        string `bun:"factor,pk"`
}

type ApplicationGrant struct {
	bun.BaseModel `bun:"table:application_grants"`

	ApplicationID string `bun:"application_id,pk"`
	GrantType     string `bun:"grant_type,pk"`
}

type ApplicationScopeSetting struct {
	bun.BaseModel `bun:"table:application_scope_settings"`

	ApplicationID string `bun:"application_id,pk"`
	Scope         string `bun:"scope,pk"`
	DefaultScope  bool   `bun:"default_scope,notnull"`
	ScopeApproval int    `bun:"scope_approval"`
}

func (a *Application) IdentityRows() []*ApplicationIdentity {
	return stringRows(a.Identities, func(v string) *ApplicationIdentity {
		return &ApplicationIdentity{ApplicationID: a.ID, Identity: v}
	})
}

func (a *Application) FactorRows() []*ApplicationFactor {
	return stringRows(a.Factors, func(v string) *ApplicationFactor {
		return &ApplicationFactor{ApplicationID: a.ID, Factor: v}
	})
}

func (a *Application) GrantRows() []*ApplicationGrant {
	return stringRows(a.Grants, func(v string) *ApplicationGrant {
		return &ApplicationGrant{ApplicationID: a.ID, GrantType: v}
	})
}

func (a *Application) ScopeSettingRows() []*ApplicationScopeSetting {
	rows := make([]*ApplicationScopeSetting, 0, len(a.ScopeSettings))
	seen := make(map[string]struct{}, len(a.ScopeSettings))
	for _, s := range a.ScopeSettings {
		if _, ok := seen[s.Scope]; ok {
			continue
		}
		seen[s.Scope] = struct{}{}
		rows = append(rows, &ApplicationScopeSetting{
			ApplicationID: a.ID,
			Scope:         s.Scope,
			DefaultScope:  s.DefaultScope,
			ScopeApproval: s.ScopeApproval,
		})
	}
	return rows
}

func (a *Application) SetIdentities(rows []*ApplicationIdentity) {
	a.Identities = rowStrings(rows, func(r *ApplicationIdentity) string { return r.Identity })
}

func (a *Application) SetFactors(rows []*ApplicationFactor) {
	a.Factors = rowStrings(rows, func(r *ApplicationFactor) string { return r.Factor })
}

func (a *Application) SetGrants(rows []*ApplicationGrant) {
	a.Grants = rowStrings(rows, func(r *ApplicationGrant) string { return r.GrantType })
}

func (a *Application) SetScopeSettings(rows []*ApplicationScopeSetting) {
	a.ScopeSettings = make([]ApplicationScopeSet, 0, len(rows))
	for _, r := range rows {
		a.ScopeSettings = append(a.ScopeSettings, ApplicationScopeSet{
			Scope:         r.Scope,
			DefaultScope:  r.DefaultScope,
			ScopeApproval: r.ScopeApproval,
		})
	}
}
