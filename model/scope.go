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

type Scope struct {
	bun.BaseModel `bun:"table:scopes,alias:s"`

	ID            string    `bun:"id,pk"`
	Domain        string    `bun:"domain,notnull"`
	Key           string    `bun:"key,notnull"`
	Name          string    `bun:"name"`
	Description   string    `bun:"description"`
	IconURI       string    `bun:"icon_uri"`
	ExpiresIn     int       `bun:"expires_in"`
	System        bool      `bun:"system,notnull"`
	Discovery     bool      `bun:"discovery,notnull"`
	Parameterized bool      `bun:"parameterized,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`

	Claims []string `bun:"-"`
}

func (s *Scope) Normalize() {
	s.Claims = nonNilStrings(s.Claims)
}

type ScopeClaim struct {
	bun.BaseModel `bun:"table:scope_claims"`

	ScopeID string `bun:"scope_id,pk"`
	Claim   string `bun:"claim,pk"`
}

func (s *Scope) ClaimRows() []*ScopeClaim {
	return stringRows(s.Claims, func(v string) *ScopeClaim { return &ScopeClaim{ScopeID: s.ID, Claim: v} })
}

func (s *Scope) SetClaims(rows []*ScopeClaim) {
	s.Claims = rowStrings(rows, func(r *ScopeClaim) string { return r.Claim })
}
