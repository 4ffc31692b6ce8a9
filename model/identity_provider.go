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

type IdentityProvider struct {
	bun.BaseModel `bun:"table:identities,alias:idp"`

	ID              string              `bun:"id,pk"`
	Reference       Reference           `bun:"embed:reference_"`
	Name            string              `bun:"name,notnull"`
	Type            string              `bun:"type"`
	System          bool                `bun:"system,notnull"`
	External        bool                `bun:"external,notnull"`
	Configuration   string              `bun:"configuration"`
	PasswordPolicy  string              `bun:"password_policy"`
	Mappers         map[string]string   `bun:"mappers"`
	RoleMapper      map[string][]string `bun:"role_mapper"`
	DomainWhitelist []string            `bun:"domain_whitelist"`
	CreatedAt       time.Time           `bun:"created_at,notnull"`
	UpdatedAt       time.Time           `bun:"updated_at,notnull"`
}

func (i *IdentityProvider) Normalize() {
	if i.Mappers == nil {
		i.Mappers = make(map[string]string)
	}
	if i.RoleMapper == nil {
		i.RoleMapper = make(map[string][]string)
	}
	i.DomainWhitelist = nonNilStrings(i.DomainWhitelist)
}
