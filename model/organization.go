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

type Organization struct {
	bun.BaseModel `bun:"table:organizations,alias:o"`

	ID          string    `bun:"id,pk"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	Identities  []string  `bun:"identities"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`

	DomainRestrictions []string `bun:"-"`
	Hrids              []string `bun:"-"`
}

func (o *Organization) Normalize() {
	o.Identities = nonNilStrings(o.Identities)
	o.DomainRestrictions = nonNilStrings(o.DomainRestrictions)
	o.Hrids = nonNilStrings(o.Hrids)
}

type OrganizationDomainRestriction struct {
	bun.BaseModel `bun:"table:organization_domain_restrictions"`

	OrganizationID    string `bun:"organization_id,pk"`
	DomainRestriction string `bun:"domain_restriction,pk"`
}

// OrganizationHrid is a human readable id; Pos keeps the declared order.
type OrganizationHrid struct {
	bun.BaseModel `bun:"table:organization_hrids"`

	OrganizationID string `bun:"organization_id,pk"`
	Hrid           string `bun:"hrid,pk"`
	Pos            int    `bun:"pos,notnull"`
}

func (o *Organization) DomainRestrictionRows() []*OrganizationDomainRestriction {
	return stringRows(o.DomainRestrictions, func(v string) *OrganizationDomainRestriction {
		return &OrganizationDomainRestriction{OrganizationID: o.ID, DomainRestriction: v}
	})
}

func (o *Organization) HridRows() []*OrganizationHrid {
	rows := stringRows(o.Hrids, func(v string) *OrganizationHrid {
		return &OrganizationHrid{OrganizationID: o.ID, Hrid: v}
	})
	for i, r := range rows {
		r.Pos = i
	}
	return rows
}

func (o *Organization) SetDomainRestrictions(rows []*OrganizationDomainRestriction) {
	o.DomainRestrictions = rowStrings(rows, func(r *OrganizationDomainRestriction) string { return r.DomainRestriction })
}

// SetHrids expects rows ordered by pos.
func (o *Organization) SetHrids(rows []*OrganizationHrid) {
	o.Hrids = rowStrings(rows, func(r *OrganizationHrid) string { return r.Hrid })
}
