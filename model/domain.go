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

// Domain is a security domain. Reference points at its environment.
type Domain struct {
	bun.BaseModel `bun:"table:domains,alias:d"`

	ID              string           `bun:"id,pk"`
	Hrid            string           `bun:"hrid"`
	Name            string           `bun:"name,notnull"`
	Description     string           `bun:"description"`
	Enabled         bool             `bun:"enabled,notnull"`
	AlertEnabled    bool             `bun:"alert_enabled,notnull"`
	Path            string           `bun:"path"`
	VhostMode       bool             `bun:"vhost_mode,notnull"`
	Master          bool             `bun:"master,notnull"`
	Reference       Reference        `bun:"embed:reference_"`
	OIDC            types.JsonObject `bun:"oidc"`
	AccountSettings types.JsonObject `bun:"account_settings"`
	LoginSettings   types.JsonObject `bun:"login_settings"`
	CreatedAt       time.Time        `bun:"created_at,notnull"`
	UpdatedAt       time.Time        `bun:"updated_at,notnull"`

	Identities []string      `bun:"-"`
	Tags       []string      `bun:"-"`
	Vhosts     []VirtualHost `bun:"-"`
}

// VirtualHost binds a domain to a host and path.
type VirtualHost struct {
	Host               string `json:"host"`
	Path               string `json:"path"`
	OverrideEntrypoint bool   `json:"overrideEntrypoint"`
}

func (d *Domain) Normalize() {
	d.OIDC = nonNilObject(d.OIDC)
	d.AccountSettings = nonNilObject(d.AccountSettings)
	d.LoginSettings = nonNilObject(d.LoginSettings)
	d.Identities = nonNilStrings(d.Identities)
	d.Tags = nonNilStrings(d.Tags)
	d.Vhosts = nonNilSlice(d.Vhosts)
}

type DomainIdentity struct {
	bun.BaseModel `bun:"table:domain_identities"`

	DomainID string `bun:"domain_id,pk"`
	Identity string `bun:"identity,pk"`
}

type DomainTag struct {
	bun.BaseModel `bun:"table:domain_tags"`

	DomainID string `bun:"domain_id,pk"`
	Tag      string `bun:"tag,pk"`
}

type DomainVhost struct {
	bun.BaseModel `bun:"table:domain_vhosts"`

	DomainID           string `bun:"domain_id,pk"`
	Host               string `bun:"host,pk"`
	Path               string `bun:"path,pk"`
	OverrideEntrypoint bool   `bun:"override_entrypoint,notnull"`
}

func (d *Domain) IdentityRows() []*DomainIdentity {
	return stringRows(d.Identities, func(v string) *DomainIdentity {
		return &DomainIdentity{DomainID: d.ID, Identity: v}
	})
}

func (d *Domain) TagRows() []*DomainTag {
	return stringRows(d.Tags, func(v string) *DomainTag {
		return &DomainTag{DomainID: d.ID, Tag: v}
	})
}

func (d *Domain) VhostRows() []*DomainVhost {
	rows := make([]*DomainVhost, 0, len(d.Vhosts))
	for _, v := range d.Vhosts {
		rows = append(rows, &DomainVhost{DomainID: d.ID, Host: v.Host, Path: v.Path, OverrideEntrypoint: v.OverrideEntrypoint})
	}
	return rows
}

func (d *Domain) SetIdentities(rows []*DomainIdentity) {
	d.Identities = rowStrings(rows, func(r *DomainIdentity) string { return r.Identity })
}

func (d *Domain) SetTags(rows []*DomainTag) {
	d.Tags = rowStrings(rows, func(r *DomainTag) string { return r.Tag })
}

func (d *Domain) SetVhosts(rows []*DomainVhost) {
	d.Vhosts = make([]VirtualHost, 0, len(rows))
	for _, r := range rows {
		d.Vhosts = append(d.Vhosts, VirtualHost{Host: r.Host, Path: r.Path, OverrideEntrypoint: r.OverrideEntrypoint})
	}
}
