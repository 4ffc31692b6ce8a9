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

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                    string           `bun:"id,pk"`
	ExternalID            string           `bun:"external_id"`
	Username              string           `bun:"username,notnull"`
	Email                 string           `bun:"email"`
	DisplayName           string           `bun:"display_name"`
	NickName              string           `bun:"nick_name"`
	FirstName             string           `bun:"first_name"`
	LastName              string           `bun:"last_name"`
	Title                 string           `bun:"title"`
	Type                  string           `bun:"type"`
	Picture               string           `bun:"picture"`
	Enabled               bool             `bun:"enabled,notnull"`
	AccountNonExpired     bool             `bun:"account_non_expired,notnull"`
	AccountNonLocked      bool             `bun:"account_non_locked,notnull"`
	CredentialsNonExpired bool             `bun:"credentials_non_expired,notnull"`
	Internal              bool             `bun:"internal,notnull"`
	PreRegistration       bool             `bun:"pre_registration,notnull"`
	RegistrationCompleted bool             `bun:"registration_completed,notnull"`
	Reference             Reference        `bun:"embed:reference_"`
	Source                string           `bun:"source"`
	Client                string           `bun:"client"`
	LoginsCount           int64            `bun:"logins_count,notnull"`
	LoggedAt              time.Time        `bun:"logged_at,nullzero"`
	LastPasswordReset     time.Time        `bun:"last_password_reset,nullzero"`
	AdditionalInformation types.JsonObject `bun:"additional_information"`
	CreatedAt             time.Time        `bun:"created_at,notnull"`
	UpdatedAt             time.Time        `bun:"updated_at,notnull"`

	Roles        []string    `bun:"-"`
	Entitlements []string    `bun:"-"`
	Emails       []UserEmail `bun:"-"`
}

// UserEmail is an extra address of a user.
type UserEmail struct {
	Value   string `json:"value"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
}

func (u *User) Normalize() {
	u.AdditionalInformation = nonNilObject(u.AdditionalInformation)
	u.Roles = nonNilStrings(u.Roles)
	u.Entitlements = nonNilStrings(u.Entitlements)
	u.Emails = nonNilSlice(u.Emails)
}

type UserRole struct {
	bun.BaseModel `bun:"table:user_roles"`

	UserID string `bun:"user_id,pk"`
	Role   string `bun:"role,pk"`
}

type UserEntitlement struct {
	bun.BaseModel `bun:"table:user_entitlements"`

	UserID      string `bun:"user_id,pk"`
	Entitlement string `bun:"entitlement,pk"`
}

type UserEmailRow struct {
	bun.BaseModel `bun:"table:user_emails"`

	UserID  string `bun:"user_id,pk"`
	Email   string `bun:"email,pk"`
	Type    string `bun:"type"`
	Primary bool   `bun:"is_primary,notnull"`
}

func (u *User) RoleRows() []*UserRole {
	return stringRows(u.Roles, func(v string) *UserRole { return &UserRole{UserID: u.ID, Role: v} })
}

func (u *User) EntitlementRows() []*UserEntitlement {
	return stringRows(u.Entitlements, func(v string) *UserEntitlement {
		return &UserEntitlement{UserID: u.ID, Entitlement: v}
	})
}

func (u *User) EmailRows() []*UserEmailRow {
	rows := make([]*UserEmailRow, 0, len(u.Emails))
	seen := make(map[string]struct{}, len(u.Emails))
	for _, e := range u.Emails {
		if _, ok := seen[e.Value]; ok {
			continue
		}
		seen[e.Value] = struct{}{}
		rows = append(rows, &UserEmailRow{UserID: u.ID, Email: e.Value, Type: e.Type, Primary: e.Primary})
	}
	return rows
}

func (u *User) SetRoles(rows []*UserRole) {
	u.Roles = rowStrings(rows, func(r *UserRole) string { return r.Role })
}

func (u *User) SetEntitlements(rows []*UserEntitlement) {
	u.Entitlements = rowStrings(rows, func(r *UserEntitlement) string { return r.Entitlement })
}

func (u *User) SetEmails(rows []*UserEmailRow) {
	u.Emails = make([]UserEmail, 0, len(rows))
	for _, r := range rows {
		u.Emails = append(u.Emails, UserEmail{Value: r.Email, Type: r.Type, Primary: r.Primary})
	}
}
