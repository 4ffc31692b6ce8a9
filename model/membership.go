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

// MemberType tells whether a membership belongs to a user or a group.
type MemberType string

const (
	MemberUser  MemberType = "USER"
	MemberGroup MemberType = "GROUP"
)

type Membership struct {
	bun.BaseModel `bun:"table:memberships,alias:m"`

	ID             string     `bun:"id,pk"`
	MemberID       string     `bun:"member_id,notnull"`
	MemberType     MemberType `bun:"member_type,notnull"`
	Reference      Reference  `bun:"embed:reference_"`
	RoleID         string     `bun:"role_id,notnull"`
	FromRoleMapper bool       `bun:"from_role_mapper,notnull"`
	CreatedAt      time.Time  `bun:"created_at,notnull"`
	UpdatedAt      time.Time  `bun:"updated_at,notnull"`
}
