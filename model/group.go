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

type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID          string    `bun:"id,pk"`
	Reference   Reference `bun:"embed:reference_"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`

	Members []string `bun:"-"`
	Roles   []string `bun:"-"`
}

func (g *Group) Normalize() {
	g.Members = nonNilStrings(g.Members)
	g.Roles = nonNilStrings(g.Roles)
}

type GroupMember struct {
	bun.BaseModel `bun:"table:group_members"`

	GroupID string `bun:"group_id,pk"`
	Member  string `bun:"member,pk"`
}

type GroupRole struct {
	bun.BaseModel `bun:"table:group_roles"`

	GroupID string `bun:"group_id,pk"`
	Role    string `bun:"role,pk"`
}

func (g *Group) MemberRows() []*GroupMember {
	return stringRows(g.Members, func(v string) *GroupMember { return &GroupMember{GroupID: g.ID, Member: v} })
}

func (g *Group) RoleRows() []*GroupRole {
	return stringRows(g.Roles, func(v string) *GroupRole { return &GroupRole{GroupID: g.ID, Role: v} })
}

func (g *Group) SetMembers(rows []*GroupMember) {
	g.Members = rowStrings(rows, func(r *GroupMember) string { return r.Member })
}

func (g *Group) SetRoles(rows []*GroupRole) {
	g.Roles = rowStrings(rows, func(r *GroupRole) string { return r.Role })
}
