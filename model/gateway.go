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
	"fmt"
	"time"

	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

// Runtime data written by the gateway. Rows with an ExpireAt are purged
// once it has passed; a zero ExpireAt is stored as NULL and never expires.

type LoginAttempt struct {
	bun.BaseModel `bun:"table:login_attempts,alias:la"`

	ID               string    `bun:"id,pk"`
	Domain           string    `bun:"domain,notnull"`
	Client           string    `bun:"client"`
	IdentityProvider string    `bun:"identity_provider"`
	Username         string    `bun:"username"`
	Attempts         int       `bun:"attempts,notnull"`
	ExpireAt         time.Time `bun:"expire_at,nullzero"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

type VerifyAttempt struct {
	bun.BaseModel `bun:"table:verify_attempts,alias:va"`

	ID           string    `bun:"id,pk"`
	Reference    Reference `bun:"embed:reference_"`
	UserID       string    `bun:"user_id"`
	Client       string    `bun:"client"`
	FactorID     string    `bun:"factor_id"`
	Attempts     int       `bun:"attempts,notnull"`
	AllowRequest bool      `bun:"allow_request,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

type RateLimit struct {
	bun.BaseModel `bun:"table:rate_limit,alias:rl"`

	ID             string    `bun:"id,pk"`
	Reference      Reference `bun:"embed:reference_"`
	UserID         string    `bun:"user_id"`
	Client         string    `bun:"client"`
	FactorID       string    `bun:"factor_id"`
	TokenLeft      int64     `bun:"token_left,notnull"`
	AllowRequest   bool      `bun:"allow_request,notnull"`
	LastRefillTime int64     `bun:"last_refill_time,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

type Device struct {
	bun.BaseModel `bun:"table:devices,alias:dv"`

	ID                 string    `bun:"id,pk"`
	Reference          Reference `bun:"embed:reference_"`
	Client             string    `bun:"client"`
	UserID             string    `bun:"user_id,notnull"`
	DeviceIdentifierID string    `bun:"device_identifier_id"`
	DeviceID           string    `bun:"device_id"`
	Type               string    `bun:"type"`
	ExpireAt           time.Time `bun:"expire_at,nullzero"`
	CreatedAt          time.Time `bun:"created_at,notnull"`
}

// AuthenticationFlowContext keeps the state of an authentication transaction;
// each version is its own row.
type AuthenticationFlowContext struct {
	bun.BaseModel `bun:"table:auth_flow_ctx,alias:afc"`

	ID            string           `bun:"id,pk"`
	TransactionID string           `bun:"transaction_id,notnull"`
	Version       int              `bun:"version,notnull"`
	Data          types.JsonObject `bun:"data"`
	ExpireAt      time.Time        `bun:"expire_at,nullzero"`
	CreatedAt     time.Time        `bun:"created_at,notnull"`
}

// AuthFlowContextID is the row id of a transaction version.
func AuthFlowContextID(transactionID string, version int) string {
	return fmt.Sprintf("%s-%d", transactionID, version)
}

func (c *AuthenticationFlowContext) Normalize() {
	c.Data = nonNilObject(c.Data)
}

// PermissionRequest asks for scopes on a protected resource.
type PermissionRequest struct {
	ResourceID     string   `json:"resourceId"`
	ResourceScopes []string `json:"resourceScopes"`
}

type PermissionTicket struct {
	bun.BaseModel `bun:"table:uma_permission_ticket,alias:pt"`

	ID                string              `bun:"id,pk"`
	Domain            string              `bun:"domain,notnull"`
	Client            string              `bun:"client"`
	UserID            string              `bun:"user_id"`
	PermissionRequest []PermissionRequest `bun:"permission_request"`
	ExpireAt          time.Time           `bun:"expire_at,nullzero"`
	CreatedAt         time.Time           `bun:"created_at,notnull"`
}

func (p *PermissionTicket) Normalize() {
	p.PermissionRequest = nonNilSlice(p.PermissionRequest)
	for i := range p.PermissionRequest {
		p.PermissionRequest[i].ResourceScopes = nonNilStrings(p.PermissionRequest[i].ResourceScopes)
	}
}

type UserActivity struct {
	bun.BaseModel `bun:"table:user_activities,alias:ua"`

	ID            string    `bun:"id,pk"`
	Reference     Reference `bun:"embed:reference_"`
	Type          string    `bun:"activity_type,notnull"`
	Key           string    `bun:"activity_key,notnull"`
	Latitude      *float64  `bun:"latitude"`
	Longitude     *float64  `bun:"longitude"`
	UserAgent     string    `bun:"user_agent"`
	LoginAttempts int       `bun:"login_attempts"`
	ExpireAt      time.Time `bun:"expire_at,nullzero"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}
