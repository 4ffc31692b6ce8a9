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
	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

// Criteria render to predicates; a criteria with no field set renders to an
// empty predicate, which finders ignore and deletes refuse.

// MembershipCriteria selects memberships of a user and/or groups.
// The user and group clauses are joined with OR when LogicalOR is set; the
// role clause always narrows the result.
type MembershipCriteria struct {
	UserID    string
	GroupIDs  []string
	RoleID    string
	LogicalOR bool
}

func (c MembershipCriteria) Predicate() types.Predicate {
	var user, groups types.Predicate
	if c.UserID != "" {
		user = types.And(
			types.Eq("member_type", string(MemberUser)),
			types.Eq("member_id", c.UserID),
		)
	}
	if len(c.GroupIDs) > 0 {
		groups = types.And(
			types.Eq("member_type", string(MemberGroup)),
			types.In("member_id", c.GroupIDs),
		)
	}
	var role types.Predicate
	if c.RoleID != "" {
		role = types.Eq("role_id", c.RoleID)
	}
	return types.And(types.Combine(c.LogicalOR, user, groups), role)
}

// AlertTriggerCriteria selects alert triggers. Present clauses are joined
// with OR when LogicalOR is set, AND otherwise.
type AlertTriggerCriteria struct {
	Enabled          *bool
	Type             string
	AlertNotifierIDs []string
	LogicalOR        bool
}

func (c AlertTriggerCriteria) Predicate() types.Predicate {
	var enabled, typ, notifiers types.Predicate
	if c.Enabled != nil {
		enabled = types.Eq("enabled", *c.Enabled)
	}
	if c.Type != "" {
		typ = types.Eq("type", c.Type)
	}
	if len(c.AlertNotifierIDs) > 0 {
		notifiers = types.Raw(
			"? IN (SELECT ? FROM ? WHERE ? IN (?))",
			bun.Ident("id"),
			bun.Ident("alert_trigger_id"),
			bun.Ident("alert_triggers_alert_notifiers"),
			bun.Ident("alert_notifier_id"),
			bun.In(c.AlertNotifierIDs),
		)
	}
	return types.Combine(c.LogicalOR, enabled, typ, notifiers)
}

// AlertNotifierCriteria selects alert notifiers, same combination rule as
// AlertTriggerCriteria.
type AlertNotifierCriteria struct {
	Enabled   *bool
	IDs       []string
	LogicalOR bool
}

func (c AlertNotifierCriteria) Predicate() types.Predicate {
	var enabled, ids types.Predicate
	if c.Enabled != nil {
		enabled = types.Eq("enabled", *c.Enabled)
	}
	if len(c.IDs) > 0 {
		ids = types.In("id", c.IDs)
	}
	return types.Combine(c.LogicalOR, enabled, ids)
}

// LoginAttemptCriteria fields are ANDed.
type LoginAttemptCriteria struct {
	Domain           string
	Client           string
	IdentityProvider string
	Username         string
}

func (c LoginAttemptCriteria) Predicate() types.Predicate {
	return types.And(
		eqIfSet("domain", c.Domain),
		eqIfSet("client", c.Client),
		eqIfSet("identity_provider", c.IdentityProvider),
		eqIfSet("username", c.Username),
	)
}

// VerifyAttemptCriteria fields are ANDed; the reference applies when both
// its type and id are set.
type VerifyAttemptCriteria struct {
	Reference Reference
	UserID    string
	Client    string
	FactorID  string
}

func (c VerifyAttemptCriteria) Predicate() types.Predicate {
	return userFactorPredicate(c.Reference, c.UserID, c.Client, c.FactorID)
}

// RateLimitCriteria fields are ANDed, like VerifyAttemptCriteria.
type RateLimitCriteria struct {
	Reference Reference
	UserID    string
	Client    string
	FactorID  string
}

func (c RateLimitCriteria) Predicate() types.Predicate {
	return userFactorPredicate(c.Reference, c.UserID, c.Client, c.FactorID)
}

func userFactorPredicate(ref Reference, userID, client, factorID string) types.Predicate {
	var refPred types.Predicate
	if ref.Type != "" && ref.ID != "" {
		refPred = ref.Predicate()
	}
	return types.And(
		refPred,
		eqIfSet("user_id", userID),
		eqIfSet("client", client),
		eqIfSet("factor_id", factorID),
	)
}

func eqIfSet(column, value string) types.Predicate {
	if value == "" {
		return nil
	}
	return types.Eq(column, value)
}
