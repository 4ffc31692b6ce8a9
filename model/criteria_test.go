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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/iamstore/types"
)

func rendered(p types.Predicate) string {
	s, _ := types.Render(p)
	return s
}

func TestMembershipCriteria(t *testing.T) {
	assert.True(t, types.IsEmpty(MembershipCriteria{}.Predicate()))

	user := MembershipCriteria{UserID: "u1"}
	assert.Equal(t, "(? = ?) AND (? = ?)", rendered(user.Predicate()))

	and := MembershipCriteria{UserID: "u1", GroupIDs: []string{"g1"}}
	assert.Equal(t, "((? = ?) AND (? = ?)) AND ((? = ?) AND (? IN (?)))", rendered(and.Predicate()))

	or := and
	or.LogicalOR = true
	assert.Equal(t, "((? = ?) AND (? = ?)) OR ((? = ?) AND (? IN (?)))", rendered(or.Predicate()))

	or.RoleID = "r1"
	assert.Equal(t, "(((? = ?) AND (? = ?)) OR ((? = ?) AND (? IN (?)))) AND (? = ?)", rendered(or.Predicate()))
}

func TestAlertTriggerCriteria(t *testing.T) {
	assert.True(t, types.IsEmpty(AlertTriggerCriteria{LogicalOR: true}.Predicate()))

	enabled := true
	c := AlertTriggerCriteria{Enabled: &enabled, Type: "TOO_MANY_LOGIN_FAILURES"}
	assert.Equal(t, "(? = ?) AND (? = ?)", rendered(c.Predicate()))

	c.LogicalOR = true
	c.AlertNotifierIDs = []string{"n1"}
	assert.Equal(t, "(? = ?) OR (? = ?) OR (? IN (SELECT ? FROM ? WHERE ? IN (?)))", rendered(c.Predicate()))
}

func TestAlertNotifierCriteria(t *testing.T) {
	disabled := false
	c := AlertNotifierCriteria{Enabled: &disabled}
	s, args := types.Render(c.Predicate())
	assert.Equal(t, "? = ?", s)
	assert.Equal(t, false, args[1])

	c.IDs = []string{"a", "b"}
	assert.Equal(t, "(? = ?) AND (? IN (?))", rendered(c.Predicate()))
}

func TestAttemptCriteria(t *testing.T) {
	assert.True(t, types.IsEmpty(LoginAttemptCriteria{}.Predicate()))
	assert.Equal(t, "(? = ?) AND (? = ?)", rendered(LoginAttemptCriteria{Domain: "d", Username: "u"}.Predicate()))

	assert.True(t, types.IsEmpty(VerifyAttemptCriteria{}.Predicate()))
	// a reference without id is ignored
	partial := VerifyAttemptCriteria{Reference: Reference{Type: ReferenceDomain}, UserID: "u"}
	assert.Equal(t, "? = ?", rendered(partial.Predicate()))

	full := RateLimitCriteria{Reference: DomainRef("d"), UserID: "u", Client: "c", FactorID: "f"}
	assert.Equal(t, "((? = ?) AND (? = ?)) AND (? = ?) AND (? = ?) AND (? = ?)", rendered(full.Predicate()))
}
