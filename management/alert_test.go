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

package management_test

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/tomoncle/iamstore/management"
	"github.com/tomoncle/iamstore/model"
)

type AlertRepositorySuite struct {
	dbSuite
	triggers  management.AlertTriggerRepository
	notifiers management.AlertNotifierRepository
	ref       model.Reference
}

func TestAlertRepositories(t *testing.T) {
	suite.Run(t, new(AlertRepositorySuite))
}

func (s *AlertRepositorySuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.triggers = management.NewAlertTriggerRepository(s.db)
	s.notifiers = management.NewAlertNotifierRepository(s.db)
	s.ref = model.DomainRef("d1")

	for _, t := range []*model.AlertTrigger{
		{ID: "t-enabled-mail", Type: "TOO_MANY_LOGIN_FAILURES", Enabled: true, AlertNotifiers: []string{"n-mail"}},
		{ID: "t-disabled-slack", Type: "RISK_ASSESSMENT", Enabled: false, AlertNotifiers: []string{"n-slack"}},
		{ID: "t-disabled", Type: "TOO_MANY_LOGIN_FAILURES", Enabled: false},
	} {
		t.Reference = s.ref
		_, err := s.triggers.Create(s.ctx, t)
		s.Require().NoError(err)
	}
	for _, n := range []*model.AlertNotifier{
		{ID: "n-mail", Name: "mail", Type: "email", Enabled: true},
		{ID: "n-slack", Name: "slack", Type: "webhook", Enabled: false},
	} {
		n.Reference = s.ref
		_, err := s.notifiers.Create(s.ctx, n)
		s.Require().NoError(err)
	}
}

func triggerIDs(ts []*model.AlertTrigger) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func (s *AlertRepositorySuite) TestTriggerRoundTrip() {
	found, err := s.triggers.FindByID(s.ctx, "t-enabled-mail")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal([]string{"n-mail"}, found.AlertNotifiers)

	noNotifier, err := s.triggers.FindByID(s.ctx, "t-disabled")
	s.Require().NoError(err)
	s.NotNil(noNotifier.AlertNotifiers)
	s.Empty(noNotifier.AlertNotifiers)
}

func (s *AlertRepositorySuite) TestTriggerCriteriaAnd() {
	enabled := true
	found, err := s.triggers.FindByCriteria(s.ctx, s.ref, model.AlertTriggerCriteria{
		Enabled: &enabled,
		Type:    "TOO_MANY_LOGIN_FAILURES",
	})
	s.Require().NoError(err)
	s.Equal([]string{"t-enabled-mail"}, triggerIDs(found))
}

func (s *AlertRepositorySuite) TestTriggerCriteriaOrWithNotifierSubSelect() {
	enabled := true
	found, err := s.triggers.FindByCriteria(s.ctx, s.ref, model.AlertTriggerCriteria{
		Enabled:          &enabled,
		AlertNotifierIDs: []string{"n-slack"},
		LogicalOR:        true,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"t-enabled-mail", "t-disabled-slack"}, triggerIDs(found))

	byNotifier, err := s.triggers.FindByCriteria(s.ctx, s.ref, model.AlertTriggerCriteria{
		AlertNotifierIDs: []string{"n-slack"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"t-disabled-slack"}, triggerIDs(byNotifier))
}

func (s *AlertRepositorySuite) TestTriggerCriteriaScopedToReference() {
	found, err := s.triggers.FindByCriteria(s.ctx, model.DomainRef("d2"), model.AlertTriggerCriteria{
		Type:      "TOO_MANY_LOGIN_FAILURES",
		LogicalOR: true,
	})
	s.Require().NoError(err)
	s.Empty(found)
}

func (s *AlertRepositorySuite) TestTriggerUpdateReplacesNotifiersAndDeleteCascades() {
	found, err := s.triggers.FindByID(s.ctx, "t-enabled-mail")
	s.Require().NoError(err)

	found.AlertNotifiers = []string{"n-slack", "n-mail"}
	updated, err := s.triggers.Update(s.ctx, found)
	s.Require().NoError(err)
	s.Equal([]string{"n-mail", "n-slack"}, updated.AlertNotifiers)

	s.Require().NoError(s.triggers.Delete(s.ctx, "t-enabled-mail"))
	s.Zero(s.countRows("alert_triggers_alert_notifiers", "alert_trigger_id", "t-enabled-mail"))

	all, err := s.triggers.FindAll(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *AlertRepositorySuite) TestNotifierCriteria() {
	enabled := true
	and, err := s.notifiers.FindByCriteria(s.ctx, s.ref, model.AlertNotifierCriteria{
		Enabled: &enabled,
		IDs:     []string{"n-slack"},
	})
	s.Require().NoError(err)
	s.Empty(and)

	or, err := s.notifiers.FindByCriteria(s.ctx, s.ref, model.AlertNotifierCriteria{
		Enabled:   &enabled,
		IDs:       []string{"n-slack"},
		LogicalOR: true,
	})
	s.Require().NoError(err)
	s.Len(or, 2)

	all, err := s.notifiers.FindAll(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("mail", all[0].Name)
}
