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

type MembershipRepositorySuite struct {
	dbSuite
	repo management.MembershipRepository
	ref  model.Reference
}

func TestMembershipRepository(t *testing.T) {
	suite.Run(t, new(MembershipRepositorySuite))
}

func (s *MembershipRepositorySuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.repo = management.NewMembershipRepository(s.db)
	s.ref = model.OrganizationRef("org-1")

	s.add("m-user", model.MemberUser, "u1", "role-owner", s.ref)
	s.add("m-group", model.MemberGroup, "g1", "role-user", s.ref)
	s.add("m-group2", model.MemberGroup, "g2", "role-owner", s.ref)
	s.add("m-other-org", model.MemberUser, "u1", "role-owner", model.OrganizationRef("org-2"))
}

func (s *MembershipRepositorySuite) add(id string, memberType model.MemberType, memberID, role string, ref model.Reference) {
	_, err := s.repo.Create(s.ctx, &model.Membership{
		ID:         id,
		MemberType: memberType,
		MemberID:   memberID,
		RoleID:     role,
		Reference:  ref,
	})
	s.Require().NoError(err)
}

func (s *MembershipRepositorySuite) ids(ms []*model.Membership) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func (s *MembershipRepositorySuite) TestCriteriaAnd() {
	found, err := s.repo.FindByCriteria(s.ctx, s.ref, model.MembershipCriteria{
		UserID:   "u1",
		GroupIDs: []string{"g1"},
	})
	s.Require().NoError(err)
	// a row cannot be both a user and a group membership
	s.Empty(found)
}

func (s *MembershipRepositorySuite) TestCriteriaOr() {
	found, err := s.repo.FindByCriteria(s.ctx, s.ref, model.MembershipCriteria{
		UserID:    "u1",
		GroupIDs:  []string{"g1"},
		LogicalOR: true,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"m-user", "m-group"}, s.ids(found))
}

func (s *MembershipRepositorySuite) TestCriteriaRoleIsAlwaysAnded() {
	found, err := s.repo.FindByCriteria(s.ctx, s.ref, model.MembershipCriteria{
		UserID:    "u1",
		GroupIDs:  []string{"g1", "g2"},
		RoleID:    "role-owner",
		LogicalOR: true,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"m-user", "m-group2"}, s.ids(found))
}

func (s *MembershipRepositorySuite) TestEmptyCriteriaMatchesReference() {
	found, err := s.repo.FindByCriteria(s.ctx, s.ref, model.MembershipCriteria{})
	s.Require().NoError(err)
	s.Len(found, 3)
}

func (s *MembershipRepositorySuite) TestMemberFinders() {
	byMember, err := s.repo.FindByMember(s.ctx, model.MemberUser, "u1")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"m-user", "m-other-org"}, s.ids(byMember))

	one, err := s.repo.FindByReferenceAndMember(s.ctx, model.OrganizationRef("org-2"), model.MemberUser, "u1")
	s.Require().NoError(err)
	s.Require().NotNil(one)
	s.Equal("m-other-org", one.ID)

	byRef, err := s.repo.FindByReference(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Len(byRef, 3)
}

func (s *MembershipRepositorySuite) TestUpdateAndDelete() {
	m, err := s.repo.FindByID(s.ctx, "m-user")
	s.Require().NoError(err)
	s.Require().NotNil(m)

	m.RoleID = "role-admin"
	updated, err := s.repo.Update(s.ctx, m)
	s.Require().NoError(err)
	s.Equal("role-admin", updated.RoleID)

	s.Require().NoError(s.repo.Delete(s.ctx, "m-user"))
	gone, err := s.repo.FindByID(s.ctx, "m-user")
	s.Require().NoError(err)
	s.Nil(gone)
}
