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
	"github.com/tomoncle/iamstore/types"
)

type UserRepositorySuite struct {
	dbSuite
	repo management.UserRepository
	ref  model.Reference
}

func TestUserRepository(t *testing.T) {
	suite.Run(t, new(UserRepositorySuite))
}

func (s *UserRepositorySuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.repo = management.NewUserRepository(s.db)
	s.ref = model.DomainRef("d1")
}

func (s *UserRepositorySuite) create(username, email string) *model.User {
	created, err := s.repo.Create(s.ctx, &model.User{
		Username:  username,
		Email:     email,
		Source:    "idp-1",
		Enabled:   true,
		Reference: s.ref,
	})
	s.Require().NoError(err)
	return created
}

func (s *UserRepositorySuite) TestRoundTripWithChildren() {
	created, err := s.repo.Create(s.ctx, &model.User{
		Username:              "jdoe",
		Reference:             s.ref,
		Roles:                 []string{"admin", "admin", "user"},
		Entitlements:          []string{"read"},
		Emails:                []model.UserEmail{{Value: "jdoe@example.com", Type: "work", Primary: true}},
		AdditionalInformation: types.JsonObject{"locale": "en"},
	})
	s.Require().NoError(err)

	found, err := s.repo.FindByReferenceAndID(s.ctx, s.ref, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.ElementsMatch([]string{"admin", "user"}, found.Roles)
	s.Equal([]string{"read"}, found.Entitlements)
	s.Equal([]model.UserEmail{{Value: "jdoe@example.com", Type: "work", Primary: true}}, found.Emails)
	s.Equal("en", found.AdditionalInformation["locale"])
	s.True(found.LoggedAt.IsZero())
}

func (s *UserRepositorySuite) TestFindByEmailStrictness() {
	s.create("jdoe", "John.Doe@Example.com")

	strict, err := s.repo.FindByDomainAndEmail(s.ctx, "d1", "john.doe@example.com", true)
	s.Require().NoError(err)
	s.Empty(strict)

	relaxed, err := s.repo.FindByDomainAndEmail(s.ctx, "d1", "john.doe@example.com", false)
	s.Require().NoError(err)
	s.Len(relaxed, 1)

	exact, err := s.repo.FindByDomainAndEmail(s.ctx, "d1", "John.Doe@Example.com", true)
	s.Require().NoError(err)
	s.Len(exact, 1)
}

func (s *UserRepositorySuite) TestFindersBySource() {
	created, err := s.repo.Create(s.ctx, &model.User{
		Username:   "jdoe",
		ExternalID: "ext-1",
		Source:     "ldap",
		Reference:  s.ref,
	})
	s.Require().NoError(err)

	byName, err := s.repo.FindByUsernameAndSource(s.ctx, s.ref, "jdoe", "ldap")
	s.Require().NoError(err)
	s.Require().NotNil(byName)
	s.Equal(created.ID, byName.ID)

	byExternal, err := s.repo.FindByExternalIDAndSource(s.ctx, s.ref, "ext-1", "ldap")
	s.Require().NoError(err)
	s.Require().NotNil(byExternal)

	otherSource, err := s.repo.FindByUsernameAndSource(s.ctx, s.ref, "jdoe", "other")
	s.Require().NoError(err)
	s.Nil(otherSource)
}

func (s *UserRepositorySuite) TestSearchAndPaging() {
	s.create("alice", "alice@example.com")
	s.create("bob", "bob@example.com")
	s.create("carol", "carol@corp.example")

	page, err := s.repo.Search(s.ctx, s.ref, "*@example.com", types.NewDefaultPageRequest(1, 10))
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Equal("alice", page.Items[0].Username)

	paged, err := s.repo.FindAllPaged(s.ctx, s.ref, types.NewDefaultPageRequest(2, 2))
	s.Require().NoError(err)
	s.Equal(3, paged.Total)
	s.Require().Len(paged.Items, 1)
	s.Equal("carol", paged.Items[0].Username)

	count, err := s.repo.Count(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Equal(3, count)

	other, err := s.repo.Count(s.ctx, model.DomainRef("d2"))
	s.Require().NoError(err)
	s.Zero(other)
}

func (s *UserRepositorySuite) TestDeleteByReference() {
	kept, err := s.repo.Create(s.ctx, &model.User{Username: "kept", Reference: model.DomainRef("d2"), Roles: []string{"r"}})
	s.Require().NoError(err)
	a := s.create("a", "")
	b := s.create("b", "")
	b.Roles = []string{"r1"}
	_, err = s.repo.Update(s.ctx, b)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteByReference(s.ctx, s.ref))

	remaining, err := s.repo.FindAll(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Empty(remaining)
	s.Zero(s.countRows("user_roles", "user_id", b.ID))
	s.Zero(s.countRows("users", "id", a.ID))

	stillThere, err := s.repo.FindByID(s.ctx, kept.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stillThere)
	s.Equal([]string{"r"}, stillThere.Roles)
}

func (s *UserRepositorySuite) TestDeleteRemovesEveryChild() {
	created, err := s.repo.Create(s.ctx, &model.User{
		Username:     "jdoe",
		Reference:    s.ref,
		Roles:        []string{"admin"},
		Entitlements: []string{"read"},
		Emails:       []model.UserEmail{{Value: "jdoe@example.com", Type: "work"}},
	})
	s.Require().NoError(err)
	for _, table := range []string{"user_roles", "user_entitlements", "user_emails"} {
		s.Equal(1, s.countRows(table, "user_id", created.ID), table)
	}

	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))

	s.Zero(s.countRows("users", "id", created.ID))
	for _, table := range []string{"user_roles", "user_entitlements", "user_emails"} {
		s.Zero(s.countRows(table, "user_id", created.ID), table)
	}
}

func (s *UserRepositorySuite) TestUpdateMissingUser() {
	updated, err := s.repo.Update(s.ctx, &model.User{ID: "ghost", Username: "ghost", Reference: s.ref, Roles: []string{"r"}})
	s.Require().NoError(err)
	s.Nil(updated)
	s.Zero(s.countRows("user_roles", "user_id", "ghost"))
}

func (s *UserRepositorySuite) TestFindByIDIn() {
	a := s.create("a", "")
	s.create("b", "")

	found, err := s.repo.FindByIDIn(s.ctx, []string{a.ID})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("a", found[0].Username)

	all, err := s.repo.FindAll(s.ctx, s.ref)
	s.Require().NoError(err)
	s.Len(all, 2)
}
