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

type DomainRepositorySuite struct {
	dbSuite
	repo management.DomainRepository
}

func TestDomainRepository(t *testing.T) {
	suite.Run(t, new(DomainRepositorySuite))
}

func (s *DomainRepositorySuite) SetupTest() {
	s.dbSuite.SetupTest()
	s.repo = management.NewDomainRepository(s.db)
}

func (s *DomainRepositorySuite) newDomain(name, hrid string) *model.Domain {
	return &model.Domain{
		Name:      name,
		Hrid:      hrid,
		Enabled:   true,
		Reference: model.EnvironmentRef("env-1"),
	}
}

func (s *DomainRepositorySuite) TestCreateWithoutIDGeneratesIDAndEmptyCollections() {
	created, err := s.repo.Create(s.ctx, s.newDomain("Default", "default"))
	s.Require().NoError(err)
	s.Require().NotNil(created)

	s.NotEmpty(created.ID)
	s.NotNil(created.Identities)
	s.NotNil(created.Tags)
	s.NotNil(created.Vhosts)
	s.NotNil(created.OIDC)
	s.Empty(created.Identities)
	s.False(created.CreatedAt.IsZero())
	s.Equal(model.EnvironmentRef("env-1"), created.Reference)
}

func (s *DomainRepositorySuite) TestRoundTripWithChildren() {
	domain := s.newDomain("Acme", "acme")
	domain.Identities = []string{"idp-1", "idp-2"}
	domain.Tags = []string{"internal"}
	domain.Vhosts = []model.VirtualHost{{Host: "acme.example.com", Path: "/", OverrideEntrypoint: true}}
	domain.OIDC = types.JsonObject{"issuer": "https://acme.example.com"}

	created, err := s.repo.Create(s.ctx, domain)
	s.Require().NoError(err)

	found, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.ElementsMatch([]string{"idp-1", "idp-2"}, found.Identities)
	s.Equal([]string{"internal"}, found.Tags)
	s.Equal([]model.VirtualHost{{Host: "acme.example.com", Path: "/", OverrideEntrypoint: true}}, found.Vhosts)
	s.Equal("https://acme.example.com", found.OIDC["issuer"])
}

func (s *DomainRepositorySuite) TestUpdateReplacesChildren() {
	domain := s.newDomain("Acme", "acme")
	domain.Tags = []string{"a", "b"}
	created, err := s.repo.Create(s.ctx, domain)
	s.Require().NoError(err)

	created.Tags = []string{"c"}
	created.Name = "Acme Corp"
	updated, err := s.repo.Update(s.ctx, created)
	s.Require().NoError(err)

	s.Equal("Acme Corp", updated.Name)
	s.Equal([]string{"c"}, updated.Tags)
	s.Equal(1, s.countRows("domain_tags", "domain_id", created.ID))
}

func (s *DomainRepositorySuite) TestDeleteRemovesChildren() {
	domain := s.newDomain("Acme", "acme")
	domain.Identities = []string{"idp-1"}
	domain.Tags = []string{"a"}
	domain.Vhosts = []model.VirtualHost{{Host: "acme.example.com", Path: "/"}}
	created, err := s.repo.Create(s.ctx, domain)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Delete(s.ctx, created.ID))

	found, err := s.repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(found)
	s.Zero(s.countRows("domain_identities", "domain_id", created.ID))
	s.Zero(s.countRows("domain_tags", "domain_id", created.ID))
	s.Zero(s.countRows("domain_vhosts", "domain_id", created.ID))
}

func (s *DomainRepositorySuite) TestUpdateMissingDomainWritesNoChildren() {
	ghost := s.newDomain("Ghost", "ghost")
	ghost.ID = "ghost"
	ghost.Tags = []string{"t1"}
	ghost.Vhosts = []model.VirtualHost{{Host: "ghost.example.com", Path: "/"}}

	updated, err := s.repo.Update(s.ctx, ghost)
	s.Require().NoError(err)
	s.Nil(updated)
	s.Zero(s.countRows("domains", "id", "ghost"))
	s.Zero(s.countRows("domain_tags", "domain_id", "ghost"))
	s.Zero(s.countRows("domain_vhosts", "domain_id", "ghost"))
}

func (s *DomainRepositorySuite) TestFailedChildInsertRollsBackDomain() {
	domain := s.newDomain("Acme", "acme")
	domain.ID = "dup-vhost"
	domain.Tags = []string{"internal"}
	domain.Vhosts = []model.VirtualHost{
		{Host: "acme.example.com", Path: "/"},
		{Host: "acme.example.com", Path: "/"},
	}

	created, err := s.repo.Create(s.ctx, domain)
	s.Require().Error(err)
	s.Nil(created)
	s.Zero(s.countRows("domains", "id", "dup-vhost"))
	s.Zero(s.countRows("domain_tags", "domain_id", "dup-vhost"))
	s.Zero(s.countRows("domain_vhosts", "domain_id", "dup-vhost"))
}

func (s *DomainRepositorySuite) TestFindByIDMissing() {
	found, err := s.repo.FindByID(s.ctx, "missing")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *DomainRepositorySuite) TestFindersAndSearch() {
	_, err := s.repo.Create(s.ctx, s.newDomain("Acme", "acme"))
	s.Require().NoError(err)
	_, err = s.repo.Create(s.ctx, s.newDomain("Acme Staging", "acme-staging"))
	s.Require().NoError(err)
	other := s.newDomain("Other", "other")
	other.Reference = model.EnvironmentRef("env-2")
	otherCreated, err := s.repo.Create(s.ctx, other)
	s.Require().NoError(err)

	all, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	inEnv, err := s.repo.FindAllByReference(s.ctx, model.EnvironmentRef("env-1"))
	s.Require().NoError(err)
	s.Len(inEnv, 2)

	byHrid, err := s.repo.FindByHrid(s.ctx, model.EnvironmentRef("env-2"), "other")
	s.Require().NoError(err)
	s.Require().NotNil(byHrid)
	s.Equal(otherCreated.ID, byHrid.ID)

	wildcard, err := s.repo.Search(s.ctx, "env-1", "acme*")
	s.Require().NoError(err)
	s.Len(wildcard, 2)

	exact, err := s.repo.Search(s.ctx, "env-1", "ACME")
	s.Require().NoError(err)
	s.Require().Len(exact, 1)
	s.Equal("Acme", exact[0].Name)

	byIDs, err := s.repo.FindByIDs(s.ctx, []string{otherCreated.ID, "missing"})
	s.Require().NoError(err)
	s.Len(byIDs, 1)

	none, err := s.repo.FindByIDs(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(none)
}
