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
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/tomoncle/iamstore/management"
	"github.com/tomoncle/iamstore/model"
	"github.com/tomoncle/iamstore/types"
)

type EntityRepositoriesSuite struct {
	dbSuite
}

func TestEntityRepositories(t *testing.T) {
	suite.Run(t, new(EntityRepositoriesSuite))
}

func (s *EntityRepositoriesSuite) TestOrganization() {
	repo := management.NewOrganizationRepository(s.db)

	created, err := repo.Create(s.ctx, &model.Organization{
		Name:               "Acme",
		Hrids:              []string{"acme", "acme-corp"},
		DomainRestrictions: []string{"acme.com"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"acme", "acme-corp"}, created.Hrids)
	s.Equal([]string{"acme.com"}, created.DomainRestrictions)
	s.NotNil(created.Identities)

	_, err = repo.Create(s.ctx, &model.Organization{Name: "Other", Hrids: []string{"other"}})
	s.Require().NoError(err)

	byHrids, err := repo.FindByHrids(s.ctx, []string{"acme-corp"})
	s.Require().NoError(err)
	s.Require().Len(byHrids, 1)
	s.Equal(created.ID, byHrids[0].ID)

	count, err := repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	created.Hrids = []string{"acme-corp", "acme"}
	updated, err := repo.Update(s.ctx, created)
	s.Require().NoError(err)
	s.Equal([]string{"acme-corp", "acme"}, updated.Hrids)

	s.Require().NoError(repo.Delete(s.ctx, created.ID))
	s.Zero(s.countRows("organization_hrids", "organization_id", created.ID))
	s.Zero(s.countRows("organization_domain_restrictions", "organization_id", created.ID))
}

func (s *EntityRepositoriesSuite) TestGroup() {
	repo := management.NewGroupRepository(s.db)
	ref := model.DomainRef("d1")

	admins, err := repo.Create(s.ctx, &model.Group{Name: "admins", Reference: ref, Members: []string{"u1", "u2"}, Roles: []string{"r1"}})
	s.Require().NoError(err)
	_, err = repo.Create(s.ctx, &model.Group{Name: "users", Reference: ref, Members: []string{"u2"}})
	s.Require().NoError(err)

	byMember, err := repo.FindByMember(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(byMember, 1)
	s.Equal(admins.ID, byMember[0].ID)
	s.ElementsMatch([]string{"u1", "u2"}, byMember[0].Members)

	both, err := repo.FindByMember(s.ctx, "u2")
	s.Require().NoError(err)
	s.Len(both, 2)

	byName, err := repo.FindByName(s.ctx, ref, "users")
	s.Require().NoError(err)
	s.Require().NotNil(byName)
	s.Empty(byName.Roles)

	page, err := repo.FindAllPaged(s.ctx, ref, types.NewDefaultPageRequest(1, 1))
	s.Require().NoError(err)
	s.Equal(2, page.Total)
	s.Equal("admins", page.Items[0].Name)

	wrongRef, err := repo.FindByReferenceAndID(s.ctx, model.DomainRef("d2"), admins.ID)
	s.Require().NoError(err)
	s.Nil(wrongRef)

	s.Require().NoError(repo.Delete(s.ctx, admins.ID))
	s.Zero(s.countRows("group_members", "group_id", admins.ID))
	s.Zero(s.countRows("group_roles", "group_id", admins.ID))
}

func (s *EntityRepositoriesSuite) TestRole() {
	repo := management.NewRoleRepository(s.db)
	ref := model.OrganizationRef("org-1")

	owner, err := repo.Create(s.ctx, &model.Role{
		Name:           "OWNER",
		Reference:      ref,
		AssignableType: model.ReferenceDomain,
		OAuthScopes:    []string{"openid", "profile"},
		PermissionACLs: map[string][]string{"DOMAIN": {"READ", "UPDATE"}},
	})
	s.Require().NoError(err)
	s.Equal([]string{"openid", "profile"}, owner.OAuthScopes)
	s.Equal([]string{"READ", "UPDATE"}, owner.PermissionACLs["DOMAIN"])

	_, err = repo.Create(s.ctx, &model.Role{Name: "USER", Reference: ref, AssignableType: model.ReferenceDomain})
	s.Require().NoError(err)
	_, err = repo.Create(s.ctx, &model.Role{Name: "USER", Reference: ref, AssignableType: model.ReferenceApplication})
	s.Require().NoError(err)

	one, err := repo.FindByNameAndAssignableType(s.ctx, ref, "USER", model.ReferenceApplication)
	s.Require().NoError(err)
	s.Require().NotNil(one)
	s.Equal(model.ReferenceApplication, one.AssignableType)
	s.NotNil(one.PermissionACLs)

	many, err := repo.FindByNamesAndAssignableType(s.ctx, ref, []string{"OWNER", "USER"}, model.ReferenceDomain)
	s.Require().NoError(err)
	s.Len(many, 2)

	search, err := repo.Search(s.ctx, ref, "us*", nil)
	s.Require().NoError(err)
	s.Equal(2, search.Total)

	byIDs, err := repo.FindByIDIn(s.ctx, []string{owner.ID})
	s.Require().NoError(err)
	s.Len(byIDs, 1)

	s.Require().NoError(repo.Delete(s.ctx, owner.ID))
	s.Zero(s.countRows("role_oauth_scopes", "role_id", owner.ID))
}

func (s *EntityRepositoriesSuite) TestScope() {
	repo := management.NewScopeRepository(s.db)

	openid, err := repo.Create(s.ctx, &model.Scope{Domain: "d1", Key: "openid", Name: "OpenID", Claims: []string{"sub"}})
	s.Require().NoError(err)
	_, err = repo.Create(s.ctx, &model.Scope{Domain: "d1", Key: "profile", Claims: []string{"name", "family_name"}})
	s.Require().NoError(err)
	_, err = repo.Create(s.ctx, &model.Scope{Domain: "d2", Key: "openid"})
	s.Require().NoError(err)

	byKey, err := repo.FindByDomainAndKey(s.ctx, "d1", "openid")
	s.Require().NoError(err)
	s.Require().NotNil(byKey)
	s.Equal(openid.ID, byKey.ID)
	s.Equal([]string{"sub"}, byKey.Claims)

	byKeys, err := repo.FindByDomainAndKeys(s.ctx, "d1", []string{"openid", "profile", "email"})
	s.Require().NoError(err)
	s.Require().Len(byKeys, 2)
	s.Equal([]string{"family_name", "name"}, byKeys[1].Claims)

	page, err := repo.FindByDomain(s.ctx, "d1", nil)
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	search, err := repo.Search(s.ctx, "d1", "prof*", nil)
	s.Require().NoError(err)
	s.Equal(1, search.Total)

	s.Require().NoError(repo.Delete(s.ctx, openid.ID))
	s.Zero(s.countRows("scope_claims", "scope_id", openid.ID))
}

func (s *EntityRepositoriesSuite) TestFlowKeepsStepOrder() {
	repo := management.NewFlowRepository(s.db)
	ref := model.DomainRef("d1")

	created, err := repo.Create(s.ctx, &model.Flow{
		Name:        "login",
		Reference:   ref,
		Application: "app-1",
		Pre:         []model.Step{{Name: "first"}, {Name: "second"}, {Name: "third"}},
		Post:        []model.Step{{Name: "after", Enabled: true}},
	})
	s.Require().NoError(err)
	s.Equal([]string{"first", "second", "third"}, stepNames(created.Pre))
	s.Equal([]string{"after"}, stepNames(created.Post))
	s.True(created.Post[0].Enabled)

	created.Pre = []model.Step{{Name: "only"}}
	created.Post = nil
	updated, err := repo.Update(s.ctx, created)
	s.Require().NoError(err)
	s.Equal([]string{"only"}, stepNames(updated.Pre))
	s.NotNil(updated.Post)
	s.Empty(updated.Post)

	byApp, err := repo.FindByApplication(s.ctx, ref, "app-1")
	s.Require().NoError(err)
	s.Len(byApp, 1)

	s.Require().NoError(repo.Delete(s.ctx, created.ID))
	s.Zero(s.countRows("flow_steps", "flow_id", created.ID))
}

func stepNames(steps []model.Step) []string {
	out := make([]string, 0, len(steps))
	for _, st := range steps {
		out = append(out, st.Name)
	}
	return out
}

func (s *EntityRepositoriesSuite) TestIdentityProvider() {
	repo := management.NewIdentityProviderRepository(s.db)
	ref := model.DomainRef("d1")

	created, err := repo.Create(s.ctx, &model.IdentityProvider{
		Name:       "ldap",
		Reference:  ref,
		Mappers:    map[string]string{"email": "mail"},
		RoleMapper: map[string][]string{"admin": {"cn=admins"}},
	})
	s.Require().NoError(err)
	s.Equal("mail", created.Mappers["email"])
	s.Equal([]string{"cn=admins"}, created.RoleMapper["admin"])
	s.NotNil(created.DomainWhitelist)

	byRef, err := repo.FindAllByReference(s.ctx, ref)
	s.Require().NoError(err)
	s.Len(byRef, 1)

	other, err := repo.FindByReferenceAndID(s.ctx, model.DomainRef("d2"), created.ID)
	s.Require().NoError(err)
	s.Nil(other)

	s.Require().NoError(repo.Delete(s.ctx, created.ID))
	all, err := repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *EntityRepositoriesSuite) TestInstallationSave() {
	repo := management.NewInstallationRepository(s.db)

	none, err := repo.Find(s.ctx)
	s.Require().NoError(err)
	s.Nil(none)

	saved, err := repo.Save(s.ctx, &model.Installation{ID: "inst", AdditionalInformation: types.JsonObject{"cockpit": "on"}})
	s.Require().NoError(err)
	s.Equal("on", saved.AdditionalInformation["cockpit"])

	saved.AdditionalInformation = types.JsonObject{"cockpit": "off"}
	again, err := repo.Save(s.ctx, saved)
	s.Require().NoError(err)
	s.Equal("off", again.AdditionalInformation["cockpit"])

	found, err := repo.Find(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("inst", found.ID)
	s.Equal(1, s.countRows("installations", "id", "inst"))
}

func (s *EntityRepositoriesSuite) TestSystemTaskUpdateIf() {
	repo := management.NewSystemTaskRepository(s.db)

	task, err := repo.Create(s.ctx, &model.SystemTask{ID: "task", Type: "UPGRADE", Status: "INITIALIZED", OperationID: "op-1"})
	s.Require().NoError(err)

	task.Status = "ONGOING"
	task.OperationID = "op-2"
	won, err := repo.UpdateIf(s.ctx, task, "op-1")
	s.Require().NoError(err)
	s.Equal("op-2", won.OperationID)
	s.Equal("ONGOING", won.Status)

	lost := &model.SystemTask{ID: "task", Type: "UPGRADE", Status: "FAILURE", OperationID: "op-3"}
	current, err := repo.UpdateIf(s.ctx, lost, "op-1")
	s.Require().NoError(err)
	s.Equal("op-2", current.OperationID)
	s.Equal("ONGOING", current.Status)
}

func (s *EntityRepositoriesSuite) TestCertificateAndFactor() {
	certs := management.NewCertificateRepository(s.db)
	factors := management.NewFactorRepository(s.db)

	expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	cert, err := certs.Create(s.ctx, &model.Certificate{Domain: "d1", Name: "default", ExpiresAt: expires})
	s.Require().NoError(err)
	s.WithinDuration(expires, cert.ExpiresAt, time.Second)
	s.NotNil(cert.Metadata)

	cert.Name = "rotated"
	cert, err = certs.Update(s.ctx, cert)
	s.Require().NoError(err)
	s.Equal("rotated", cert.Name)

	byDomain, err := certs.FindByDomain(s.ctx, "d1")
	s.Require().NoError(err)
	s.Len(byDomain, 1)

	factor, err := factors.Create(s.ctx, &model.Factor{Domain: "d1", Name: "otp", FactorType: "TOTP"})
	s.Require().NoError(err)
	s.Equal("TOTP", factor.FactorType)

	all, err := factors.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)

	s.Require().NoError(factors.Delete(s.ctx, factor.ID))
	s.Require().NoError(certs.Delete(s.ctx, cert.ID))
	gone, err := certs.FindByID(s.ctx, cert.ID)
	s.Require().NoError(err)
	s.Nil(gone)
}
