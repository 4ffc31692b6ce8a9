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

import "github.com/tomoncle/iamstore/database"

// Table creation order: parents, then the association tables they own, then
// runtime data.
const (
	priorityEntity  = 10
	priorityChild   = 20
	priorityRuntime = 30
)

func init() {
	register(priorityEntity,
		(*Organization)(nil),
		(*Domain)(nil),
		(*Application)(nil),
		(*User)(nil),
		(*Group)(nil),
		(*Role)(nil),
		(*Scope)(nil),
		(*Certificate)(nil),
		(*Factor)(nil),
		(*Flow)(nil),
		(*IdentityProvider)(nil),
		(*Installation)(nil),
		(*Membership)(nil),
		(*AlertTrigger)(nil),
		(*AlertNotifier)(nil),
		(*SystemTask)(nil),
	)
	register(priorityChild,
		(*OrganizationDomainRestriction)(nil),
		(*OrganizationHrid)(nil),
		(*DomainIdentity)(nil),
		(*DomainTag)(nil),
		(*DomainVhost)(nil),
		(*ApplicationIdentity)(nil),
		(*ApplicationFactor)(nil),
		(*ApplicationGrant)(nil),
		(*ApplicationScopeSetting)(nil),
		(*UserRole)(nil),
		(*UserEntitlement)(nil),
		(*UserEmailRow)(nil),
		(*GroupMember)(nil),
		(*GroupRole)(nil),
		(*RoleOAuthScope)(nil),
		(*ScopeClaim)(nil),
		(*FlowStep)(nil),
		(*AlertTriggerNotifier)(nil),
	)
	register(priorityRuntime,
		(*LoginAttempt)(nil),
		(*VerifyAttempt)(nil),
		(*RateLimit)(nil),
		(*Device)(nil),
		(*AuthenticationFlowContext)(nil),
		(*PermissionTicket)(nil),
		(*UserActivity)(nil),
	)

	database.RegisterForeignKey(
		database.ChildOf("organization_domain_restrictions", "organization_id", "organizations"),
		database.ChildOf("organization_hrids", "organization_id", "organizations"),
		database.ChildOf("domain_identities", "domain_id", "domains"),
		database.ChildOf("domain_tags", "domain_id", "domains"),
		database.ChildOf("domain_vhosts", "domain_id", "domains"),
		database.ChildOf("application_identities", "application_id", "applications"),
		database.ChildOf("application_factors", "application_id", "applications"),
		database.ChildOf("application_grants", "application_id", "applications"),
		database.ChildOf("application_scope_settings", "application_id", "applications"),
		database.ChildOf("user_roles", "user_id", "users"),
		database.ChildOf("user_entitlements", "user_id", "users"),
		database.ChildOf("user_emails", "user_id", "users"),
		database.ChildOf("group_members", "group_id", "groups"),
		database.ChildOf("group_roles", "group_id", "groups"),
		database.ChildOf("role_oauth_scopes", "role_id", "roles"),
		database.ChildOf("scope_claims", "scope_id", "scopes"),
		database.ChildOf("flow_steps", "flow_id", "flows"),
		database.ChildOf("alert_triggers_alert_notifiers", "alert_trigger_id", "alert_triggers"),
	)
}

func register(priority int, instances ...interface{}) {
	for _, instance := range instances {
		database.RegisteredModel(database.NewModelAdapter(instance, priority))
	}
}
