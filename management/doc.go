// Package management holds the repositories of configuration entities:
// organizations, domains, applications, users, groups, roles, scopes,
// certificates, factors, flows, identity providers, installations,
// memberships, alerts and system tasks.
//
// Entities owning association tables are written together with their
// children inside one transaction; children are replaced wholesale on every
// update and loaded with one query per table on reads.
package management
