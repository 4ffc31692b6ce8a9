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

package iamstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomoncle/iamstore/database"
	"github.com/tomoncle/iamstore/gateway"
	"github.com/tomoncle/iamstore/management"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/uptrace/bun"
)

const tracerName = "github.com/tomoncle/iamstore"

// Store groups every repository over one database handle.
type Store struct {
	db      *bun.DB
	metrics *database.Metrics
	tracer  trace.Tracer
	closer  func() error
	purgers []expiring

	Organizations     management.OrganizationRepository
	Domains           management.DomainRepository
	Applications      management.ApplicationRepository
	Users             management.UserRepository
	Groups            management.GroupRepository
	Roles             management.RoleRepository
	Scopes            management.ScopeRepository
	Certificates      management.CertificateRepository
	Factors           management.FactorRepository
	Flows             management.FlowRepository
	IdentityProviders management.IdentityProviderRepository
	Installations     management.InstallationRepository
	Memberships       management.MembershipRepository
	AlertTriggers     management.AlertTriggerRepository
	AlertNotifiers    management.AlertNotifierRepository
	SystemTasks       management.SystemTaskRepository
	LoginAttempts     gateway.LoginAttemptRepository
	VerifyAttempts    gateway.VerifyAttemptRepository
	RateLimits        gateway.RateLimitRepository
	Devices           gateway.DeviceRepository
	AuthFlowContexts  gateway.AuthenticationFlowContextRepository
	PermissionTickets gateway.PermissionTicketRepository
	UserActivities    gateway.UserActivityRepository
}

type expiring struct {
	table  string
	purger gateway.Purger
}

type Option func(*Store)

// WithMetrics records purged rows on m.
func WithMetrics(m *database.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Store) { s.tracer = t }
}

// New wires every repository on db. The caller keeps ownership of db.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		tracer: otel.Tracer(tracerName),

		Organizations:     management.NewOrganizationRepository(db),
		Domains:           management.NewDomainRepository(db),
		Applications:      management.NewApplicationRepository(db),
		Users:             management.NewUserRepository(db),
		Groups:            management.NewGroupRepository(db),
		Roles:             management.NewRoleRepository(db),
		Scopes:            management.NewScopeRepository(db),
		Certificates:      management.NewCertificateRepository(db),
		Factors:           management.NewFactorRepository(db),
		Flows:             management.NewFlowRepository(db),
		IdentityProviders: management.NewIdentityProviderRepository(db),
		Installations:     management.NewInstallationRepository(db),
		Memberships:       management.NewMembershipRepository(db),
		AlertTriggers:     management.NewAlertTriggerRepository(db),
		AlertNotifiers:    management.NewAlertNotifierRepository(db),
		SystemTasks:       management.NewSystemTaskRepository(db),
		LoginAttempts:     gateway.NewLoginAttemptRepository(db),
		VerifyAttempts:    gateway.NewVerifyAttemptRepository(db),
		RateLimits:        gateway.NewRateLimitRepository(db),
		Devices:           gateway.NewDeviceRepository(db),
		AuthFlowContexts:  gateway.NewAuthenticationFlowContextRepository(db),
		PermissionTickets: gateway.NewPermissionTicketRepository(db),
		UserActivities:    gateway.NewUserActivityRepository(db),
	}
	s.purgers = []expiring{
		{"login_attempts", s.LoginAttempts},
		{"devices", s.Devices},
		{"auth_flow_ctx", s.AuthFlowContexts},
		{"uma_permission_ticket", s.PermissionTickets},
		{"user_activities", s.UserActivities},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects the global database described by cfg and wires a Store on
// it. Close releases the connection.
func Open(ctx context.Context, cfg *database.Config, opts ...Option) (*Store, error) {
	db, err := database.InitDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectionConfig.EnableMetrics {
		opts = append([]Option{WithMetrics(database.DefaultMetrics())}, opts...)
	}
	s := New(db, opts...)
	s.closer = database.CloseDB
	return s, nil
}

func (s *Store) DB() *bun.DB { return s.db }

// Close releases the connection when the Store opened it.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// PurgeExpiredData purges every expiring table and returns the total number
// of rows removed. A failing table does not stop the others; their errors
// are joined.
func (s *Store) PurgeExpiredData(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "iamstore.PurgeExpiredData")
	defer span.End()

	var (
		total int64
		errs  []error
	)
	for _, e := range s.purgers {
		n, err := s.purgeTable(ctx, e)
		if err != nil {
			errs = append(errs, fmt.Errorf("purge %s: %w", e.table, err))
			continue
		}
		total += n
	}

	err := errors.Join(errs...)
	span.SetAttributes(attribute.Int64("iamstore.purged_rows", total))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "purge failed")
	}
	return total, err
}

func (s *Store) purgeTable(ctx context.Context, e expiring) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "iamstore.purge "+e.table,
		trace.WithAttributes(attribute.String("db.sql.table", e.table)))
	defer span.End()

	n, err := e.purger.PurgeExpiredData(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("iamstore.purged_rows", n))
	s.metrics.ObservePurge(e.table, n)
	return n, nil
}
