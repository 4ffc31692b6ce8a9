// Package database provides connection management for postgres, mysql and
// sqlite, bun-model migrations, foreign key handling, query hooks (logging,
// slow queries, metrics, tracing), SQL error classification and the logger
// facade used by the repositories.
package database
