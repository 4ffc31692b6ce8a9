// Package migrate applies the versioned PostgreSQL schema embedded in this
// package using golang-migrate. It complements the bun-model migrations run
// by the database manager, which serve sqlite and mysql as well.
package migrate
