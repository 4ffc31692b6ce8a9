// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, predicate queries, pagination, transactions and
// upserts, plus the replace-all contract of child association tables.
package repository
