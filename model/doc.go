// Package model holds the bun row models of every entity and of the child
// association tables they own, the Reference scoping pair and the criteria
// objects rendered to predicates by the repositories.
package model
