// Package config loads store settings from an optional file and the
// environment using Viper.
//
// Every key can be overridden by an environment variable prefixed with
// IAMSTORE_ where dots become underscores, e.g.
// IAMSTORE_DATABASE_CONNECTION_TYPE=sqlite.
package config
