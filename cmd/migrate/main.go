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

// migrate applies the store schema. PostgreSQL uses the embedded versioned
// SQL; sqlite and mysql fall back to the bun-model migrations (up only).
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/tomoncle/iamstore/config"
	"github.com/tomoncle/iamstore/database"
	"github.com/tomoncle/iamstore/database/migrate"
	"github.com/tomoncle/iamstore/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (yaml, json or toml)")
	direction := flag.String("direction", migrate.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	log := utils.NewLogger("MIGRATE")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}
	cfg.ApplyLogging()

	conn := &cfg.Database.ConnectionConfig
	switch strings.ToLower(conn.Type) {
	case "postgres", "postgresql", "pg":
		if err := migrate.Run(migrate.PostgresDSN(conn), *direction); err != nil {
			log.WithError(err).Error("Migration failed")
			os.Exit(1)
		}
	default:
		if *direction != migrate.DirectionUp {
			log.Errorf("Direction %q is only supported on postgres", *direction)
			os.Exit(1)
		}
		if err := runModelMigrations(cfg.Database); err != nil {
			log.WithError(err).Error("Migration failed")
			os.Exit(1)
		}
	}
	log.Info("Migration finished")
}

func runModelMigrations(cfg database.Config) error {
	ctx := context.Background()
	manager := database.NewDatabaseManager(&cfg.ConnectionConfig)
	if err := manager.Connect(ctx); err != nil {
		return err
	}
	defer manager.Disconnect()
	return manager.RunMigrations(ctx, cfg.DataMigrateConfig.MigrationOptions)
}
