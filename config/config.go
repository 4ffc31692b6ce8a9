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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/viper"
	"github.com/tomoncle/iamstore/database"
	"github.com/tomoncle/iamstore/utils"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "IAMSTORE"

// Config is the root of the store configuration.
type Config struct {
	Database database.Config `mapstructure:"database"`
	Log      LogConfig       `mapstructure:"log"`
	Purge    PurgeConfig     `mapstructure:"purge"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// PurgeConfig drives the expired-data purge job. An empty Schedule runs the
// purge once.
type PurgeConfig struct {
	Schedule string        `mapstructure:"schedule"` // cron expression
	Timeout  time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	conn := database.DefaultConnectionConfig()
	v.SetDefault("database.connection.type", conn.Type)
	v.SetDefault("database.connection.driver", conn.Driver)
	v.SetDefault("database.connection.dsn", "")
	v.SetDefault("database.connection.host", "localhost")
	v.SetDefault("database.connection.port", 5432)
	v.SetDefault("database.connection.username", "")
	v.SetDefault("database.connection.password", "")
	v.SetDefault("database.connection.dbname", "iam")
	v.SetDefault("database.connection.sslmode", "disable")
	v.SetDefault("database.connection.max_idle_conns", conn.MaxIdleConns)
	v.SetDefault("database.connection.max_open_conns", conn.MaxOpenConns)
	v.SetDefault("database.connection.conn_max_lifetime", conn.ConnMaxLifetime)
	v.SetDefault("database.connection.conn_max_idle_time", conn.ConnMaxIdleTime)
	v.SetDefault("database.connection.connect_timeout", conn.ConnectTimeout)
	v.SetDefault("database.connection.read_timeout", conn.ReadTimeout)
	v.SetDefault("database.connection.write_timeout", conn.WriteTimeout)
	v.SetDefault("database.connection.enable_reconnect", conn.EnableReconnect)
	v.SetDefault("database.connection.reconnect_interval", conn.ReconnectInterval)
	v.SetDefault("database.connection.max_reconnect_tries", conn.MaxReconnectTries)
	v.SetDefault("database.connection.health_check_interval", conn.HealthCheckInterval)
	v.SetDefault("database.connection.enable_query_log", conn.EnableQueryLog)
	v.SetDefault("database.connection.query_log_style", conn.QueryLogStyle)
	v.SetDefault("database.connection.slow_query_time", conn.SlowQueryTime)
	v.SetDefault("database.connection.enable_metrics", false)
	v.SetDefault("database.connection.enable_tracing", false)
	v.SetDefault("database.connection.charset", conn.Charset)

	v.SetDefault("database.migrate.enable_migrate_on_startup", false)
	v.SetDefault("database.migrate.enable_foreign_key", false)
	v.SetDefault("database.migrate.foreign_key_file", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("purge.schedule", "")
	v.SetDefault("purge.timeout", 5*time.Minute)
}

// Load reads path when it is not empty, then applies environment overrides
// and validates the result. A missing file is an error; pass "" to rely on
// defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Database.ConnectionConfig.Type)) {
	case "postgres", "postgresql", "pg", "mysql", "mariadb", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("config: unsupported database type %q", c.Database.ConnectionConfig.Type)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("config: log format must be text or json, got %q", c.Log.Format)
	}
	if c.Purge.Schedule != "" && !gronx.New().IsValid(c.Purge.Schedule) {
		return fmt.Errorf("config: invalid purge schedule %q", c.Purge.Schedule)
	}
	if c.Purge.Timeout < 0 {
		return errors.New("config: purge timeout must not be negative")
	}
	return nil
}

// ApplyLogging pushes the log settings to every registered logger.
func (c *Config) ApplyLogging() {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
}
