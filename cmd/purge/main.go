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

// purge deletes expired runtime data once, or repeatedly on the cron
// schedule configured under purge.schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adhocore/gronx"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/iamstore"
	"github.com/tomoncle/iamstore/config"
	"github.com/tomoncle/iamstore/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (yaml, json or toml)")
	once := flag.Bool("once", false, "Purge once and exit, ignoring the schedule")
	flag.Parse()

	log := utils.NewLogger("PURGE")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, log, *configPath, *once)
	stop()
	if err != nil {
		log.WithError(err).Error("Purge stopped")
		os.Exit(1)
	}
}

// run purges once, or on every tick of the configured schedule until ctx is
// done. The store is closed before run returns.
func run(ctx context.Context, log *logrus.Logger, configPath string, once bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg.ApplyLogging()

	store, err := iamstore.Open(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if once || cfg.Purge.Schedule == "" {
		return purge(ctx, log, store, cfg.Purge.Timeout)
	}

	log.WithField("schedule", cfg.Purge.Schedule).Info("Purge scheduler started")
	for {
		next, err := gronx.NextTick(cfg.Purge.Schedule, false)
		if err != nil {
			return fmt.Errorf("invalid purge schedule: %w", err)
		}
		log.WithField("next", next.Format(time.RFC3339)).Debug("Waiting for next purge")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Purge scheduler stopped")
			return nil
		case <-timer.C:
		}
		// errors are logged and the next tick retries
		_ = purge(ctx, log, store, cfg.Purge.Timeout)
	}
}

func purge(ctx context.Context, log *logrus.Logger, store *iamstore.Store, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	n, err := store.PurgeExpiredData(ctx)
	entry := log.WithFields(logrus.Fields{"rows": n, "elapsed": time.Since(start).Round(time.Millisecond)})
	if err != nil {
		entry.WithError(err).Error("Purge finished with errors")
		return err
	}
	entry.Info("Purge finished")
	return nil
}
