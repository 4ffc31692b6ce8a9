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

package model

import (
	"time"

	"github.com/uptrace/bun"
)

type AlertTrigger struct {
	bun.BaseModel `bun:"table:alert_triggers,alias:at"`

	ID        string    `bun:"id,pk"`
	Reference Reference `bun:"embed:reference_"`
	Type      string    `bun:"type,notnull"`
	Enabled   bool      `bun:"enabled,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	AlertNotifiers []string `bun:"-"`
}

func (t *AlertTrigger) Normalize() {
	t.AlertNotifiers = nonNilStrings(t.AlertNotifiers)
}

type AlertTriggerNotifier struct {
	bun.BaseModel `bun:"table:alert_triggers_alert_notifiers"`

	AlertTriggerID  string `bun:"alert_trigger_id,pk"`
	AlertNotifierID string `bun:"alert_notifier_id,pk"`
}

func (t *AlertTrigger) NotifierRows() []*AlertTriggerNotifier {
	return stringRows(t.AlertNotifiers, func(v string) *AlertTriggerNotifier {
		return &AlertTriggerNotifier{AlertTriggerID: t.ID, AlertNotifierID: v}
	})
}

func (t *AlertTrigger) SetAlertNotifiers(rows []*AlertTriggerNotifier) {
	t.AlertNotifiers = rowStrings(rows, func(r *AlertTriggerNotifier) string { return r.AlertNotifierID })
}

type AlertNotifier struct {
	bun.BaseModel `bun:"table:alert_notifiers,alias:an"`

	ID            string    `bun:"id,pk"`
	Reference     Reference `bun:"embed:reference_"`
	Name          string    `bun:"name,notnull"`
	Type          string    `bun:"type,notnull"`
	Enabled       bool      `bun:"enabled,notnull"`
	Configuration string    `bun:"configuration"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}
