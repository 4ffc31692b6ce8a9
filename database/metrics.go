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

package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bun"
)

// Metrics holds the query and purge collectors.
type Metrics struct {
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	PurgedRows    *prometheus.CounterVec
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iamstore_db_queries_total",
			Help: "Total number of SQL queries by operation and table",
		}, []string{"operation", "table", "status"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "iamstore_db_query_duration_seconds",
			Help:    "Duration of SQL queries by operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
		PurgedRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "iamstore_purged_rows_total",
			Help: "Total number of expired rows removed by purge, by table",
		}, []string{"table"}),
	}
}

// DefaultMetrics returns the collectors registered on the default registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// ObservePurge records n rows purged from table.
func (m *Metrics) ObservePurge(table string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.PurgedRows.WithLabelValues(table).Add(float64(n))
}

// MetricsHook is a bun.QueryHook feeding Metrics.
type MetricsHook struct {
	metrics *Metrics
}

var _ bun.QueryHook = (*MetricsHook)(nil)

func NewMetricsHook(m *Metrics) *MetricsHook {
	return &MetricsHook{metrics: m}
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	operation := event.Operation()
	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	h.metrics.Queries.WithLabelValues(operation, queryTable(event), status).Inc()
	h.metrics.QueryDuration.WithLabelValues(operation).Observe(time.Since(event.StartTime).Seconds())
}

func queryTable(event *bun.QueryEvent) string {
	if event.IQuery == nil {
		return ""
	}
	if q, ok := event.IQuery.(interface{ GetTableName() string }); ok {
		return strings.Trim(q.GetTableName(), `"`+"`")
	}
	return ""
}
