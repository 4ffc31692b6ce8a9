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

package gateway

import (
	"context"
	"time"

	"github.com/tomoncle/iamstore/database"
	"github.com/tomoncle/iamstore/repository"
	"github.com/tomoncle/iamstore/types"
)

// Purger is implemented by every repository of expiring rows.
type Purger interface {
	// PurgeExpiredData deletes the rows whose expiry is strictly before now
	// and returns how many were deleted.
	PurgeExpiredData(ctx context.Context) (int64, error)
}

// notExpired matches rows without expiry or expiring after now.
func notExpired(now time.Time) types.Predicate {
	return types.Or(types.IsNull("expire_at"), types.Gt("expire_at", now))
}

func purgeExpired[T any](ctx context.Context, base repository.Repository[T], table string) (int64, error) {
	now := repository.Now()
	n, err := base.DeleteWhere(ctx, types.Lt("expire_at", now))
	if err != nil {
		return 0, repository.Fail("purge expired data", err, "table", table)
	}
	if n > 0 {
		database.GetLogger().Debug("Purged expired rows", "table", table, "rows", n, "before", now)
	}
	return n, nil
}

func stamp(created, updated *time.Time) {
	now := repository.Now()
	if created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}
