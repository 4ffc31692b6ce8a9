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

package repository

import (
	"errors"
	"fmt"

	"github.com/tomoncle/iamstore/database"
)

// ErrIllegalQuery is returned when a bulk delete carries no condition and
// would otherwise empty the table.
var ErrIllegalQuery = errors.New("illegal query: at least one criteria is required")

// ErrNotFound is returned by an update that matched no row.
var ErrNotFound = errors.New("entity not found")

// Fail logs err for operation op through the database logger, with the
// given key/value pairs, and returns it wrapped with op. A nil err stays nil.
func Fail(op string, err error, kv ...interface{}) error {
	if err == nil {
		return nil
	}
	fields := make([]interface{}, 0, len(kv)+6)
	fields = append(fields, "operation", op, "error", err.Error())
	if is, kind := database.IsSqlError(err); is {
		fields = append(fields, "sql_error", kind.String())
	}
	fields = append(fields, kv...)
	database.GetLogger().Error("Repository operation failed", fields...)
	return fmt.Errorf("%s: %w", op, err)
}
