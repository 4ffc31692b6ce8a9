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
	"time"

	"github.com/google/uuid"
)

// NewID returns a random identifier for a new row.
func NewID() string {
	return uuid.NewString()
}

// EnsureID returns id, or a new identifier when id is empty.
func EnsureID(id string) string {
	if id == "" {
		return NewID()
	}
	return id
}

// Now returns the current UTC time at the precision every dialect stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
