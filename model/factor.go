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

type Factor struct {
	bun.BaseModel `bun:"table:factors,alias:f"`

	ID            string    `bun:"id,pk"`
	Domain        string    `bun:"domain,notnull"`
	Name          string    `bun:"name,notnull"`
	Type          string    `bun:"type"`
	FactorType    string    `bun:"factor_type"`
	Configuration string    `bun:"configuration"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}
