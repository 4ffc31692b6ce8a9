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

	"github.com/tomoncle/iamstore/types"
	"github.com/uptrace/bun"
)

// Installation describes the platform installation; there is one row.
type Installation struct {
	bun.BaseModel `bun:"table:installations,alias:inst"`

	ID                    string           `bun:"id,pk"`
	AdditionalInformation types.JsonObject `bun:"additional_information"`
	CreatedAt             time.Time        `bun:"created_at,notnull"`
	UpdatedAt             time.Time        `bun:"updated_at,notnull"`
}

func (i *Installation) Normalize() {
	i.AdditionalInformation = nonNilObject(i.AdditionalInformation)
}
