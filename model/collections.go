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

import "github.com/tomoncle/iamstore/types"

func nonNilStrings(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}

func nonNilObject(o types.JsonObject) types.JsonObject {
	if o == nil {
		return make(types.JsonObject)
	}
	return o
}

func nonNilSlice[E any](s []E) []E {
	if s == nil {
		return make([]E, 0)
	}
	return s
}

// stringRows maps values to child rows built by mk, dropping duplicates
// since a value is part of the child primary key.
func stringRows[C any](values []string, mk func(string) *C) []*C {
	rows := make([]*C, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		rows = append(rows, mk(v))
	}
	return rows
}

// rowStrings reads one string column back from child rows.
func rowStrings[C any](rows []*C, get func(*C) string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, get(r))
	}
	return out
}
