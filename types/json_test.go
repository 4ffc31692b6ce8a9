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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonObjectValue(t *testing.T) {
	v, err := JsonObject(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = JsonObject{"a": 1}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)
}

func TestJsonObjectScan(t *testing.T) {
	var obj JsonObject
	require.NoError(t, obj.Scan(nil))
	assert.NotNil(t, obj)
	assert.Empty(t, obj)

	require.NoError(t, obj.Scan(`{"enabled":true}`))
	assert.Equal(t, true, obj["enabled"])

	require.NoError(t, obj.Scan([]byte(`{"n":"x"}`)))
	assert.Equal(t, "x", obj["n"])

	require.NoError(t, obj.Scan(""))
	assert.Empty(t, obj)

	assert.Error(t, obj.Scan(42))
	assert.Error(t, obj.Scan("{broken"))
}
