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

package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"":        logrus.InfoLevel,
		"debug":   logrus.DebugLevel,
		" WARN ":  logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"bogus":   logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestNewLoggerIsRegisteredOnce(t *testing.T) {
	a := NewLogger("registry-test")
	b := NewLogger("registry-test")
	assert.Same(t, a, b)
	assert.Contains(t, RegisteredLoggers(), "registry-test")

	require.True(t, SetLoggerLevel("registry-test", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("missing-logger", "debug"))
}

func TestTextLogFormatter(t *testing.T) {
	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(&TextLogFormatter{LoggerName: "DATABASE", NameWidth: 10, NoColor: true})

	l.WithField("table", "users").WithField("id", "u1").Warn("lookup failed")

	line := buf.String()
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "  DATABASE : lookup failed")
	assert.Contains(t, line, "id=u1 table=users")
}

func TestJSONFormat(t *testing.T) {
	defer ConfigureConsoleLogFormat("text")
	ConfigureConsoleLogFormat("json")

	l := logrus.New()
	buf := &bytes.Buffer{}
	l.SetOutput(buf)
	l.SetFormatter(newFormatter("JSON"))
	l.WithField("count", 3).Info("purged")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "purged", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.EqualValues(t, 3, rec["count"])
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("IAMSTORE_TEST_BOOL", "true")
	t.Setenv("IAMSTORE_TEST_STRING", "value")
	assert.True(t, EnvDefaultBool("IAMSTORE_TEST_BOOL", false))
	assert.Equal(t, "value", EnvDefaultString("IAMSTORE_TEST_STRING", "def"))
	assert.Equal(t, "def", EnvDefaultString("IAMSTORE_TEST_UNSET", "def"))

	t.Setenv("IAMSTORE_TEST_DURATION", "90s")
	t.Setenv("IAMSTORE_TEST_BAD_DURATION", "soon")
	assert.Equal(t, 90*time.Second, EnvDefaultDuration("IAMSTORE_TEST_DURATION", time.Minute))
	assert.Equal(t, time.Minute, EnvDefaultDuration("IAMSTORE_TEST_BAD_DURATION", time.Minute))
}

func TestConfigureOutput(t *testing.T) {
	defer ConfigureOutput(os.Stdout)
	buf := &bytes.Buffer{}
	ConfigureOutput(buf)

	l := NewLogger("output-test")
	l.SetLevel(logrus.InfoLevel)
	l.Info("redirected")
	assert.Contains(t, buf.String(), "redirected")
}
