/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package log

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, level)

	level, err = ParseLevel(" Warn ")
	require.NoError(t, err)
	assert.Equal(t, WarningLevel, level)

	_, err = ParseLevel("verbose")
	var wrong ErrWrongLevel
	require.True(t, errors.As(err, &wrong))
	assert.Equal(t, "verbose", wrong.Level)
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Init(buf, "warning"))
	defer func() {
		_ = Init(os.Stderr, "info")
	}()

	Debug("hidden %d", 1)
	Info("hidden %d", 2)
	Warning("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, WarningPrefix+"shown 3")
	assert.Contains(t, out, ErrorPrefix+"shown 4")
	assert.Contains(t, out, LogPrefix)
}

func TestInitKeepsLevelOnError(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Init(buf, "error"))
	defer func() {
		_ = Init(os.Stderr, "info")
	}()

	assert.Error(t, Init(buf, "loud"))
	assert.Equal(t, ErrorLevel, Level())
}

func TestWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Init(buf, "info"))
	defer func() {
		_ = Init(os.Stderr, "info")
	}()

	n, err := Writer{Level: InfoLevel}.Write([]byte("GET /api/devices 200\n"))
	require.NoError(t, err)
	assert.Equal(t, len("GET /api/devices 200\n"), n)
	Writer{Level: DebugLevel}.Println("dropped")

	out := buf.String()
	assert.Contains(t, out, InfoPrefix+"GET /api/devices 200")
	assert.NotContains(t, out, "dropped")
}
