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

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultFlushInterval, cfg.FlushInterval.Duration)
	assert.Len(t, cfg.Devices, 1)
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFile)

	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	cfg.LogLevel = "debug"
	cfg.FlushInterval = Duration{2 * time.Second}
	cfg.Devices = append(cfg.Devices, &Device{
		Name:       "left-arm",
		SerialPort: "/dev/ttyACM0",
		Channels:   4,
		Gyroscope:  true,
	})
	require.NoError(t, cfg.Persist(false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flushInterval: 2s")

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	require.NoError(t, loaded.Load())
	assert.Equal(t, "debug", loaded.LogLevel)
	assert.Equal(t, 2*time.Second, loaded.FlushInterval.Duration)
	require.Len(t, loaded.Devices, 2)

	device, err := loaded.GetDeviceByName("left-arm")
	require.NoError(t, err)
	assert.Equal(t, 4, device.Channels)
	assert.True(t, device.Gyroscope)
	assert.False(t, device.Accelerometer)
	assert.Equal(t, DefaultSerialBaudRate, device.SerialBaudRate())
}

func TestPersistNoOverwrite(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), ConfigFile))
	require.NoError(t, cfg.Persist(false))

	err := cfg.Persist(false)
	var exists ErrConfigFileExists
	require.True(t, errors.As(err, &exists))
	assert.Equal(t, cfg.Path(), exists.Path)

	assert.NoError(t, cfg.Persist(true))
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, cfg.Load())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFile)
	content := `
stream:
  address: 0.0.0.0:1
  apiAddress: 127.0.0.1:2
  queueSize: 10
  flushInterval: 1s
devices:
- name: a
  ip: 10.0.0.1
  channels: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	err := cfg.Load()
	var invalid ErrInvalidConfig
	assert.True(t, errors.As(err, &invalid))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
	}{
		{"duplicate name", func(c *Config) {
			c.Devices = append(c.Devices, &Device{Name: DefaultDeviceName, IP: "10.0.0.2", Channels: 1})
		}},
		{"empty name", func(c *Config) { c.Devices[0].Name = "" }},
		{"no transport", func(c *Config) { c.Devices[0].IP = "" }},
		{"bad ip", func(c *Config) { c.Devices[0].IP = "not-an-ip" }},
		{"shared ip", func(c *Config) {
			c.Devices = append(c.Devices, &Device{Name: "right", IP: DefaultDeviceIP, Channels: 8})
		}},
		{"shared ip other notation", func(c *Config) {
			c.Devices[0].IP = "10.0.0.5"
			c.Devices = append(c.Devices, &Device{Name: "right", IP: "::ffff:10.0.0.5", Channels: 8})
		}},
		{"negative channels", func(c *Config) { c.Devices[0].Channels = -1 }},
		{"queue size", func(c *Config) { c.QueueSize = 0 }},
		{"no stream section", func(c *Config) { c.StreamConfig = nil }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			c.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetDevice(t *testing.T) {
	cfg := NewDefaultConfig()
	device, err := cfg.GetDeviceByIP(net.ParseIP(DefaultDeviceIP))
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceName, device.Name)

	_, err = cfg.GetDeviceByIP(net.ParseIP("10.1.1.1"))
	var notFound ErrDeviceNotFound
	require.True(t, errors.As(err, &notFound))

	_, err = cfg.GetDeviceByName("missing")
	assert.Error(t, err)
}

func TestDBPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetPath("/etc/psylink/config")
	assert.Equal(t, "/etc/psylink/"+DBFile, cfg.DBPath())
	cfg.StreamConfig.DBPath = "/var/lib/psylink.db"
	assert.Equal(t, "/var/lib/psylink.db", cfg.DBPath())
}

func TestValidateDistinctIPs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Devices = []*Device{
		{Name: "left", IP: "10.0.0.5", Channels: 8},
		{Name: "right", IP: "10.0.0.6", Channels: 8},
		{Name: "wired", SerialPort: "/dev/ttyACM0", Channels: 8},
		{Name: "wired2", SerialPort: "/dev/ttyACM1", Channels: 8},
	}
	require.NoError(t, cfg.Validate())

	cfg.Devices[1].IP = "10.0.0.5"
	err := cfg.Validate()
	var invalid ErrInvalidConfig
	require.True(t, errors.As(err, &invalid))
	assert.Contains(t, invalid.What, "left")
	assert.Contains(t, invalid.What, "right")
}
