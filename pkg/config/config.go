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
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

// Duration is time.Duration written as "5s" in the config file
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Device struct {
	Name string `json:"name"`
	// IP of the BLE bridge forwarding payloads of this device over UDP
	IP string `json:"ip,omitempty"`
	// SerialPort of a BLE to serial bridge, used instead of UDP when set
	SerialPort    string `json:"serialPort,omitempty"`
	BaudRate      int    `json:"baudRate,omitempty"`
	Channels      int    `json:"channels"`
	Gyroscope     bool   `json:"gyroscope"`
	Accelerometer bool   `json:"accelerometer"`
}

type StreamConfig struct {
	Address       string   `json:"address"`
	ApiAddress    string   `json:"apiAddress"`
	DBPath        string   `json:"dbPath,omitempty"`
	QueueSize     int      `json:"queueSize"`
	FlushInterval Duration `json:"flushInterval"`
}

type Config struct {
	LogLevel      string `json:"logLevel"`
	*StreamConfig `json:"stream"`
	Devices       []*Device `json:"devices"`
	filepath      string
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		StreamConfig: &StreamConfig{
			Address:       DefaultStreamAddress,
			ApiAddress:    DefaultApiAddress,
			QueueSize:     DefaultQueueSize,
			FlushInterval: Duration{DefaultFlushInterval},
		},
		Devices: []*Device{
			{
				Name:          DefaultDeviceName,
				IP:            DefaultDeviceIP,
				Channels:      DefaultDeviceChannels,
				Gyroscope:     true,
				Accelerometer: true,
			},
		},
		filepath: DefaultConfigPath(),
	}
}

// SetPath changes the file used by Load and Persist
func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file if it exists. Values missing in the file keep their defaults.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	// devices from the file replace the default ones instead of being merged into them
	defaultDevices := c.Devices
	c.Devices = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		c.Devices = defaultDevices
		return fmt.Errorf("parse %s: %w", c.filepath, err)
	}
	if c.Devices == nil {
		c.Devices = defaultDevices
	}
	return c.Validate()
}

func (c *Config) Validate() error {
	if c.StreamConfig == nil {
		return ErrInvalidConfig{What: "stream section is missing"}
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig{What: fmt.Sprintf("queue size must be positive: %d", c.QueueSize)}
	}
	names := make(map[string]bool)
	ips := make(map[string]string)
	for _, device := range c.Devices {
		if device.Name == "" {
			return ErrInvalidConfig{What: "device name is empty"}
		}
		if names[device.Name] {
			return ErrInvalidConfig{What: fmt.Sprintf("duplicate device name: %s", device.Name)}
		}
		names[device.Name] = true
		if device.Channels <= 0 {
			return ErrInvalidConfig{What: fmt.Sprintf("device %s: channels must be positive: %d", device.Name, device.Channels)}
		}
		if device.IP == "" && device.SerialPort == "" {
			return ErrInvalidConfig{What: fmt.Sprintf("device %s: either ip or serialPort must be set", device.Name)}
		}
		if device.IP != "" {
			ip := net.ParseIP(device.IP)
			if ip == nil {
				return ErrInvalidConfig{What: fmt.Sprintf("device %s: wrong ip: %s", device.Name, device.IP)}
			}
			// datagrams are routed by sender ip only
			if other, ok := ips[ip.String()]; ok {
				return ErrInvalidConfig{What: fmt.Sprintf("devices %s and %s share ip %s", other, device.Name, device.IP)}
			}
			ips[ip.String()] = device.Name
		}
	}
	return nil
}

// DBPath returns the path of the stream state database
func (c *Config) DBPath() string {
	if c.StreamConfig != nil && c.StreamConfig.DBPath != "" {
		return c.StreamConfig.DBPath
	}
	return filepath.Join(filepath.Dir(c.filepath), DBFile)
}

func (c *Config) GetDeviceByName(name string) (*Device, error) {
	for _, device := range c.Devices {
		if device.Name == name {
			return device, nil
		}
	}
	return nil, ErrDeviceNotFound{Name: name}
}

func (c *Config) GetDeviceByIP(ip net.IP) (*Device, error) {
	for _, device := range c.Devices {
		if device.IP != "" && net.ParseIP(device.IP).Equal(ip) {
			return device, nil
		}
	}
	return nil, ErrDeviceNotFound{Name: ip.String()}
}

// SerialBaudRate returns the configured baud rate or the default one
func (d *Device) SerialBaudRate() int {
	if d.BaudRate > 0 {
		return d.BaudRate
	}
	return DefaultSerialBaudRate
}
