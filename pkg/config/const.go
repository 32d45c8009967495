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
	"time"
)

const (
	ConfigDir                = ".psylink"
	ConfigFile               = "config"
	DBFile                   = "state.db"
	DefaultLogLevel          = "info"
	DefaultStreamAddress     = "0.0.0.0:33401"
	DefaultApiAddress        = "127.0.0.1:8401"
	DefaultQueueSize         = 256
	DefaultFlushInterval     = 5 * time.Second
	DefaultDeviceName        = "psylink0"
	DefaultDeviceIP          = "127.0.0.1"
	DefaultDeviceChannels    = 8
	DefaultSerialBaudRate    = 115200
	DefaultSimulatorInterval = 50 * time.Millisecond
)
