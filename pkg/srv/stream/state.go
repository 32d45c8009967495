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

package stream

import (
	"context"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/prototypefund/runde15-psylink/pkg/log"
)

const (
	BucketPrefix = "stream_"
	StatsKey     = "stats"
)

// State keeps per device stream statistics across restarts
type State struct {
	context.Context
	DB *bbolt.DB
}

func NewState(ctx context.Context, path string) (*State, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	return &State{
		Context: ctx,
		DB:      db,
	}, nil
}

// Close ...
func (s *State) Close() error {
	return s.DB.Close()
}

func BucketName(deviceName string) string {
	return fmt.Sprintf("%s%s", BucketPrefix, deviceName)
}

// SetStats ...
func (s *State) SetStats(stats Stats) error {
	log.Debug("Setting stats: device: %s", stats.Device)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketName(stats.Device)))
		if err != nil {
			return err
		}
		statsBytes, err := yaml.Marshal(stats)
		if err != nil {
			return err
		}
		return b.Put([]byte(StatsKey), statsBytes)
	})
}

// GetStats returns ErrStatsNotFound if nothing was persisted for the device yet
func (s *State) GetStats(deviceName string) (Stats, error) {
	log.Debug("Getting stats: device: %s", deviceName)
	stats := Stats{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName(deviceName)))
		if b == nil {
			return ErrStatsNotFound{Device: deviceName}
		}
		statsBytes := b.Get([]byte(StatsKey))
		if statsBytes == nil {
			return ErrStatsNotFound{Device: deviceName}
		}
		return yaml.Unmarshal(statsBytes, &stats)
	})
	return stats, err
}

// GetAllStats returns the stats of every device ever persisted, sorted by device name
func (s *State) GetAllStats() ([]Stats, error) {
	log.Debug("Getting all stats")
	all := []Stats{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if !strings.HasPrefix(string(name), BucketPrefix) {
				return nil
			}
			statsBytes := b.Get([]byte(StatsKey))
			if statsBytes == nil {
				return nil
			}
			stats := Stats{}
			if err := yaml.Unmarshal(statsBytes, &stats); err != nil {
				log.Error("Error while unmarshalling stats of %s: %s", name, err)
				return err
			}
			all = append(all, stats)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}
