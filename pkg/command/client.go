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

package command

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/imroc/req"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/dataset"
	"github.com/prototypefund/runde15-psylink/pkg/srv/stream"
)

// ErrApi returned when the stream server answers with an unexpected status
type ErrApi struct {
	Status  string
	Message string
}

func (e ErrApi) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %s", e.Status)
	}
	return fmt.Sprintf("API error: %s: %s", e.Status, e.Message)
}

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s/api", cfg.ApiAddress),
	}
}

func (c *ApiClient) url(parts ...string) string {
	return fmt.Sprintf("%s/%s", c.ApiPrefix, strings.Join(parts, "/"))
}

func check(r *req.Resp, expected int) error {
	if r.Response().StatusCode != expected {
		return ErrApi{
			Status:  r.Response().Status,
			Message: strings.TrimSpace(r.String()),
		}
	}
	return nil
}

// Devices returns the devices the stream server is configured for
func (c *ApiClient) Devices() ([]stream.DeviceInfo, error) {
	r, err := req.Get(c.url("devices"))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	var devices []stream.DeviceInfo
	if err := r.ToJSON(&devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Stats returns live stream statistics of a device
func (c *ApiClient) Stats(device string) (*stream.Stats, error) {
	r, err := req.Get(c.url("stats", device))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	stats := &stream.Stats{}
	if err := r.ToJSON(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// AllStats returns live stream statistics of all devices
func (c *ApiClient) AllStats() ([]stream.Stats, error) {
	r, err := req.Get(c.url("stats"))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	var stats []stream.Stats
	if err := r.ToJSON(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// PersistedStats returns the stats kept in the state database of the stream server,
// devices removed from the config included
func (c *ApiClient) PersistedStats() ([]stream.Stats, error) {
	r, err := req.Get(c.url("persisted", "stats"))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	var stats []stream.Stats
	if err := r.ToJSON(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Label records a datapoint with the given label at the current packet of a device
func (c *ApiClient) Label(device string, label uint8) (*dataset.Datapoint, error) {
	r, err := req.Post(c.url("label", device), req.BodyJSON(&stream.LabelRequest{Label: label}))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	datapoint := &dataset.Datapoint{}
	if err := r.ToJSON(datapoint); err != nil {
		return nil, err
	}
	return datapoint, nil
}

// Dataset returns the dataset summary of a device
func (c *ApiClient) Dataset(device string) (*dataset.Summary, error) {
	r, err := req.Get(c.url("dataset", device))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	summary := &dataset.Summary{}
	if err := r.ToJSON(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// TrainingSample returns the packets preceding the i-th datapoint of a device
func (c *ApiClient) TrainingSample(device string, i int) (*dataset.TrainingSample, error) {
	r, err := req.Get(c.url("dataset", device, strconv.Itoa(i)))
	if err != nil {
		return nil, err
	}
	if err := check(r, http.StatusOK); err != nil {
		return nil, err
	}
	sample := &dataset.TrainingSample{}
	if err := r.ToJSON(sample); err != nil {
		return nil, err
	}
	return sample, nil
}

// Reset makes the decoder of a device forget the last tick
func (c *ApiClient) Reset(device string) error {
	r, err := req.Post(c.url("reset", device))
	if err != nil {
		return err
	}
	return check(r, http.StatusNoContent)
}
