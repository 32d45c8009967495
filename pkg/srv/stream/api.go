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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/log"
)

const (
	ShutdownTimeout = 5 * time.Second
)

type DeviceInfo struct {
	Name          string `json:"name"`
	Transport     string `json:"transport"`
	Channels      int    `json:"channels"`
	Gyroscope     bool   `json:"gyroscope"`
	Accelerometer bool   `json:"accelerometer"`
	Subscribers   int    `json:"subscribers"`
}

type LabelRequest struct {
	Label uint8 `json:"label"`
}

type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	stream *StreamServer
}

func NewApiServer(ctx context.Context, cfg *config.Config, stream *StreamServer) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s", cfg.ApiAddress)

	s := &ApiServer{
		Context: ctx,
		Config:  cfg,
		stream:  stream,
	}
	s.configureRouter()
	return s, nil
}

// Handler returns the router wrapped with request logging and panic recovery
func (s *ApiServer) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(log.Writer{Level: log.ErrorLevel}))
	return handlers.LoggingHandler(log.Writer{Level: log.DebugLevel}, recovery(s.Router))
}

// Run serves the API until the context is done
func (s *ApiServer) Run() error {
	log.Info("Starting API server: address: %s", s.Config.ApiAddress)
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.Config.ApiAddress,
	}
	go func() {
		<-s.Context.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		httpServer.Shutdown(ctx)
	}()
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/devices", s.handleDevices()).Methods("GET")
	subRouter.HandleFunc("/stats", s.handleAllStats()).Methods("GET")
	subRouter.HandleFunc("/stats/{device}", s.handleStats()).Methods("GET")
	subRouter.HandleFunc("/persisted/stats", s.handlePersistedStats()).Methods("GET")
	subRouter.HandleFunc("/label/{device}", s.handleLabel()).Methods("POST")
	subRouter.HandleFunc("/dataset/{device}", s.handleDataset()).Methods("GET")
	subRouter.HandleFunc("/dataset/{device}/{index:[0-9]+}", s.handleTrainingSample()).Methods("GET")
	subRouter.HandleFunc("/reset/{device}", s.handleReset()).Methods("POST")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func (s *ApiServer) deviceStream(w http.ResponseWriter, r *http.Request) (*DeviceStream, bool) {
	name := mux.Vars(r)["device"]
	ds, err := s.stream.Stream(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return ds, true
}

func (s *ApiServer) handleDevices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling devices request")
		devices := []DeviceInfo{}
		for _, ds := range s.stream.Streams() {
			transport := "udp"
			if ds.SerialPort != "" {
				transport = "serial"
			}
			devices = append(devices, DeviceInfo{
				Name:          ds.Name,
				Transport:     transport,
				Channels:      ds.Channels,
				Gyroscope:     ds.Gyroscope,
				Accelerometer: ds.Accelerometer,
				Subscribers:   ds.Hub.Len(),
			})
		}
		writeJSON(w, devices)
	}
}

func (s *ApiServer) handleAllStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling stats request")
		stats := []Stats{}
		for _, ds := range s.stream.Streams() {
			stats = append(stats, ds.Stats.Snapshot())
		}
		writeJSON(w, stats)
	}
}

func (s *ApiServer) handlePersistedStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling persisted stats request")
		stats, err := s.stream.PersistedStats()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, stats)
	}
}

func (s *ApiServer) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := s.deviceStream(w, r)
		if !ok {
			return
		}
		log.Debug("Handling stats request: device: %s", ds.Name)
		writeJSON(w, ds.Stats.Snapshot())
	}
}

func (s *ApiServer) handleLabel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := s.deviceStream(w, r)
		if !ok {
			return
		}
		label := &LabelRequest{}
		if err := json.NewDecoder(r.Body).Decode(label); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Debug("Handling label request: device: %s label: %d", ds.Name, label.Label)
		writeJSON(w, ds.Dataset.Label(label.Label))
	}
}

func (s *ApiServer) handleDataset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := s.deviceStream(w, r)
		if !ok {
			return
		}
		log.Debug("Handling dataset request: device: %s", ds.Name)
		writeJSON(w, ds.Dataset.Summary())
	}
}

func (s *ApiServer) handleTrainingSample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := s.deviceStream(w, r)
		if !ok {
			return
		}
		index, err := strconv.Atoi(mux.Vars(r)["index"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sample, found := ds.Dataset.Get(index)
		if !found {
			http.Error(w, "Training sample not available", http.StatusNotFound)
			return
		}
		writeJSON(w, sample)
	}
}

func (s *ApiServer) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := s.deviceStream(w, r)
		if !ok {
			return
		}
		log.Debug("Handling reset request: device: %s", ds.Name)
		ds.Reset()
		w.WriteHeader(http.StatusNoContent)
	}
}
