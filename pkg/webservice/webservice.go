/*
Copyright 2019 Cloudera, Inc.  All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package webservice exposes a read-only debug and metrics HTTP surface
// over the preemption core. It never accepts a mutating request: the RM
// integration that drives tryPreempt is an external collaborator.
package webservice

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cloudera/yunikorn-preemption/pkg/log"
	"github.com/cloudera/yunikorn-preemption/pkg/preemption"
)

// WebService wires a gorilla/mux router over a Coordinator.
type WebService struct {
	coordinator *preemption.Coordinator
	router      *mux.Router
}

// New builds a WebService serving coordinator's state.
func New(coordinator *preemption.Coordinator) *WebService {
	ws := &WebService{
		coordinator: coordinator,
		router:      mux.NewRouter(),
	}
	ws.router.HandleFunc("/ws/v1/preemption/measures", ws.handleMeasures).Methods(http.MethodGet)
	ws.router.HandleFunc("/ws/v1/preemption/killset", ws.handleKillSet).Methods(http.MethodGet)
	ws.router.Handle("/metrics", promhttp.Handler())
	return ws
}

// ServeHTTP implements http.Handler.
func (ws *WebService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.router.ServeHTTP(w, r)
}

func (ws *WebService) handleMeasures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, ws.coordinator.MeasuresSnapshot())
}

func (ws *WebService) handleKillSet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, ws.coordinator.KillSetSnapshot())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Logger().Warn("failed to encode webservice response", zap.Error(err))
	}
}
