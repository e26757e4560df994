/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
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

package checker

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NearNodeFlash/nnf-nvmeof/pkg/token"
)

// Server exposes the checker over HTTP
type Server struct {
	Log     logr.Logger
	Checker *Checker

	// TokenKey verifies bearer tokens on mutating endpoints
	TokenKey []byte
}

type statusResponse struct {
	Host      string   `json:"host"`
	Targets   int      `json:"targets"`
	LastSweep *Summary `json:"lastSweep,omitempty"`
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/v1/status", s.getStatus).Methods(http.MethodGet)
	router.HandleFunc("/v1/targets", s.getTargets).Methods(http.MethodGet)
	router.HandleFunc("/v1/results/{target}", s.getResults).Methods(http.MethodGet)
	router.HandleFunc("/v1/sweeps", s.authenticate(s.postSweep)).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Host:    s.Checker.Host.Name(),
		Targets: len(s.Checker.Inventory.Targets),
	}

	if summary, found := s.Checker.LastSummary(); found {
		status.LastSweep = &summary
	}

	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) getTargets(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Checker.Inventory.Targets)
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["target"]

	if _, found := s.Checker.Inventory.Target(name); !found {
		http.Error(w, "unknown target", http.StatusNotFound)
		return
	}

	if s.Checker.Store == nil {
		http.Error(w, "no history store", http.StatusServiceUnavailable)
		return
	}

	limit := 20
	if value := r.URL.Query().Get("limit"); len(value) != 0 {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	results, err := s.Checker.Store.Recent(name, limit)
	if err != nil {
		s.Log.Error(err, "Could not read results", "target", name)
		http.Error(w, "could not read results", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, results)
}

func (s *Server) postSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Checker.Sweep(r.Context())
	if err != nil {
		s.Log.Error(err, "Sweep failed")
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}

		if err := token.VerifyToken(strings.TrimPrefix(auth, "Bearer "), s.TokenKey); err != nil {
			s.Log.Info("Rejected request", "path", r.URL.Path, "error", err.Error())
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.Log.Error(err, "Could not encode response")
	}
}
