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

package srv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/stats"
)

// ApiServer exposes the live receiver statistics and the cached per-file
// statistics over HTTP
type ApiServer struct {
	context.Context
	*config.Config
	*mux.Router
	receiver *ReceiveServer
	store    *stats.Store
}

// NewApiServer ...
func NewApiServer(ctx context.Context, cfg *config.Config, receiver *ReceiveServer, store *stats.Store) (*ApiServer, error) {
	log.Info("Initializing API server with address: %s port: %d", cfg.ApiConfig.Address, cfg.ApiConfig.Port)

	s := &ApiServer{
		Context:  ctx,
		Config:   cfg,
		receiver: receiver,
		store:    store,
	}
	return s, nil
}

// Run ...
func (s *ApiServer) Run() error {
	log.Debug("Starting API server: address: %s port: %d", s.Config.ApiConfig.Address, s.Config.ApiConfig.Port)
	s.configureRouter()
	httpServer := &http.Server{
		Handler: handlers.CORS()(s.Router),
		Addr:    fmt.Sprintf("%s:%d", s.Config.ApiConfig.Address, s.Config.ApiConfig.Port),
	}
	return httpServer.ListenAndServe()
}

func (s *ApiServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix("/api").Subrouter()
	subRouter.HandleFunc("/statistics/live", s.handleLive()).Methods("GET")
	subRouter.HandleFunc("/statistics/sources", s.handleSources()).Methods("GET")
	subRouter.HandleFunc("/statistics/source", s.handleSource()).Methods("GET")
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %v", err)
	}
}

func (s *ApiServer) handleLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling live statistics request")
		if s.receiver == nil {
			http.Error(w, "no receiver running", http.StatusNotFound)
			return
		}
		writeJSON(w, s.receiver.Statistics())
	}
}

func (s *ApiServer) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling statistics sources request")
		if s.store == nil {
			http.Error(w, "no statistics store configured", http.StatusNotFound)
			return
		}
		sources, err := s.store.Sources()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, sources)
	}
}

func (s *ApiServer) handleSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		source := r.URL.Query().Get("path")
		log.Debug("Handling statistics request for: %s", source)
		if s.store == nil {
			http.Error(w, "no statistics store configured", http.StatusNotFound)
			return
		}
		info, err := s.store.Get(source)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if info == nil {
			http.Error(w, fmt.Sprintf("no statistics for %s", source), http.StatusNotFound)
			return
		}
		writeJSON(w, info)
	}
}
