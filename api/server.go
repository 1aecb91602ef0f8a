// Package api exposes the producer over a small local HTTP control
// surface: start jobs, inspect or stop them, and read resource status.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"auto-video-pipeline/archive"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/pipeline"
	"auto-video-pipeline/types"
)

// Server routes control requests to the producer and archive.
type Server struct {
	producer *pipeline.Producer
	store    *archive.Store
	log      *logsink.Logger
}

// NewServer creates the control API server.
func NewServer(producer *pipeline.Producer, store *archive.Store, log *logsink.Logger) *Server {
	return &Server{producer: producer, store: store, log: log}
}

// Routes builds the router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/v1/jobs", s.handleStartJob).Methods("POST")
	r.HandleFunc("/v1/jobs", s.handleListJobs).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}", s.handleGetJob).Methods("GET")
	r.HandleFunc("/v1/jobs/{id}/stop", s.handleStopJob).Methods("POST")
	r.HandleFunc("/v1/status", s.handleStatus).Methods("GET")
	r.HandleFunc("/v1/archive", s.handleArchive).Methods("GET")
	return r
}

// ListenAndServe runs the API on addr until the server errors out.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Printf("[api] control API listening on %s", addr)
	return srv.ListenAndServe()
}

type startJobRequest struct {
	Channel types.Channel `json:"channel"`
	Kind    string        `json:"kind"`
}

func (s *Server) handleStartJob(w http.ResponseWriter, r *http.Request) {
	var req startJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Channel.Name == "" {
		writeError(w, http.StatusBadRequest, "channel.name is required")
		return
	}
	kind := types.VideoKind(req.Kind)
	if kind != types.KindLong && kind != types.KindShort {
		writeError(w, http.StatusBadRequest, "kind must be \"long\" or \"short\"")
		return
	}

	// The job must outlive the request; only an explicit stop cancels it.
	id, err := s.producer.Start(context.Background(), req.Channel, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": id})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.producer.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.producer.Status(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleStopJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.producer.Stop(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"job_id": id, "state": "stopping"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	usage := s.producer.Usage()
	writeJSON(w, http.StatusOK, map[string]any{
		"ram_percent": usage.RAMPercent,
		"cpu_percent": usage.CPUPercent,
		"jobs":        s.producer.Counts(),
	})
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []archive.Record{})
		return
	}
	records, err := s.store.ListRecent(50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []archive.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
