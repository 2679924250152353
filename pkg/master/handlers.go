package master

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/ryandielhenn/das/internal/telemetry"
)

// Router serves the master's status endpoints: /healthz, /info and /metrics.
func (m *Master) Router() http.Handler {
	r := mux.NewRouter()
	r.Handle("/healthz", telemetry.Instrument("healthz", http.HandlerFunc(m.Healthz))).Methods(http.MethodGet)
	r.Handle("/info", telemetry.Instrument("info", http.HandlerFunc(m.Info))).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.MetricsHandler())
	return r
}

// Healthz returns 200 while the master accepts datagrams and 503 afterwards.
func (m *Master) Healthz(w http.ResponseWriter, _ *http.Request) {
	if m.State() != StateRunning {
		http.Error(w, m.State().String(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// InfoResponse is the JSON body written by Info.
type InfoResponse struct {
	PID         int       `json:"pid"`
	Now         time.Time `json:"now"`
	State       string    `json:"state"`
	Values      []int64   `json:"values"`
	LastAverage *int64    `json:"last_average,omitempty"`
}

// Info writes the process ID, state machine state and the value set as JSON.
func (m *Master) Info(w http.ResponseWriter, _ *http.Request) {
	resp := InfoResponse{
		PID:    os.Getpid(),
		Now:    time.Now(),
		State:  m.State().String(),
		Values: m.Values(),
	}
	if avg, ok := m.LastAverage(); ok {
		resp.LastAverage = &avg
	}
	data, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
