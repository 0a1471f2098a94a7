// Package httpserver exposes the agent's introspection endpoints (spec
// §6.4): info.json, frameworks.json, tasks.json, stats.json, and vars. It
// keeps more-free-mesos_scheduler's HASchedulerServer shape (a struct
// wrapping the thing it serves, a graceful-shutdown goroutine on SIGINT/
// SIGTERM) but replaces its scheduler-specific /list and /create routes with
// the five read-only handlers spec §6.4 asks for, all built from one
// agent.Snapshot() rather than five independently locked views.
package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	log "github.com/golang/glog"

	"github.com/more-free/agentd/agent"
)

type AgentServer struct {
	agent *agent.Agent
	addr  string
}

func NewAgentServer(a *agent.Agent, addr string) *AgentServer {
	return &AgentServer{agent: a, addr: addr}
}

func (s *AgentServer) Start() {
	go s.captureInterrupt()

	mux := http.NewServeMux()
	mux.HandleFunc("/info.json", s.Info)
	mux.HandleFunc("/frameworks.json", s.Frameworks)
	mux.HandleFunc("/tasks.json", s.Tasks)
	mux.HandleFunc("/stats.json", s.Stats)
	mux.HandleFunc("/vars", s.Vars)

	log.Infoln("httpserver: serving agent introspection endpoints on", s.addr)
	log.Fatalln(http.ListenAndServe(s.addr, mux))
}

func (s *AgentServer) captureInterrupt() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	signal.Notify(ch, syscall.SIGTERM)

	select {
	case <-ch:
		log.Infoln("httpserver: interruption received, stopping agent")
		s.agent.Stop()
		signal.Stop(ch)
	}
}

func (s *AgentServer) writeJSON(w http.ResponseWriter, v interface{}) {
	res, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(res)
}

// Info answers spec §6.4's info.json: the agent's own identity.
func (s *AgentServer) Info(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	s.writeJSON(w, struct {
		SlaveID  string `json:"slave_id"`
		Pid      string `json:"pid"`
		Hostname string `json:"hostname"`
		Master   string `json:"master_pid"`
	}{
		SlaveID:  string(snap.SlaveID),
		Pid:      snap.Pid,
		Hostname: snap.Hostname,
		Master:   snap.MasterPid,
	})
}

// Frameworks answers frameworks.json: one entry per framework currently
// known to the agent, with its executors.
func (s *AgentServer) Frameworks(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	s.writeJSON(w, snap.Frameworks)
}

// Tasks answers tasks.json: every launched task across every framework and
// executor, flattened for convenience. Allocated even when empty so it
// renders as [], not null (spec §6.4).
func (s *AgentServer) Tasks(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	tasks := make([]interface{}, 0)
	for _, fw := range snap.Frameworks {
		for _, ex := range fw.Executors {
			for _, t := range ex.LaunchedTasks {
				tasks = append(tasks, t)
			}
		}
	}
	s.writeJSON(w, tasks)
}

// Stats answers stats.json: the agent's running counters plus uptime and
// total_frameworks (spec §6.4).
func (s *AgentServer) Stats(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	s.writeJSON(w, struct {
		agent.Stats
		UptimeSeconds   float64 `json:"uptime_seconds"`
		TotalFrameworks int     `json:"total_frameworks"`
	}{
		Stats:           snap.Stats,
		UptimeSeconds:   snap.Uptime.Seconds(),
		TotalFrameworks: snap.TotalFrameworks,
	})
}

// Vars answers /vars in the plain-text "key value" form slave.cpp's
// http_vars handler used rather than JSON, including the build version and
// the agent's running configuration (spec §6.4).
func (s *AgentServer) Vars(w http.ResponseWriter, r *http.Request) {
	snap := s.agent.Snapshot()
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "build_version %s\n", agent.Version)
	fmt.Fprintf(w, "slave_id %s\n", snap.SlaveID)
	fmt.Fprintf(w, "pid %s\n", snap.Pid)
	fmt.Fprintf(w, "hostname %s\n", snap.Hostname)
	fmt.Fprintf(w, "master_pid %s\n", snap.MasterPid)
	fmt.Fprintf(w, "uptime_seconds %.0f\n", snap.Uptime.Seconds())
	fmt.Fprintf(w, "frameworks %d\n", len(snap.Frameworks))
	fmt.Fprintf(w, "tasks_running %d\n", snap.Stats.TasksRunning)
	fmt.Fprintf(w, "tasks_finished %d\n", snap.Stats.TasksFinished)
	fmt.Fprintf(w, "tasks_failed %d\n", snap.Stats.TasksFailed)
	fmt.Fprintf(w, "tasks_killed %d\n", snap.Stats.TasksKilled)
	fmt.Fprintf(w, "tasks_lost %d\n", snap.Stats.TasksLost)
	fmt.Fprintf(w, "valid_status_updates %d\n", snap.Stats.ValidStatusUpdates)
	fmt.Fprintf(w, "invalid_status_updates %d\n", snap.Stats.InvalidStatusUpdates)
}
