package agent

import (
	"time"

	"github.com/more-free/agentd/protocol"
)

// Snapshot is the single view backing every spec §6.4 HTTP handler
// (info.json, frameworks.json, tasks.json, stats.json, vars), the same way
// slave.cpp's getState() feeds all of its http_*_json handlers from one
// pass over its maps rather than five independent locks.
type Snapshot struct {
	SlaveID         protocol.SlaveID
	Pid             string
	Hostname        string
	MasterPid       string
	Uptime          time.Duration
	TotalFrameworks int
	Frameworks      []FrameworkSnapshot
	Stats           Stats
}

type FrameworkSnapshot struct {
	ID        protocol.FrameworkID
	Name      string
	User      string
	Pid       string
	Executors []ExecutorSnapshot
}

type ExecutorSnapshot struct {
	ID            protocol.ExecutorID
	Pid           string
	Registered    bool
	QueuedTasks   []protocol.TaskID
	LaunchedTasks []protocol.Task
}

// Snapshot builds the full tree rooted at the agent's bookkeeping. Every
// collection is allocated even when empty (spec §6.4: "when collections are
// empty the arrays are []"), so json.Marshal never renders one as null.
func (a *Agent) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := Snapshot{
		SlaveID:         a.cfg.SlaveID,
		Pid:             a.cfg.Pid,
		Hostname:        a.cfg.Hostname,
		MasterPid:       a.masterPid,
		Uptime:          time.Since(a.startTime),
		TotalFrameworks: len(a.frameworks),
		Frameworks:      make([]FrameworkSnapshot, 0, len(a.frameworks)),
		Stats:           a.stats,
	}
	for _, fw := range a.frameworks {
		fs := FrameworkSnapshot{
			ID:        fw.ID,
			Name:      fw.Info.Name,
			User:      fw.Info.User,
			Pid:       fw.Pid,
			Executors: make([]ExecutorSnapshot, 0, len(fw.Executors)),
		}
		for _, ex := range fw.Executors {
			es := ExecutorSnapshot{
				ID:            ex.ID,
				Pid:           ex.Pid,
				Registered:    ex.registered(),
				QueuedTasks:   make([]protocol.TaskID, 0, len(ex.QueuedTasks)),
				LaunchedTasks: make([]protocol.Task, 0, len(ex.LaunchedTasks)),
			}
			for id := range ex.QueuedTasks {
				es.QueuedTasks = append(es.QueuedTasks, id)
			}
			for _, t := range ex.LaunchedTasks {
				es.LaunchedTasks = append(es.LaunchedTasks, *t)
			}
			fs.Executors = append(fs.Executors, es)
		}
		snap.Frameworks = append(snap.Frameworks, fs)
	}
	return snap
}
