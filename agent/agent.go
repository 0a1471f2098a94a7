// Package agent implements the worker-agent actor: a single-threaded event
// loop that tracks frameworks, executors, and tasks, and mediates between a
// cluster master and the isolation module that actually runs work. It is
// grounded on original_source/src/slave/slave.cpp's Slave class, expressed
// in the idiom more-free-mesos_scheduler uses for its own central actor,
// TriggerScheduler (scheduler/scheduler.go): one struct owning its state,
// a handful of mutex-guarded maps, message handlers with no return value
// that log and bump a counter instead of propagating an error.
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/golang/glog"

	"github.com/more-free/agentd/isolation"
	"github.com/more-free/agentd/journal"
	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
	"github.com/more-free/agentd/transport"
)

// Version identifies the agent build, reported by the /vars endpoint the
// same way slave.cpp's http_vars handler reports build_date/build_user.
const Version = "agentd/0.1.0"

// Stats mirrors the counters slave.cpp's getState()/http_stats_json expose
// (spec §6.4 stats.json).
type Stats struct {
	TasksStarting            int64
	TasksRunning             int64
	TasksFinished            int64
	TasksFailed              int64
	TasksKilled              int64
	TasksLost                int64
	ValidStatusUpdates       int64
	InvalidStatusUpdates     int64
	ValidFrameworkMessages   int64
	InvalidFrameworkMessages int64
}

// Config bundles the options of spec §6.5 plus SPEC_FULL.md §1's additions.
// It is a plain struct rather than the config package's own type; cmd's
// config.Options is converted into this at wiring time.
type Config struct {
	SlaveID        protocol.SlaveID
	Pid            string
	Hostname       string
	PublicHostname string
	Resources      resources.Resources
	Attributes     map[string]string
	WorkDir        string
	SwitchUser     bool
	MasterLostTimeout time.Duration // 0 disables
}

type internalEvent struct {
	kind         string
	frameworkID  protocol.FrameworkID
	executorID   protocol.ExecutorID
	pid          string
	status       int32
}

// Agent is the actor. All mutation happens on the goroutine running Run;
// mu only guards reads made concurrently by the HTTP introspection handlers
// (spec §6.4), the same division of labor TriggerScheduler draws with its
// own taskLock/resourceLock.
type Agent struct {
	cfg Config

	mu         sync.RWMutex
	frameworks map[protocol.FrameworkID]*Framework
	masterPid  string
	masterSeen time.Time
	startTime  time.Time

	mailbox   transport.Mailbox
	isolation isolation.Module
	journal   journal.Journal // nil if not configured

	stats Stats
	seq   int64

	retries *retryScheduler

	internal chan internalEvent
	done     chan struct{}
	wg       sync.WaitGroup
}

func New(cfg Config, mailbox transport.Mailbox, iso isolation.Module, j journal.Journal) *Agent {
	a := &Agent{
		cfg:        cfg,
		frameworks: make(map[protocol.FrameworkID]*Framework),
		mailbox:    mailbox,
		isolation:  iso,
		journal:    j,
		retries:    newRetryScheduler(),
		internal:   make(chan internalEvent, 256),
		done:       make(chan struct{}),
		startTime:  time.Now(),
	}
	return a
}

// ExecutorStarted implements isolation.Callback, handing the event to the
// actor loop instead of mutating state from whatever goroutine the isolation
// module calls back on.
func (a *Agent) ExecutorStarted(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, pid string) {
	a.internal <- internalEvent{kind: "ExecutorStarted", frameworkID: frameworkID, executorID: executorID, pid: pid}
}

func (a *Agent) ExecutorExited(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, status int32) {
	a.internal <- internalEvent{kind: "ExecutorExited", frameworkID: frameworkID, executorID: executorID, status: status}
}

// NewMasterDetected/NoMasterDetected implement masterdetect.Listener.
func (a *Agent) NewMasterDetected(pid string) {
	a.internal <- internalEvent{kind: "NewMasterDetected", pid: pid}
}

func (a *Agent) NoMasterDetected() {
	a.internal <- internalEvent{kind: "NoMasterDetected"}
}

// Run is the actor loop. It owns every write to a.frameworks and a.masterPid.
func (a *Agent) Run() {
	if a.isolation != nil {
		if err := a.isolation.Initialize(a); err != nil {
			log.Fatalln("agent: failed to initialize isolation module:", err)
		}
	}

	retryTicker := time.NewTicker(time.Second)
	defer retryTicker.Stop()

	var masterLostTicker *time.Ticker
	if a.cfg.MasterLostTimeout > 0 {
		masterLostTicker = time.NewTicker(a.cfg.MasterLostTimeout)
		defer masterLostTicker.Stop()
	}

	for {
		select {
		case env, ok := <-a.mailbox.Recv():
			if !ok {
				return
			}
			a.dispatch(env)

		case ev := <-a.internal:
			a.dispatchInternal(ev)

		case <-retryTicker.C:
			a.statusUpdateTimeout()

		case <-masterLostTickerChan(masterLostTicker):
			a.checkMasterLost()

		case <-a.done:
			return
		}
	}
}

func masterLostTickerChan(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func (a *Agent) Stop() {
	close(a.done)
}

func (a *Agent) dispatch(env transport.Envelope) {
	switch env.Name {
	case "RegisterSlaveMessage", "SlaveRegisteredMessage":
		a.handleSlaveRegistered(env)
	case "SlaveReregisteredMessage":
		a.handleSlaveReregistered(env)
	case "RunTaskMessage":
		a.handleRunTask(env)
	case "KillTaskMessage":
		a.handleKillTask(env)
	case "KillFrameworkMessage":
		a.handleKillFramework(env)
	case "UpdateFrameworkMessage":
		a.handleUpdateFramework(env)
	case "StatusUpdateAcknowledgementMessage":
		a.handleStatusUpdateAcknowledgement(env)
	case "RegisterExecutorMessage":
		a.handleRegisterExecutor(env)
	case "StatusUpdateMessage":
		a.handleStatusUpdate(env)
	case "FrameworkToExecutorMessage":
		a.handleFrameworkToExecutor(env)
	case "ExecutorToFrameworkMessage":
		a.handleExecutorToFramework(env)
	case protocol.Ping:
		a.handlePing(env)
	default:
		log.Warningf("agent: dropping message of unknown type %q from %s", env.Name, env.From)
	}
}

func (a *Agent) dispatchInternal(ev internalEvent) {
	switch ev.kind {
	case "ExecutorStarted":
		a.handleExecutorStarted(ev.frameworkID, ev.executorID, ev.pid)
	case "ExecutorExited":
		a.handleExecutorExited(ev.frameworkID, ev.executorID, ev.status)
	case "NewMasterDetected":
		a.handleNewMasterDetected(ev.pid)
	case "NoMasterDetected":
		a.handleNoMasterDetected()
	}
}

func (a *Agent) send(to, name string, body interface{}) {
	data, err := protocol.ToBytes(body)
	if err != nil {
		log.Errorf("agent: failed to encode %s for %s: %v", name, to, err)
		return
	}
	if err := a.mailbox.Send(transport.Envelope{From: a.cfg.Pid, To: to, Name: name, Body: data}); err != nil {
		log.Warningf("agent: failed to send %s to %s: %v", name, to, err)
	}
}

func (a *Agent) nextSequence() int64 {
	a.seq++
	return a.seq
}

// uniqueWorkDir mirrors slave.cpp's getUniqueWorkDirectory: probe N = 0, 1,
// 2, ... and use the first directory that does not yet exist, under
// work_dir/slave-<id>/fw-<frameworkId>-<executorId>/N (spec §6.3).
func (a *Agent) uniqueWorkDir(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) (string, error) {
	base := filepath.Join(a.cfg.WorkDir, fmt.Sprintf("slave-%s", a.cfg.SlaveID), fmt.Sprintf("fw-%s-%s", frameworkID, executorID))
	for n := 0; ; n++ {
		candidate := filepath.Join(base, fmt.Sprintf("%d", n))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			if err := os.MkdirAll(candidate, 0755); err != nil {
				return "", fmt.Errorf("agent: failed to create work dir %s: %w", candidate, err)
			}
			return candidate, nil
		}
	}
}

func (a *Agent) checkMasterLost() {
	a.mu.RLock()
	pid := a.masterPid
	seen := a.masterSeen
	a.mu.RUnlock()
	if pid != "" {
		return
	}
	if seen.IsZero() {
		return
	}
	if time.Since(seen) >= a.cfg.MasterLostTimeout {
		log.Fatalln("agent: no master detected for", a.cfg.MasterLostTimeout, "- terminating per master_lost_timeout")
	}
}
