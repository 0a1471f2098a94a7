package agent

import (
	"time"

	log "github.com/golang/glog"

	"github.com/more-free/agentd/journal"
	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
	"github.com/more-free/agentd/transport"
)

const maxStatusUpdateBackoff = 30 * time.Second

// handleNewMasterDetected is spec §4.1's NewMasterDetected: a new master pid
// was discovered (by masterdetect or, in tests, injected directly). The
// agent reregisters if it already holds a slave id or running frameworks and
// registers fresh otherwise, matching slave.cpp's newMasterDetected/registered split.
func (a *Agent) handleNewMasterDetected(pid string) {
	a.mu.Lock()
	a.masterPid = pid
	a.masterSeen = time.Now()
	hasState := a.cfg.SlaveID != "" || len(a.frameworks) > 0
	a.mu.Unlock()

	log.Infoln("agent: new master detected at", pid)

	if hasState {
		a.reregisterWithMaster()
	} else {
		a.registerWithMaster()
	}
}

func (a *Agent) handleNoMasterDetected() {
	a.mu.Lock()
	if a.masterPid != "" {
		a.masterSeen = time.Now()
	}
	a.masterPid = ""
	a.mu.Unlock()
	log.Warningln("agent: no master detected, waiting")
}

func (a *Agent) registerWithMaster() {
	a.mu.RLock()
	masterPid := a.masterPid
	a.mu.RUnlock()
	if masterPid == "" {
		return
	}
	a.send(masterPid, "RegisterSlaveMessage", protocol.RegisterSlaveMessage{
		Slave: a.slaveInfo(),
	})
}

func (a *Agent) reregisterWithMaster() {
	a.mu.RLock()
	masterPid := a.masterPid
	var tasks []protocol.Task
	for _, fw := range a.frameworks {
		for _, ex := range fw.Executors {
			for _, t := range ex.LaunchedTasks {
				tasks = append(tasks, *t)
			}
		}
	}
	a.mu.RUnlock()
	if masterPid == "" {
		return
	}
	a.send(masterPid, "ReregisterSlaveMessage", protocol.ReregisterSlaveMessage{
		SlaveID: a.cfg.SlaveID,
		Slave:   a.slaveInfo(),
		Tasks:   tasks,
	})
}

func (a *Agent) slaveInfo() protocol.SlaveInfo {
	return protocol.SlaveInfo{
		Hostname:       a.cfg.Hostname,
		PublicHostname: a.cfg.PublicHostname,
		Resources:      a.cfg.Resources.ToWire(),
		Attributes:     a.cfg.Attributes,
	}
}

func (a *Agent) handleSlaveRegistered(env transport.Envelope) {
	var msg protocol.SlaveRegisteredMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed SlaveRegisteredMessage:", err)
		return
	}
	a.mu.Lock()
	if a.cfg.SlaveID != "" && a.cfg.SlaveID != msg.SlaveID {
		a.mu.Unlock()
		log.Fatalln("agent: master assigned slave id", msg.SlaveID, "but agent already holds", a.cfg.SlaveID)
	}
	a.cfg.SlaveID = msg.SlaveID
	a.mu.Unlock()
	log.Infoln("agent: registered with master as", msg.SlaveID)
	a.replayJournal()
}

func (a *Agent) handleSlaveReregistered(env transport.Envelope) {
	var msg protocol.SlaveReregisteredMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed SlaveReregisteredMessage:", err)
		return
	}
	a.mu.RLock()
	mismatch := a.cfg.SlaveID != msg.SlaveID
	expected := a.cfg.SlaveID
	a.mu.RUnlock()
	if mismatch {
		log.Fatalln("agent: master reregistered agent under a different slave id:", msg.SlaveID, "expected", expected)
	}
	log.Infoln("agent: reregistered with master as", msg.SlaveID)
}

// replayJournal reconstructs framework.updates from the journal each time the
// agent registers with a master (SPEC_FULL.md §3), resending every
// still-unacknowledged update.
func (a *Agent) replayJournal() {
	if a.journal == nil {
		return
	}
	pending, err := a.journal.Replay()
	if err != nil {
		log.Warningln("agent: journal replay failed:", err)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for frameworkID, tasks := range pending {
		fw, ok := a.frameworks[frameworkID]
		if !ok {
			fw = newFramework(frameworkID, protocol.FrameworkInfo{}, "")
			a.frameworks[frameworkID] = fw
		}
		for taskID, rec := range tasks {
			fw.Updates[taskID] = rec.Update
			a.retries.push(&pendingUpdate{update: rec.Update, tries: 0, nextRetry: time.Now()})
		}
	}
}

// handleRunTask is spec §4.2: the master assigns a task. Resolve the
// executor (task's own, or the framework's default), queue-or-launch
// following slave.cpp's runTask branch, and spawn the executor through the
// isolation module if it has not started yet.
func (a *Agent) handleRunTask(env transport.Envelope) {
	var msg protocol.RunTaskMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed RunTaskMessage:", err)
		return
	}

	a.mu.Lock()
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		fw = newFramework(msg.FrameworkID, msg.Framework, msg.Pid)
		a.frameworks[msg.FrameworkID] = fw
	} else {
		fw.Pid = msg.Pid
	}

	executorID, info := a.resolveExecutor(msg.Framework, msg.Task)
	ex := fw.getExecutor(executorID)
	spawning := false
	var workDir string
	if ex == nil {
		ex = fw.createExecutor(executorID, info)
		spawning = true
	}
	ex.addTask(&msg.Task)
	if spawning {
		wd, err := a.uniqueWorkDir(fw.ID, executorID)
		if err != nil {
			log.Errorln("agent:", err)
		}
		ex.WorkDir = wd
		workDir = wd
	}
	res := ex.Resources
	a.mu.Unlock()

	if spawning {
		if err := a.isolation.LaunchExecutor(fw.ID, executorID, info, workDir, nil); err != nil {
			log.Errorf("agent: failed to launch executor %s: %v", executorID, err)
		}
	} else if ex.registered() {
		// The task just crossed into launchedTasks, so the isolation
		// adapter needs to know the executor's resource footprint grew
		// (spec §4.2 step e) before the task itself is dispatched.
		if err := a.isolation.ResourcesChanged(fw.ID, executorID, res); err != nil {
			log.Warningln("agent: ResourcesChanged failed:", err)
		}
		a.send(ex.Pid, "RunTaskMessage", msg)
	}
}

// resolveExecutor mirrors slave.cpp's executor-id resolution: use the task's
// own executor if it pinned one, otherwise the framework's default.
func (a *Agent) resolveExecutor(fwInfo protocol.FrameworkInfo, task protocol.TaskDescription) (protocol.ExecutorID, protocol.ExecutorInfo) {
	if task.HasExecutor() {
		return task.Executor.ExecutorID, *task.Executor
	}
	if fwInfo.DefaultExecutor != nil {
		return fwInfo.DefaultExecutor.ExecutorID, *fwInfo.DefaultExecutor
	}
	return protocol.ExecutorID(task.TaskID), protocol.ExecutorInfo{}
}

// handleKillTask is spec §4.3's four-case logic: unknown framework, unknown
// executor, queued-but-unregistered executor, or a live registered executor.
func (a *Agent) handleKillTask(env transport.Envelope) {
	var msg protocol.KillTaskMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed KillTaskMessage:", err)
		return
	}

	a.mu.Lock()
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		a.mu.Unlock()
		log.Warningln("agent: KillTask for unknown framework", msg.FrameworkID)
		a.sendSyntheticUpdate(msg.FrameworkID, "", msg.TaskID, protocol.TaskLost, -1, false)
		return
	}

	ex := fw.getExecutorByTask(msg.TaskID)
	if ex == nil {
		a.mu.Unlock()
		log.Warningln("agent: KillTask for unknown task", msg.TaskID)
		a.sendSyntheticUpdate(msg.FrameworkID, "", msg.TaskID, protocol.TaskLost, -1, false)
		return
	}

	if !ex.registered() {
		// Queued but the executor never registered: drop the task and
		// report it killed without ever having started. Sequence 0
		// distinguishes this case from the unknown-framework/unknown-task
		// cases above (spec §4.3).
		ex.removeTask(msg.TaskID)
		executorID := ex.ID
		res := ex.Resources
		a.mu.Unlock()
		if err := a.isolation.ResourcesChanged(msg.FrameworkID, executorID, res); err != nil {
			log.Warningln("agent: ResourcesChanged failed:", err)
		}
		a.sendSyntheticUpdate(msg.FrameworkID, executorID, msg.TaskID, protocol.TaskKilled, 0, false)
		return
	}

	pid := ex.Pid
	a.mu.Unlock()
	a.send(pid, "KillTaskMessage", msg)
}

func (a *Agent) sendSyntheticUpdate(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, taskID protocol.TaskID, state protocol.TaskState, sequence int64, reliable bool) {
	update := protocol.StatusUpdate{
		FrameworkID: frameworkID,
		ExecutorID:  executorID,
		SlaveID:     a.cfg.SlaveID,
		Status:      protocol.TaskStatus{TaskID: taskID, State: state},
		Timestamp:   time.Now(),
		Sequence:    sequence,
	}
	a.deliverStatusUpdate(update, reliable)
}

// handleKillFramework is spec §4.3: shut down every executor belonging to
// the framework and drop its bookkeeping, mirroring slave.cpp's killFramework.
func (a *Agent) handleKillFramework(env transport.Envelope) {
	var msg protocol.KillFrameworkMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed KillFrameworkMessage:", err)
		return
	}
	a.removeFramework(msg.FrameworkID)
}

func (a *Agent) removeFramework(frameworkID protocol.FrameworkID) {
	a.mu.Lock()
	fw, ok := a.frameworks[frameworkID]
	if !ok {
		a.mu.Unlock()
		return
	}
	executorIDs := make([]protocol.ExecutorID, 0, len(fw.Executors))
	for id := range fw.Executors {
		executorIDs = append(executorIDs, id)
	}
	a.mu.Unlock()

	for _, id := range executorIDs {
		a.shutdownExecutor(frameworkID, id)
	}

	a.mu.Lock()
	delete(a.frameworks, frameworkID)
	a.mu.Unlock()
}

// removeExecutor forgets the executor's bookkeeping without touching
// fw.Updates (Open Question resolution, SPEC_FULL.md §4). When it was the
// framework's last executor the framework record, Updates included, is
// dropped too; pending retries for its tasks stay in a.retries until acked.
func (a *Agent) removeExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) {
	a.mu.Lock()
	fw, ok := a.frameworks[frameworkID]
	if ok {
		fw.destroyExecutor(executorID)
		empty := len(fw.Executors) == 0
		if empty {
			delete(a.frameworks, frameworkID)
		}
	}
	a.mu.Unlock()
}

func (a *Agent) shutdownExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) {
	a.mu.RLock()
	fw := a.frameworks[frameworkID]
	var pid string
	if fw != nil {
		if ex := fw.getExecutor(executorID); ex != nil {
			pid = ex.Pid
		}
	}
	a.mu.RUnlock()

	if pid != "" {
		a.send(pid, "ShutdownMessage", protocol.ShutdownMessage{})
	}
	if err := a.isolation.KillExecutor(frameworkID, executorID); err != nil {
		log.Warningf("agent: isolation.KillExecutor(%s,%s): %v", frameworkID, executorID, err)
	}
	a.removeExecutor(frameworkID, executorID)
}

func (a *Agent) handleUpdateFramework(env transport.Envelope) {
	var msg protocol.UpdateFrameworkMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed UpdateFrameworkMessage:", err)
		return
	}
	a.mu.Lock()
	if fw, ok := a.frameworks[msg.FrameworkID]; ok {
		fw.Pid = msg.Pid
	}
	a.mu.Unlock()
}

// handleStatusUpdateAcknowledgement is spec §4.5: the master confirms
// receipt. Acks are matched by task id only; the journal's sequence is
// advisory (SPEC_FULL.md §4).
func (a *Agent) handleStatusUpdateAcknowledgement(env transport.Envelope) {
	var msg protocol.StatusUpdateAcknowledgementMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed StatusUpdateAcknowledgementMessage:", err)
		return
	}

	a.mu.Lock()
	fw, ok := a.frameworks[msg.FrameworkID]
	if ok {
		if existing, present := fw.Updates[msg.TaskID]; present && existing.Sequence >= 0 {
			// acks carry no sequence, so nothing is compared; never blocks the ack.
			_ = existing
		}
		delete(fw.Updates, msg.TaskID)
	}
	a.mu.Unlock()
	a.retries.remove(msg.TaskID)

	if a.journal != nil {
		if err := a.journal.Ack(msg.FrameworkID, msg.TaskID); err != nil {
			log.Warningln("agent: journal ack failed:", err)
		}
	}
}

// handleRegisterExecutor is spec §4.4: reject unknown framework/executor or
// a double-register via Shutdown, otherwise record the pid, tell the
// isolation module resources changed, ack the executor, and flush anything
// queued while it was starting.
func (a *Agent) handleRegisterExecutor(env transport.Envelope) {
	var msg protocol.RegisterExecutorMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed RegisterExecutorMessage:", err)
		return
	}

	a.mu.Lock()
	fw, ok := a.frameworks[msg.FrameworkID]
	if !ok {
		a.mu.Unlock()
		log.Warningln("agent: RegisterExecutor for unknown framework", msg.FrameworkID)
		a.send(env.From, "ShutdownMessage", protocol.ShutdownMessage{})
		return
	}
	ex := fw.getExecutor(msg.ExecutorID)
	if ex == nil {
		a.mu.Unlock()
		log.Warningln("agent: RegisterExecutor for unknown executor", msg.ExecutorID)
		a.send(env.From, "ShutdownMessage", protocol.ShutdownMessage{})
		return
	}
	if ex.registered() {
		a.mu.Unlock()
		log.Warningln("agent: duplicate RegisterExecutor for", msg.ExecutorID)
		a.send(env.From, "ShutdownMessage", protocol.ShutdownMessage{})
		return
	}
	ex.Pid = env.From
	data := ex.Info.Data
	flushed := ex.flushQueued()
	a.mu.Unlock()

	if err := a.isolation.ResourcesChanged(msg.FrameworkID, msg.ExecutorID, ex.Resources); err != nil {
		log.Warningln("agent: ResourcesChanged failed:", err)
	}

	a.send(env.From, "ExecutorRegisteredMessage", protocol.ExecutorRegisteredMessage{
		Args: protocol.ExecutorArgs{
			FrameworkID: msg.FrameworkID,
			ExecutorID:  msg.ExecutorID,
			SlaveID:     a.cfg.SlaveID,
			Hostname:    a.cfg.Hostname,
			Data:        data,
		},
	})

	for _, desc := range flushed {
		a.send(env.From, "RunTaskMessage", protocol.RunTaskMessage{
			FrameworkID: msg.FrameworkID,
			Task:        *desc,
		})
	}
}

// handleStatusUpdate is spec §4.5: an executor reports a task's new state.
// Update bookkeeping, then forward reliably toward the master with retry.
func (a *Agent) handleStatusUpdate(env transport.Envelope) {
	var msg protocol.StatusUpdateMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed StatusUpdateMessage:", err)
		a.mu.Lock()
		a.stats.InvalidStatusUpdates++
		a.mu.Unlock()
		return
	}

	update := msg.Update
	update.SlaveID = a.cfg.SlaveID
	update.Sequence = a.nextSequence()

	a.mu.Lock()
	fw, ok := a.frameworks[update.FrameworkID]
	if !ok {
		a.stats.InvalidStatusUpdates++
		a.mu.Unlock()
		log.Warningln("agent: StatusUpdate for unknown framework", update.FrameworkID)
		return
	}
	var executorID protocol.ExecutorID
	var res resources.Resources
	terminal := update.Status.State.Terminal()
	if ex := fw.getExecutorByTask(update.Status.TaskID); ex != nil {
		ex.updateTaskState(update.Status.TaskID, update.Status.State)
		if terminal {
			ex.removeTask(update.Status.TaskID)
			executorID = ex.ID
			res = ex.Resources
		}
	} else {
		terminal = false
	}
	a.countTerminal(update.Status.State)
	a.stats.ValidStatusUpdates++
	a.mu.Unlock()

	if terminal {
		// The task just left launchedTasks, so the isolation adapter needs
		// to know the executor's resource footprint shrank (spec §4.5 step 4).
		if err := a.isolation.ResourcesChanged(update.FrameworkID, executorID, res); err != nil {
			log.Warningln("agent: ResourcesChanged failed:", err)
		}
	}

	a.deliverStatusUpdate(update, true)
}

func (a *Agent) countTerminal(state protocol.TaskState) {
	switch state {
	case protocol.TaskFinished:
		a.stats.TasksFinished++
	case protocol.TaskFailed:
		a.stats.TasksFailed++
	case protocol.TaskKilled:
		a.stats.TasksKilled++
	case protocol.TaskLost:
		a.stats.TasksLost++
	case protocol.TaskRunning:
		a.stats.TasksRunning++
	case protocol.TaskStarting:
		a.stats.TasksStarting++
	}
}

// deliverStatusUpdate persists the update (if a journal is configured),
// records it for retry, and sends it toward the master. fw.Updates only ever
// holds a reliable update awaiting ack (spec §4.3, Data Model invariant 4);
// synthesized non-reliable updates are forwarded but never journaled there.
func (a *Agent) deliverStatusUpdate(update protocol.StatusUpdate, reliable bool) {
	a.mu.Lock()
	fw, ok := a.frameworks[update.FrameworkID]
	if !ok {
		fw = newFramework(update.FrameworkID, protocol.FrameworkInfo{}, "")
		a.frameworks[update.FrameworkID] = fw
	}
	if reliable {
		fw.Updates[update.Status.TaskID] = update
	}
	masterPid := a.masterPid
	a.mu.Unlock()

	if a.journal != nil {
		if err := a.journal.Put(update.FrameworkID, update.Status.TaskID, journal.Record{Update: update}); err != nil {
			log.Warningln("agent: journal put failed:", err)
		}
	}

	if reliable {
		// Only the latest update per task may be in flight (spec §4.5): drop
		// any stale entry still sitting in the retry heap before pushing this
		// one, so statusUpdateTimeout can never resend a superseded state.
		a.retries.remove(update.Status.TaskID)
		a.retries.push(&pendingUpdate{update: update, tries: 0, nextRetry: time.Now().Add(time.Second)})
	}

	if masterPid != "" {
		a.send(masterPid, "StatusUpdateMessage", protocol.StatusUpdateMessage{Update: update, Reliable: reliable})
	}
}

// statusUpdateTimeout is spec §4.5's retry tick: resend anything due. Retry
// is bounded only by ack — removing a framework does not cancel its pending
// retries, and there is no give-up count; the backoff delay itself is capped
// so it does not grow without bound while a master stays unreachable.
func (a *Agent) statusUpdateTimeout() {
	now := time.Now()
	var due []*pendingUpdate
	for {
		p := a.retries.peek()
		if p == nil || p.nextRetry.After(now) {
			break
		}
		due = append(due, a.retries.pop())
	}

	a.mu.RLock()
	masterPid := a.masterPid
	a.mu.RUnlock()

	for _, p := range due {
		if masterPid == "" {
			p.nextRetry = now.Add(time.Second)
			a.retries.push(p)
			continue
		}
		p.tries++
		a.send(masterPid, "StatusUpdateMessage", protocol.StatusUpdateMessage{Update: p.update, Reliable: true})
		p.nextRetry = now.Add(backoff(p.tries))
		a.retries.push(p)
	}
}

// backoff grows the retry interval linearly up to maxStatusUpdateBackoff,
// the same ceiling slave.cpp's status update retry applies so a master that
// stays unreachable for a long time doesn't push nextRetry arbitrarily far
// into the future.
func backoff(tries int) time.Duration {
	d := time.Duration(tries) * time.Second
	if d > maxStatusUpdateBackoff {
		return maxStatusUpdateBackoff
	}
	return d
}

func (a *Agent) handleFrameworkToExecutor(env transport.Envelope) {
	var msg protocol.FrameworkToExecutorMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed FrameworkToExecutorMessage:", err)
		return
	}

	a.mu.RLock()
	fw, ok := a.frameworks[msg.FrameworkID]
	var pid string
	var registered bool
	if ok {
		if ex := fw.getExecutor(msg.ExecutorID); ex != nil {
			pid = ex.Pid
			registered = ex.registered()
		}
	}
	a.mu.RUnlock()

	if !ok || pid == "" && !registered {
		a.mu.Lock()
		a.stats.InvalidFrameworkMessages++
		a.mu.Unlock()
		log.Warningln("agent: dropping FrameworkToExecutor for unknown/unregistered executor", msg.ExecutorID)
		return
	}

	a.mu.Lock()
	a.stats.ValidFrameworkMessages++
	a.mu.Unlock()
	a.send(pid, "FrameworkToExecutorMessage", msg)
}

func (a *Agent) handleExecutorToFramework(env transport.Envelope) {
	var msg protocol.ExecutorToFrameworkMessage
	if err := protocol.FromBytes(env.Body, &msg); err != nil {
		log.Warningln("agent: malformed ExecutorToFrameworkMessage:", err)
		return
	}
	a.mu.RLock()
	fw, ok := a.frameworks[msg.FrameworkID]
	var pid string
	if ok {
		pid = fw.Pid
	}
	a.mu.RUnlock()
	if !ok || pid == "" {
		log.Warningln("agent: dropping ExecutorToFramework for unknown framework", msg.FrameworkID)
		return
	}
	a.send(pid, "ExecutorToFrameworkMessage", msg)
}

func (a *Agent) handlePing(env transport.Envelope) {
	a.send(env.From, protocol.Pong, nil)
}

// handleExecutorStarted is informational only, matching slave.cpp's
// executorStarted: the authoritative exit path is handleExecutorExited.
func (a *Agent) handleExecutorStarted(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, pid string) {
	log.Infof("agent: executor %s/%s started at %s", frameworkID, executorID, pid)
}

// handleExecutorExited is spec §4.6/§4.7: the isolation module reports the
// executor process is gone. Notify the master, synthesize LOST updates for
// whatever was still running, and remove the executor. Removing the last
// executor drops the framework record as well; the LOST updates stay pending
// in the retry scheduler until the master acks them.
func (a *Agent) handleExecutorExited(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, status int32) {
	a.mu.Lock()
	fw, ok := a.frameworks[frameworkID]
	var launched []protocol.TaskID
	if ok {
		if ex := fw.getExecutor(executorID); ex != nil {
			for id := range ex.LaunchedTasks {
				launched = append(launched, id)
			}
		}
	}
	masterPid := a.masterPid
	a.mu.Unlock()

	log.Warningf("agent: executor %s/%s exited with status %d", frameworkID, executorID, status)

	if masterPid != "" {
		a.send(masterPid, "ExitedExecutorMessage", protocol.ExitedExecutorMessage{
			SlaveID:     a.cfg.SlaveID,
			FrameworkID: frameworkID,
			ExecutorID:  executorID,
			Status:      status,
		})
	}

	for _, taskID := range launched {
		a.sendSyntheticUpdate(frameworkID, executorID, taskID, protocol.TaskLost, -1, true)
	}

	a.removeExecutor(frameworkID, executorID)
}

// Exited handles the loss of a linked remote pid at the transport level
// (spec's Exited message) — today that only matters for the master link,
// matching slave.cpp's exited(): log it, let the NoMasterDetected/
// master_lost_timeout machinery decide whether to act.
func (a *Agent) Exited(pid string) {
	a.mu.RLock()
	masterPid := a.masterPid
	a.mu.RUnlock()
	if pid == masterPid {
		log.Warningln("agent: lost link to master", pid)
		a.handleNoMasterDetected()
	}
}
