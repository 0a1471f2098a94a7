package agent

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/more-free/agentd/isolation"
	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
	"github.com/more-free/agentd/transport"
)

// recordingIsolation wraps isolation.Noop, additionally recording every
// ResourcesChanged call so tests can assert on the resource aggregate the
// agent reports to the isolation adapter (spec §3 invariant 2, §4.2/§4.5).
type recordingIsolation struct {
	isolation.Noop

	mu               sync.Mutex
	resourcesChanged []resources.Resources
}

func (r *recordingIsolation) ResourcesChanged(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, res resources.Resources) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resourcesChanged = append(r.resourcesChanged, res)
	return nil
}

func (r *recordingIsolation) lastResources() resources.Resources {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.resourcesChanged) == 0 {
		return nil
	}
	return r.resourcesChanged[len(r.resourcesChanged)-1]
}

func (r *recordingIsolation) resourcesChangedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resourcesChanged)
}

func recvWithin(t *testing.T, ch <-chan transport.Envelope, d time.Duration) (transport.Envelope, bool) {
	select {
	case e := <-ch:
		return e, true
	case <-time.After(d):
		t.Helper()
		return transport.Envelope{}, false
	}
}

func newTestAgent(t *testing.T) (*Agent, *transport.Network, *transport.Local, func()) {
	return newTestAgentWithIsolation(t, &isolation.Noop{})
}

func newTestAgentWithIsolation(t *testing.T, iso isolation.Module) (*Agent, *transport.Network, *transport.Local, func()) {
	net := transport.NewNetwork()
	agentBox := net.Register("agent:0")

	workDir, err := os.MkdirTemp("", "agentd-test-")
	assert.NoError(t, err)

	a := New(Config{
		Pid:      "agent:0",
		Hostname: "agent.local",
		WorkDir:  workDir,
	}, agentBox, iso, nil)

	go a.Run()

	return a, net, agentBox, func() {
		a.Stop()
		os.RemoveAll(workDir)
	}
}

func TestAgentRegistersWithNewMaster(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")

	a.NewMasterDetected("master:0")

	env, ok := recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok, "expected agent to register with master")
	assert.Equal(t, "RegisterSlaveMessage", env.Name)
	assert.Equal(t, "agent:0", env.From)
}

func TestRunTaskQueuesUntilExecutorRegisters(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")

	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second) // RegisterSlaveMessage

	ackSlaveRegistered(t, a, masterBox)

	taskID := protocol.TaskID("task-1")
	frameworkID := protocol.FrameworkID("fw-1")
	executorID := protocol.ExecutorID("exec-1")

	runTask := protocol.RunTaskMessage{
		FrameworkID: frameworkID,
		Pid:         "scheduler:0",
		Task: protocol.TaskDescription{
			TaskID: taskID,
			Name:   "sleep",
			Executor: &protocol.ExecutorInfo{
				ExecutorID: executorID,
			},
		},
	}
	body, err := protocol.ToBytes(runTask)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "RunTaskMessage", Body: body}))

	// The Noop isolation module reports the executor started asynchronously;
	// give the actor loop a moment to process that internal event.
	time.Sleep(50 * time.Millisecond)

	registerExecutor := protocol.RegisterExecutorMessage{FrameworkID: frameworkID, ExecutorID: executorID}
	body, err = protocol.ToBytes(registerExecutor)
	assert.NoError(t, err)
	assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "RegisterExecutorMessage", Body: body}))

	env, ok := recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, "ExecutorRegisteredMessage", env.Name)

	env, ok = recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok, "expected the queued task to be flushed to the executor")
	assert.Equal(t, "RunTaskMessage", env.Name)

	snap := a.Snapshot()
	assert.Len(t, snap.Frameworks, 1)
	assert.Len(t, snap.Frameworks[0].Executors, 1)
	assert.True(t, snap.Frameworks[0].Executors[0].Registered)
}

// TestExecutorRegisteredCarriesExecutorInfoData is spec §4.4 step 3: the
// executor's opaque Data blob must ride along in ExecutorRegisteredMessage.
func TestExecutorRegisteredCarriesExecutorInfoData(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	executorID := protocol.ExecutorID("exec-1")
	data := []byte("opaque-blob")

	runTask := protocol.RunTaskMessage{
		FrameworkID: frameworkID,
		Pid:         "scheduler:0",
		Task: protocol.TaskDescription{
			TaskID:   "task-1",
			Name:     "sleep",
			Executor: &protocol.ExecutorInfo{ExecutorID: executorID, Data: data},
		},
	}
	body, err := protocol.ToBytes(runTask)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "RunTaskMessage", Body: body}))
	time.Sleep(50 * time.Millisecond)

	registerExecutor := protocol.RegisterExecutorMessage{FrameworkID: frameworkID, ExecutorID: executorID}
	body, err = protocol.ToBytes(registerExecutor)
	assert.NoError(t, err)
	assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "RegisterExecutorMessage", Body: body}))

	env, ok := recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok)
	var registered protocol.ExecutorRegisteredMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &registered))
	assert.Equal(t, data, registered.Args.Data)
}

func TestStatusUpdateForwardsReliablyAndAckClearsIt(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")

	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	taskID := protocol.TaskID("task-1")

	seedFramework(a, frameworkID, "scheduler:0")

	update := protocol.StatusUpdateMessage{
		Update: protocol.StatusUpdate{
			FrameworkID: frameworkID,
			Status:      protocol.TaskStatus{TaskID: taskID, State: protocol.TaskRunning},
		},
		Reliable: true,
	}
	body, err := protocol.ToBytes(update)
	assert.NoError(t, err)
	assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "StatusUpdateMessage", Body: body}))

	env, ok := recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok, "expected the agent to forward the status update to the master")
	assert.Equal(t, "StatusUpdateMessage", env.Name)

	var forwarded protocol.StatusUpdateMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &forwarded))
	assert.Equal(t, taskID, forwarded.Update.Status.TaskID)

	ack := protocol.StatusUpdateAcknowledgementMessage{FrameworkID: frameworkID, TaskID: taskID}
	body, err = protocol.ToBytes(ack)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "StatusUpdateAcknowledgementMessage", Body: body}))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, a.retries.len())
}

// TestStatusUpdateRetryReplacesStaleEntry is spec §4.5: at most one pending
// retry may exist per task, so a newer status update (e.g. TERMINAL after
// RUNNING) must replace, not add to, whatever was already queued for that
// task — otherwise statusUpdateTimeout could resend a superseded state.
func TestStatusUpdateRetryReplacesStaleEntry(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	taskID := protocol.TaskID("task-1")
	seedFramework(a, frameworkID, "scheduler:0")

	for _, state := range []protocol.TaskState{protocol.TaskRunning, protocol.TaskFinished} {
		update := protocol.StatusUpdateMessage{
			Update: protocol.StatusUpdate{
				FrameworkID: frameworkID,
				Status:      protocol.TaskStatus{TaskID: taskID, State: state},
			},
			Reliable: true,
		}
		body, err := protocol.ToBytes(update)
		assert.NoError(t, err)
		assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "StatusUpdateMessage", Body: body}))
		_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, a.retries.len(), "only the latest update for the task should be pending retry")
}

func TestTerminalStateIsTestedAsDisjunction(t *testing.T) {
	assert.True(t, protocol.TaskFinished.Terminal())
	assert.True(t, protocol.TaskFailed.Terminal())
	assert.True(t, protocol.TaskKilled.Terminal())
	assert.True(t, protocol.TaskLost.Terminal())
	assert.False(t, protocol.TaskRunning.Terminal())
	assert.False(t, protocol.TaskStarting.Terminal())
}

// TestKillTaskBeforeExecutorRegistersSendsSequenceZero is spec §8 scenario
// S2: a task queued on an executor that never registers is killed before it
// ever ran. The agent must drop it from the queue and report it killed with
// sequence 0 (distinguishing this case from the unknown-framework/
// unknown-task cases, which use -1) and reliable=false.
func TestKillTaskBeforeExecutorRegistersSendsSequenceZero(t *testing.T) {
	iso := &recordingIsolation{}
	a, net, _, cleanup := newTestAgentWithIsolation(t, iso)
	defer cleanup()

	masterBox := net.Register("master:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	taskID := protocol.TaskID("task-1")
	executorID := protocol.ExecutorID("exec-1")

	runTask := protocol.RunTaskMessage{
		FrameworkID: frameworkID,
		Pid:         "scheduler:0",
		Task: protocol.TaskDescription{
			TaskID:   taskID,
			Name:     "sleep",
			Executor: &protocol.ExecutorInfo{ExecutorID: executorID},
		},
	}
	body, err := protocol.ToBytes(runTask)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "RunTaskMessage", Body: body}))
	time.Sleep(50 * time.Millisecond)

	kill := protocol.KillTaskMessage{FrameworkID: frameworkID, TaskID: taskID}
	body, err = protocol.ToBytes(kill)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "KillTaskMessage", Body: body}))

	env, ok := recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok, "expected a synthetic status update for the killed queued task")
	assert.Equal(t, "StatusUpdateMessage", env.Name)

	var msg protocol.StatusUpdateMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &msg))
	assert.Equal(t, protocol.TaskKilled, msg.Update.Status.State)
	assert.EqualValues(t, 0, msg.Update.Sequence)
	assert.False(t, msg.Reliable)
}

// TestKillUnknownTaskProducesLostUpdate is spec §8 scenario S6: killing a
// task id the agent has never heard of, within a known framework, reports it
// lost with sequence -1.
func TestKillUnknownTaskProducesLostUpdate(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	seedFramework(a, frameworkID, "scheduler:0")

	kill := protocol.KillTaskMessage{FrameworkID: frameworkID, TaskID: "no-such-task"}
	body, err := protocol.ToBytes(kill)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "KillTaskMessage", Body: body}))

	env, ok := recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok)
	var msg protocol.StatusUpdateMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &msg))
	assert.Equal(t, protocol.TaskLost, msg.Update.Status.State)
	assert.EqualValues(t, -1, msg.Update.Sequence)
	assert.False(t, msg.Reliable, "an unknown-task synthetic LOST report must not enter the retry loop")
}

// TestQueuedTasksFlushInArrivalOrder is part of spec §8 scenario S1: two
// tasks queued on the same not-yet-registered executor must be delivered to
// it in the order they were queued (T1 then T2), not map iteration order.
func TestQueuedTasksFlushInArrivalOrder(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	executorID := protocol.ExecutorID("exec-1")

	for _, taskID := range []protocol.TaskID{"T1", "T2"} {
		runTask := protocol.RunTaskMessage{
			FrameworkID: frameworkID,
			Pid:         "scheduler:0",
			Task: protocol.TaskDescription{
				TaskID:   taskID,
				Name:     "sleep",
				Executor: &protocol.ExecutorInfo{ExecutorID: executorID},
			},
		}
		body, err := protocol.ToBytes(runTask)
		assert.NoError(t, err)
		assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "RunTaskMessage", Body: body}))
	}
	time.Sleep(50 * time.Millisecond)

	registerExecutor := protocol.RegisterExecutorMessage{FrameworkID: frameworkID, ExecutorID: executorID}
	body, err := protocol.ToBytes(registerExecutor)
	assert.NoError(t, err)
	assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "RegisterExecutorMessage", Body: body}))

	env, ok := recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, "ExecutorRegisteredMessage", env.Name)

	env, ok = recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok)
	var first protocol.RunTaskMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &first))
	assert.Equal(t, protocol.TaskID("T1"), first.Task.TaskID)

	env, ok = recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok)
	var second protocol.RunTaskMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &second))
	assert.Equal(t, protocol.TaskID("T2"), second.Task.TaskID)
}

// TestExecutorCrashSynthesizesLostAndRetainsUpdates is spec §8 scenario S4:
// the isolation module reports an executor gone while it still had a
// launched task. The agent must notify the master, synthesize a LOST update
// for the task, remove the executor, and — per the executor-exit retention
// resolution (SPEC_FULL.md §4) — keep the update in framework.updates.
func TestExecutorCrashSynthesizesLostAndRetainsUpdates(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	masterBox := net.Register("master:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	executorID := protocol.ExecutorID("exec-1")
	taskID := protocol.TaskID("task-1")
	seedLaunchedTask(a, frameworkID, executorID, "scheduler:0", "executor:0", taskID, nil)

	a.ExecutorExited(frameworkID, executorID, 1)

	env, ok := recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok, "expected ExitedExecutorMessage")
	assert.Equal(t, "ExitedExecutorMessage", env.Name)

	env, ok = recvWithin(t, masterBox.Recv(), time.Second)
	assert.True(t, ok, "expected a synthetic LOST update for the crashed executor's task")
	var msg protocol.StatusUpdateMessage
	assert.NoError(t, protocol.FromBytes(env.Body, &msg))
	assert.Equal(t, protocol.TaskLost, msg.Update.Status.State)
	assert.Equal(t, taskID, msg.Update.Status.TaskID)

	time.Sleep(20 * time.Millisecond)
	snap := a.Snapshot()
	assert.Len(t, snap.Frameworks, 1)
	assert.Len(t, snap.Frameworks[0].Executors, 0, "the crashed executor must be removed")

	a.mu.RLock()
	_, stillHasUpdate := a.frameworks[frameworkID].Updates[taskID]
	a.mu.RUnlock()
	assert.True(t, stillHasUpdate, "the update must survive executor removal")
}

// TestMasterFailoverReregistersWithExistingState is spec §8 scenario S5: a
// new master is detected while the agent already holds frameworks, so it
// must reregister (carrying its running tasks) rather than register fresh.
func TestMasterFailoverReregistersWithExistingState(t *testing.T) {
	a, net, _, cleanup := newTestAgent(t)
	defer cleanup()

	frameworkID := protocol.FrameworkID("fw-1")
	seedFramework(a, frameworkID, "scheduler:0")

	newMasterBox := net.Register("master:1")
	a.NewMasterDetected("master:1")

	env, ok := recvWithin(t, newMasterBox.Recv(), time.Second)
	assert.True(t, ok, "expected the agent to reregister with the new master")
	assert.Equal(t, "ReregisterSlaveMessage", env.Name)
}

// TestExecutorResourcesTrackLaunchedTasks is spec §3 invariant 2 / testable
// property 1: executor.resources == sum(task.resources for task in
// launchedTasks). It must hold both when a task is launched directly onto an
// already-registered executor and after that task reaches a terminal state,
// and the isolation adapter must be told about each change (spec §4.2 step
// e / §4.5 step 4).
func TestExecutorResourcesTrackLaunchedTasks(t *testing.T) {
	iso := &recordingIsolation{}
	a, net, _, cleanup := newTestAgentWithIsolation(t, iso)
	defer cleanup()

	masterBox := net.Register("master:0")
	executorBox := net.Register("executor:0")
	a.NewMasterDetected("master:0")
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)
	ackSlaveRegistered(t, a, masterBox)

	frameworkID := protocol.FrameworkID("fw-1")
	executorID := protocol.ExecutorID("exec-1")
	taskID := protocol.TaskID("task-1")

	res, err := resources.Parse("cpus:1;mem:512")
	assert.NoError(t, err)
	seedRegisteredExecutor(a, frameworkID, executorID, "scheduler:0", "executor:0")

	runTask := protocol.RunTaskMessage{
		FrameworkID: frameworkID,
		Pid:         "scheduler:0",
		Task: protocol.TaskDescription{
			TaskID:    taskID,
			Name:      "sleep",
			Executor:  &protocol.ExecutorInfo{ExecutorID: executorID},
			Resources: res.ToWire(),
		},
	}
	body, err := protocol.ToBytes(runTask)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "RunTaskMessage", Body: body}))

	_, ok := recvWithin(t, executorBox.Recv(), time.Second)
	assert.True(t, ok, "expected the directly-launched task to be dispatched to the executor")

	time.Sleep(20 * time.Millisecond)
	a.mu.RLock()
	gotCpus := a.frameworks[frameworkID].Executors[executorID].Resources.Scalar("cpus")
	a.mu.RUnlock()
	assert.Equal(t, 1.0, gotCpus)
	assert.Equal(t, 1, iso.resourcesChangedCount())
	assert.Equal(t, 1.0, iso.lastResources().Scalar("cpus"))

	update := protocol.StatusUpdateMessage{
		Update: protocol.StatusUpdate{
			FrameworkID: frameworkID,
			Status:      protocol.TaskStatus{TaskID: taskID, State: protocol.TaskFinished},
		},
		Reliable: true,
	}
	body, err = protocol.ToBytes(update)
	assert.NoError(t, err)
	assert.NoError(t, executorBox.Send(transport.Envelope{From: "executor:0", To: "agent:0", Name: "StatusUpdateMessage", Body: body}))
	_, _ = recvWithin(t, masterBox.Recv(), time.Second)

	time.Sleep(20 * time.Millisecond)
	a.mu.RLock()
	gotCpusAfter := a.frameworks[frameworkID].Executors[executorID].Resources.Scalar("cpus")
	a.mu.RUnlock()
	assert.Equal(t, 0.0, gotCpusAfter, "the terminated task's resources must be subtracted")
	assert.Equal(t, 2, iso.resourcesChangedCount())
	assert.Equal(t, 0.0, iso.lastResources().Scalar("cpus"))
}

func ackSlaveRegistered(t *testing.T, a *Agent, masterBox *transport.Local) {
	registered := protocol.SlaveRegisteredMessage{SlaveID: "slave-1"}
	body, err := protocol.ToBytes(registered)
	assert.NoError(t, err)
	assert.NoError(t, masterBox.Send(transport.Envelope{From: "master:0", To: "agent:0", Name: "SlaveRegisteredMessage", Body: body}))
	time.Sleep(20 * time.Millisecond)
}

func seedFramework(a *Agent, frameworkID protocol.FrameworkID, pid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameworks[frameworkID] = newFramework(frameworkID, protocol.FrameworkInfo{}, pid)
}

// seedRegisteredExecutor seeds a framework with one already-registered
// executor, skipping the RegisterExecutorMessage handshake for tests that
// only care about what happens once an executor is live.
func seedRegisteredExecutor(a *Agent, frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, frameworkPid, executorPid string) *Executor {
	a.mu.Lock()
	defer a.mu.Unlock()
	fw := newFramework(frameworkID, protocol.FrameworkInfo{}, frameworkPid)
	a.frameworks[frameworkID] = fw
	ex := fw.createExecutor(executorID, protocol.ExecutorInfo{ExecutorID: executorID})
	ex.Pid = executorPid
	return ex
}

// seedLaunchedTask seeds a framework with a registered executor that already
// has one launched task, for tests that need to start mid-lifecycle (e.g.
// simulating an executor crash) without replaying the full RunTask/Register
// handshake.
func seedLaunchedTask(a *Agent, frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, frameworkPid, executorPid string, taskID protocol.TaskID, res resources.Resources) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fw := newFramework(frameworkID, protocol.FrameworkInfo{}, frameworkPid)
	a.frameworks[frameworkID] = fw
	ex := fw.createExecutor(executorID, protocol.ExecutorInfo{ExecutorID: executorID})
	ex.Pid = executorPid
	ex.LaunchedTasks[taskID] = &protocol.Task{
		TaskID:      taskID,
		FrameworkID: frameworkID,
		ExecutorID:  executorID,
		Name:        "sleep",
		Resources:   res.ToWire(),
		State:       protocol.TaskRunning,
	}
	ex.Resources = ex.Resources.Add(res)
}
