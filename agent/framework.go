package agent

import (
	"fmt"

	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
)

// Framework is the agent's bookkeeping record for a scheduler that has sent
// it at least one task (spec §3), grounded on the Framework struct in
// original_source/src/slave/slave.cpp.
type Framework struct {
	ID        protocol.FrameworkID
	Info      protocol.FrameworkInfo
	Pid       string
	Executors map[protocol.ExecutorID]*Executor
	// Updates holds the most recently sent StatusUpdate per task, awaiting
	// the master's acknowledgement. Entries survive executor removal while
	// the framework itself remains — see SPEC_FULL.md §4's resolution of the
	// executor-exit retention question.
	Updates map[protocol.TaskID]protocol.StatusUpdate
}

func newFramework(id protocol.FrameworkID, info protocol.FrameworkInfo, pid string) *Framework {
	return &Framework{
		ID:        id,
		Info:      info,
		Pid:       pid,
		Executors: make(map[protocol.ExecutorID]*Executor),
		Updates:   make(map[protocol.TaskID]protocol.StatusUpdate),
	}
}

func (f *Framework) getExecutor(id protocol.ExecutorID) *Executor {
	return f.Executors[id]
}

// getExecutorByTask searches both queued and launched tasks across every
// executor, the same linear search slave.cpp's getExecutor(taskId) does.
func (f *Framework) getExecutorByTask(taskID protocol.TaskID) *Executor {
	for _, ex := range f.Executors {
		if _, ok := ex.QueuedTasks[taskID]; ok {
			return ex
		}
		if _, ok := ex.LaunchedTasks[taskID]; ok {
			return ex
		}
	}
	return nil
}

func (f *Framework) createExecutor(id protocol.ExecutorID, info protocol.ExecutorInfo) *Executor {
	ex := &Executor{
		ID:            id,
		FrameworkID:   f.ID,
		Info:          info,
		QueuedTasks:   make(map[protocol.TaskID]*protocol.TaskDescription),
		LaunchedTasks: make(map[protocol.TaskID]*protocol.Task),
	}
	f.Executors[id] = ex
	return ex
}

func (f *Framework) destroyExecutor(id protocol.ExecutorID) {
	delete(f.Executors, id)
}

// Executor is the agent's bookkeeping record for one running (or pending)
// executor. An empty Pid is the sentinel "registered with the agent's
// bookkeeping but not yet connected" state — tasks accumulate in QueuedTasks
// until RegisterExecutor arrives and flushes them (spec §4.2/§4.4).
type Executor struct {
	ID          protocol.ExecutorID
	FrameworkID protocol.FrameworkID
	Info        protocol.ExecutorInfo
	Pid         string
	Resources   resources.Resources
	WorkDir     string

	QueuedTasks   map[protocol.TaskID]*protocol.TaskDescription
	QueuedOrder   []protocol.TaskID
	LaunchedTasks map[protocol.TaskID]*protocol.Task

	ShuttingDown bool
}

func (e *Executor) registered() bool { return e.Pid != "" }

// addTask queues a task if the executor has not yet registered, otherwise
// launches it immediately — slave.cpp's runTask queue-vs-launch branch. A
// task only counts toward e.Resources once it is actually launched, keeping
// executor.resources == sum(task.resources for task in launchedTasks)
// (spec §3) true at every step.
func (e *Executor) addTask(desc *protocol.TaskDescription) {
	if !e.registered() {
		e.QueuedTasks[desc.TaskID] = desc
		e.QueuedOrder = append(e.QueuedOrder, desc.TaskID)
		return
	}
	e.LaunchedTasks[desc.TaskID] = &protocol.Task{
		TaskID:      desc.TaskID,
		FrameworkID: e.FrameworkID,
		ExecutorID:  e.ID,
		Name:        desc.Name,
		Resources:   desc.Resources,
		State:       protocol.TaskStarting,
	}
	e.Resources = e.Resources.Add(resources.FromWire(desc.Resources))
}

// removeTask drops a task from whichever set holds it, subtracting its
// resources from e.Resources if it had been launched (queued tasks were
// never added to e.Resources in the first place).
func (e *Executor) removeTask(id protocol.TaskID) {
	if _, ok := e.QueuedTasks[id]; ok {
		delete(e.QueuedTasks, id)
		for i, qid := range e.QueuedOrder {
			if qid == id {
				e.QueuedOrder = append(e.QueuedOrder[:i], e.QueuedOrder[i+1:]...)
				break
			}
		}
	}
	if t, ok := e.LaunchedTasks[id]; ok {
		e.Resources = e.Resources.Subtract(resources.FromWire(t.Resources))
		delete(e.LaunchedTasks, id)
	}
}

func (e *Executor) getTask(id protocol.TaskID) (*protocol.Task, bool) {
	t, ok := e.LaunchedTasks[id]
	return t, ok
}

func (e *Executor) updateTaskState(id protocol.TaskID, state protocol.TaskState) {
	if t, ok := e.LaunchedTasks[id]; ok {
		t.State = state
	}
}

// flushQueued drains QueuedTasks into LaunchedTasks once the executor has
// registered, returning what was flushed, in the order each task was queued
// (spec §8 scenario S1: two queued tasks must be delivered T1 then T2), so
// the caller can dispatch RunTaskMessage envelopes in the same order. Each
// flushed task adds to e.Resources exactly as addTask's direct-launch branch
// does.
func (e *Executor) flushQueued() []*protocol.TaskDescription {
	flushed := make([]*protocol.TaskDescription, 0, len(e.QueuedOrder))
	for _, id := range e.QueuedOrder {
		desc := e.QueuedTasks[id]
		flushed = append(flushed, desc)
		e.LaunchedTasks[id] = &protocol.Task{
			TaskID:      desc.TaskID,
			FrameworkID: e.FrameworkID,
			ExecutorID:  e.ID,
			Name:        desc.Name,
			Resources:   desc.Resources,
			State:       protocol.TaskStarting,
		}
		e.Resources = e.Resources.Add(resources.FromWire(desc.Resources))
		delete(e.QueuedTasks, id)
	}
	e.QueuedOrder = nil
	return flushed
}

func (e *Executor) String() string {
	return fmt.Sprintf("executor(%s/%s)", e.FrameworkID, e.ID)
}
