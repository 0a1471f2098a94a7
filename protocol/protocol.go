// Package protocol defines the wire types exchanged between the agent, the
// master, and executors. It plays the role that more-free-mesos_scheduler's
// protocol/schema.go plays for that project's scheduler: a small, dependency-light
// set of structs plus the (de)serialization helpers the transport layer needs.
package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"
)

// TaskState mirrors the six states of spec §3. It is a local enum rather than
// mesos.TaskState: the agent is not wire-compatible with literal Mesos, and
// coupling the internal lifecycle names to an upstream protobuf enum would be
// the wrong kind of dependency.
type TaskState int32

const (
	TaskStarting TaskState = iota
	TaskRunning
	TaskFinished
	TaskFailed
	TaskKilled
	TaskLost
)

func (s TaskState) String() string {
	switch s {
	case TaskStarting:
		return "STARTING"
	case TaskRunning:
		return "RUNNING"
	case TaskFinished:
		return "FINISHED"
	case TaskFailed:
		return "FAILED"
	case TaskKilled:
		return "KILLED"
	case TaskLost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether s is one of the four terminal states. Spec §9 flags
// the legacy conjunction bug explicitly; this is the disjunction it calls for.
func (s TaskState) Terminal() bool {
	return s == TaskFinished || s == TaskFailed || s == TaskKilled || s == TaskLost
}

func (s TaskState) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TaskStateFromBytes(data []byte) (TaskState, error) {
	buf := bytes.NewBuffer(data)
	var s int32
	if err := binary.Read(buf, binary.LittleEndian, &s); err != nil {
		return TaskLost, err
	}
	return TaskState(s), nil
}

type FrameworkID string
type ExecutorID string
type TaskID string
type SlaveID string

// ExecutorInfo is the immutable description of an executor, carried by a
// TaskDescription or by a FrameworkInfo's default executor.
type ExecutorInfo struct {
	ExecutorID ExecutorID `json:"executor_id"`
	URI        string     `json:"uri,omitempty"`
	Data       []byte     `json:"data,omitempty"`
}

// FrameworkInfo is the immutable framework description registered by the
// scheduler on RunTask.
type FrameworkInfo struct {
	Name            string        `json:"name"`
	User            string        `json:"user"`
	DefaultExecutor *ExecutorInfo `json:"default_executor,omitempty"`
}

// TaskDescription is what the master hands the agent in a RunTask message.
type TaskDescription struct {
	TaskID    TaskID        `json:"task_id"`
	Name      string        `json:"name"`
	SlaveID   SlaveID       `json:"slave_id"`
	Resources []ResourceSpec `json:"resources"`
	Executor  *ExecutorInfo `json:"executor,omitempty"`
}

// HasExecutor reports whether the task pins its own executor rather than
// relying on the framework's default.
func (t *TaskDescription) HasExecutor() bool {
	return t.Executor != nil
}

// ResourceSpec is the wire-level named scalar/ranged quantity described in
// spec §3 ("cpus:1;mem:1024"); see the resources package for the in-memory
// representation built over mesos.Resource.
type ResourceSpec struct {
	Name   string        `json:"name"`
	Scalar *float64      `json:"scalar,omitempty"`
	Ranges [][2]uint64   `json:"ranges,omitempty"`
}

// Task is the runtime record the agent keeps for a launched task (spec §3).
type Task struct {
	TaskID      TaskID         `json:"task_id"`
	FrameworkID FrameworkID    `json:"framework_id"`
	ExecutorID  ExecutorID     `json:"executor_id"`
	SlaveID     SlaveID        `json:"slave_id"`
	Name        string         `json:"name"`
	Resources   []ResourceSpec `json:"resources"`
	State       TaskState      `json:"state"`
}

// TaskStatus is the nested status carried inside a StatusUpdate.
type TaskStatus struct {
	TaskID TaskID    `json:"task_id"`
	State  TaskState `json:"state"`
}

// StatusUpdate is the executor -> agent -> master reliable delivery unit
// (spec §3, §4.5). Sequence -1 marks agent-synthesized LOST updates: for
// tasks the agent holds no state about, and for the launched tasks of an
// executor that exited.
type StatusUpdate struct {
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id,omitempty"`
	SlaveID     SlaveID     `json:"slave_id"`
	Status      TaskStatus  `json:"status"`
	Timestamp   time.Time   `json:"timestamp"`
	Sequence    int64       `json:"sequence"`
}

// SlaveInfo is what the agent registers with the master.
type SlaveInfo struct {
	Hostname       string         `json:"hostname"`
	PublicHostname string         `json:"public_hostname"`
	Resources      []ResourceSpec `json:"resources"`
	Attributes     map[string]string `json:"attributes,omitempty"`
}

// --- Agent <-> Master wire messages (spec §6.1) ---

type RegisterSlaveMessage struct {
	Slave SlaveInfo `json:"slave"`
}

type ReregisterSlaveMessage struct {
	SlaveID SlaveID    `json:"slave_id"`
	Slave   SlaveInfo  `json:"slave"`
	Tasks   []Task     `json:"tasks"`
}

type SlaveRegisteredMessage struct {
	SlaveID SlaveID `json:"slave_id"`
}

type SlaveReregisteredMessage struct {
	SlaveID SlaveID `json:"slave_id"`
}

type RunTaskMessage struct {
	Framework   FrameworkInfo   `json:"framework"`
	FrameworkID FrameworkID     `json:"framework_id"`
	Pid         string          `json:"pid"`
	Task        TaskDescription `json:"task"`
}

type KillTaskMessage struct {
	FrameworkID FrameworkID `json:"framework_id"`
	TaskID      TaskID      `json:"task_id"`
}

type KillFrameworkMessage struct {
	FrameworkID FrameworkID `json:"framework_id"`
}

type UpdateFrameworkMessage struct {
	FrameworkID FrameworkID `json:"framework_id"`
	Pid         string      `json:"pid"`
}

type StatusUpdateMessage struct {
	Update   StatusUpdate `json:"update"`
	Reliable bool         `json:"reliable"`
}

type StatusUpdateAcknowledgementMessage struct {
	SlaveID     SlaveID     `json:"slave_id"`
	FrameworkID FrameworkID `json:"framework_id"`
	TaskID      TaskID      `json:"task_id"`
}

type ExitedExecutorMessage struct {
	SlaveID     SlaveID     `json:"slave_id"`
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id"`
	Status      int32       `json:"status"`
}

type NewMasterDetectedMessage struct {
	Pid string `json:"pid"`
}

type NoMasterDetectedMessage struct{}

// --- Agent <-> Executor wire messages (spec §6.2) ---

type RegisterExecutorMessage struct {
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id"`
}

type ExecutorArgs struct {
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id"`
	SlaveID     SlaveID     `json:"slave_id"`
	Hostname    string      `json:"hostname"`
	Data        []byte      `json:"data,omitempty"`
}

type ExecutorRegisteredMessage struct {
	Args ExecutorArgs `json:"args"`
}

type FrameworkToExecutorMessage struct {
	SlaveID     SlaveID     `json:"slave_id"`
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id"`
	Data        []byte      `json:"data"`
}

type ExecutorToFrameworkMessage struct {
	SlaveID     SlaveID     `json:"slave_id"`
	FrameworkID FrameworkID `json:"framework_id"`
	ExecutorID  ExecutorID  `json:"executor_id"`
	Data        []byte      `json:"data"`
}

type ShutdownMessage struct{}

const (
	Ping = "PING"
	Pong = "PONG"
)

func ToBytes(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func FromBytes(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (u *StatusUpdate) String() string {
	return fmt.Sprintf("task=%s framework=%s state=%s seq=%d",
		u.Status.TaskID, u.FrameworkID, u.Status.State, u.Sequence)
}
