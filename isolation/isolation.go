// Package isolation implements the isolation adapter interface of spec §4.6:
// the boundary between the agent's bookkeeping and whatever actually runs an
// executor process. DockerIsolation is the concrete implementation, adapted
// from slave_util/audit/audit.go's container lookup; Noop
// is used by tests and by cmd/agentd when no container runtime is wired.
package isolation

import (
	"fmt"

	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
)

// Callback is how an isolation module reports asynchronous executor
// lifecycle events back into the agent. The agent implements this and feeds
// each call through its own mailbox rather than mutating state directly,
// since callbacks may arrive on goroutines the isolation module owns (a
// Docker wait loop, for instance).
type Callback interface {
	ExecutorStarted(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, pid string)
	ExecutorExited(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, status int32)
}

// Module is the isolation adapter interface spec §4.6 describes: initialize
// once, then launch/kill/resize executors by id.
type Module interface {
	Initialize(cb Callback) error
	LaunchExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, info protocol.ExecutorInfo, workDir string, res resources.Resources) error
	KillExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) error
	ResourcesChanged(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, res resources.Resources) error
}

// Noop never actually launches anything; it immediately reports the executor
// started with a synthetic pid. Used by the agent's own actor-core tests
// (spec §8) where exercising a real container runtime would make the tests
// non-deterministic.
type Noop struct {
	cb Callback
}

func (n *Noop) Initialize(cb Callback) error {
	n.cb = cb
	return nil
}

func (n *Noop) LaunchExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, info protocol.ExecutorInfo, workDir string, res resources.Resources) error {
	if n.cb != nil {
		n.cb.ExecutorStarted(frameworkID, executorID, fmt.Sprintf("noop(%s)", executorID))
	}
	return nil
}

func (n *Noop) KillExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) error {
	if n.cb != nil {
		n.cb.ExecutorExited(frameworkID, executorID, 0)
	}
	return nil
}

func (n *Noop) ResourcesChanged(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, res resources.Resources) error {
	return nil
}
