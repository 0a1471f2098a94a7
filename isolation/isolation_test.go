package isolation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
)

type recordingCallback struct {
	startedExecutor protocol.ExecutorID
	startedPid      string
	exitedExecutor  protocol.ExecutorID
	exitedStatus    int32
}

func (c *recordingCallback) ExecutorStarted(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, pid string) {
	c.startedExecutor = executorID
	c.startedPid = pid
}

func (c *recordingCallback) ExecutorExited(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, status int32) {
	c.exitedExecutor = executorID
	c.exitedStatus = status
}

func TestNoopReportsExecutorStarted(t *testing.T) {
	cb := &recordingCallback{}
	n := &Noop{}
	assert.NoError(t, n.Initialize(cb))

	res, err := resources.Parse("cpus:1")
	assert.NoError(t, err)

	err = n.LaunchExecutor("fw-1", "exec-1", protocol.ExecutorInfo{URI: "noop://"}, "/tmp", res)
	assert.NoError(t, err)
	assert.Equal(t, protocol.ExecutorID("exec-1"), cb.startedExecutor)
	assert.NotEmpty(t, cb.startedPid)
}

func TestNoopReportsExecutorExited(t *testing.T) {
	cb := &recordingCallback{}
	n := &Noop{}
	assert.NoError(t, n.Initialize(cb))

	assert.NoError(t, n.KillExecutor("fw-1", "exec-1"))
	assert.Equal(t, protocol.ExecutorID("exec-1"), cb.exitedExecutor)
	assert.Equal(t, int32(0), cb.exitedStatus)
}
