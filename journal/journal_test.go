package journal

import (
	"log"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/more-free/agentd/protocol"
)

func TestZkJournal(t *testing.T) {
	out, err := exec.Command("bash", "-c", "echo ruok | nc localhost 2181").Output()
	if err != nil || string(out) != "imok" {
		log.Println("zookeeper is not running on localhost:2181. Pass the test")
		return
	}

	servers := strings.Split("localhost:2181", ",")
	j, err := NewZkJournal(servers, "/test-agentd/journal")
	assert.NoError(t, err)
	defer j.Close()

	frameworkID := protocol.FrameworkID("fw-1")
	taskID := protocol.TaskID("task-1")

	rec := Record{
		Update: protocol.StatusUpdate{
			FrameworkID: frameworkID,
			Status:      protocol.TaskStatus{TaskID: taskID, State: protocol.TaskRunning},
		},
	}
	assert.NoError(t, j.Put(frameworkID, taskID, rec))

	got, ok, err := j.Get(frameworkID, taskID)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, got.Acknowledged)

	pending, err := j.Replay()
	assert.NoError(t, err)
	assert.Contains(t, pending, frameworkID)
	assert.Contains(t, pending[frameworkID], taskID)

	assert.NoError(t, j.Ack(frameworkID, taskID))

	pending, err = j.Replay()
	assert.NoError(t, err)
	if tasks, ok := pending[frameworkID]; ok {
		assert.NotContains(t, tasks, taskID)
	}

	assert.NoError(t, j.Remove(frameworkID, taskID))
}
