package masterdetect

import (
	"log"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	zkCli "github.com/samuel/go-zookeeper/zk"
)

type recordingListener struct {
	mu      sync.Mutex
	newPid  string
	noCount int
}

func (l *recordingListener) NewMasterDetected(pid string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.newPid = pid
}

func (l *recordingListener) NoMasterDetected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noCount++
}

func (l *recordingListener) pid() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.newPid
}

func TestZkDetector(t *testing.T) {
	out, err := exec.Command("bash", "-c", "echo ruok | nc localhost 2181").Output()
	if err != nil || string(out) != "imok" {
		log.Println("zookeeper is not running on localhost:2181. Pass the test")
		return
	}

	servers := strings.Split("localhost:2181", ",")
	znode := "/test-agentd/master"

	conn, _, err := zkCli.Connect(servers, 3*time.Second)
	assert.NoError(t, err)
	defer conn.Close()
	conn.Delete(znode, -1)

	listener := &recordingListener{}
	detector, err := NewZkDetector(servers, znode, listener, 3*time.Second)
	assert.NoError(t, err)
	defer detector.Close()

	assert.NoError(t, detector.Start())
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, listener.noCount)

	conn.Create(znode, []byte("agent@1.2.3.4:5051"), 0, zkCli.WorldACL(zkCli.PermAll))
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, "agent@1.2.3.4:5051", listener.pid())

	conn.Delete(znode, -1)
}
