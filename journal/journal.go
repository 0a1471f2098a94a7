// Package journal implements the durable status-update journal spec §9
// invites as an extension and SPEC_FULL.md §3 completes: one znode per
// (framework, task) holding the last update sent to the master and whether
// it has been acknowledged. It is storage/zk_store.go's create-dir-if-
// missing, one-znode-per-record CRUD, narrowed from a generic Storage
// interface to the one record type the agent needs.
package journal

import (
	"fmt"
	"strings"
	"time"

	zkCli "github.com/samuel/go-zookeeper/zk"

	"github.com/more-free/agentd/protocol"
)

// Record is what gets persisted for a single task's most recent update.
type Record struct {
	Update       protocol.StatusUpdate `json:"update"`
	Acknowledged bool                  `json:"acknowledged"`
}

// Journal is what the agent depends on; ZkJournal is the concrete
// implementation, the same split storage/zk_store.go draws between Storage
// and ZkStorage.
type Journal interface {
	Put(frameworkID protocol.FrameworkID, taskID protocol.TaskID, rec Record) error
	Get(frameworkID protocol.FrameworkID, taskID protocol.TaskID) (Record, bool, error)
	Ack(frameworkID protocol.FrameworkID, taskID protocol.TaskID) error
	Remove(frameworkID protocol.FrameworkID, taskID protocol.TaskID) error
	// Replay reconstructs the pending (unacknowledged) updates recorded
	// before an agent restart, keyed the way framework.updates is keyed.
	Replay() (map[protocol.FrameworkID]map[protocol.TaskID]Record, error)
	Close() error
}

type ZkJournal struct {
	servers []string
	rootDir string
	timeout time.Duration
	flags   int32
	acl     []zkCli.ACL
	conn    *zkCli.Conn
}

func NewZkJournal(servers []string, rootDir string) (*ZkJournal, error) {
	if !strings.HasPrefix(rootDir, "/") {
		return nil, fmt.Errorf("journal: root dir must start with '/'")
	}
	rootDir = strings.TrimSuffix(rootDir, "/")

	conn, _, err := zkCli.Connect(servers, 3*time.Second)
	if err != nil {
		return nil, err
	}
	j := &ZkJournal{
		servers: servers,
		rootDir: rootDir,
		timeout: 3 * time.Second,
		flags:   int32(0),
		acl:     zkCli.WorldACL(zkCli.PermAll),
		conn:    conn,
	}
	if err := j.ensureDir(j.rootDir); err != nil {
		conn.Close()
		return nil, err
	}
	return j, nil
}

func (j *ZkJournal) Close() error {
	j.conn.Close()
	return nil
}

func (j *ZkJournal) path(frameworkID protocol.FrameworkID, taskID protocol.TaskID) string {
	return fmt.Sprintf("%s/%s--%s", j.rootDir, frameworkID, taskID)
}

func (j *ZkJournal) Put(frameworkID protocol.FrameworkID, taskID protocol.TaskID, rec Record) error {
	data, err := protocol.ToBytes(rec)
	if err != nil {
		return err
	}
	path := j.path(frameworkID, taskID)
	exists, _, err := j.conn.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		_, err = j.conn.Create(path, data, j.flags, j.acl)
		return err
	}
	_, err = j.conn.Set(path, data, -1)
	return err
}

func (j *ZkJournal) Get(frameworkID protocol.FrameworkID, taskID protocol.TaskID) (Record, bool, error) {
	data, _, err := j.conn.Get(j.path(frameworkID, taskID))
	if err == zkCli.ErrNoNode {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := protocol.FromBytes(data, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (j *ZkJournal) Ack(frameworkID protocol.FrameworkID, taskID protocol.TaskID) error {
	rec, ok, err := j.Get(frameworkID, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	rec.Acknowledged = true
	return j.Put(frameworkID, taskID, rec)
}

func (j *ZkJournal) Remove(frameworkID protocol.FrameworkID, taskID protocol.TaskID) error {
	err := j.conn.Delete(j.path(frameworkID, taskID), -1)
	if err == zkCli.ErrNoNode {
		return nil
	}
	return err
}

func (j *ZkJournal) Replay() (map[protocol.FrameworkID]map[protocol.TaskID]Record, error) {
	out := make(map[protocol.FrameworkID]map[protocol.TaskID]Record)
	children, _, err := j.conn.Children(j.rootDir)
	if err != nil {
		return out, err
	}
	for _, child := range children {
		parts := strings.SplitN(child, "--", 2)
		if len(parts) != 2 {
			continue
		}
		frameworkID := protocol.FrameworkID(parts[0])
		taskID := protocol.TaskID(parts[1])
		rec, ok, err := j.Get(frameworkID, taskID)
		if err != nil || !ok {
			continue
		}
		if rec.Acknowledged {
			continue
		}
		if out[frameworkID] == nil {
			out[frameworkID] = make(map[protocol.TaskID]Record)
		}
		out[frameworkID][taskID] = rec
	}
	return out, nil
}

// ensureDir creates rootDir and any missing ancestors, the same
// ignore-intermediate-errors walk zk_store.go's createDir does.
func (j *ZkJournal) ensureDir(dir string) error {
	trimmed := strings.TrimPrefix(dir, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	paths := strings.Split(trimmed, "/")
	cur := ""
	for _, p := range paths {
		cur += "/" + p
		j.conn.Create(cur, make([]byte, 0), j.flags, j.acl)
	}
	exists, _, err := j.conn.Exists(dir)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("journal: failed to create root dir %s", dir)
	}
	return nil
}
