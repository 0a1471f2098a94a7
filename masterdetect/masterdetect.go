// Package masterdetect watches ZooKeeper for the address of the current
// master, delivering NewMasterDetected/NoMasterDetected transitions (spec
// §4.1) to the agent. It is ha.ZkLeaderElection turned inside out: that type
// registers an ephemeral-sequential znode and watches the lowest one to
// decide who leads; an agent does not participate in the election, it only
// watches whatever znode the elected master publishes its pid to.
package masterdetect

import (
	"time"

	log "github.com/golang/glog"
	zkCli "github.com/samuel/go-zookeeper/zk"
)

// Listener receives master address changes, the same pair of events
// ha.LeaderStatusUpdater delivers for leader changes.
type Listener interface {
	NewMasterDetected(pid string)
	NoMasterDetected()
}

// Detector starts watching and can be torn down.
type Detector interface {
	Start() error
	Close()
}

// ZkDetector watches a single znode (by convention "/mesos/master" or
// whatever master_znode names) whose data is the master's pid.
type ZkDetector struct {
	servers     []string
	znode       string
	connTimeout time.Duration
	acl         []zkCli.ACL

	conn      *zkCli.Conn
	connChan  <-chan zkCli.Event
	listener  Listener
	closeChan chan bool
}

func NewZkDetector(servers []string, znode string, listener Listener, connTimeout time.Duration) (*ZkDetector, error) {
	conn, connChan, err := zkCli.Connect(servers, connTimeout)
	if err != nil {
		return nil, err
	}
	return &ZkDetector{
		servers:     servers,
		znode:       znode,
		connTimeout: connTimeout,
		acl:         zkCli.WorldACL(zkCli.PermAll),
		conn:        conn,
		connChan:    connChan,
		listener:    listener,
		closeChan:   make(chan bool),
	}, nil
}

func (d *ZkDetector) Start() error {
	return d.watch()
}

func (d *ZkDetector) Close() {
	close(d.closeChan)
	d.conn.Close()
}

func (d *ZkDetector) watch() error {
	exists, _, watchChan, err := d.conn.ExistsW(d.znode)
	if err != nil {
		return err
	}
	if !exists {
		log.Infoln("masterdetect: no master published at", d.znode)
		d.listener.NoMasterDetected()
		go d.monitor(watchChan)
		return nil
	}

	data, _, getWatchChan, err := d.conn.GetW(d.znode)
	if err != nil {
		return err
	}
	pid := string(data)
	log.Infoln("masterdetect: detected master at", pid)
	d.listener.NewMasterDetected(pid)
	go d.monitor(getWatchChan)
	return nil
}

// monitor mirrors ha.ZkLeaderElection.monitor: re-run watch() (which must be
// non-blocking) whenever the znode changes or the session drops.
func (d *ZkDetector) monitor(watchChan <-chan zkCli.Event) {
	for {
		select {
		case event := <-watchChan:
			switch event.Type {
			case zkCli.EventNodeDeleted:
				d.listener.NoMasterDetected()
			case zkCli.EventNodeDataChanged, zkCli.EventNodeCreated:
				// fallthrough to re-watch below
			}
			if err := d.watch(); err != nil {
				log.Warningln("masterdetect: re-watch failed:", err)
			}
			return

		case event := <-d.connChan:
			if event.Type == zkCli.EventSession && event.State == zkCli.StateDisconnected {
				d.listener.NoMasterDetected()
				conn, connChan, err := zkCli.Connect(d.servers, d.connTimeout)
				if err != nil {
					log.Warningln("masterdetect: cannot reconnect to zookeeper:", d.servers, err)
					return
				}
				d.conn = conn
				d.connChan = connChan
				if err := d.watch(); err != nil {
					log.Warningln("masterdetect: re-watch after reconnect failed:", err)
				}
				return
			}

		case <-d.closeChan:
			log.Infoln("masterdetect: stopped watching", d.znode)
			return
		}
	}
}
