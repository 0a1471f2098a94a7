// Package transport carries the wire messages of spec §6.1/§6.2 between the
// agent, the master, and executors. The agent's actor core only depends on
// the small Mailbox interface below, the same way more-free-mesos_scheduler's
// TriggerScheduler only depends on its storage interfaces rather than on
// ZooKeeper directly; that keeps the actor's tests (see agent package)
// deterministic over an in-process implementation while production wiring
// uses the networked one.
package transport

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"net"
	"sync"

	log "github.com/golang/glog"
)

// Envelope is one addressed message crossing the wire: From/To are PIDs in
// the host:port form the original slave.cpp uses for its UPIDs, Name selects
// which protocol.*Message Body holds.
type Envelope struct {
	From string
	To   string
	Name string
	Body []byte
}

// Mailbox is what the agent actor reads from and writes to. It never learns
// whether the other end is in-process or across the network.
type Mailbox interface {
	Send(Envelope) error
	Recv() <-chan Envelope
	Close() error
}

// Local is an in-memory Mailbox used by tests and by components running in
// the same process.
type Local struct {
	pid     string
	inbox   chan Envelope
	mu      sync.Mutex
	peers   map[string]*Local
	closed  bool
}

// Network is a set of Local mailboxes that can address each other by pid,
// the in-process stand-in for a real master/executor network.
type Network struct {
	mu    sync.Mutex
	boxes map[string]*Local
}

func NewNetwork() *Network {
	return &Network{boxes: make(map[string]*Local)}
}

// Register creates and returns the Mailbox for pid, replacing any prior one.
func (n *Network) Register(pid string) *Local {
	n.mu.Lock()
	defer n.mu.Unlock()
	box := &Local{pid: pid, inbox: make(chan Envelope, 256), peers: n.boxes}
	n.boxes[pid] = box
	return box
}

func (n *Network) Unregister(pid string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.boxes, pid)
}

func (l *Local) Send(e Envelope) error {
	l.mu.Lock()
	peer, ok := l.peers[e.To]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("transport: no local peer registered at %s", e.To)
	}
	select {
	case peer.inbox <- e:
		return nil
	default:
		return fmt.Errorf("transport: mailbox %s is full", e.To)
	}
}

func (l *Local) Recv() <-chan Envelope { return l.inbox }

func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.inbox)
	return nil
}

// TCP is a Mailbox backed by encoding/gob over a long-lived TCP connection
// per peer. This is the one stdlib-only piece of the transport layer: the
// retrieved example pack carries no general-purpose Go RPC/codec library
// (mesos-go's own messenger requires a libprocess peer we are not
// reimplementing), so gob-over-TCP is the plain, dependency-free choice
// documented in DESIGN.md rather than an ecosystem substitute.
type TCP struct {
	pid      string
	ln       net.Listener
	inbox    chan Envelope
	mu       sync.Mutex
	conns    map[string]*gobConn
	closed   bool
}

type gobConn struct {
	enc *gob.Encoder
	mu  sync.Mutex
}

// ListenTCP starts accepting connections on addr and returns the Mailbox
// identified by pid (normally addr itself).
func ListenTCP(pid, addr string) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	t := &TCP{
		pid:   pid,
		ln:    ln,
		inbox: make(chan Envelope, 256),
		conns: make(map[string]*gobConn),
	}
	go t.acceptLoop()
	return t, nil
}

func (t *TCP) acceptLoop() {
	for {
		conn, err := t.ln.Accept()
		if err != nil {
			return
		}
		go t.readLoop(conn)
	}
}

func (t *TCP) readLoop(conn net.Conn) {
	defer conn.Close()
	dec := gob.NewDecoder(bufio.NewReader(conn))
	for {
		var e Envelope
		if err := dec.Decode(&e); err != nil {
			log.Infof("transport: connection from %s closed: %v", conn.RemoteAddr(), err)
			return
		}
		t.mu.Lock()
		closed := t.closed
		t.mu.Unlock()
		if closed {
			return
		}
		t.inbox <- e
	}
}

func (t *TCP) dial(addr string) (*gobConn, error) {
	t.mu.Lock()
	c, ok := t.conns[addr]
	t.mu.Unlock()
	if ok {
		return c, nil
	}
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	c = &gobConn{enc: gob.NewEncoder(conn)}
	t.mu.Lock()
	t.conns[addr] = c
	t.mu.Unlock()
	return c, nil
}

func (t *TCP) Send(e Envelope) error {
	c, err := t.dial(e.To)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(e)
}

func (t *TCP) Recv() <-chan Envelope { return t.inbox }

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.inbox)
	return t.ln.Close()
}
