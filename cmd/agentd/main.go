// agentd is the worker-agent binary: it wires config, the isolation module,
// the ZooKeeper master detector, the journal, and the HTTP introspection
// server around the actor in package agent. The overall shape (parse flags,
// build the collaborators, start them, block) follows
// more-free-mesos_scheduler's own demo mains in example/*.go.
package main

import (
	"fmt"
	"os"
	"time"

	log "github.com/golang/glog"

	"github.com/more-free/agentd/agent"
	"github.com/more-free/agentd/config"
	"github.com/more-free/agentd/httpserver"
	"github.com/more-free/agentd/isolation"
	"github.com/more-free/agentd/journal"
	"github.com/more-free/agentd/masterdetect"
	"github.com/more-free/agentd/transport"
)

func main() {
	opts, err := config.Parse()
	if err != nil {
		log.Fatalln("agentd: bad configuration:", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalln("agentd: failed to resolve hostname:", err)
	}
	publicHostname := opts.PublicHostname
	if publicHostname == "" {
		publicHostname = hostname
	}

	mailbox, err := transport.ListenTCP(opts.BindAddr, opts.BindAddr)
	if err != nil {
		log.Fatalln("agentd: failed to start transport:", err)
	}

	var iso isolation.Module
	dockerIso, err := isolation.NewDockerIsolation(opts.DockerHost)
	if err != nil {
		log.Warningln("agentd: docker isolation unavailable, falling back to noop:", err)
		iso = &isolation.Noop{}
	} else {
		iso = dockerIso
	}

	var j journal.Journal
	if opts.JournalDir != "" {
		zj, err := journal.NewZkJournal(opts.ZkServers, opts.JournalDir)
		if err != nil {
			log.Warningln("agentd: journal unavailable:", err)
		} else {
			j = zj
		}
	}

	a := agent.New(agent.Config{
		Pid:               opts.BindAddr,
		Hostname:          hostname,
		PublicHostname:    publicHostname,
		Resources:         opts.Resources,
		Attributes:        opts.Attributes,
		WorkDir:           opts.WorkDir,
		SwitchUser:        opts.SwitchUser,
		MasterLostTimeout: time.Duration(opts.MasterLostTimeout) * time.Second,
	}, mailbox, iso, j)

	detector, err := masterdetect.NewZkDetector(opts.ZkServers, opts.MasterZnode, a, 3*time.Second)
	if err != nil {
		log.Fatalln("agentd: failed to connect to zookeeper:", err)
	}
	if err := detector.Start(); err != nil {
		log.Fatalln("agentd: failed to start master detection:", err)
	}
	defer detector.Close()

	server := httpserver.NewAgentServer(a, opts.HTTPAddr)
	go server.Start()

	fmt.Printf("agentd: listening on %s, http on %s\n", opts.BindAddr, opts.HTTPAddr)
	a.Run()
}
