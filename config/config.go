// Package config parses the agent's flags, the same way
// more-free-mesos_scheduler wires its own options: flag.* at the top level
// of a main, no viper/cobra layer (slave_util/audit/server.go's `flag.Int`
// is the teacher's own idiom for this). MESOS_PUBLIC_DNS is read from the
// environment as spec §6.5 specifies.
package config

import (
	"flag"
	"os"
	"strings"

	"github.com/more-free/agentd/resources"
)

// Options holds spec §6.5's registration options plus SPEC_FULL.md §1's
// domain-stack additions.
type Options struct {
	Resources      resources.Resources
	Attributes     map[string]string
	WorkDir        string
	HadoopHome     string
	SwitchUser     bool
	FrameworksHome string

	ZkServers        []string
	MasterZnode      string
	DockerHost       string
	JournalDir       string
	MasterLostTimeout int // seconds, 0 disables

	BindAddr       string
	HTTPAddr       string
	PublicHostname string
}

// Parse reads the agent's flags (and flag.Parse()'s glog flags, registered
// separately by glog's own init) into an Options.
func Parse() (*Options, error) {
	resourcesFlag := flag.String("resources", "cpus:1;mem:1024", "resource multiset, e.g. cpus:1;mem:1024")
	attributesFlag := flag.String("attributes", "", "comma separated key:value attribute pairs")
	workDir := flag.String("work_dir", "/tmp/agentd", "base directory for executor work directories")
	hadoopHome := flag.String("hadoop_home", "", "accepted but inert: HDFS fetching is out of scope")
	switchUser := flag.Bool("switch_user", true, "run each executor as the framework's user")
	frameworksHome := flag.String("frameworks_home", "", "accepted but inert: HDFS fetching is out of scope")

	zkServers := flag.String("zk_servers", "127.0.0.1:2181", "comma separated zookeeper servers")
	masterZnode := flag.String("master_znode", "/mesos/master", "znode the master publishes its pid to")
	dockerHost := flag.String("docker_host", "unix:///var/run/docker.sock", "docker daemon socket")
	journalDir := flag.String("journal_dir", "", "zookeeper root dir for the status update journal; empty disables the journal")
	masterLostTimeout := flag.Int("master_lost_timeout", 0, "seconds without a master before the agent terminates; 0 disables")

	bindAddr := flag.String("bind_addr", ":5051", "address the agent listens for master/executor traffic on")
	httpAddr := flag.String("http_addr", ":5052", "address the agent serves its introspection endpoints on")

	flag.Parse()

	res, err := resources.Parse(*resourcesFlag)
	if err != nil {
		return nil, err
	}

	opts := &Options{
		Resources:         res,
		Attributes:        parseAttributes(*attributesFlag),
		WorkDir:           *workDir,
		HadoopHome:        *hadoopHome,
		SwitchUser:        *switchUser,
		FrameworksHome:    *frameworksHome,
		ZkServers:         splitNonEmpty(*zkServers),
		MasterZnode:       *masterZnode,
		DockerHost:        *dockerHost,
		JournalDir:        *journalDir,
		MasterLostTimeout: *masterLostTimeout,
		BindAddr:          *bindAddr,
		HTTPAddr:          *httpAddr,
		PublicHostname:    os.Getenv("MESOS_PUBLIC_DNS"),
	}
	return opts, nil
}

func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, pair := range splitNonEmpty(s) {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			attrs[kv[0]] = kv[1]
		}
	}
	return attrs
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
