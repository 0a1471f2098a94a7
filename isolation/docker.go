package isolation

import (
	"fmt"
	"sync"
	"time"

	dc "github.com/samalba/dockerclient"
	log "github.com/golang/glog"

	"github.com/more-free/agentd/protocol"
	"github.com/more-free/agentd/resources"
)

// DockerIsolation runs each executor as its own container, tagging it with
// the MESOS_TASK_ID-style environment variable lookup slave_util/audit/audit.go
// uses to map a container back to the task/executor that owns it (there
// keyed by task id; here by executor id, since one container hosts one
// executor for the lifetime of all tasks it runs).
type DockerIsolation struct {
	client *dc.DockerClient

	mu         sync.Mutex
	containers map[string]string // executorKey -> container id
	cb         Callback
}

func executorKey(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) string {
	return fmt.Sprintf("%s/%s", frameworkID, executorID)
}

// NewDockerIsolation connects to the daemon at dockerHost (e.g.
// "unix:///var/run/docker.sock"), exactly as audit.NewAuditService does.
func NewDockerIsolation(dockerHost string) (*DockerIsolation, error) {
	client, err := dc.NewDockerClient(dockerHost, nil)
	if err != nil {
		return nil, fmt.Errorf("isolation: connect docker at %s: %w", dockerHost, err)
	}
	return &DockerIsolation{
		client:     client,
		containers: make(map[string]string),
	}, nil
}

func (d *DockerIsolation) Initialize(cb Callback) error {
	d.cb = cb
	return nil
}

// LaunchExecutor creates and starts a container running the executor's image
// (ExecutorInfo.URI, the same field the teacher's task-building code treats
// as an image reference for docker-backed tasks), tagged with MESOS_TASK_ID
// so GetContainerByID-style lookups keep working for diagnostics.
func (d *DockerIsolation) LaunchExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, info protocol.ExecutorInfo, workDir string, res resources.Resources) error {
	env := []string{
		fmt.Sprintf("MESOS_TASK_ID=%s", executorID),
		fmt.Sprintf("MESOS_FRAMEWORK_ID=%s", frameworkID),
	}
	config := &dc.ContainerConfig{
		Image: info.URI,
		Env:   env,
	}
	id, err := d.client.CreateContainer(config, string(executorID), nil)
	if err != nil {
		return fmt.Errorf("isolation: create container for executor %s: %w", executorID, err)
	}
	if err := d.client.StartContainer(id, &dc.HostConfig{}); err != nil {
		return fmt.Errorf("isolation: start container for executor %s: %w", executorID, err)
	}
	d.mu.Lock()
	d.containers[executorKey(frameworkID, executorID)] = id
	d.mu.Unlock()

	go d.watch(frameworkID, executorID, id)

	log.Infof("isolation: launched executor %s for framework %s as container %s", executorID, frameworkID, id)
	if d.cb != nil {
		d.cb.ExecutorStarted(frameworkID, executorID, id)
	}
	return nil
}

// watch polls for container exit and reports it back through Callback,
// mirroring the way the original isolation module's reaper thread notices an
// executor process has died and calls Slave::executorExited.
func (d *DockerIsolation) watch(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, containerID string) {
	for {
		time.Sleep(2 * time.Second)
		info, err := d.client.InspectContainer(containerID)
		if err != nil {
			log.Warningf("isolation: inspect %s failed, assuming exited: %v", containerID, err)
			d.reportExit(frameworkID, executorID, -1)
			return
		}
		if !info.State.Running {
			d.reportExit(frameworkID, executorID, int32(info.State.ExitCode))
			return
		}
	}
}

func (d *DockerIsolation) reportExit(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, status int32) {
	d.mu.Lock()
	delete(d.containers, executorKey(frameworkID, executorID))
	d.mu.Unlock()
	if d.cb != nil {
		d.cb.ExecutorExited(frameworkID, executorID, status)
	}
}

func (d *DockerIsolation) KillExecutor(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID) error {
	d.mu.Lock()
	id, ok := d.containers[executorKey(frameworkID, executorID)]
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("isolation: no container tracked for executor %s", executorID)
	}
	return d.client.StopContainer(id, 5)
}

// ResourcesChanged is a no-op: the agent's cgroup/ulimit enforcement is out
// of scope (spec Non-goals), so there is nothing for the Docker adapter to
// actually resize here beyond what the container was created with.
func (d *DockerIsolation) ResourcesChanged(frameworkID protocol.FrameworkID, executorID protocol.ExecutorID, res resources.Resources) error {
	return nil
}

// GetContainerByID reproduces audit.go's lookup for HTTP-level diagnostics:
// find the container whose MESOS_TASK_ID env var matches id.
func (d *DockerIsolation) GetContainerByID(id string) (string, error) {
	containers, err := d.client.ListContainers(false, false, "")
	if err != nil {
		return "", err
	}
	want := fmt.Sprintf("MESOS_TASK_ID=%s", id)
	for _, c := range containers {
		info, err := d.client.InspectContainer(c.Id)
		if err != nil {
			continue
		}
		if info.Config == nil {
			continue
		}
		for _, env := range info.Config.Env {
			if env == want {
				return c.Id, nil
			}
		}
	}
	return "", fmt.Errorf("isolation: no container found for %s", id)
}
