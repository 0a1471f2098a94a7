package isolation

import (
	"log"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDockerIsolationLifecycle(t *testing.T) {
	if err := exec.Command("bash", "-c", "docker info >/dev/null 2>&1").Run(); err != nil {
		log.Println("docker is not running on this host. Pass the test")
		return
	}

	d, err := NewDockerIsolation("unix:///var/run/docker.sock")
	assert.NoError(t, err)

	_, err = d.GetContainerByID("no-such-task")
	assert.Error(t, err)
}
