//go:build linux

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemdUnit(t *testing.T) {
	unit := systemdUnit("/opt/keybridge/keybridge", "")
	assert.Contains(t, unit, `ExecStart="/opt/keybridge/keybridge" server`+"\n")
	assert.Contains(t, unit, "WorkingDirectory=/opt/keybridge\n")

	unit = systemdUnit("/usr/bin/keybridge", "/etc/keybridge/server.yaml")
	assert.Contains(t, unit, `ExecStart="/usr/bin/keybridge" server --config "/etc/keybridge/server.yaml"`)
}
