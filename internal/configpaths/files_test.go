package configpaths_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/internal/configpaths"
)

func TestDefaultConfigDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses AppData")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err := configpaths.DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "keybridge"), dir)

	p, err := configpaths.DefaultNamedConfigPath("macros", "yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "keybridge", "macros.yaml"), p)
}

func TestConfigCandidatePaths_UserPathFirst(t *testing.T) {
	tests := []struct {
		path string
		pick func(j, y, t []string) []string
	}{
		{path: "my.json", pick: func(j, _, _ []string) []string { return j }},
		{path: "my.yml", pick: func(_, y, _ []string) []string { return y }},
		{path: "my.toml", pick: func(_, _, t []string) []string { return t }},
		{path: "my.conf", pick: func(j, _, _ []string) []string { return j }},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			j, y, tm := configpaths.ConfigCandidatePaths(tt.path)
			got := tt.pick(j, y, tm)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.path, got[0])
		})
	}

	j, _, _ := configpaths.ConfigCandidatePaths("")
	assert.Equal(t, "keybridge.json", filepath.Base(j[0]))
}
