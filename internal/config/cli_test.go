package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/internal/config"
)

func parse(t *testing.T, args []string, opts ...kong.Option) (*config.CLI, string) {
	t.Helper()
	var cli config.CLI
	opts = append([]kong.Option{kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("kong exited") })}, opts...)
	parser, err := kong.New(&cli, opts...)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx.Command()
}

func TestCLI_ServerDefaults(t *testing.T) {
	cli, command := parse(t, []string{"server"})
	assert.Equal(t, "server", command)
	assert.Equal(t, "info", cli.Log.Level)
	assert.Equal(t, ":3243", cli.Server.ApiServerConfig.Addr)
	assert.Equal(t, "en_US", cli.Server.Keyboard.Layout)
	assert.True(t, cli.Server.Keyboard.StickyModifiers)
	assert.Equal(t, 6, cli.Server.Keyboard.MaxSimultaneousKeys)
	assert.Equal(t, 50*time.Millisecond, cli.Server.Keyboard.StepDelay)
	assert.Equal(t, 25, cli.Server.Macro.MaxTotalMacros)
	assert.Equal(t, "log", cli.Server.Output)
}

func TestCLI_Flags(t *testing.T) {
	cli, _ := parse(t, []string{
		"--log.level=debug", "server",
		"--keyboard.layout=de_DE", "--no-keyboard.sticky-modifiers",
		"--output=gadget", "--gadget.path=/dev/hidg1",
	})
	assert.Equal(t, "debug", cli.Log.Level)
	assert.Equal(t, "de_DE", cli.Server.Keyboard.Layout)
	assert.False(t, cli.Server.Keyboard.StickyModifiers)
	assert.Equal(t, "gadget", cli.Server.Output)
	assert.Equal(t, "/dev/hidg1", cli.Server.Gadget.Path)
}

func TestCLI_RejectsUnknownOutput(t *testing.T) {
	var cli config.CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"server", "--output=bluetooth"})
	assert.Error(t, err)
}

func TestCLI_ClientCommands(t *testing.T) {
	tests := []struct {
		args    []string
		command string
	}{
		{args: []string{"type", "hello", "world"}, command: "type <text>"},
		{args: []string{"layouts"}, command: "layouts"},
		{args: []string{"layouts", "fr_FR"}, command: "layouts <set>"},
		{args: []string{"macro", "list"}, command: "macro list"},
		{args: []string{"macro", "play", "abc"}, command: "macro play <id>"},
		{args: []string{"macro", "cancel"}, command: "macro cancel"},
		{args: []string{"attach", "--addr=10.0.0.2:3243"}, command: "attach"},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			_, command := parse(t, tt.args)
			assert.Equal(t, tt.command, command)
		})
	}
}

func TestCLI_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	body := `{"keyboard":{"layout":"fr_FR","max_simultaneous_keys":4,"step_gap":"20ms"},"output":"viiper","viiper":{"addr":"10.0.0.5:3242"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cli, _ := parse(t, []string{"server"}, kong.Configuration(kong.JSON, path))
	assert.Equal(t, "fr_FR", cli.Server.Keyboard.Layout)
	assert.Equal(t, 4, cli.Server.Keyboard.MaxSimultaneousKeys)
	assert.Equal(t, 20*time.Millisecond, cli.Server.Keyboard.StepGap)
	assert.Equal(t, "viiper", cli.Server.Output)
	assert.Equal(t, "10.0.0.5:3242", cli.Server.VIIPER.Addr)

	cli, _ = parse(t, []string{"server", "--keyboard.layout=de_DE"}, kong.Configuration(kong.JSON, path))
	assert.Equal(t, "de_DE", cli.Server.Keyboard.Layout, "flags override files")
}
