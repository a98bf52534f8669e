// Package config declares the keybridge command line.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/Alia5/keybridge/internal/cmd"
)

// CLI is the root command. Every flag can also come from a config file found
// by configpaths or named with --config.
type CLI struct {
	Version    kong.VersionFlag `help:"Print the version and exit"`
	ConfigFile string           `name:"config" help:"Path to a json, yaml or toml config file" type:"path" env:"KEYBRIDGE_CONFIG"`

	Log struct {
		Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"KEYBRIDGE_LOG_LEVEL"`
		File    string `help:"Also write logs to this file" type:"path" env:"KEYBRIDGE_LOG_FILE"`
		RawFile string `help:"Dump every HID report as hex to this file" type:"path" env:"KEYBRIDGE_LOG_RAW_FILE"`
	} `embed:"" prefix:"log."`

	Server    cmd.Server        `cmd:"" help:"Run the keybridge server"`
	Config    cmd.ConfigCommand `cmd:"" help:"Manage configuration files"`
	Type      cmd.Type          `cmd:"" help:"Type text on a running server"`
	Layouts   cmd.Layouts       `cmd:"" help:"List layouts or switch the active one"`
	Macro     cmd.MacroCommand  `cmd:"" help:"Manage and play macros"`
	Attach    cmd.Attach        `cmd:"" help:"Forward this terminal to the remote keyboard"`
	Install   cmd.Install       `cmd:"" help:"Install the server as a system service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the system service"`
}
