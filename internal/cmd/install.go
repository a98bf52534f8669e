package cmd

import "log/slog"

// Install registers the keybridge server as a system service.
type Install struct {
	Config string `help:"Config file the service passes to the server" type:"path"`
}

func (c *Install) Run(logger *slog.Logger) error { return install(c.Config, logger) }

// Uninstall removes the service added by install.
type Uninstall struct{}

func (c *Uninstall) Run(logger *slog.Logger) error { return uninstall(logger) }
