//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	serviceName = "keybridge.service"
	servicePath = "/etc/systemd/system/" + serviceName
)

func install(configFile string, logger *slog.Logger) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}
	if err := os.WriteFile(servicePath, []byte(systemdUnit(exePath, configFile)), 0o644); err != nil {
		return err
	}
	for _, args := range [][]string{{"daemon-reload"}, {"enable", serviceName}, {"restart", serviceName}} {
		if err := runSystemctl(args...); err != nil {
			return err
		}
	}
	logger.Info("keybridge systemd service installed", "path", servicePath, "exe", exePath)
	return nil
}

func uninstall(logger *slog.Logger) error {
	var errs []error
	for _, args := range [][]string{{"stop", serviceName}, {"disable", serviceName}} {
		if err := runSystemctl(args...); err != nil {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(servicePath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := runSystemctl("daemon-reload"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logger.Info("keybridge systemd service removed", "path", servicePath)
	return nil
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

// systemdUnit renders the service unit. The gadget output needs the
// service to start after the USB gadget is configured, hence sysinit.
func systemdUnit(exePath, configFile string) string {
	execStart := fmt.Sprintf("%q server", exePath)
	if configFile != "" {
		execStart += fmt.Sprintf(" --config %q", configFile)
	}
	return fmt.Sprintf(`[Unit]
Description=keybridge browser keyboard to HID server
After=network-online.target sysinit.target
Wants=network-online.target

[Service]
Type=simple
ExecStart=%s
WorkingDirectory=%s
Restart=on-failure

[Install]
WantedBy=multi-user.target
`, execStart, filepath.Dir(exePath))
}

func runSystemctl(args ...string) error {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
