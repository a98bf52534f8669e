//go:build !windows

// Package util holds platform helpers for starting the server by double
// click instead of from a shell.
package util

// IsRunFromGUI reports whether the process was started from a file manager.
// Only Windows can tell; elsewhere the server is expected to be started from
// a shell or a service manager.
func IsRunFromGUI() bool { return false }

// HideConsoleWindow detaches from the console window. No-op outside Windows.
func HideConsoleWindow() {}
