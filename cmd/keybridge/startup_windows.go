//go:build windows

package main

import (
	"log/slog"
	"os"
	"slices"

	"github.com/Alia5/keybridge/internal/util"
)

// A double clicked keybridge.exe has no arguments; start the server.
func init() {
	if !util.IsRunFromGUI() || slices.Contains(os.Args[1:], "server") {
		return
	}
	slog.Info("started from Explorer, running the server")
	os.Args = append([]string{os.Args[0], "server"}, os.Args[1:]...)
}
