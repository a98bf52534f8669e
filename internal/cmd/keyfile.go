package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Alia5/keybridge/internal/configpaths"
	"github.com/Alia5/keybridge/internal/server/api/auth"
)

const keyFileName = "keybridge.key.txt"

func keyFilePath() (string, error) {
	dir, err := configpaths.DefaultConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve key file path: %w", err)
	}
	return filepath.Join(dir, keyFileName), nil
}

// readKeyFile returns the stored API password, or "" when there is none.
func readKeyFile() string {
	p, err := keyFilePath()
	if err != nil {
		return ""
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

// loadOrCreatePassword returns the stored API password, generating and
// persisting one on first run.
func loadOrCreatePassword(logger *slog.Logger) (string, error) {
	if pwd := readKeyFile(); pwd != "" {
		return pwd, nil
	}
	p, err := keyFilePath()
	if err != nil {
		return "", err
	}
	pwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(p, []byte(pwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write new API password to file: %w", err)
	}
	logger.Info("Generated API server password", "path", p)
	logger.Info("-------------------------------------")
	logger.Info("Your keybridge API password is:")
	logger.Info(pwd)
	logger.Info("-------------------------------------")
	logger.Info("You can change this password at any time by editing the file")
	return pwd, nil
}
