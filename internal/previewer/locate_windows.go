//go:build windows

package previewer

import (
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
)

const executableExt = ".exe"

var programVersions = programVersionsWindows

func locateProgram(cfg config.PreviewerConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}

	programPath := filepath.Join(os.Getenv("LOCALAPPDATA"), "Amazon", ProgramName)
	if fi, err := os.Stat(programPath); err == nil && fi.IsDir() {
		return programPath, nil
	}

	// Non-default install location: the installer records it in the registry.
	if regPath, err := registryInstallPath(); err == nil {
		return regPath, nil
	} else {
		slog.Warn("Failed to obtain the Kindle Previewer path from the registry", "error", err)
	}
	return programPath, nil
}

func registryInstallPath() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Amazon\Kindle Previewer 3`, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()

	value, _, err := key.GetStringValue("")
	if err != nil {
		return "", err
	}
	return value, nil
}
