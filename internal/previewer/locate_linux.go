//go:build linux

package previewer

import (
	"git.home.luguber.info/inful/kpfbuilder/internal/config"
)

// The Previewer has no native Linux build; it runs under Wine using the
// Windows executable.
const executableExt = ".exe"

var programVersions = programVersionsWindows

func locateProgram(cfg config.PreviewerConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	return locateFromWineRegistry(defaultWinePrefix(cfg.WinePrefix))
}
