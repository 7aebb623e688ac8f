//go:build darwin

package previewer

import (
	"git.home.luguber.info/inful/kpfbuilder/internal/config"
)

const executableExt = ""

var programVersions = programVersionsDarwin

func locateProgram(cfg config.PreviewerConfig) (string, error) {
	if cfg.Path != "" {
		return cfg.Path, nil
	}
	return "/Applications/Kindle Previewer 3.app/Contents/MacOS", nil
}
