package previewer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
	kpferr "git.home.luguber.info/inful/kpfbuilder/internal/errors"
	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
)

const (
	// ProgramName is the Previewer's install directory and executable base name.
	ProgramName = "Kindle Previewer 3"
	// ToolName is the short tag the Previewer uses in its own output.
	ToolName = "KPR"
	// MinSupportedVersion is the oldest release whose command protocol this
	// tool still drives correctly.
	MinSupportedVersion = "3.38.0"
)

// Application represents a located, version-checked Previewer installation.
type Application struct {
	// ProgramPath is the install directory.
	ProgramPath string
	// MainProgramPath is the full path of the executable.
	MainProgramPath string
	// Version is the fingerprinted release ("3.88.0", "unknown_12345", "unknown").
	Version string
}

// NewApplication locates the installed Previewer and fingerprints its
// version. Construction fails when the install directory is missing or a
// known version is older than MinSupportedVersion.
func NewApplication(cfg config.PreviewerConfig) (*Application, error) {
	programPath, err := locateProgram(cfg)
	if err != nil {
		return nil, err
	}

	if fi, err := os.Stat(programPath); err != nil || !fi.IsDir() {
		return nil, kpferr.New(kpferr.CategoryLocate, kpferr.SeverityFatal,
			ProgramName+" not installed as expected").
			WithContext("path", programPath)
	}

	app := &Application{
		ProgramPath:     programPath,
		MainProgramPath: filepath.Join(programPath, ProgramName+executableExt),
	}
	app.Version = programVersion(app.MainProgramPath)

	if !strings.HasPrefix(app.Version, UnknownVersionPrefix) {
		if CompareVersions(app.Version, MinSupportedVersion) < 0 {
			return nil, kpferr.New(kpferr.CategoryVersion, kpferr.SeverityFatal,
				"unsupported "+ProgramName+" version "+app.Version+" is installed (version "+
					MinSupportedVersion+" or newer required)")
		}
		if desired := latestKnownVersion(); CompareVersions(app.Version, desired) < 0 {
			slog.Warn(ProgramName+" is older than the latest known release; updating is recommended for better conversion results",
				logfields.Version(app.Version),
				slog.String("latest", desired))
		}
	}

	slog.Debug("Located conversion application",
		logfields.Path(app.ProgramPath),
		logfields.Version(app.Version))
	return app, nil
}
