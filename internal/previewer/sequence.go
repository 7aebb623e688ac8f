package previewer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
	"git.home.luguber.info/inful/kpfbuilder/internal/epub"
	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
	"git.home.luguber.info/inful/kpfbuilder/internal/metrics"
	"git.home.luguber.info/inful/kpfbuilder/internal/runner"
	"git.home.luguber.info/inful/kpfbuilder/internal/workspace"
)

// processName labels the Previewer invocation in logs and capture sections.
const processName = "KPF conversion"

// FlagNoPrep skips EPUB cleanup and hands the input to the Previewer verbatim.
const FlagNoPrep = "NoPrep"

// Options are per-conversion overrides on top of the configuration.
type Options struct {
	// Timeout overrides the configured deadline when nonzero.
	Timeout time.Duration
	// Flags are merged with the configured conversion flags.
	Flags []string
	// CleanedCopyPath, when set, receives a copy of the cleaned input file.
	CleanedCopyPath string
}

// Sequence orchestrates one-input-to-KPF conversions against a located
// Previewer installation.
type Sequence struct {
	app      *Application
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewSequence creates a conversion sequence. A nil recorder disables metrics.
func NewSequence(app *Application, cfg *config.Config, recorder metrics.Recorder) *Sequence {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Sequence{app: app, cfg: cfg, recorder: recorder}
}

// Application exposes the located installation (for the locate command).
func (s *Sequence) Application() *Application { return s.app }

// Convert runs the full conversion pipeline for one input file. Conversion
// failures are reported in-band through the Result; Convert itself never
// panics or returns early without aggregating whatever logs were captured.
func (s *Sequence) Convert(ctx context.Context, input string, opts Options) *Result {
	cs := &ConversionState{
		Sequence: s,
		JobID:    uuid.NewString(),
		Input:    input,
		Opts:     opts,
		start:    time.Now(),
	}

	slog.Info("Converting to KPF",
		logfields.JobID(cs.JobID),
		logfields.Input(input),
		logfields.Version(s.app.Version))

	stages := []StageDef{
		{StagePrepareWorkspace, stagePrepareWorkspace},
		{StagePrepareInput, stagePrepareInput},
		{StageRunPreviewer, stageRunPreviewer},
		{StageCollectResult, stageCollectResult},
	}
	runStages(ctx, cs, stages)

	if cs.Workspace != nil {
		if err := cs.Workspace.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}

	duration := time.Since(cs.start)
	s.recorder.ObserveConversionDuration(duration)
	s.recorder.IncConversionOutcome(cs.outcome())

	result := NewResult(cs.KPFData, nil, cs.ErrorMsg, cs.LogData, cs.Guidance)
	result.JobID = cs.JobID
	result.Outcome = string(cs.outcome())
	result.Duration = duration
	slog.Info("Conversion finished",
		logfields.JobID(cs.JobID),
		slog.String("outcome", string(cs.outcome())),
		logfields.DurationMS(float64(duration.Milliseconds())))
	return result
}

func (cs *ConversionState) outcome() metrics.OutcomeLabel {
	switch {
	case cs.Run != nil && cs.Run.TimedOut:
		return metrics.OutcomeTimeout
	case cs.Run != nil && cs.Run.Canceled:
		return metrics.OutcomeCanceled
	case cs.ErrorMsg != "":
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeSuccess
}

// hasFlag checks per-run flags first, then the configured defaults.
func (cs *ConversionState) hasFlag(name string) bool {
	for _, f := range cs.Opts.Flags {
		if f == name {
			return true
		}
	}
	return cs.Sequence.cfg.Conversion.HasFlag(name)
}

func stagePrepareWorkspace(_ context.Context, cs *ConversionState) error {
	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}
	cs.Workspace = ws

	abs, err := filepath.Abs(cs.Input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	cs.InFile = abs
	return nil
}

func stagePrepareInput(_ context.Context, cs *ConversionState) error {
	ext := filepath.Ext(cs.Input)
	if !strings.EqualFold(ext, ".epub") {
		return nil // non-EPUB inputs go to the Previewer untouched
	}

	base := strings.TrimSuffix(filepath.Base(cs.Input), ext)
	prepared := filepath.Join(cs.Workspace.GetPath(), epub.SanitizeBaseName(base)+ext)

	source, err := epub.Open(cs.InFile)
	if err != nil {
		return fmt.Errorf("inspect input: %w", err)
	}
	cs.IsKIM = source.IsKIM
	cs.IsDictionary = source.IsDictionary
	cs.FullBookType = source.FullBookType

	if cs.IsDictionary {
		slog.Warn("Lookup will not function in dictionaries converted to KFX format",
			logfields.JobID(cs.JobID))
	}

	cfg := cs.Sequence.cfg.Conversion
	if cfg.PrepareInputEnabled() && !cs.hasFlag(FlagNoPrep) {
		if err := source.PrepareForPreviewer(prepared); err != nil {
			return fmt.Errorf("prepare input: %w", err)
		}
		if cs.Opts.CleanedCopyPath != "" {
			if err := epub.CopyFile(prepared, cs.Opts.CleanedCopyPath); err != nil {
				return fmt.Errorf("save cleaned input: %w", err)
			}
			slog.Info("Saved cleaned conversion input file",
				logfields.JobID(cs.JobID),
				logfields.Path(cs.Opts.CleanedCopyPath))
		}
	} else {
		if err := epub.CopyFile(cs.InFile, prepared); err != nil {
			return fmt.Errorf("copy input: %w", err)
		}
	}

	cs.InFile = prepared
	return nil
}

func stageRunPreviewer(ctx context.Context, cs *ConversionState) error {
	seq := cs.Sequence

	outputDir, err := cs.Workspace.CreateUniqueDir()
	if err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	cs.OutputDir = outputDir

	timeout := cs.Opts.Timeout
	if timeout == 0 {
		timeout = seq.cfg.Conversion.TimeoutDuration()
	}

	args := []string{cs.InFile, "-convert", "-locale", "en", "-output", outputDir}
	env := runner.SandboxEnv(seq.cfg.Previewer.ExtraEnv)
	captureFile := filepath.Join(cs.Workspace.GetPath(), "convert.out")

	argvForLog := append([]string{seq.app.MainProgramPath}, args...)
	cs.AddLog(processName+" environment",
		runner.EnvironmentLog(seq.app.ProgramPath, cs.Workspace.GetPath(), argvForLog, env))

	slog.Info("Launching "+ProgramName,
		logfields.JobID(cs.JobID),
		logfields.Version(seq.app.Version),
		logfields.Stage(string(StageRunPreviewer)))

	proc := &runner.Process{
		Name:       processName,
		Path:       seq.app.MainProgramPath,
		Args:       args,
		Dir:        cs.Workspace.GetPath(),
		Env:        env,
		OutputFile: captureFile,
		Timeout:    timeout,
	}
	run := proc.Run(ctx)
	cs.Run = run
	cs.AddLog(filepath.Base(captureFile), run.Output)

	if run.Failed {
		cs.Fail(run.FailureMsg)
	}
	return nil
}

func stageCollectResult(_ context.Context, cs *ConversionState) error {
	if cs.Run == nil {
		return nil
	}

	cs.Guidance = extractGuidance(cs.Run.Output)

	kpfPath := findKPF(cs.OutputDir)
	if kpfPath == "" {
		cs.Fail("Conversion produced no KPF output")
		return nil
	}

	data, err := os.ReadFile(kpfPath)
	if err != nil {
		cs.Fail(fmt.Sprintf("Failed to read KPF output: %v", err))
		return nil
	}
	cs.KPFData = data
	return nil
}

// findKPF locates the packaged output beneath the Previewer's output dir
// (it nests results in per-format subdirectories).
func findKPF(outputDir string) string {
	if outputDir == "" {
		return ""
	}
	var found string
	_ = filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".kpf") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// extractGuidance pulls the Previewer's actionable messages out of its
// console output (kindlegen-style "Warning(...)" / "Error(...)" lines).
func extractGuidance(output string) []string {
	var msgs []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Warning") || strings.HasPrefix(trimmed, "Error") ||
			strings.HasPrefix(trimmed, "Enhancement") {
			msgs = append(msgs, trimmed)
		}
	}
	return msgs
}
