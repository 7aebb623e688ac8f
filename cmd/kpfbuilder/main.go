package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
	"git.home.luguber.info/inful/kpfbuilder/internal/daemon"
	"git.home.luguber.info/inful/kpfbuilder/internal/previewer"
	"git.home.luguber.info/inful/kpfbuilder/internal/version"
)

const defaultConfigFile = "kpfbuilder.yaml"

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"kpfbuilder.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Convert struct {
		Input       string   `arg:"" help:"E-book file to convert (EPUB, MOBI, DOC, DOCX)"`
		Output      string   `short:"o" help:"Output KPF path (default: input name with .kpf in the output directory)"`
		Timeout     string   `short:"t" help:"Conversion timeout override, e.g. 15m"`
		Flags       []string `short:"f" help:"Conversion flags (e.g. NoPrep)"`
		SaveCleaned string   `help:"Also save the cleaned input file to this path"`
		Log         string   `help:"Write the combined conversion log to this path"`
	} `cmd:"" help:"Convert one e-book to KPF"`

	Locate struct{} `cmd:"" help:"Locate the Kindle Previewer installation and report its version"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct{} `cmd:"" help:"Watch a drop directory and convert arriving e-books"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "convert <input>":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runConvert(cfg); err != nil {
			slog.Error("Conversion failed", "error", err)
			os.Exit(1)
		}
	case "locate":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runLocate(cfg); err != nil {
			slog.Error("Locate failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration file created: %s\n", CLI.Config)
	case "daemon":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("kpfbuilder %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	default:
		slog.Error("Unknown command", "command", ctx.Command())
		os.Exit(1)
	}
}

// loadConfig reads the configured file, falling back to built-in defaults
// when the default config file simply doesn't exist. An explicitly given
// missing path is still an error.
func loadConfig() (*config.Config, error) {
	if CLI.Config == defaultConfigFile {
		if _, err := os.Stat(CLI.Config); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.Load(CLI.Config)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runConvert(cfg *config.Config) error {
	app, err := previewer.NewApplication(cfg.Previewer)
	if err != nil {
		return err
	}
	seq := previewer.NewSequence(app, cfg, nil)

	opts := previewer.Options{
		Flags:           CLI.Convert.Flags,
		CleanedCopyPath: CLI.Convert.SaveCleaned,
	}
	if CLI.Convert.Timeout != "" {
		timeout, err := time.ParseDuration(CLI.Convert.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", CLI.Convert.Timeout, err)
		}
		opts.Timeout = timeout
	}

	ctx, cancel := signalContext()
	defer cancel()

	res := seq.Convert(ctx, CLI.Convert.Input, opts)

	if CLI.Convert.Log != "" {
		if err := os.WriteFile(CLI.Convert.Log, []byte(res.Logs), 0o644); err != nil {
			slog.Warn("Failed to write conversion log", "path", CLI.Convert.Log, "error", err)
		}
	}
	if CLI.Verbose {
		fmt.Fprintln(os.Stderr, res.Logs)
	} else if res.Guidance != "" {
		fmt.Fprintln(os.Stderr, res.Guidance)
	}

	if !res.Succeeded() {
		return fmt.Errorf("%s", res.ErrorMsg)
	}

	outPath := CLI.Convert.Output
	if outPath == "" {
		base := filepath.Base(CLI.Convert.Input)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		outPath = filepath.Join(cfg.Output.Directory, stem+".kpf")
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, res.KPFData, 0o644); err != nil {
		return fmt.Errorf("write KPF output: %w", err)
	}
	fmt.Println(outPath)
	return nil
}

func runLocate(cfg *config.Config) error {
	app, err := previewer.NewApplication(cfg.Previewer)
	if err != nil {
		return err
	}
	fmt.Printf("Program:    %s\n", app.ProgramPath)
	fmt.Printf("Executable: %s\n", app.MainProgramPath)
	fmt.Printf("Version:    %s\n", app.Version)
	return nil
}

func runDaemon(cfg *config.Config) error {
	ctx, cancel := signalContext()
	defer cancel()

	d, err := daemon.New(ctx, cfg)
	if err != nil {
		return err
	}
	return d.Run(ctx)
}
