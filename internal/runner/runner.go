package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
)

const (
	// pollInterval is the supervision loop granularity.
	pollInterval = 100 * time.Millisecond
	// completionSettle gives the child's final output a moment to reach the
	// capture file after exit (the Previewer buffers its console writes).
	completionSettle = 1 * time.Second
	// slowRunThreshold is the duration above which a completed run is logged.
	slowRunThreshold = 60 * time.Second
)

// Process describes one supervised invocation of the external program.
type Process struct {
	Name       string        // label used in logs and capture sections
	Path       string        // absolute path to the executable
	Args       []string      // program arguments
	Dir        string        // working directory
	Env        []string      // sandboxed environment (see SandboxEnv)
	OutputFile string        // stdout+stderr capture file path
	Timeout    time.Duration // zero disables the deadline
}

// RunResult carries the observed outcome of a supervised run.
type RunResult struct {
	Output     string // captured stdout+stderr, trailing whitespace trimmed
	ExitCode   int    // -1 for launch failure, timeout, or cancellation
	TimedOut   bool
	Canceled   bool
	Failed     bool
	FailureMsg string
}

// Run launches the program and supervises it until exit, deadline expiry, or
// context cancellation. Failures are reported both in the RunResult and
// in-band in the captured output so the combined conversion log is complete
// on its own.
func (p *Process) Run(ctx context.Context) *RunResult {
	res := &RunResult{ExitCode: -1}

	outFile, err := os.Create(p.OutputFile)
	if err != nil {
		res.Failed = true
		res.FailureMsg = fmt.Sprintf("Failed to create output capture file: %v", err)
		return res
	}

	cmd := exec.Command(p.Path, p.Args...)
	cmd.Dir = p.Dir
	cmd.Env = p.Env
	cmd.Stdout = outFile
	cmd.Stderr = outFile
	setSysProcAttr(cmd)

	slog.Info("Launching conversion process",
		logfields.Program(p.Path),
		logfields.Stage(p.Name),
		logfields.Path(p.Dir))

	if err := cmd.Start(); err != nil {
		p.fail(res, outFile, fmt.Sprintf("Failed to launch conversion process: %v", err))
		p.finish(res, outFile)
		return res
	}

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var deadline <-chan time.Time
	if p.Timeout > 0 {
		timer := time.NewTimer(p.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	var waitErr error
wait:
	for {
		select {
		case waitErr = <-done:
			break wait
		case <-deadline:
			deadline = nil
			res.TimedOut = true
			slog.Warn("Killing process", logfields.Stage(p.Name), logfields.PID(cmd.Process.Pid))
			if err := killTree(cmd); err != nil {
				p.fail(res, outFile, fmt.Sprintf("Failed to kill conversion process: %v", err))
			}
		case <-ctxDone:
			ctxDone = nil
			if !res.TimedOut {
				res.Canceled = true
				slog.Warn("Killing process (canceled)", logfields.Stage(p.Name), logfields.PID(cmd.Process.Pid))
				if err := killTree(cmd); err != nil {
					p.fail(res, outFile, fmt.Sprintf("Failed to kill conversion process: %v", err))
				}
			}
		case <-ticker.C:
		}
	}

	duration := time.Since(start)
	if duration > slowRunThreshold {
		slog.Info("Conversion process took a while",
			logfields.Stage(p.Name),
			logfields.DurationMS(float64(duration.Milliseconds())))
	}

	time.Sleep(completionSettle)

	switch {
	case res.TimedOut:
		res.ExitCode = -1
		p.fail(res, outFile, fmt.Sprintf("Process Terminated: %s did not complete within %d seconds",
			p.Name, int(p.Timeout.Seconds())))
	case res.Canceled:
		res.ExitCode = -1
		p.fail(res, outFile, fmt.Sprintf("Process Terminated: %s canceled", p.Name))
	default:
		res.ExitCode = exitCode(cmd, waitErr)
		if res.ExitCode != 0 {
			p.fail(res, outFile, fmt.Sprintf("Process Failure: %s return code %08x", p.Name, uint32(res.ExitCode)))
		}
	}

	p.finish(res, outFile)
	return res
}

// fail records the first failure message and mirrors it into the capture file
// so the combined log carries the supervision verdict next to the program's
// own output.
func (p *Process) fail(res *RunResult, outFile *os.File, msg string) {
	res.Failed = true
	if res.FailureMsg == "" {
		res.FailureMsg = msg
	}
	fmt.Fprintf(outFile, "\n%s\n", msg)
}

func (p *Process) finish(res *RunResult, outFile *os.File) {
	if err := outFile.Close(); err != nil {
		slog.Warn("Failed to close output capture file", logfields.Error(err))
	}
	data, err := os.ReadFile(p.OutputFile)
	if err != nil {
		slog.Warn("Failed to read output capture file", logfields.Path(p.OutputFile), logfields.Error(err))
		return
	}
	res.Output = strings.TrimRight(string(data), " \t\r\n")
}

func exitCode(cmd *exec.Cmd, waitErr error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}
