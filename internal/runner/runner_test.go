//go:build !windows

package runner

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shellPath(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestRunCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	p := &Process{
		Name:       "echo test",
		Path:       shellPath(t),
		Args:       []string{"-c", "echo converted; echo diagnostics 1>&2"},
		Dir:        dir,
		Env:        SandboxEnv(nil),
		OutputFile: filepath.Join(dir, "capture.txt"),
	}

	res := p.Run(context.Background())
	require.False(t, res.Failed, "failure: %s", res.FailureMsg)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "converted")
	assert.Contains(t, res.Output, "diagnostics")
	assert.False(t, strings.HasSuffix(res.Output, "\n"))
}

func TestRunNonzeroExit(t *testing.T) {
	dir := t.TempDir()
	p := &Process{
		Name:       "fail test",
		Path:       shellPath(t),
		Args:       []string{"-c", "echo partial; exit 3"},
		Dir:        dir,
		Env:        SandboxEnv(nil),
		OutputFile: filepath.Join(dir, "capture.txt"),
	}

	res := p.Run(context.Background())
	assert.True(t, res.Failed)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.FailureMsg, "Process Failure")
	assert.Contains(t, res.FailureMsg, "00000003")
	// The verdict is mirrored into the captured output.
	assert.Contains(t, res.Output, "Process Failure")
	assert.Contains(t, res.Output, "partial")
}

func TestRunTimeoutKillsProcessTree(t *testing.T) {
	dir := t.TempDir()
	p := &Process{
		Name:       "timeout test",
		Path:       shellPath(t),
		Args:       []string{"-c", "sleep 30"},
		Dir:        dir,
		Env:        SandboxEnv(nil),
		OutputFile: filepath.Join(dir, "capture.txt"),
		Timeout:    300 * time.Millisecond,
	}

	start := time.Now()
	res := p.Run(context.Background())
	elapsed := time.Since(start)

	assert.True(t, res.TimedOut)
	assert.True(t, res.Failed)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.FailureMsg, "Process Terminated")
	// Well under the 30s sleep: kill happened (1s settle sleep included).
	assert.Less(t, elapsed, 10*time.Second)
}

func TestRunContextCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	p := &Process{
		Name:       "cancel test",
		Path:       shellPath(t),
		Args:       []string{"-c", "sleep 30"},
		Dir:        dir,
		Env:        SandboxEnv(nil),
		OutputFile: filepath.Join(dir, "capture.txt"),
	}

	res := p.Run(ctx)
	assert.True(t, res.Canceled)
	assert.True(t, res.Failed)
	assert.Contains(t, res.FailureMsg, "canceled")
}

func TestRunLaunchFailure(t *testing.T) {
	dir := t.TempDir()
	p := &Process{
		Name:       "launch test",
		Path:       filepath.Join(dir, "does-not-exist"),
		Dir:        dir,
		Env:        SandboxEnv(nil),
		OutputFile: filepath.Join(dir, "capture.txt"),
	}

	res := p.Run(context.Background())
	assert.True(t, res.Failed)
	assert.Contains(t, res.FailureMsg, "Failed to launch conversion process")
	assert.Contains(t, res.Output, "Failed to launch conversion process")
}

func TestSandboxEnvAllowList(t *testing.T) {
	t.Setenv("HOME", "/home/someone")
	t.Setenv("SECRET_TOKEN", "shh")
	t.Setenv("KPF_EXTRA", "yes")

	env := SandboxEnv(nil)
	assert.Contains(t, env, "HOME=/home/someone")
	for _, kv := range env {
		assert.False(t, strings.HasPrefix(kv, "SECRET_TOKEN="), "allow-list leaked %s", kv)
		assert.False(t, strings.HasPrefix(kv, "KPF_EXTRA="), "extra var passed without opt-in")
	}

	env = SandboxEnv([]string{"KPF_EXTRA"})
	assert.Contains(t, env, "KPF_EXTRA=yes")
}

func TestEnvironmentLogDecodesBase64Args(t *testing.T) {
	log := EnvironmentLog("/opt/previewer", "/tmp/work",
		[]string{"-convert", "Ym9vay5lcHVi"},
		[]string{"HOME=/home/someone"})

	assert.Contains(t, log, "program_path: /opt/previewer")
	assert.Contains(t, log, "cwd: /tmp/work")
	assert.Contains(t, log, "-convert")
	assert.Contains(t, log, "Ym9vay5lcHVi (base64) --> book.epub")
	assert.Contains(t, log, "HOME = /home/someone")
}
