package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID      = "job_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyProgram    = "program"
	KeyVersion    = "version"
	KeyPID        = "pid"
	KeyExitCode   = "exit_code"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Input(p string) slog.Attr        { return slog.String(KeyInput, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Program(p string) slog.Attr      { return slog.String(KeyProgram, p) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func PID(pid int) slog.Attr           { return slog.Int(KeyPID, pid) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
