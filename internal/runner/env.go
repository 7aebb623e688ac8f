package runner

import (
	"os"
	"runtime"
	"sort"
)

// knownEnvironmentVars is the allow-list of environment variable names passed
// through to the child process. Everything else is stripped so a user's shell
// environment cannot influence the conversion.
var knownEnvironmentVars = []string{
	"CLASSPATH", "DYLD_LIBRARY_PATH", "HOME", "JAVA_HOME", "JAVA_TOOL_OPTIONS", "LOGNAME",
	"OS", pathVarName(), "PATHEXT", "SHELL", "SystemDrive", "SystemRoot", "TEMP", "TMP",
	"TMPDIR", "USER", "USERNAME", "USERPROFILE", "WINDIR",
	"WINEPREFIX", "WINEDLLPATH", "WINEDLLOVERRIDES",
}

func pathVarName() string {
	if runtime.GOOS == "windows" {
		return "Path"
	}
	return "PATH"
}

// SandboxEnv builds the restricted child environment from the allow-list plus
// any extra variable names supplied via configuration. Unset variables are
// omitted. The result is sorted for stable environment logs.
func SandboxEnv(extraNames []string) []string {
	names := make([]string, 0, len(knownEnvironmentVars)+len(extraNames))
	names = append(names, knownEnvironmentVars...)
	names = append(names, extraNames...)

	seen := make(map[string]bool, len(names))
	env := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if val, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+val)
		}
	}
	sort.Strings(env)
	return env
}
