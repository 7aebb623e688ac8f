package runner

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
)

var base64Arg = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

// EnvironmentLog renders the execution environment of a pending launch as a
// diagnostic log section: platform, program path, working directory, argv,
// and the sandboxed environment in sorted order. Arguments that look like
// base64 are decoded inline since the Previewer command protocol passes some
// values encoded.
func EnvironmentLog(programPath, workingDir string, argv, env []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "platform: %s, architecture: %s, locale: %s\n", runtime.GOOS, runtime.GOARCH, localeName())
	fmt.Fprintf(&b, "program_path: %s\n", programPath)
	fmt.Fprintf(&b, "cwd: %s\n", workingDir)

	b.WriteString("argv:\n")
	for _, arg := range argv {
		if base64Arg.MatchString(arg) {
			if decoded, err := base64.StdEncoding.DecodeString(arg); err == nil && isPrintableASCII(decoded) {
				arg = fmt.Sprintf("%s (base64) --> %s", arg, decoded)
			}
		}
		fmt.Fprintf(&b, "  %s\n", arg)
	}

	b.WriteString("environment:\n")
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		fmt.Fprintf(&b, "  %s = %s\n", k, v)
	}

	return strings.TrimRight(b.String(), "\n")
}

func localeName() string {
	for _, name := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if val := os.Getenv(name); val != "" {
			return val
		}
	}
	return "unknown"
}

func isPrintableASCII(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, c := range data {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}
