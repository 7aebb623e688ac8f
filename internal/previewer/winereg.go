package previewer

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kpferr "git.home.luguber.info/inful/kpfbuilder/internal/errors"
)

// Wine stores the Windows registry as text files inside the prefix. The
// Previewer's installer writes its location to the default value of
// HKCU\Software\Amazon\Kindle Previewer 3, which lands in user.reg.

const wineRegistrySection = `[Software\\Amazon\\Kindle Previewer 3]`

var wineDefaultValue = regexp.MustCompile(`@="([^"]*)"`)

// locateFromWineRegistry resolves the Previewer install directory from the
// Wine prefix's user.reg, translated to a host filesystem path.
func locateFromWineRegistry(prefix string) (string, error) {
	userReg := filepath.Join(prefix, "user.reg")
	file, err := os.Open(userReg)
	if err != nil {
		return "", kpferr.Wrap(err, kpferr.CategoryLocate, kpferr.SeverityFatal,
			"cannot read Wine registry").WithContext("user_reg", userReg)
	}
	defer file.Close()

	windowsPath, ok := parseWineUserReg(file)
	if !ok {
		return "", kpferr.New(kpferr.CategoryLocate, kpferr.SeverityFatal,
			ProgramName+" not found in "+userReg)
	}
	return winePath(prefix, windowsPath), nil
}

// parseWineUserReg scans user.reg for the Previewer section's default value.
// Returns the raw Windows path with registry escaping removed.
func parseWineUserReg(r io.Reader) (string, bool) {
	scanner := bufio.NewScanner(r)
	inSection := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "[") {
			inSection = strings.HasPrefix(line, wineRegistrySection)
			continue
		}
		if !inSection {
			continue
		}
		if m := wineDefaultValue.FindStringSubmatch(line); m != nil {
			return strings.ReplaceAll(m[1], `\\`, `\`), true
		}
	}
	return "", false
}

// winePath translates a Windows path from the Wine registry into the host
// path inside the prefix: C: maps to drive_c, other drive letters go through
// the dosdevices symlinks.
func winePath(prefix, windowsPath string) string {
	unixed := strings.ReplaceAll(windowsPath, `\`, "/")
	if len(unixed) < 2 || unixed[1] != ':' {
		return unixed
	}
	drive := strings.ToLower(unixed[:1])
	rest := unixed[2:]
	if drive == "c" {
		return filepath.Join(prefix, "drive_c", rest)
	}
	return filepath.Join(prefix, "dosdevices", drive+":", rest)
}

// defaultWinePrefix returns the configured or conventional Wine prefix.
func defaultWinePrefix(configured string) string {
	if configured != "" {
		return configured
	}
	if env := os.Getenv("WINEPREFIX"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wine"
	}
	return filepath.Join(home, ".wine")
}
