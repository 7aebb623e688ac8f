package previewer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kpferr "git.home.luguber.info/inful/kpfbuilder/internal/errors"
)

const sampleUserReg = `WINE REGISTRY Version 2
;; All keys relative to \\User\\S-1-5-21

[Software\\Amazon] 1612345678
#time=1d6e5b2

[Software\\Amazon\\Kindle Previewer 3] 1612345678
#time=1d6e5b3
@="C:\\users\\someone\\Local Settings\\Application Data\\Amazon\\Kindle Previewer 3"
"Version"="3.88.0"

[Software\\Wine] 1612345679
@="unrelated"
`

func TestParseWineUserReg(t *testing.T) {
	path, ok := parseWineUserReg(strings.NewReader(sampleUserReg))
	require.True(t, ok)
	assert.Equal(t, `C:\users\someone\Local Settings\Application Data\Amazon\Kindle Previewer 3`, path)
}

func TestParseWineUserRegMissingSection(t *testing.T) {
	_, ok := parseWineUserReg(strings.NewReader("[Software\\\\Other] 1\n@=\"x\"\n"))
	assert.False(t, ok)
}

func TestParseWineUserRegValueInLaterSectionIgnored(t *testing.T) {
	reg := "[Software\\\\Amazon\\\\Kindle Previewer 3] 1\n#time=1\n[Software\\\\Wine] 2\n@=\"wrong\"\n"
	_, ok := parseWineUserReg(strings.NewReader(reg))
	assert.False(t, ok)
}

func TestWinePath(t *testing.T) {
	prefix := "/home/someone/.wine"
	assert.Equal(t,
		"/home/someone/.wine/drive_c/Program Files/Amazon",
		winePath(prefix, `C:\Program Files\Amazon`))
	assert.Equal(t,
		"/home/someone/.wine/dosdevices/d:/data",
		winePath(prefix, `D:\data`))
	assert.Equal(t, "relative/path", winePath(prefix, `relative\path`))
}

func TestLocateFromWineRegistry(t *testing.T) {
	prefix := t.TempDir()
	reg := "[Software\\\\Amazon\\\\Kindle Previewer 3] 1\n@=\"C:\\\\Amazon\\\\KP3\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(prefix, "user.reg"), []byte(reg), 0o644))

	path, err := locateFromWineRegistry(prefix)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(prefix, "drive_c", "Amazon", "KP3"), path)
}

func TestLocateFromWineRegistryMissingFile(t *testing.T) {
	_, err := locateFromWineRegistry(t.TempDir())
	require.Error(t, err)
	assert.True(t, kpferr.IsCategory(err, kpferr.CategoryLocate))
}
