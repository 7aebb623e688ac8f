package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEbook(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"book.epub", true},
		{"BOOK.EPUB", true},
		{"novel.mobi", true},
		{"manuscript.docx", true},
		{"draft.doc", true},
		{"/incoming/deep/book.epub", true},
		{"notes.txt", false},
		{"book.kpf", false},
		{".hidden.epub", false},
		{"download.epub.part", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isEbook(tt.path), tt.path)
	}
}

func TestWaitStableImmediate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	assert.True(t, waitStable(context.Background(), path, 5*time.Second))
}

func TestWaitStableMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.epub")
	assert.False(t, waitStable(context.Background(), path, time.Second))
}

func TestWaitStableCanceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// First stat always needs a second sample; a canceled context stops the wait.
	assert.False(t, waitStable(ctx, path, 0))
}

func TestPrepareDirs(t *testing.T) {
	base := t.TempDir()
	d := &Daemon{cfg: testConfig(base)}
	require.NoError(t, d.prepareDirs())

	for _, dir := range []string{
		filepath.Join(base, "in"),
		filepath.Join(base, "out"),
		filepath.Join(base, "in", processedDirName),
		filepath.Join(base, "in", failedDirName),
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
