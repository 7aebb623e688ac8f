package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ebookExtensions are the input formats the Previewer accepts.
var ebookExtensions = map[string]bool{
	".epub": true,
	".mobi": true,
	".doc":  true,
	".docx": true,
}

// isEbook reports whether a filename looks like a convertible input.
// Hidden files and partial downloads are excluded.
func isEbook(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") {
		return false
	}
	return ebookExtensions[strings.ToLower(filepath.Ext(base))]
}

// waitStable waits until the file's size stops changing, so half-copied
// drops aren't handed to the Previewer. Returns false if the file vanishes
// or the deadline passes while it is still growing.
func waitStable(ctx context.Context, path string, maxWait time.Duration) bool {
	const settle = 500 * time.Millisecond

	deadline := time.Now().Add(maxWait)
	lastSize := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return false
		}
		if info.Size() == lastSize {
			return true
		}
		lastSize = info.Size()

		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(settle):
		}
	}
}
