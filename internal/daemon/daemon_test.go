package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
)

func testConfig(base string) *config.Config {
	cfg := config.Default()
	cfg.Daemon.WatchDir = filepath.Join(base, "in")
	cfg.Daemon.OutputDir = filepath.Join(base, "out")
	cfg.Daemon.HistoryDB = filepath.Join(base, "history.db")
	cfg.Daemon.MetricsListen = "127.0.0.1:0"
	return cfg
}

func TestEnqueueDeduplicates(t *testing.T) {
	d := &Daemon{
		jobs:    make(chan string, 4),
		pending: make(map[string]struct{}),
	}

	d.enqueue("/in/book.epub")
	d.enqueue("/in/book.epub")
	d.enqueue("/in/other.epub")

	assert.Len(t, d.jobs, 2)
}

func TestEnqueueFullQueueDefersToRescan(t *testing.T) {
	d := &Daemon{
		jobs:    make(chan string, 1),
		pending: make(map[string]struct{}),
	}

	d.enqueue("/in/a.epub")
	d.enqueue("/in/b.epub") // queue full, dropped from pending

	require.Len(t, d.jobs, 1)
	d.mu.Lock()
	_, stillPending := d.pending["/in/b.epub"]
	d.mu.Unlock()
	assert.False(t, stillPending, "deferred file must be re-enqueueable")
}
