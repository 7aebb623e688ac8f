// Package daemon runs kpfbuilder as a long-lived drop-directory service: it
// watches an incoming directory for e-books, converts each to KPF, files the
// inputs into processed/failed subdirectories and records every job in the
// history database. A Prometheus endpoint and optional NATS job events expose
// what the daemon is doing.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/kpfbuilder/internal/config"
	"git.home.luguber.info/inful/kpfbuilder/internal/errors"
	"git.home.luguber.info/inful/kpfbuilder/internal/events"
	"git.home.luguber.info/inful/kpfbuilder/internal/history"
	"git.home.luguber.info/inful/kpfbuilder/internal/logfields"
	"git.home.luguber.info/inful/kpfbuilder/internal/metrics"
	"git.home.luguber.info/inful/kpfbuilder/internal/previewer"
	"git.home.luguber.info/inful/kpfbuilder/internal/retry"
)

const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Daemon is the long-running watch-and-convert service.
type Daemon struct {
	cfg      *config.Config
	seq      *previewer.Sequence
	store    *history.Store
	pub      *events.Publisher
	registry *prom.Registry

	watcher    *fsnotify.Watcher
	scheduler  gocron.Scheduler
	httpServer *http.Server

	jobs    chan string
	pending map[string]struct{}
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// New wires a daemon from configuration: locates the Previewer, opens the
// history database and connects the optional event publisher.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	app, err := previewer.NewApplication(cfg.Previewer)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	seq := previewer.NewSequence(app, cfg, recorder)

	store, err := history.NewStore(cfg.Daemon.HistoryDB)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to open history database")
	}

	var pub *events.Publisher
	if cfg.Events.Enabled {
		pub, err = events.NewPublisher(ctx, cfg.Events)
		if err != nil {
			_ = store.Close()
			return nil, errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to connect event publisher")
		}
	}

	return &Daemon{
		cfg:      cfg,
		seq:      seq,
		store:    store,
		pub:      pub,
		registry: registry,
		jobs:     make(chan string, 64),
		pending:  make(map[string]struct{}),
	}, nil
}

// Run starts all daemon components and blocks until the context is canceled,
// then shuts everything down in order.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.prepareDirs(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to create file watcher")
	}
	d.watcher = watcher
	if err := watcher.Add(d.cfg.Daemon.WatchDir); err != nil {
		_ = watcher.Close()
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to watch incoming directory")
	}

	if err := d.startScheduler(); err != nil {
		_ = watcher.Close()
		return err
	}
	d.startHTTPServer()

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()

	d.wg.Add(2)
	go d.watchLoop(workerCtx)
	go d.workLoop(workerCtx)

	slog.Info("Daemon started",
		slog.String("watch_dir", d.cfg.Daemon.WatchDir),
		slog.String("output_dir", d.cfg.Daemon.OutputDir),
		slog.String("metrics_listen", d.cfg.Daemon.MetricsListen),
		logfields.Version(d.seq.Application().Version))

	// Pick up anything already sitting in the watch directory.
	d.scanOnce()

	<-ctx.Done()
	slog.Info("Daemon stopping")

	_ = d.watcher.Close()
	if err := d.scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Metrics server shutdown failed", logfields.Error(err))
	}

	cancelWorker()
	d.wg.Wait()

	if d.pub != nil {
		d.pub.Close()
	}
	if err := d.store.Close(); err != nil {
		slog.Warn("Failed to close history database", logfields.Error(err))
	}
	slog.Info("Daemon stopped")
	return nil
}

func (d *Daemon) prepareDirs() error {
	dirs := []string{
		d.cfg.Daemon.WatchDir,
		d.cfg.Daemon.OutputDir,
		filepath.Join(d.cfg.Daemon.WatchDir, processedDirName),
		filepath.Join(d.cfg.Daemon.WatchDir, failedDirName),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError,
				fmt.Sprintf("failed to create directory %s", dir))
		}
	}
	return nil
}

func (d *Daemon) startScheduler() error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to create scheduler")
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(d.cfg.Daemon.RescanIntervalDuration()),
		gocron.NewTask(d.scanOnce),
		gocron.WithName("rescan-incoming"),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryDaemon, errors.SeverityError, "failed to schedule rescan job")
	}
	d.scheduler = scheduler
	scheduler.Start()
	return nil
}

func (d *Daemon) startHTTPServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	d.httpServer = &http.Server{
		Addr:              d.cfg.Daemon.MetricsListen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
}

// watchLoop reacts to files appearing in the watch directory.
func (d *Daemon) watchLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isEbook(event.Name) {
				continue
			}
			slog.Debug("Watch event", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			d.enqueue(event.Name)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", logfields.Error(err))
		case <-ctx.Done():
			return
		}
	}
}

// enqueue adds a file to the conversion queue unless it is already pending.
func (d *Daemon) enqueue(path string) {
	d.mu.Lock()
	if _, exists := d.pending[path]; exists {
		d.mu.Unlock()
		return
	}
	d.pending[path] = struct{}{}
	d.mu.Unlock()

	select {
	case d.jobs <- path:
	default:
		// Queue full; the periodic rescan will pick it up again.
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		slog.Warn("Conversion queue full, deferring to rescan", logfields.Path(path))
	}
}

// workLoop converts queued files one at a time. The Previewer is heavyweight
// enough that serializing conversions is the right default.
func (d *Daemon) workLoop(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case path := <-d.jobs:
			d.processFile(ctx, path)
			d.mu.Lock()
			delete(d.pending, path)
			d.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) processFile(ctx context.Context, path string) {
	if !waitStable(ctx, path, 30*time.Second) {
		slog.Warn("File never settled, skipping", logfields.Path(path))
		return
	}

	start := time.Now()
	res := d.seq.Convert(ctx, path, previewer.Options{})

	base := filepath.Base(path)
	stem := base[:len(base)-len(filepath.Ext(base))]

	job := history.Job{
		ID:        res.JobID,
		Input:     path,
		Outcome:   res.Outcome,
		ErrorMsg:  res.ErrorMsg,
		StartedAt: start,
		Duration:  res.Duration,
	}

	if res.Succeeded() {
		outPath := filepath.Join(d.cfg.Daemon.OutputDir, stem+".kpf")
		if err := os.WriteFile(outPath, res.KPFData, 0o644); err != nil {
			slog.Error("Failed to write KPF output", logfields.Path(outPath), logfields.Error(err))
			d.fileAway(path, failedDirName, res.Logs)
			job.Outcome = "failed"
			job.ErrorMsg = fmt.Sprintf("failed to write KPF output: %v", err)
		} else {
			job.Output = outPath
			slog.Info("Converted",
				logfields.JobID(res.JobID),
				logfields.Input(base),
				logfields.Output(outPath))
			d.fileAway(path, processedDirName, "")
		}
	} else {
		slog.Error("Conversion failed",
			logfields.JobID(res.JobID),
			logfields.Input(base),
			slog.String("reason", res.ErrorMsg))
		d.fileAway(path, failedDirName, res.Logs)
	}

	if err := d.store.Record(ctx, job); err != nil {
		slog.Warn("Failed to record job history", logfields.JobID(res.JobID), logfields.Error(err))
	}
	d.publishEvent(ctx, job)
}

// fileAway moves a handled input into the named subdirectory of the watch
// directory. For failures the combined conversion log is written alongside.
func (d *Daemon) fileAway(path, subdir, logs string) {
	destDir := filepath.Join(d.cfg.Daemon.WatchDir, subdir)
	dest := filepath.Join(destDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		slog.Warn("Failed to move handled input", logfields.Path(path), logfields.Error(err))
		return
	}
	if logs != "" {
		logPath := dest + ".log"
		if err := os.WriteFile(logPath, []byte(logs), 0o644); err != nil {
			slog.Warn("Failed to write conversion log", logfields.Path(logPath), logfields.Error(err))
		}
	}
}

func (d *Daemon) publishEvent(ctx context.Context, job history.Job) {
	if d.pub == nil {
		return
	}
	evt := events.JobEvent{
		JobID:      job.ID,
		Input:      job.Input,
		Output:     job.Output,
		Outcome:    job.Outcome,
		ErrorMsg:   job.ErrorMsg,
		Duration:   job.Duration,
		FinishedAt: job.StartedAt.Add(job.Duration),
	}
	policy := retry.DefaultPolicy()
	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(policy.Delay(attempt)):
			}
		}
		if err = d.pub.PublishJob(ctx, evt); err == nil {
			return
		}
	}
	slog.Warn("Failed to publish job event", logfields.JobID(job.ID), logfields.Error(err))
}

// scanOnce enqueues every convertible file sitting directly in the watch
// directory. Runs at startup and on the periodic rescan schedule.
func (d *Daemon) scanOnce() {
	entries, err := os.ReadDir(d.cfg.Daemon.WatchDir)
	if err != nil {
		slog.Warn("Failed to scan incoming directory", logfields.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isEbook(name) {
			continue
		}
		d.enqueue(filepath.Join(d.cfg.Daemon.WatchDir, name))
	}
}
