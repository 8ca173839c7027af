package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"vink/internal/logging"
)

// Options configures the audit logger. Zero values fall back to defaults.
type Options struct {
	// Dir is the durable local sink directory.
	Dir string
	// MirrorDir is the optional removable mirror sink; empty disables it.
	MirrorDir string
	// QueueCapacity bounds the enqueue channel.
	QueueCapacity int
	// RetentionDays prunes local files older than this window.
	RetentionDays int
	// MirrorTailLines bounds how much history a mirror rewrite preserves.
	MirrorTailLines int
}

const (
	defaultQueueCapacity   = 4096
	defaultRetentionDays   = 7
	defaultMirrorTailLines = 1000
)

func (o Options) normalized() Options {
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = defaultQueueCapacity
	}
	if o.RetentionDays <= 0 {
		o.RetentionDays = defaultRetentionDays
	}
	if o.MirrorTailLines <= 0 {
		o.MirrorTailLines = defaultMirrorTailLines
	}
	return o
}

// Logger is the non-blocking audit writer. Enqueue never waits; Run is the
// single consumer and must be running for entries to reach disk.
type Logger struct {
	opts    Options
	logger  *slog.Logger
	entries chan Entry
	drops   atomic.Uint64
}

// New prepares the audit directory and returns a logger.
func New(opts Options, logger *slog.Logger) (*Logger, error) {
	opts = opts.normalized()
	if opts.Dir == "" {
		return nil, fmt.Errorf("audit: directory not configured")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: ensure directory: %w", err)
	}
	return &Logger{
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "audit"),
		entries: make(chan Entry, opts.QueueCapacity),
	}, nil
}

// Enqueue hands an entry to the consumer, best-effort. A full queue drops
// the entry and bumps the drop counter; the caller is never delayed beyond
// the channel send itself.
func (l *Logger) Enqueue(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	select {
	case l.entries <- entry:
	default:
		l.drops.Add(1)
	}
}

// Drops reports how many entries were discarded due to backpressure.
func (l *Logger) Drops() uint64 {
	return l.drops.Load()
}

// Run consumes entries until ctx is cancelled, then drains whatever is
// already queued before returning.
func (l *Logger) Run(ctx context.Context) error {
	l.maybeCleanup(time.Now())
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.drain()
			return ctx.Err()
		case <-ticker.C:
			l.maybeCleanup(time.Now())
		case entry := <-l.entries:
			l.write(entry)
		}
	}
}

func (l *Logger) drain() {
	for {
		select {
		case entry := <-l.entries:
			l.write(entry)
		default:
			return
		}
	}
}

func (l *Logger) write(entry Entry) {
	line, err := json.Marshal(entry)
	if err != nil {
		l.logger.Error("audit entry marshal failed", logging.Error(err))
		return
	}
	line = append(line, '\n')

	if err := l.appendLocal(entry.Timestamp, line); err != nil {
		l.logger.Error("audit local write failed", logging.Error(err))
	}
	l.mirror(line)
}

func (l *Logger) appendLocal(ts time.Time, line []byte) error {
	path := l.localPath(ts)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(line)
	return err
}

func (l *Logger) localPath(ts time.Time) string {
	return filepath.Join(l.opts.Dir, "audit-"+ts.UTC().Format("20060102")+".log")
}

// LocalFiles lists the local audit files, oldest first.
func (l *Logger) LocalFiles() ([]string, error) {
	entries, err := os.ReadDir(l.opts.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if matched, _ := filepath.Match("audit-*.log", entry.Name()); matched {
			files = append(files, filepath.Join(l.opts.Dir, entry.Name()))
		}
	}
	return files, nil
}
