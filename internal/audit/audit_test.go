package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vink/internal/logging"
)

func newTestLogger(t *testing.T, mirrorDir string) *Logger {
	t.Helper()
	l, err := New(Options{
		Dir:             t.TempDir(),
		MirrorDir:       mirrorDir,
		QueueCapacity:   8,
		RetentionDays:   7,
		MirrorTailLines: 5,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	l := newTestLogger(t, "")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			l.Enqueue(Entry{ID: fmt.Sprintf("e%d", i), Outcome: "no_match"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked with no consumer running")
	}
	if l.Drops() != 100-8 {
		t.Fatalf("Drops() = %d, want %d", l.Drops(), 100-8)
	}
}

func TestRunWritesDatedJSONLines(t *testing.T) {
	l := newTestLogger(t, "")

	ts := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	l.Enqueue(Entry{ID: "one", Timestamp: ts, Input: "merel", Outcome: "auto_accept"})
	l.Enqueue(Entry{ID: "two", Timestamp: ts, Input: "vink", Outcome: "suggestions"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Run(ctx); err != context.Canceled {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	path := filepath.Join(l.opts.Dir, "audit-20260828.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read local log: %v", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var ids []string
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		ids = append(ids, entry.ID)
	}
	if len(ids) != 2 || ids[0] != "one" || ids[1] != "two" {
		t.Fatalf("ids = %v, want [one two]", ids)
	}
}

func TestMirrorReceivesEntries(t *testing.T) {
	mirrorDir := t.TempDir()
	l := newTestLogger(t, mirrorDir)

	l.write(Entry{ID: "m1", Timestamp: time.Now(), Outcome: "auto_accept"})

	data, err := os.ReadFile(filepath.Join(mirrorDir, mirrorFileName))
	if err != nil {
		t.Fatalf("read mirror: %v", err)
	}
	if !bytes.Contains(data, []byte(`"id":"m1"`)) {
		t.Fatalf("mirror missing entry: %s", data)
	}
}

func TestMirrorMissingDirIsSilent(t *testing.T) {
	l := newTestLogger(t, filepath.Join(t.TempDir(), "not-mounted"))
	// Must not error or panic, just skip the mirror.
	l.write(Entry{ID: "gone", Timestamp: time.Now(), Outcome: "no_match"})
}

func TestRewriteWithTailBoundsHistory(t *testing.T) {
	l := newTestLogger(t, "")
	path := filepath.Join(t.TempDir(), "mirror.log")

	var buf bytes.Buffer
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&buf, "line-%02d\n", i)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := l.rewriteWithTail(path, []byte("new-entry\n")); err != nil {
		t.Fatalf("rewriteWithTail: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := bytes.Split(bytes.TrimSuffix(data, []byte{'\n'}), []byte{'\n'})
	if len(lines) != l.opts.MirrorTailLines+1 {
		t.Fatalf("kept %d lines, want %d", len(lines), l.opts.MirrorTailLines+1)
	}
	if string(lines[0]) != "line-45" {
		t.Fatalf("oldest kept line = %q, want line-45", lines[0])
	}
	if string(lines[len(lines)-1]) != "new-entry" {
		t.Fatalf("last line = %q, want new-entry", lines[len(lines)-1])
	}
}

func TestReadTailShortFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.log")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tail, err := readTail(path, 10)
	if err != nil {
		t.Fatalf("readTail: %v", err)
	}
	if string(tail) != "a\nb\n" {
		t.Fatalf("tail = %q", tail)
	}
}

func TestCleanupRunsOncePerDay(t *testing.T) {
	l := newTestLogger(t, "")

	old := filepath.Join(l.opts.Dir, "audit-20200101.log")
	if err := os.WriteFile(old, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	l.maybeCleanup(now)
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("stale audit file not pruned")
	}

	state, err := loadCleanupState(filepath.Join(l.opts.Dir, cleanupStateFile))
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.LastCleanup != now.UTC().Format("2006-01-02") {
		t.Fatalf("LastCleanup = %q", state.LastCleanup)
	}
	if len(state.Deleted) != 1 || state.Deleted[0] != "audit-20200101.log" {
		t.Fatalf("Deleted = %v", state.Deleted)
	}

	// Second stale file appearing the same day must survive until tomorrow.
	again := filepath.Join(l.opts.Dir, "audit-20200102.log")
	if err := os.WriteFile(again, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(again, stale, stale); err != nil {
		t.Fatal(err)
	}
	l.maybeCleanup(now)
	if _, err := os.Stat(again); err != nil {
		t.Fatal("cleanup ran twice in one day")
	}
}

func TestLocalFilesListsOnlyAuditLogs(t *testing.T) {
	l := newTestLogger(t, "")
	for _, name := range []string{"audit-20260101.log", "audit-20260102.log", "cleanup_state.json", "other.txt"} {
		if err := os.WriteFile(filepath.Join(l.opts.Dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := l.LocalFiles()
	if err != nil {
		t.Fatalf("LocalFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %v, want 2 audit logs", files)
	}
}
