package watcher

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/UKHO/kluster/internal/config"
	"github.com/UKHO/kluster/internal/logging"
)

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) handler(path string, event EventType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event.String()+" "+filepath.Base(path))
}

func (l *eventLog) contains(want string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e == want {
			return true
		}
	}
	return false
}

func startMonitor(t *testing.T, dir string, recursive bool) (*Monitor, *eventLog) {
	t.Helper()
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	cfg := config.MonitorConfig{
		PollIntervalMs: 10,
		DebounceMs:     20,
		IgnorePatterns: []string{"*.tmp"},
	}
	log := &eventLog{}
	m := New(dir, recursive, cfg, logger, log.handler)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)
	return m, log
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestMonitorDetectsCreatedFile(t *testing.T) {
	dir := t.TempDir()
	_, log := startMonitor(t, dir, false)

	if err := os.WriteFile(filepath.Join(dir, "line1.kmall"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return log.contains("created line1.kmall") },
		"created event never arrived")
}

func TestMonitorDetectsDeletedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "line1.kmall")
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	_, log := startMonitor(t, dir, false)
	waitFor(t, func() bool { return log.contains("created line1.kmall") },
		"pre-existing file never announced")

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return log.contains("deleted line1.kmall") },
		"deleted event never arrived")
}

func TestMonitorIgnoresPatterns(t *testing.T) {
	dir := t.TempDir()
	_, log := startMonitor(t, dir, false)

	if err := os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "real.svp"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return log.contains("created real.svp") },
		"created event never arrived")
	if log.contains("created scratch.tmp") {
		t.Error("expected ignored pattern to suppress the event")
	}
}

func TestMonitorRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "day1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	_, log := startMonitor(t, dir, true)

	if err := os.WriteFile(filepath.Join(sub, "line1.all"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return log.contains("created line1.all") },
		"created event in subfolder never arrived")
}

func TestMonitorNonRecursiveSkipsSubfolders(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "day1")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	_, log := startMonitor(t, dir, false)

	if err := os.WriteFile(filepath.Join(sub, "nested.all"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "top.all"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return log.contains("created top.all") },
		"top-level created event never arrived")
	if log.contains("created nested.all") {
		t.Error("expected nested file to be skipped without recursion")
	}
}

func TestMonitorWaitsForStableSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "growing.all")

	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	cfg := config.MonitorConfig{PollIntervalMs: 10, DebounceMs: 200}
	log := &eventLog{}
	m := New(dir, false, cfg, logger, log.handler)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Stop)

	// Keep growing the file; no event may fire while the size changes
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.Write(make([]byte, 128)); err != nil {
			t.Fatal(err)
		}
		f.Sync()
		time.Sleep(30 * time.Millisecond)
		if log.contains("created growing.all") {
			t.Fatal("file announced while still being written")
		}
	}
	f.Close()

	waitFor(t, func() bool { return log.contains("created growing.all") },
		"created event after writes stopped never arrived")
}

func TestMonitorStartFailsOnMissingDir(t *testing.T) {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	m := New("/no/such/dir", false, config.MonitorConfig{PollIntervalMs: 10}, logger, func(string, EventType) {})
	if err := m.Start(); err == nil {
		t.Fatal("expected Start to fail for a missing directory")
	}
}
