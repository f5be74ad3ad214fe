// Package watcher provides polling-based directory monitoring for survey
// data folders.
package watcher

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/UKHO/kluster/internal/config"
	"github.com/UKHO/kluster/internal/logging"
	"github.com/UKHO/kluster/internal/paths"
)

// EventType represents the type of file system event
type EventType int

const (
	Created EventType = iota
	Deleted
)

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Handler is called once per detected event, always from the monitor's
// single poll goroutine, so calls never overlap.
type Handler func(path string, event EventType)

// fileState tracks one observed file between polls
type fileState struct {
	size      int64
	changedAt time.Time
	announced bool
}

// Monitor watches one directory tree for files appearing and disappearing.
// Polling is used instead of fsnotify: survey data commonly sits on network
// shares where inotify events are unreliable, and acquisition systems write
// large files incrementally, so a new file is only announced once its size
// has held still for the debounce interval.
type Monitor struct {
	root      string
	recursive bool
	config    config.MonitorConfig
	logger    *logging.Logger
	handler   Handler

	files  map[string]*fileState
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a monitor for the given directory
func New(root string, recursive bool, cfg config.MonitorConfig, logger *logging.Logger, handler Handler) *Monitor {
	return &Monitor{
		root:      paths.Normalize(root),
		recursive: recursive,
		config:    cfg,
		logger:    logger,
		handler:   handler,
		files:     make(map[string]*fileState),
		stopCh:    make(chan struct{}),
	}
}

// Root returns the monitored directory
func (m *Monitor) Root() string { return m.root }

// Start verifies the directory and begins polling. Files already present
// are announced as created on the first poll.
func (m *Monitor) Start() error {
	info, err := os.Stat(m.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &os.PathError{Op: "watch", Path: m.root, Err: os.ErrInvalid}
	}

	m.wg.Add(1)
	go m.poll()
	return nil
}

// Stop halts polling and waits for the poll goroutine to exit. No handler
// calls happen after Stop returns.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) poll() {
	defer m.wg.Done()

	interval := time.Duration(m.config.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	// First scan runs immediately so pre-existing files are picked up
	// without waiting a full interval
	m.scan()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.scan()
		case <-m.stopCh:
			return
		}
	}
}

// scan walks the tree once, announcing stable new files and files that
// have gone missing since the last pass
func (m *Monitor) scan() {
	seen := m.listFiles()
	now := time.Now()
	debounce := time.Duration(m.config.DebounceMs) * time.Millisecond

	// Deletions first: a moved file shows up as delete+create and the
	// stores handle re-adds more gracefully in that order
	var deleted []string
	for path, state := range m.files {
		if _, ok := seen[path]; !ok {
			if state.announced {
				deleted = append(deleted, path)
			}
			delete(m.files, path)
		}
	}
	sort.Strings(deleted)
	for _, path := range deleted {
		m.logger.Debug("monitored file deleted", map[string]interface{}{"path": path})
		m.handler(path, Deleted)
	}

	var created []string
	for path, size := range seen {
		state, ok := m.files[path]
		if !ok {
			m.files[path] = &fileState{size: size, changedAt: now}
			continue
		}
		if size != state.size {
			// Still being written; restart the stability clock
			state.size = size
			state.changedAt = now
			continue
		}
		if !state.announced && now.Sub(state.changedAt) >= debounce {
			state.announced = true
			created = append(created, path)
		}
	}
	sort.Strings(created)
	for _, path := range created {
		m.logger.Debug("monitored file created", map[string]interface{}{"path": path})
		m.handler(path, Created)
	}
}

// listFiles returns the current path -> size view of the monitored tree
func (m *Monitor) listFiles() map[string]int64 {
	out := make(map[string]int64)

	walk := func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if !m.recursive && paths.Normalize(path) != m.root {
				return filepath.SkipDir
			}
			return nil
		}
		if m.isIgnored(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out[paths.Normalize(path)] = info.Size()
		return nil
	}

	if err := filepath.WalkDir(m.root, walk); err != nil {
		m.logger.Warn("directory scan failed", map[string]interface{}{
			"folder": m.root,
			"error":  err.Error(),
		})
	}
	return out
}

// isIgnored checks a path against the configured ignore patterns
func (m *Monitor) isIgnored(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range m.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(pattern, "**") {
			parts := strings.Split(pattern, "**")
			if len(parts) == 2 {
				norm := paths.Normalize(path)
				if strings.HasPrefix(norm, strings.TrimSuffix(parts[0], "/")) &&
					(parts[1] == "" || strings.HasSuffix(norm, strings.TrimPrefix(parts[1], "/"))) {
					return true
				}
			}
		}
	}
	return false
}
