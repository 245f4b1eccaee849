// Package watch monitors a directory for new PDF files. A document that
// appears there becomes an upload candidate: the watcher only surfaces the
// path, it never uploads anything itself.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Candidate is one settled PDF spotted in the watched directory.
type Candidate struct {
	Path string
	At   time.Time
}

// Watcher tails one directory and emits a Candidate per PDF once its write
// events settle past the debounce window. Rapid saves of the same file
// collapse into a single emission.
type Watcher struct {
	dir      string
	logger   *zap.Logger
	debounce time.Duration

	fsw        *fsnotify.Watcher
	candidates chan Candidate

	mu      sync.Mutex
	pending map[string]time.Time
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// Config carries Watcher construction options.
type Config struct {
	// Dir is the directory to watch. Required; must exist.
	Dir string
	// Logger receives one line per candidate. Nil means no logging.
	Logger *zap.Logger
	// Debounce is how long a file must sit quiet before it is surfaced.
	// Zero means 500ms.
	Debounce time.Duration
}

// NewWatcher creates a Watcher over cfg.Dir. Call Start to begin.
func NewWatcher(cfg Config) (*Watcher, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Dir, err)
	}

	return &Watcher{
		dir:        cfg.Dir,
		logger:     logger,
		debounce:   debounce,
		fsw:        fsw,
		candidates: make(chan Candidate, 16),
		pending:    make(map[string]time.Time),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Candidates returns the emission channel. Slow consumers lose candidates
// rather than blocking the watcher.
func (w *Watcher) Candidates() <-chan Candidate {
	return w.candidates
}

// Start runs the watch loop until ctx is cancelled or Stop is called.
// Non-blocking; safe to call once.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop halts the loop, closes the underlying watcher, and waits for exit.
// Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.fsw.Close()

	// The debounce map is swept on a short tick rather than per-event, so a
	// file being written in bursts settles exactly once.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.String("dir", w.dir), zap.Error(err))
		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.ToLower(filepath.Ext(event.Name)) != ".pdf" {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushSettled() {
	now := time.Now()

	w.mu.Lock()
	var settled []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.logger.Info("upload candidate spotted", zap.String("path", path))
		select {
		case w.candidates <- Candidate{Path: path, At: now}:
		default:
		}
	}
}
