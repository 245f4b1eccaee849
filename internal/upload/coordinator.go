// Package upload drives the document upload flow: it owns the pending file
// selection, enforces the preconditions that never reach the network, and
// turns every outcome into a user-facing acknowledgment.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"docchat/internal/api"
)

// AckLevel grades an acknowledgment for display.
type AckLevel int

const (
	AckSuccess AckLevel = iota
	// AckWarning is a precondition failure: nothing was sent.
	AckWarning
	// AckError is a dispatched call that failed.
	AckError
)

func (l AckLevel) String() string {
	switch l {
	case AckSuccess:
		return "success"
	case AckWarning:
		return "warning"
	case AckError:
		return "error"
	default:
		return "unknown"
	}
}

// Ack is the blocking acknowledgment shown for upload and clear outcomes.
// These are alerts, not transcript turns; the conversation never sees them.
type Ack struct {
	Level AckLevel
	Text  string
}

// Uploader is the backend surface the coordinator drives. *api.Client
// satisfies it.
type Uploader interface {
	UploadPDF(ctx context.Context, filename string, r io.Reader) (*api.UploadAck, error)
	ClearPDF(ctx context.Context) (*api.UploadAck, error)
}

// Connectivity gates uploads and lets the coordinator request an immediate
// status refresh after a successful one. *health.Monitor satisfies it.
type Connectivity interface {
	Connected() bool
	ProbeNow()
}

// Coordinator owns the pending upload selection. The selection survives
// every outcome; only a new SelectFile replaces it.
type Coordinator struct {
	uploader Uploader
	conn     Connectivity
	logger   *zap.Logger

	uploadTimeout time.Duration
	clearTimeout  time.Duration

	mu       sync.Mutex
	selected string
}

// Config carries Coordinator construction options.
type Config struct {
	// Uploader issues the backend calls. Required.
	Uploader Uploader
	// Connectivity gates calls and receives the post-upload probe kick.
	// Required.
	Connectivity Connectivity
	// Logger receives one line per outcome. Nil means no logging.
	Logger *zap.Logger
	// UploadTimeout bounds the upload call. Zero means 60s.
	UploadTimeout time.Duration
	// ClearTimeout bounds the document-clear call. Zero means 30s.
	ClearTimeout time.Duration
}

// NewCoordinator creates a Coordinator with no file selected.
func NewCoordinator(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 60 * time.Second
	}
	clearTimeout := cfg.ClearTimeout
	if clearTimeout <= 0 {
		clearTimeout = 30 * time.Second
	}
	return &Coordinator{
		uploader:      cfg.Uploader,
		conn:          cfg.Connectivity,
		logger:        logger,
		uploadTimeout: uploadTimeout,
		clearTimeout:  clearTimeout,
	}
}

// SelectFile replaces the pending selection.
func (c *Coordinator) SelectFile(path string) {
	c.mu.Lock()
	c.selected = path
	c.mu.Unlock()
	c.logger.Info("upload candidate selected", zap.String("path", path))
}

// Selected returns the pending selection, if any.
func (c *Coordinator) Selected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected, c.selected != ""
}

// Upload sends the selected file to the backend. Precondition failures
// come back as warnings without any call going out; dispatched calls come
// back as success or error acknowledgments. On success the connectivity
// monitor is kicked so the document status refreshes without waiting for
// the next scheduled probe.
func (c *Coordinator) Upload(ctx context.Context) Ack {
	c.mu.Lock()
	path := c.selected
	c.mu.Unlock()

	if path == "" {
		return c.warn("No file selected. Pick a PDF first.")
	}
	if !c.conn.Connected() {
		return c.warn("Server not connected. Cannot upload right now.")
	}
	if strings.ToLower(filepath.Ext(path)) != ".pdf" {
		return c.warn("Only PDF files are allowed.")
	}

	f, err := os.Open(path)
	if err != nil {
		return c.fail(fmt.Sprintf("Could not read %s: %v", filepath.Base(path), err))
	}
	defer f.Close()

	callCtx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	start := time.Now()
	ack, err := c.uploader.UploadPDF(callCtx, path, f)
	switch {
	case err == nil:
		c.conn.ProbeNow()
		c.logger.Info("upload completed",
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)))
		if ack.Message != "" {
			return Ack{Level: AckSuccess, Text: ack.Message}
		}
		return Ack{Level: AckSuccess, Text: "Upload complete."}
	case api.IsTimeout(err):
		return c.fail("Upload timed out. The file may be too large.")
	case api.IsNetwork(err):
		return c.fail("Could not reach the server. Upload failed.")
	default:
		return c.fail("Upload failed: " + api.Detail(err))
	}
}

// ClearDocument asks the backend to drop the loaded document. Same ack
// protocol as Upload; the pending selection is untouched.
func (c *Coordinator) ClearDocument(ctx context.Context) Ack {
	if !c.conn.Connected() {
		return c.warn("Server not connected. Cannot clear the document right now.")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.clearTimeout)
	defer cancel()

	ack, err := c.uploader.ClearPDF(callCtx)
	switch {
	case err == nil:
		c.conn.ProbeNow()
		c.logger.Info("document cleared")
		if ack.Message != "" {
			return Ack{Level: AckSuccess, Text: ack.Message}
		}
		return Ack{Level: AckSuccess, Text: "Document cleared."}
	case api.IsTimeout(err):
		return c.fail("Clear request timed out.")
	case api.IsNetwork(err):
		return c.fail("Could not reach the server. Document not cleared.")
	default:
		return c.fail("Clear failed: " + api.Detail(err))
	}
}

func (c *Coordinator) warn(text string) Ack {
	c.logger.Info("upload refused", zap.String("reason", text))
	return Ack{Level: AckWarning, Text: text}
}

func (c *Coordinator) fail(text string) Ack {
	c.logger.Warn("upload call failed", zap.String("reason", text))
	return Ack{Level: AckError, Text: text}
}
