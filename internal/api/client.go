// Package api is the HTTP client for the document-chat backend. It wraps
// each call with the caller's deadline and normalizes every outcome into a
// decoded payload or a typed *Error (timeout, network, backend), so the
// packages above it never touch net/http directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client issues bounded-time calls against the chat backend. Deadlines are
// the caller's policy: wrap ctx with context.WithTimeout before calling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	notifyDown func(reason string)
}

// Config carries Client construction options.
type Config struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string
	// Logger receives one line per request. Nil means no logging.
	Logger *zap.Logger
	// OnNetworkFailure fires whenever a call dies at the transport layer,
	// so connectivity can be downgraded without waiting for the next
	// scheduled probe. Optional.
	OnNetworkFailure func(reason string)
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// NewClient creates a Client for the given backend root.
func NewClient(baseURL string) *Client {
	return NewClientWithConfig(Config{BaseURL: baseURL})
}

// NewClientWithConfig creates a Client with explicit options.
func NewClientWithConfig(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No client-wide timeout: each call's ctx carries its own deadline.
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		notifyDown: cfg.OnNetworkFailure,
	}
}

// BaseURL returns the backend root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Status fetches the backend status snapshot.
func (c *Client) Status(ctx context.Context) (*StatusPayload, error) {
	var out StatusPayload
	if err := c.doJSON(ctx, http.MethodGet, "/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneralChat sends one open-domain message. history is the prior
// conversation, oldest first; it may be nil.
func (c *Client) GeneralChat(ctx context.Context, message string, history []HistoryItem) (*ChatReply, error) {
	var out ChatReply
	req := generalChatRequest{Message: message, History: history}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/general", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DocumentChat asks one question against the loaded document.
func (c *Client) DocumentChat(ctx context.Context, question string) (*ChatReply, error) {
	var out ChatReply
	req := documentChatRequest{Question: question}
	if err := c.doJSON(ctx, http.MethodPost, "/chat/pdf", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPDF sends the file contents as a multipart upload under the
// backend's expected "file" field.
func (c *Client) UploadPDF(ctx context.Context, filename string, r io.Reader) (*UploadAck, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var out UploadAck
	if err := c.do(ctx, http.MethodPost, "/upload-pdf", &body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearPDF removes the loaded document from the backend.
func (c *Client) ClearPDF(ctx context.Context) (*UploadAck, error) {
	var out UploadAck
	if err := c.doJSON(ctx, http.MethodDelete, "/pdf", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health hits the backend health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthPayload, error) {
	var out HealthPayload
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Root hits the backend root banner endpoint.
func (c *Client) Root(ctx context.Context) (*RootPayload, error) {
	var out RootPayload
	if err := c.doJSON(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON marshals body (when non-nil) and runs the request.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out)
}

// do issues one request and resolves it into out or a typed *Error.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classify(method, path, requestID, start, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classify(method, path, requestID, start, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(raw, resp.StatusCode)
		c.logger.Warn("backend rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
			zap.Duration("elapsed", time.Since(start)))
		return &Error{Kind: KindBackend, Status: resp.StatusCode, Detail: detail}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.logger.Warn("undecodable response body",
				zap.String("method", method),
				zap.String("path", path),
				zap.String("request_id", requestID),
				zap.Int("status", resp.StatusCode),
				zap.Error(err))
			return &Error{Kind: KindBackend, Status: resp.StatusCode, Detail: "invalid response body", Err: err}
		}
	}

	c.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// classify splits transport errors into the timeout/network taxonomy.
// Cancellation counts as timeout: both are the client abandoning the call,
// and neither says anything about the backend being down.
func (c *Client) classify(method, path, requestID string, start time.Time, err error) error {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		c.logger.Warn("request abandoned at deadline", fields...)
		return &Error{Kind: KindTimeout, Detail: "request timed out", Err: err}
	}
	c.logger.Warn("backend unreachable", fields...)
	if c.notifyDown != nil {
		c.notifyDown(err.Error())
	}
	return &Error{Kind: KindNetwork, Detail: "backend unreachable", Err: err}
}

// extractDetail pulls the structured detail out of an error body, falling
// back to a generic message for the status code.
func extractDetail(raw []byte, status int) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return fmt.Sprintf("HTTP error, status %d", status)
}
