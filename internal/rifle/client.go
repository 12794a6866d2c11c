// Package rifle talks to the Codemodel Rifle analysis server.
//
// The server owns all import state; the only thing queried back is the
// last commit it has recorded per branch. Uploads are keyed by
// (path, branch, commit hash) and only the HTTP status code of the
// response is consulted.
package rifle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sevigo/riflesync/internal/core"
)

// Client is a thin HTTP client for the Rifle wire protocol.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a Client for the server rooted at baseURL. A nil
// httpClient gets a default with a request timeout.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// LastCommit queries the last commit the server has recorded for the
// revision. An answer without a commitHash key means the revision has
// never been imported; that is reported as an empty string, not an error.
func (c *Client) LastCommit(ctx context.Context, revision string) (string, error) {
	reqURL := c.baseURL + "/lastcommit?branchid=" + url.QueryEscape(revision)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build lastcommit request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query last commit for revision %q: %w", revision, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("lastcommit for revision %q returned status %d", revision, resp.StatusCode)
	}

	var answer struct {
		CommitHash string `json:"commitHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("failed to decode lastcommit answer: %w", err)
	}
	return answer.CommitHash, nil
}

// Handle sends one change to the server: POST for Added, PUT for
// Modified, DELETE for Deleted. body must be nil for deletions. It
// returns the HTTP status code; a transport-level failure returns an
// error instead.
func (c *Client) Handle(ctx context.Context, entry core.ChangeEntry, rev core.RevisionInfo, body []byte) (int, error) {
	var method string
	switch entry.Kind {
	case core.Added:
		method = http.MethodPost
	case core.Modified:
		method = http.MethodPut
	case core.Deleted:
		method = http.MethodDelete
	default:
		return 0, fmt.Errorf("unsupported change kind %s for %s", entry.Kind, entry.Path)
	}

	query := url.Values{}
	query.Set("path", entry.Path)
	query.Set("branchid", rev.Revision)
	query.Set("commithash", rev.HeadSHA)
	reqURL := c.baseURL + "/handle?" + query.Encode()

	var payload io.Reader
	if body != nil {
		payload = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, payload)
	if err != nil {
		return 0, fmt.Errorf("failed to build handle request for %s: %w", entry.Path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	// Only the status code matters; drain so the connection is reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
