// Package githost implements a client for a GitHub-contents-style versioned
// file API. Every file read returns an opaque revision (the blob sha); every
// write must present the revision last observed so concurrent modification
// is detected by the backend, never silently overwritten.
package githost

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mkalinins/dashvault/internal/common"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultTimeout = 10 * time.Second

	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "2022-11-28"
)

// BackendError reports a backend or transport failure that is not a
// conflict and not an absence. It is never retried automatically: the
// outcome of the original call is unknown, so a safe retry must re-read
// for a fresh revision first.
type BackendError struct {
	Status  int // zero for transport errors
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error: %s", e.Message)
}

func (e *BackendError) Unwrap() error { return e.Err }

// Config holds the connection settings for one repository.
type Config struct {
	BaseURL string // defaults to the public GitHub API
	Token   string // bearer credential
	Owner   string
	Repo    string
	Branch  string // defaults to "main"
	Timeout time.Duration
}

// Client talks to the contents API of a single repository branch.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	owner   string
	repo    string
	branch  string
	timeout time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{},
		baseURL: baseURL,
		token:   cfg.Token,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		timeout: timeout,
	}
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, nil, &BackendError{Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, nil, &BackendError{Message: "build request", Err: err}
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersionHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Includes timeouts: the outcome is unknown, surfaced as a
		// backend failure rather than a retryable conflict.
		return nil, nil, &BackendError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &BackendError{Status: resp.StatusCode, Message: "read response body", Err: err}
	}
	return resp, payload, nil
}

func apiMessage(payload []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return string(payload)
}

type contentResponse struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Sha     string `json:"sha"`
	Content string `json:"content"`
}

// Get fetches the file at path. Absence is reported as common.ErrNotFound.
// The returned revision identifies the exact version read and must accompany
// any subsequent write to the same path.
func (c *Client) Get(ctx context.Context, path string) ([]byte, string, error) {
	u := c.contentsURL(path) + "?ref=" + url.QueryEscape(c.branch)
	resp, payload, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", common.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, "", &BackendError{Status: resp.StatusCode, Message: apiMessage(payload)}
	}

	var file contentResponse
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, "", &BackendError{Status: resp.StatusCode, Message: "malformed content response", Err: err}
	}
	if file.Type != "" && file.Type != "file" {
		return nil, "", &BackendError{Status: resp.StatusCode, Message: "path is not a file: " + path}
	}

	// The API wraps base64 with newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, "", &BackendError{Status: resp.StatusCode, Message: "malformed file content", Err: err}
	}
	return decoded, file.Sha, nil
}

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content,omitempty"`
	Branch  string `json:"branch"`
	Sha     string `json:"sha,omitempty"`
}

type writeResponse struct {
	Content struct {
		Sha string `json:"sha"`
	} `json:"content"`
}

// Put writes content to path and returns the new revision. revision must be
// the one last observed for the path, or empty when creating the file; a
// stale revision is rejected by the backend as common.ErrConflict.
func (c *Client) Put(ctx context.Context, path string, content []byte, revision, message string) (string, error) {
	body := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		Sha:     revision,
	}
	resp, payload, err := c.do(ctx, http.MethodPut, c.contentsURL(path), body)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// 409 for a stale sha, 422 when the sha is missing but the file
		// already exists. Both mean the observed revision is no longer
		// current.
		return "", fmt.Errorf("put %s: %w", path, common.ErrConflict)
	default:
		return "", &BackendError{Status: resp.StatusCode, Message: apiMessage(payload)}
	}

	var result writeResponse
	if err := json.Unmarshal(payload, &result); err != nil || result.Content.Sha == "" {
		return "", &BackendError{Status: resp.StatusCode, Message: "malformed write response", Err: err}
	}
	return result.Content.Sha, nil
}

// Delete removes the file at path. A revision is required: deleting without
// one would race against concurrent writers, so the call fails fast instead.
func (c *Client) Delete(ctx context.Context, path, revision, message string) error {
	if revision == "" {
		return fmt.Errorf("delete %s requires a revision: %w", path, common.ErrValidation)
	}
	body := writeRequest{
		Message: message,
		Branch:  c.branch,
		Sha:     revision,
	}
	resp, payload, err := c.do(ctx, http.MethodDelete, c.contentsURL(path), body)
	if err != nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("delete %s: %w", path, common.ErrNotFound)
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return fmt.Errorf("delete %s: %w", path, common.ErrConflict)
	default:
		return &BackendError{Status: resp.StatusCode, Message: apiMessage(payload)}
	}
}

// List returns the names of the files directly under dir. A missing
// directory is reported as common.ErrNotFound.
func (c *Client) List(ctx context.Context, dir string) ([]string, error) {
	u := c.contentsURL(dir) + "?ref=" + url.QueryEscape(c.branch)
	resp, payload, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, common.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, &BackendError{Status: resp.StatusCode, Message: apiMessage(payload)}
	}

	var entries []contentResponse
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, &BackendError{Status: resp.StatusCode, Message: "malformed listing response", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "file" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}
