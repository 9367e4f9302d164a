package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/blogr/internal/config"
	"github.com/pders01/blogr/internal/debuglog"
	"github.com/pders01/blogr/internal/storage"
	"github.com/pders01/blogr/internal/validation"
)

const (
	postsPath = "posts"

	defaultUserAgent = "blogr/1.0"
	defaultTimeout   = 15 * time.Second

	// maxErrorBody caps how much of an error response is kept for the message.
	maxErrorBody = 512
)

// ListResult is one answer to a list request. NotModified is set when the
// server confirmed the ETag the caller already holds; Posts is nil then.
type ListResult struct {
	Posts       []*storage.Post
	ETag        string
	NotModified bool
}

// Client talks to the posts REST API.
type Client struct {
	baseURL   *url.URL
	client    *http.Client
	userAgent string
	userID    int
}

func NewClient(cfg *config.Config) (*Client, error) {
	return NewClientWithHTTP(cfg, nil)
}

// NewClientWithHTTP lets tests inject an http.Client (for example the one of an httptest.Server).
func NewClientWithHTTP(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	normalized, err := validation.NewBaseURLValidator().ValidateAndNormalize(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	base, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("parsing API base URL: %w", err)
	}

	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	ua := cfg.API.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{
		baseURL:   base,
		client:    httpClient,
		userAgent: ua,
		userID:    cfg.API.UserID,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// List fetches the whole collection. A non-empty etag is sent as
// If-None-Match; a 304 answer yields a result with NotModified set.
func (c *Client) List(ctx context.Context, etag string) (*ListResult, error) {
	headers := map[string]string{}
	if etag != "" {
		headers["If-None-Match"] = etag
	}

	resp, err := c.do(ctx, http.MethodGet, postsPath, nil, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &ListResult{ETag: etag, NotModified: true}, nil
	}

	var posts []*storage.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decoding posts: %w", err)
	}

	return &ListResult{
		Posts: compact(posts),
		ETag:  resp.Header.Get("ETag"),
	}, nil
}

// Create posts a new entry. The configured user id is attached when the
// post carries none.
func (c *Client) Create(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	payload := *post
	if payload.UserID == 0 {
		payload.UserID = c.userID
	}
	return c.send(ctx, http.MethodPost, postsPath, &payload)
}

// Update replaces the post with the given id.
func (c *Client) Update(ctx context.Context, post *storage.Post) (*storage.Post, error) {
	if post.ID == "" {
		return nil, fmt.Errorf("updating post: missing id")
	}
	payload := *post
	if payload.UserID == 0 {
		payload.UserID = c.userID
	}
	return c.send(ctx, http.MethodPut, postPath(post.ID), &payload)
}

func (c *Client) Delete(ctx context.Context, id storage.PostID) error {
	if id == "" {
		return fmt.Errorf("deleting post: missing id")
	}
	resp, err := c.do(ctx, http.MethodDelete, postPath(id), nil, nil)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, post *storage.Post) (*storage.Post, error) {
	data, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("encoding post: %w", err)
	}

	resp, err := c.do(ctx, method, path, data, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	// Some servers answer mutations with an empty body.
	if len(bytes.TrimSpace(body)) == 0 {
		return post, nil
	}

	var saved storage.Post
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("decoding saved post: %w", err)
	}
	return &saved, nil
}

// do sends one request and maps error statuses. The caller closes the body
// of the returned response.
func (c *Client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("building request path: %w", err)
	}
	target := c.baseURL.ResolveReference(ref)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger := debuglog.WithFields(map[string]interface{}{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.Warnf("request failed: %v", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	logger.With("status", resp.StatusCode).Debugf("request done in %s", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}

	return resp, nil
}

func postPath(id storage.PostID) string {
	return postsPath + "/" + url.PathEscape(id.String())
}

// compact drops null entries some servers leave in arrays.
func compact(posts []*storage.Post) []*storage.Post {
	out := posts[:0]
	for _, p := range posts {
		if p != nil {
			out = append(out, p)
		}
	}
	if out == nil {
		return []*storage.Post{}
	}
	return out
}
