// Package api provides the HTTP client for one remote n8n instance's public
// workflow API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/n8nhub/n8nhub/pkg/models"
)

// DefaultTimeout bounds every workflow API call.
const DefaultTimeout = 30 * time.Second

const basePath = "/api/v1/workflows"

// Client talks to one instance. It carries no retry logic: callers decide
// whether a failed instance is skipped or surfaced.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL and credential.
func NewClient(baseURL, credential string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// NewClientForInstance creates a client from a configured instance.
func NewClientForInstance(instance models.Instance) *Client {
	return &Client{
		baseURL:    strings.TrimRight(instance.BaseURL, "/"),
		credential: instance.APIKey,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client, mainly so probing can
// inject a shorter timeout.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient

	return c
}

// setAuth applies the credential. A credential beginning with "Bearer " or
// "token " is sent as an Authorization header; anything else as the n8n
// API-key header.
func (c *Client) setAuth(req *http.Request) {
	lower := strings.ToLower(c.credential)
	if strings.HasPrefix(lower, "bearer ") || strings.HasPrefix(lower, "token ") {
		req.Header.Set("Authorization", c.credential)

		return
	}

	req.Header.Set("X-N8N-API-KEY", c.credential)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Op: method + " " + path, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: method + " " + path, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &RequestError{Op: method + " " + path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &RequestError{Op: method + " " + path, StatusCode: resp.StatusCode, Body: string(body), Err: ErrUnauthorized}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RequestError{
			Op:         method + " " + path,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			Err:        ErrRequestFailed,
		}
	}

	return body, nil
}

// ListWorkflows fetches one page of up to limit workflows. An empty cursor
// requests the first page.
func (c *Client) ListWorkflows(ctx context.Context, limit int, cursor string) (*models.WorkflowPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	if cursor != "" {
		query.Set("cursor", cursor)
	}

	body, err := c.do(ctx, http.MethodGet, basePath, query)
	if err != nil {
		return nil, err
	}

	var page models.WorkflowPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &RequestError{Op: "GET " + basePath, Err: fmt.Errorf("decoding page: %w", err)}
	}

	return &page, nil
}

// GetWorkflow fetches the full definition of one workflow, nodes included.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.WorkflowDetail, error) {
	body, err := c.do(ctx, http.MethodGet, basePath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var detail models.WorkflowDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, &RequestError{Op: "GET " + basePath + "/" + id, Err: fmt.Errorf("decoding workflow: %w", err)}
	}

	return &detail, nil
}

// Activate turns one workflow on.
func (c *Client) Activate(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, basePath+"/"+url.PathEscape(id)+"/activate", nil)

	return err
}

// Deactivate turns one workflow off.
func (c *Client) Deactivate(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, basePath+"/"+url.PathEscape(id)+"/deactivate", nil)

	return err
}
