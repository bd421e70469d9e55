// Package jira is a minimal Jira Cloud REST v3 client covering the two
// endpoints the pipelines need: cursor-paginated JQL search and bulk
// issue creation.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client performs Jira REST API calls.
type Client interface {
	SearchJQL(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	BulkCreate(ctx context.Context, req BulkCreateRequest) (*BulkCreateResponse, error)
}

// SearchRequest is the request body for POST /rest/api/3/search/jql.
type SearchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields,omitempty"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Issues        []SearchIssue `json:"issues"`
	NextPageToken string        `json:"nextPageToken"`
	IsLast        bool          `json:"isLast"`
}

// SearchIssue is a single issue as returned by the search endpoint.
type SearchIssue struct {
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the fields the fetch pipeline requests.
type IssueFields struct {
	IssueType   *NamedEntity `json:"issuetype"`
	Summary     string       `json:"summary"`
	Description *Document    `json:"description"`
}

// NamedEntity is any Jira object addressed by display name.
type NamedEntity struct {
	Name string `json:"name"`
}

// BulkCreateRequest is the request body for POST /rest/api/3/issue/bulk.
type BulkCreateRequest struct {
	IssueUpdates []IssueUpdate `json:"issueUpdates"`
}

// IssueUpdate is one issue to create.
type IssueUpdate struct {
	Fields CreateFields `json:"fields"`
}

// CreateFields holds the fields for issue creation.
type CreateFields struct {
	Project     NamedKey    `json:"project"`
	IssueType   NamedEntity `json:"issuetype"`
	Summary     string      `json:"summary"`
	Description *Document   `json:"description,omitempty"`
}

// NamedKey is any Jira object addressed by key.
type NamedKey struct {
	Key string `json:"key"`
}

// BulkCreateResponse reports the created issues.
type BulkCreateResponse struct {
	Issues []CreatedIssue `json:"issues"`
	Errors []any          `json:"errors"`
}

// CreatedIssue is one successfully created issue.
type CreatedIssue struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// APIError is a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira: unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsClientError reports whether err is a Jira 4xx rejection, as opposed
// to a transport failure or server error. The fetch pipeline uses this
// to recognize a stale pagination cursor.
func IsClientError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return false
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the Jira site base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
}

// NewClient creates a Jira client using basic auth (email + API token).
func NewClient(baseURL, email, token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchJQL(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/rest/api/3/search/jql", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) BulkCreate(ctx context.Context, req BulkCreateRequest) (*BulkCreateResponse, error) {
	var resp BulkCreateResponse
	if err := c.post(ctx, "/rest/api/3/issue/bulk", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return eris.Wrap(err, "jira: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "jira: create request")
	}
	httpReq.SetBasicAuth(c.email, c.token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrapf(err, "jira: POST %s", path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "jira: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, respBody); err != nil {
		return eris.Wrap(err, "jira: unmarshal response")
	}
	return nil
}
