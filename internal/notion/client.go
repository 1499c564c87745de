package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/imroc/req/v3"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/version"
)

const (
	// DefaultBaseURL is the Notion public API root.
	DefaultBaseURL = "https://api.notion.com/v1"

	// apiVersion pins the Notion API revision we are written against.
	apiVersion = "2022-06-28"
)

// apiError is the body Notion sends with non-2xx responses.
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	ErrCode string `json:"code"`
	Message string `json:"message"`
}

// Client wraps the Notion public API. The integration token is static,
// so unlike Feishu there is no token refresh dance.
type Client struct {
	http *req.Client
	cfg  *config.NotionConfig
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different API root. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.http.SetBaseURL(baseURL)
	}
}

func NewClient(cfg *config.NotionConfig, opts ...ClientOption) *Client {
	httpClient := req.C().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(30 * time.Second).
		SetUserAgent("notesync/" + version.Version).
		SetCommonBearerAuthToken(cfg.APIKey).
		SetCommonHeader("Notion-Version", apiVersion)

	c := &Client{http: httpClient, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) request(ctx context.Context) *req.Request {
	return c.http.R().SetContext(ctx)
}

// classify maps transport errors and Notion error responses onto the
// target error kinds the orchestrator acts on.
func (c *Client) classify(op string, resp *req.Response, err error, apiErr *apiError) error {
	if err != nil {
		return &target.Error{Code: target.CodeTransient, Target: Name, Op: op, Err: err}
	}

	if resp == nil || resp.IsSuccessState() {
		return nil
	}

	code := target.CodeUnknown
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		code = target.CodeUnauthorized
	case resp.StatusCode == 404:
		code = target.CodeNotFound
	case resp.StatusCode == 429:
		code = target.CodeRateLimited
	case resp.StatusCode >= 500:
		code = target.CodeTransient
	}

	msg := fmt.Sprintf("http %d", resp.StatusCode)
	if apiErr != nil && apiErr.Message != "" {
		msg = fmt.Sprintf("%s (%s)", apiErr.Message, apiErr.ErrCode)
	}
	return target.NewError(code, Name, op, msg)
}
