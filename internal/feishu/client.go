package feishu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/imroc/req/v3"

	"github.com/notesync/notesync/internal/config"
	"github.com/notesync/notesync/internal/target"
	"github.com/notesync/notesync/internal/version"
)

const (
	// DefaultBaseURL is the Feishu open platform API root.
	DefaultBaseURL = "https://open.feishu.cn/open-apis"

	// DefaultDocURLBase is where created docs are reachable.
	DefaultDocURLBase = "https://feishu.cn/docx/"

	authTenantToken = "/auth/v3/tenant_access_token/internal"

	// Feishu API codes worth special-casing.
	codeOK           = 0
	codeTokenInvalid = 99991663
	codeTableExists  = 1254043
)

// apiEnvelope is the common Feishu response wrapper.
type apiEnvelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Client wraps the Feishu open API. It owns its credential set and
// network client; nothing is shared with other targets.
type Client struct {
	http       *req.Client
	cfg        *config.FeishuConfig
	docURLBase string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different API root. Used by tests.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.http.SetBaseURL(baseURL)
	}
}

// WithDocURLBase overrides where doc links point, e.g. a tenant domain.
func WithDocURLBase(base string) ClientOption {
	return func(c *Client) {
		c.docURLBase = base
	}
}

func NewClient(cfg *config.FeishuConfig, opts ...ClientOption) *Client {
	httpClient := req.C().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(30 * time.Second).
		SetUserAgent("notesync/" + version.Version)

	c := &Client{
		http:       httpClient,
		cfg:        cfg,
		docURLBase: DefaultDocURLBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tenantTokenResponse struct {
	apiEnvelope
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// ensureToken fetches or refreshes the tenant access token. Tokens are
// reused until shortly before expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	var result tenantTokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"app_id":     c.cfg.AppID,
			"app_secret": c.cfg.AppSecret,
		}).
		SetSuccessResult(&result).
		Post(authTenantToken)

	if err := c.classify("tenant token", resp, err, &result.apiEnvelope); err != nil {
		return "", err
	}

	c.token = result.TenantAccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(result.Expire) * time.Second)
	return c.token, nil
}

// authed returns a request with the bearer token set.
func (c *Client) authed(ctx context.Context) (*req.Request, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).SetBearerAuthToken(token), nil
}

// classify maps transport errors, HTTP statuses and Feishu API codes onto
// the target error kinds the orchestrator acts on.
func (c *Client) classify(op string, resp *req.Response, err error, env *apiEnvelope) error {
	if err != nil {
		return &target.Error{Code: target.CodeTransient, Target: Name, Op: op, Err: err}
	}

	if resp != nil && resp.StatusCode != 0 && !resp.IsSuccessState() {
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
		return target.NewError(code, Name, op, fmt.Sprintf("http %d", resp.StatusCode))
	}

	if env != nil && env.Code != codeOK {
		code := target.CodeUnknown
		switch env.Code {
		case codeTokenInvalid:
			code = target.CodeUnauthorized
		}
		return target.NewError(code, Name, op, fmt.Sprintf("feishu code %d: %s", env.Code, env.Msg))
	}

	return nil
}
