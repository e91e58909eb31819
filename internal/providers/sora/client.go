package sora

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"soraprobe/internal/domain"
	"soraprobe/internal/infra"
)

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultGenerationsPath = "/video/generations"
	defaultLightTimeout    = 10 * time.Second
	defaultSubmitTimeout   = 30 * time.Second
	maxResponseBytes       = 4 << 20
)

// Options configures the video generation API client.
type Options struct {
	APIKey          string
	BaseURL         string
	GenerationsPath string
	Organization    string
	HTTPClient      *http.Client
	Logger          *infra.Logger
	// LightTimeout bounds the listing and status calls.
	LightTimeout time.Duration
	// SubmitTimeout bounds job creation.
	SubmitTimeout time.Duration
}

// Client performs single-attempt HTTP calls against the video generation API.
// It never retries.
type Client struct {
	apiKey          string
	baseURL         string
	generationsPath string
	organization    string
	lightTimeout    time.Duration
	submitTimeout   time.Duration
	httpClient      *http.Client
	logger          *infra.Logger
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if parsed, err := url.Parse(baseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("sora: invalid base url %q", opts.BaseURL)
	}
	path := strings.TrimRight(strings.TrimSpace(opts.GenerationsPath), "/")
	if path == "" {
		path = defaultGenerationsPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	light := opts.LightTimeout
	if light <= 0 {
		light = defaultLightTimeout
	}
	submit := opts.SubmitTimeout
	if submit <= 0 {
		submit = defaultSubmitTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:          strings.TrimSpace(opts.APIKey),
		baseURL:         baseURL,
		generationsPath: path,
		organization:    strings.TrimSpace(opts.Organization),
		lightTimeout:    light,
		submitTimeout:   submit,
		httpClient:      httpClient,
		logger:          logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GenerationURL returns the status URL for a job.
func (c *Client) GenerationURL(id string) string {
	return c.baseURL + c.generationsPath + "/" + url.PathEscape(id)
}

// ListModels calls GET /models.
func (c *Client) ListModels(ctx context.Context) (*domain.ModelList, *Response, error) {
	resp, err := c.call(ctx, c.lightTimeout, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, resp, err
	}
	var list domain.ModelList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, resp, fmt.Errorf("sora: decode models: %w", err)
	}
	return &list, resp, nil
}

// CreateGeneration submits a video generation job. The request is sent as
// given; callers validate it first.
func (c *Client) CreateGeneration(ctx context.Context, req domain.GenerationRequest) (domain.JobStatus, *Response, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("sora: encode request: %w", err)
	}
	return c.Submit(ctx, raw)
}

// Submit posts a JSON body to the generations endpoint without reshaping it,
// so fields GenerationRequest does not model still reach the service.
func (c *Client) Submit(ctx context.Context, body json.RawMessage) (domain.JobStatus, *Response, error) {
	resp, err := c.call(ctx, c.submitTimeout, http.MethodPost, c.generationsPath, body)
	if err != nil {
		return nil, resp, err
	}
	job, err := decodeJob(resp.Body)
	return job, resp, err
}

// GetGeneration polls the status endpoint once.
func (c *Client) GetGeneration(ctx context.Context, id string) (domain.JobStatus, *Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, domain.ErrMissingJobID
	}
	resp, err := c.call(ctx, c.lightTimeout, http.MethodGet, c.generationsPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, resp, err
	}
	job, err := decodeJob(resp.Body)
	return job, resp, err
}

// OpenContent starts a download of the rendered video. The caller owns the
// returned body for every status code; only transport failures return an
// error. No timeout is applied beyond ctx because the body is streamed.
func (c *Client) OpenContent(ctx context.Context, id string) (*http.Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrMissingJobID
	}
	if !c.HasCredentials() {
		return nil, domain.ErrMissingAPIKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.GenerationURL(id)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("sora: build request: %w", err)
	}
	c.authorize(httpReq)
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sora: http request: %w", err)
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, timeout time.Duration, method, path string, payload any) (*Response, error) {
	if !c.HasCredentials() {
		return nil, domain.ErrMissingAPIKey
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("sora: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	endpoint := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("sora: build request: %w", err)
	}
	c.authorize(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Dur("elapsed", time.Since(start)).Msg("sora: transport error")
		return &Response{Outcome: OutcomeTransportError}, fmt.Errorf("sora: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Response{Outcome: OutcomeTransportError, StatusCode: resp.StatusCode}, fmt.Errorf("sora: read response: %w", err)
	}
	out := &Response{
		StatusCode: resp.StatusCode,
		Outcome:    Classify(resp.StatusCode),
		Header:     resp.Header.Clone(),
		Body:       raw,
	}
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("outcome", string(out.Outcome)).
		Dur("elapsed", time.Since(start)).
		Msg("sora: response")
	if out.Outcome != OutcomeSuccess {
		return out, &StatusError{StatusCode: resp.StatusCode, Outcome: out.Outcome, Body: string(raw)}
	}
	return out, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
}

func decodeJob(raw []byte) (domain.JobStatus, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.JobStatus{}, nil
	}
	var job domain.JobStatus
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("sora: decode job: %w", err)
	}
	if job == nil {
		return nil, errors.New("sora: decode job: null body")
	}
	return job, nil
}
