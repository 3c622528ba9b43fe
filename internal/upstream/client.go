// Package upstream wraps the OpenAI Responses API client this gateway calls
// out to for every downstream Messages-API request.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
)

// Client is a thin, mockable façade over the openai-go Responses service.
// Long-running SSE streams are bounded by the caller's context rather than
// an HTTP client timeout, mirroring the teacher's "Client.Timeout = 0,
// bound reads by context" approach for its own Anthropic client.
type Client struct {
	inner *openai.Client
	model string
}

// New creates a Client authenticated with apiKey, defaulting every request
// to model. transport, if non-nil, replaces the default HTTP transport
// (a way to stub the upstream).
func New(apiKey, model string, transport http.RoundTripper) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("upstream: API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if transport != nil {
		opts = append(opts, option.WithHTTPClient(&http.Client{
			Transport: transport,
			Timeout:   0,
		}))
	}

	client := openai.NewClient(opts...)
	return &Client{inner: &client, model: model}, nil
}

// Model returns the single upstream model this gateway is configured to use.
func (c *Client) Model() string {
	return c.model
}

// CreateResponse performs a non-streaming Responses API call.
func (c *Client) CreateResponse(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	return c.inner.Responses.New(ctx, params)
}

// CreateResponseStream performs a streaming Responses API call, returning
// the raw SSE event stream for the caller's state machine to drive.
func (c *Client) CreateResponseStream(ctx context.Context, params responses.ResponseNewParams) *ssestream.Stream[responses.ResponseStreamEventUnion] {
	return c.inner.Responses.NewStreaming(ctx, params)
}

// Ping performs a minimal round-trip against the upstream, used by the
// gateway's /test-connection endpoint.
func (c *Client) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	resp, err := c.inner.Responses.New(ctx, responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String("ping"),
		},
		MaxOutputTokens: openai.Int(16),
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}
