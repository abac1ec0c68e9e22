// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is the OpenAI API endpoint.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds the wait for response headers. The body of a
	// stream is bounded only by the request context.
	DefaultTimeout = 60 * time.Second
)

// Client implements Completer against an OpenAI-compatible API.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets how long to wait for the API to start responding.
// It has no effect together with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newStreamingHTTPClient(c.timeout)
	}
	return c
}

// newStreamingHTTPClient has no overall timeout since streams are
// cancelled via context; only the wait for headers is bounded.
func newStreamingHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = headerTimeout
	return &http.Client{Transport: transport}
}

// BaseURL returns the endpoint requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Stream starts a streaming chat completion.
func (c *Client) Stream(ctx context.Context, req Request) (Stream, error) {
	if req.APIKey == "" {
		return nil, ErrNotConfigured
	}
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	// The key can change between turns, so the API client is per request
	config := openai.DefaultConfig(req.APIKey)
	config.BaseURL = c.baseURL
	config.HTTPClient = c.httpClient
	api := openai.NewClientWithConfig(config)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	stream, err := api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, mapError(err, "start completion")
	}
	return &openaiStream{stream: stream}, nil
}

// openaiStream adapts a go-openai stream to Stream.
type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (Fragment, error) {
	resp, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return Fragment{}, io.EOF
	}
	if err != nil {
		return Fragment{}, mapError(err, "receive completion")
	}

	var sb strings.Builder
	for _, choice := range resp.Choices {
		sb.WriteString(choice.Delta.Content)
	}
	return Fragment{Content: sb.String()}, nil
}

func (s *openaiStream) Close() error {
	s.stream.Close()
	return nil
}
