// Package gateway talks to the game's JSON-RPC gateway and the public
// player list endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// GameTitle is the gateway's name for the game.
	GameTitle = "tunguska"

	sessionHeader = "X-GatewaySession"

	DefaultTimeout  = 10 * time.Second
	serverCacheTTL  = 10 * time.Minute
	maxResponseSize = 4 << 20
)

// Config points the client at the gateway.
type Config struct {
	RPCURL     string
	PlayersURL string
	Session    string
	Timeout    time.Duration
}

// Client is the kick backend and roster source backed by the gateway.
type Client struct {
	cfg     Config
	http    *http.Client
	servers *cache.Cache
}

// NewClient creates a gateway client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		servers: cache.New(serverCacheTTL, 2*serverCacheTTL),
	}
}

type rpcRequest struct {
	ID      string         `json:"id"`
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call invokes method and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{
		ID:      uuid.NewString(),
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RPCURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequest, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Session != "" {
		req.Header.Set(sessionHeader, c.cfg.Session)
	}

	data, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, method, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s: %d %s", ErrRPC, method, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, bytes.TrimSpace(data))
	}
	return data, nil
}

func jsonString(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return string(data), nil
}
