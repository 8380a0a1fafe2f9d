package webproof

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

	"go.uber.org/zap"
)

const (
	DefaultWebProverURL    = "https://web-prover.vlayer.xyz/api/v1"
	DefaultZKProverURL     = "https://zk-prover.vlayer.xyz/api/v0"
	DefaultProveTimeout    = 160 * time.Second
	DefaultCompressTimeout = 85 * time.Second
)

var ErrTimeout = errors.New("upstream request timed out")

// UpstreamError is a non-2xx answer from one of the prover APIs.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d - %s", e.StatusCode, e.Body)
}

type Config struct {
	WebProverURL    string
	ZKProverURL     string
	ClientID        string
	Secret          string
	ProveTimeout    time.Duration
	CompressTimeout time.Duration
}

type ProverClient interface {
	Prove(ctx context.Context, req ProveRequest) (json.RawMessage, error)
	Compress(ctx context.Context, req CompressRequest) (json.RawMessage, error)
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.WebProverURL == "" {
		cfg.WebProverURL = DefaultWebProverURL
	}
	if cfg.ZKProverURL == "" {
		cfg.ZKProverURL = DefaultZKProverURL
	}
	cfg.WebProverURL = strings.TrimRight(strings.TrimSpace(cfg.WebProverURL), "/")
	cfg.ZKProverURL = strings.TrimRight(strings.TrimSpace(cfg.ZKProverURL), "/")
	if cfg.ProveTimeout <= 0 {
		cfg.ProveTimeout = DefaultProveTimeout
	}
	if cfg.CompressTimeout <= 0 {
		cfg.CompressTimeout = DefaultCompressTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Prove asks the web prover to notarize req and returns its presentation untouched.
func (c *Client) Prove(ctx context.Context, req ProveRequest) (json.RawMessage, error) {
	c.logger.Debug("sending prove request", zap.String("target", req.URL), zap.Strings("headers", req.Headers))
	return c.send(ctx, c.cfg.WebProverURL+"/prove", req, c.cfg.ProveTimeout)
}

// Compress turns a presentation into a seal and an ABI-encoded journal.
func (c *Client) Compress(ctx context.Context, req CompressRequest) (json.RawMessage, error) {
	c.logger.Debug("sending compress request", zap.Strings("fields", req.Extraction.ResponseBody.JMESPath))
	return c.send(ctx, c.cfg.ZKProverURL+"/compress-web-proof", req, c.cfg.CompressTimeout)
}

func (c *Client) send(ctx context.Context, address string, payload any, timeout time.Duration) (json.RawMessage, error) {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to json.Marshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(jsonBytes))
	if err != nil {
		return nil, err
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("x-client-id", c.cfg.ClientID)
	httpRequest.Header.Set("Authorization", "Bearer "+c.cfg.Secret)

	httpResponse, err := c.http.Do(httpRequest)
	if err != nil {
		return nil, c.wrapTransportError(ctx, address, err)
	}
	defer httpResponse.Body.Close()

	jsonBytes, err = io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, c.wrapTransportError(ctx, address, err)
	}
	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		c.logger.Error("prover api error response",
			zap.String("address", address),
			zap.Int("status", httpResponse.StatusCode),
			zap.ByteString("body", jsonBytes))
		return nil, &UpstreamError{StatusCode: httpResponse.StatusCode, Body: string(jsonBytes)}
	}
	if !json.Valid(jsonBytes) {
		c.logger.Error("prover api returned invalid json", zap.String("address", address), zap.ByteString("body", jsonBytes))
		return nil, errors.New("prover api returned invalid json")
	}
	return jsonBytes, nil
}

func (c *Client) wrapTransportError(ctx context.Context, address string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.logger.Warn("prover api timed out", zap.String("address", address))
		return fmt.Errorf("%w: %s", ErrTimeout, address)
	}
	return err
}
