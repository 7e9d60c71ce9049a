package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"nav_oracle/internal/entity"
)

// HyperliquidClient defines the interface for the Hyperliquid info API.
type HyperliquidClient interface {
	GetClearinghouseState(ctx context.Context, user string) (*entity.HyperliquidClearinghouseState, error)
}

type hyperliquidClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHyperliquidClient creates a new instance of hyperliquidClientImpl.
func NewHyperliquidClient(baseURL string, timeout time.Duration, logger *zap.Logger) HyperliquidClient {
	return &hyperliquidClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("HyperliquidClient"),
	}
}

// GetClearinghouseState fetches the perp account state for one user address.
func (c *hyperliquidClientImpl) GetClearinghouseState(ctx context.Context, user string) (*entity.HyperliquidClearinghouseState, error) {
	requestURL := c.baseURL + "/info"
	body, err := json.Marshal(entity.HyperliquidInfoRequest{Type: "clearinghouseState", User: user})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clearinghouseState request: %w", err)
	}

	c.logger.Debug("Requesting clearinghouse state from Hyperliquid",
		zap.String("url", requestURL), zap.String("user", user))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to Hyperliquid", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Hyperliquid API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("Hyperliquid API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var state entity.HyperliquidClearinghouseState
	if err := json.Unmarshal(rawBody, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Hyperliquid response: %w. Body: %s", err, string(rawBody))
	}

	c.logger.Debug("Successfully fetched clearinghouse state",
		zap.String("user", user), zap.String("accountValue", state.MarginSummary.AccountValue))
	return &state, nil
}
