package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"nav_oracle/internal/entity"
	"nav_oracle/internal/pkg/utils"
)

// hermesBatchSize caps feed IDs per request to keep the query string well
// under proxy URL limits.
const hermesBatchSize = 50

// HermesClient defines the interface for Pyth's Hermes price API.
type HermesClient interface {
	GetLatestPrices(ctx context.Context, feedIDs []string) ([]entity.HermesParsedPrice, error)
}

type hermesClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewHermesClient creates a new instance of hermesClientImpl.
func NewHermesClient(baseURL string, timeout time.Duration, logger *zap.Logger) HermesClient {
	return &hermesClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("HermesClient"),
	}
}

// GetLatestPrices fetches the latest published price for every feed ID,
// splitting large feed sets into batched requests.
func (c *hermesClientImpl) GetLatestPrices(ctx context.Context, feedIDs []string) ([]entity.HermesParsedPrice, error) {
	if len(feedIDs) == 0 {
		return nil, fmt.Errorf("feedIDs cannot be empty")
	}

	var all []entity.HermesParsedPrice
	for _, batch := range utils.BatchStrings(feedIDs, hermesBatchSize) {
		prices, err := c.fetchBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, prices...)
	}
	return all, nil
}

func (c *hermesClientImpl) fetchBatch(ctx context.Context, feedIDs []string) ([]entity.HermesParsedPrice, error) {
	var query strings.Builder
	for i, id := range feedIDs {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString("ids[]=")
		query.WriteString(id)
	}
	requestURL := fmt.Sprintf("%s/v2/updates/price/latest?%s", c.baseURL, query.String())

	c.logger.Debug("Requesting latest prices from Hermes", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to Hermes", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Hermes API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("Hermes API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var parsed entity.HermesLatestResponse
	if err := json.Unmarshal(rawBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Hermes response: %w. Body: %s", err, string(rawBody))
	}
	if len(parsed.Parsed) == 0 {
		c.logger.Warn("Hermes returned 200 OK with no parsed prices", zap.String("url", requestURL))
	}

	return parsed.Parsed, nil
}
