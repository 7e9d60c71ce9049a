package client

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"nav_oracle/internal/entity"
)

// quoting against the zero address skips CoW's balance/allowance checks
const cowQuoteFrom = "0x0000000000000000000000000000000000000000"

// CowSwapClient defines the interface for the CoW Protocol quote API.
type CowSwapClient interface {
	GetSellQuote(ctx context.Context, sellToken, buyToken string, sellAmount *big.Int) (*entity.CowSwapQuote, error)
}

type cowSwapClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
	cache   *gocache.Cache
}

// NewCowSwapClient creates a new instance of cowSwapClientImpl. Quotes are
// cached for cacheTTL keyed by (sellToken, buyToken, sellAmount) so repeated
// pricing of the same pair within one cycle hits the API once.
func NewCowSwapClient(baseURL string, timeout, cacheTTL time.Duration, logger *zap.Logger) CowSwapClient {
	return &cowSwapClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("CowSwapClient"),
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// GetSellQuote asks for a sell-kind quote: how much buyToken sellAmount of
// sellToken currently buys.
func (c *cowSwapClientImpl) GetSellQuote(ctx context.Context, sellToken, buyToken string, sellAmount *big.Int) (*entity.CowSwapQuote, error) {
	cacheKey := sellToken + "/" + buyToken + "/" + sellAmount.String()
	if cached, found := c.cache.Get(cacheKey); found {
		c.logger.Debug("Returning cached CoW quote", zap.String("key", cacheKey))
		return cached.(*entity.CowSwapQuote), nil
	}

	requestURL := c.baseURL + "/quote"
	body, err := json.Marshal(entity.CowSwapQuoteRequest{
		SellToken:           sellToken,
		BuyToken:            buyToken,
		From:                cowQuoteFrom,
		Receiver:            cowQuoteFrom,
		SellAmountBeforeFee: sellAmount.String(),
		Kind:                "sell",
		PriceQuality:        "optimal",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quote request: %w", err)
	}

	c.logger.Debug("Requesting quote from CoW Protocol",
		zap.String("sellToken", sellToken), zap.String("buyToken", buyToken),
		zap.String("sellAmount", sellAmount.String()))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to CoW Protocol", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("CoW Protocol API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("CoW Protocol API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var quoteResp entity.CowSwapQuoteResponse
	if err := json.Unmarshal(rawBody, &quoteResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal CoW Protocol response: %w. Body: %s", err, string(rawBody))
	}
	if quoteResp.Quote.BuyAmount == "" {
		return nil, fmt.Errorf("CoW Protocol quote for %s -> %s has no buyAmount", sellToken, buyToken)
	}

	c.cache.Set(cacheKey, &quoteResp.Quote, gocache.DefaultExpiration)
	return &quoteResp.Quote, nil
}
