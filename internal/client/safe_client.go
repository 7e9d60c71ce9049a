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

// SafeClient defines the interface for the Gnosis Safe transaction service.
type SafeClient interface {
	GetSafeInfo(ctx context.Context, safeAddress string) (*entity.SafeInfo, error)
	GetPendingTransactions(ctx context.Context, safeAddress string) ([]entity.SafeMultisigTransaction, error)
	ProposeTransaction(ctx context.Context, safeAddress string, proposal *entity.SafeProposeRequest) error
}

type safeClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSafeClient creates a new instance of safeClientImpl.
func NewSafeClient(baseURL string, timeout time.Duration, logger *zap.Logger) SafeClient {
	return &safeClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("SafeClient"),
	}
}

// GetSafeInfo fetches the Safe's current nonce, threshold and owner set.
func (c *safeClientImpl) GetSafeInfo(ctx context.Context, safeAddress string) (*entity.SafeInfo, error) {
	requestURL := fmt.Sprintf("%s/api/v1/safes/%s/", c.baseURL, safeAddress)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to Safe service", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Safe service request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("Safe service request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var info entity.SafeInfo
	if err := json.Unmarshal(rawBody, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Safe info response: %w. Body: %s", err, string(rawBody))
	}
	return &info, nil
}

// GetPendingTransactions lists the not-yet-executed multisig transactions
// queued on the Safe.
func (c *safeClientImpl) GetPendingTransactions(ctx context.Context, safeAddress string) ([]entity.SafeMultisigTransaction, error) {
	requestURL := fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/?executed=false&limit=100", c.baseURL, safeAddress)

	c.logger.Debug("Requesting pending transactions from Safe service", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute request to Safe service", zap.String("url", requestURL), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Safe service request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("Safe service request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var page entity.SafeMultisigTransactionsPage
	if err := json.Unmarshal(rawBody, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Safe service response: %w. Body: %s", err, string(rawBody))
	}

	c.logger.Debug("Fetched pending Safe transactions",
		zap.String("safe", safeAddress), zap.Int("count", len(page.Results)))
	return page.Results, nil
}

// ProposeTransaction submits a new multisig transaction proposal to the Safe
// transaction service.
func (c *safeClientImpl) ProposeTransaction(ctx context.Context, safeAddress string, proposal *entity.SafeProposeRequest) error {
	requestURL := fmt.Sprintf("%s/api/v1/safes/%s/multisig-transactions/", c.baseURL, safeAddress)
	body, err := json.Marshal(proposal)
	if err != nil {
		return fmt.Errorf("failed to marshal Safe proposal: %w", err)
	}

	c.logger.Info("Proposing transaction to Safe service",
		zap.String("safe", safeAddress), zap.String("to", proposal.To))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := execute(c.client, ctx, req, resp, c.timeout); err != nil {
		c.logger.Error("Failed to execute proposal request to Safe service", zap.String("url", requestURL), zap.Error(err))
		return fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	status := resp.StatusCode()
	if status != fasthttp.StatusOK && status != fasthttp.StatusCreated {
		rawBody := resp.Body()
		c.logger.Error("Safe proposal rejected",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", rawBody))
		return fmt.Errorf("Safe service rejected proposal with status %d: %s", status, string(rawBody))
	}
	return nil
}
