package client

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/infrastructure/configloader"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// EVMClientProvider hands out one cached EVMClient per configured network.
// New networks are dialed lazily on first request.
type EVMClientProvider struct {
	mu       sync.Mutex
	clients  map[string]*EVMClient
	networks map[string]configloader.NetworkNodeConfig
	logger   port.Logger

	connectionTimeout time.Duration
	rpcCallTimeout    time.Duration
	rateLimit         rate.Limit
}

// NewEVMClientProvider creates a provider over the networks declared in
// configuration.
func NewEVMClientProvider(cfg *configloader.Config, logger port.Logger) *EVMClientProvider {
	networks := make(map[string]configloader.NetworkNodeConfig, len(cfg.Networks))
	for _, network := range cfg.Networks {
		networks[network.Name] = network
	}
	return &EVMClientProvider{
		clients:           make(map[string]*EVMClient),
		networks:          networks,
		logger:            logger,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCallTimeout:    time.Duration(cfg.Performance.RPCCallTimeoutSeconds) * time.Second,
		rateLimit:         rate.Limit(cfg.Performance.RPCRateLimitPerSecond),
	}
}

// GetClient returns the client for the named network, dialing and caching it
// on first use. Each network gets its own rate limiter.
func (p *EVMClientProvider) GetClient(networkName string) (*EVMClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, exists := p.clients[networkName]; exists {
		return cached, nil
	}

	netCfg, ok := p.networks[networkName]
	if !ok {
		return nil, fmt.Errorf("network %q is not configured", networkName)
	}

	p.logger.Info("Creating new EVM client", "network", networkName, "rpc_primary", netCfg.RPCURL)
	rpcURLs := append([]string{netCfg.RPCURL}, netCfg.FallbackRPCURLs...)
	limiter := rate.NewLimiter(p.rateLimit, 1)
	newClient, err := NewEVMClient(networkName, rpcURLs, limiter, p.connectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", networkName, "error", err.Error())
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", networkName, err)
	}

	p.clients[networkName] = newClient
	return newClient, nil
}
