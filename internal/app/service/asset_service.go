package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/pkg/metrics"
)

// SubvaultAdapters binds additional asset adapters to one subvault, with the
// per-subvault toggles from configuration.
type SubvaultAdapters struct {
	Subvault           common.Address
	Adapters           []port.AssetAdapter
	SkipIdleBalances   bool
	SkipExistenceCheck bool
}

// AssetService discovers subvaults, fans asset fetches out to every configured
// adapter, and folds the results into one AggregatedAssets.
type AssetService struct {
	vaultReader   port.VaultReader
	idleAdapter   port.AssetAdapter
	subvaultCfg   []SubvaultAdapters
	logger        port.Logger
	maxConcurrent int
}

// NewAssetService creates an AssetService. idleAdapter is the default,
// valuation-critical balance source run against every subvault; subvaultCfg
// carries the optional per-subvault additions.
func NewAssetService(
	vr port.VaultReader,
	idleAdapter port.AssetAdapter,
	subvaultCfg []SubvaultAdapters,
	logger port.Logger,
	maxConcurrent int,
) *AssetService {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &AssetService{
		vaultReader:   vr,
		idleAdapter:   idleAdapter,
		subvaultCfg:   subvaultCfg,
		logger:        logger,
		maxConcurrent: maxConcurrent,
	}
}

type fetchTask struct {
	adapter  port.AssetAdapter
	subvault common.Address
	critical bool
}

// CollectAssets runs the full collection fan-out for one report cycle.
//
// All fetches are launched concurrently and joined with an all-complete
// gather; a single adapter's failure never cancels siblings. A failed
// valuation-critical (default) fetch is fatal for the cycle; failures of
// additional adapters are logged and their contribution dropped.
func (s *AssetService) CollectAssets(ctx context.Context, vault common.Address) (entity.AggregatedAssets, error) {
	s.logger.Info("Discovering subvaults from vault contract", "vault", vault.Hex())
	subvaults, err := s.vaultReader.SubvaultAddresses(ctx, vault)
	if err != nil {
		return entity.AggregatedAssets{}, fmt.Errorf("failed to discover subvaults for %s: %w", vault.Hex(), err)
	}
	s.logger.Info("Found subvaults", "count", len(subvaults))

	if err := s.validateConfiguredSubvaults(subvaults); err != nil {
		return entity.AggregatedAssets{}, err
	}

	tasks := s.buildTasks(subvaults)
	s.logger.Info("Fetching assets", "task_count", len(tasks))

	results := make([][]entity.AssetAmount, len(tasks))
	errs := make([]error, len(tasks))

	eg, fetchCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.maxConcurrent)
	for i, task := range tasks {
		eg.Go(func() error {
			assets, fetchErr := task.adapter.FetchAssets(fetchCtx, task.subvault)
			results[i] = assets
			errs[i] = fetchErr
			return nil // errors are partitioned after the gather
		})
	}
	_ = eg.Wait()

	var adapterResults [][]entity.AssetAmount
	var criticalFailures []string

	for i, task := range tasks {
		if errs[i] != nil {
			metrics.AssetAdapterFailures.WithLabelValues(task.adapter.Name()).Inc()
			if task.critical {
				s.logger.Error("Default asset adapter failed",
					"adapter", task.adapter.Name(), "subvault", task.subvault.Hex(), "error", errs[i].Error())
				criticalFailures = append(criticalFailures, taskLabel(task))
			} else {
				s.logger.Warn("Additional asset adapter failed, skipping its contribution",
					"adapter", task.adapter.Name(), "subvault", task.subvault.Hex(), "error", errs[i].Error())
			}
			continue
		}
		s.logger.Debug("Asset adapter returned assets",
			"adapter", task.adapter.Name(), "subvault", task.subvault.Hex(), "count", len(results[i]))
		adapterResults = append(adapterResults, results[i])
	}

	if len(criticalFailures) > 0 {
		sort.Strings(criticalFailures)
		return entity.AggregatedAssets{}, &entity.AdapterFailuresError{Names: criticalFailures}
	}

	s.logger.Info("Computing aggregated assets")
	aggregated, err := AggregateAssets(adapterResults)
	if err != nil {
		return entity.AggregatedAssets{}, err
	}
	s.logger.Debug("Total aggregated assets", "count", len(aggregated.Assets))
	return aggregated, nil
}

// validateConfiguredSubvaults rejects configuration that names adapters for
// subvaults the vault does not know about, unless the entry opts out.
func (s *AssetService) validateConfiguredSubvaults(discovered []common.Address) error {
	known := make(map[common.Address]struct{}, len(discovered))
	for _, addr := range discovered {
		known[addr] = struct{}{}
	}

	var invalid []string
	for _, cfg := range s.subvaultCfg {
		if cfg.SkipExistenceCheck {
			continue
		}
		if _, ok := known[cfg.Subvault]; !ok {
			invalid = append(invalid, cfg.Subvault.Hex())
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return fmt.Errorf("config specifies adapters for non-existent subvaults: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (s *AssetService) buildTasks(discovered []common.Address) []fetchTask {
	cfgBySubvault := make(map[common.Address]SubvaultAdapters, len(s.subvaultCfg))
	for _, cfg := range s.subvaultCfg {
		cfgBySubvault[cfg.Subvault] = cfg
	}

	subvaults := make([]common.Address, 0, len(discovered))
	seen := make(map[common.Address]struct{}, len(discovered))
	for _, addr := range discovered {
		subvaults = append(subvaults, addr)
		seen[addr] = struct{}{}
	}
	// Entries exempted from the existence check may name addresses outside the
	// vault (e.g. a bridge counterpart account); include them in the fan-out.
	for _, cfg := range s.subvaultCfg {
		if cfg.SkipExistenceCheck {
			if _, ok := seen[cfg.Subvault]; !ok {
				subvaults = append(subvaults, cfg.Subvault)
				seen[cfg.Subvault] = struct{}{}
			}
		}
	}

	var tasks []fetchTask
	for _, subvault := range subvaults {
		cfg := cfgBySubvault[subvault]
		if !cfg.SkipIdleBalances && s.idleAdapter != nil {
			tasks = append(tasks, fetchTask{adapter: s.idleAdapter, subvault: subvault, critical: true})
		}
		for _, adapter := range cfg.Adapters {
			tasks = append(tasks, fetchTask{adapter: adapter, subvault: subvault, critical: false})
		}
	}
	return tasks
}

func taskLabel(t fetchTask) string {
	return fmt.Sprintf("%s (%s)", t.adapter.Name(), t.subvault.Hex())
}
