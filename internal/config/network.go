package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	NetworkMainnet = "mainnet"
	NetworkGoerli  = "goerli"

	defaultOracleRunsBuffer = 50
)

// NetworkConfig pins the deployment the indexer follows. Unset fields are
// filled from the known deployment of Name.
type NetworkConfig struct {
	Name                 string   `mapstructure:"name"`
	Lido                 string   `mapstructure:"lido"`
	Oracle               string   `mapstructure:"oracle"`
	NodeOperatorRegistry string   `mapstructure:"node-operator-registry"`
	Treasury             string   `mapstructure:"treasury"`
	InsuranceFund        string   `mapstructure:"insurance-fund"`
	FirstOracleReport    uint64   `mapstructure:"first-oracle-report"`
	OraclePeriod         uint64   `mapstructure:"oracle-period"`
	OracleRunsBuffer     uint64   `mapstructure:"oracle-runs-buffer"`
	ReconcileBlocks      []uint64 `mapstructure:"reconcile-blocks"`
}

type deployment struct {
	lido, oracle, registry, treasury string
	firstReport, period              uint64
	reconcileBlocks                  []uint64
}

var deployments = map[string]deployment{
	NetworkMainnet: {
		lido:        "0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84",
		oracle:      "0x442af784A788A5bd6F42A01Ebe9F287a871243fb",
		registry:    "0x55032650b14df07b85bF18A3a3eC8E0Af2e028d5",
		treasury:    "0x3e40D73EB977Dc6a537aF587D48316feE66E9C8c",
		firstReport: 1610016625,
		period:      86400,
	},
	NetworkGoerli: {
		lido:            "0x1643E812aE58766192Cf7D2Cf9567dF2C37e9B7F",
		oracle:          "0x24d8451BC07e7aF4Ba94F69aCDD9ad3c6579D9FB",
		registry:        "0x9D4AF1Ee19Dad8857db3a45B0374c81c8A1C6320",
		treasury:        "0x4333218072D5d7008546737786663c38B4D561A4",
		firstReport:     1617282681,
		period:          3840,
		reconcileBlocks: []uint64{6014681, 6014696, 7225143},
	},
}

func (cfg *NetworkConfig) applyDefaults() error {
	d, ok := deployments[cfg.Name]
	if !ok {
		// custom networks have to be fully configured
		return nil
	}

	setIfEmpty := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	setIfEmpty(&cfg.Lido, d.lido)
	setIfEmpty(&cfg.Oracle, d.oracle)
	setIfEmpty(&cfg.NodeOperatorRegistry, d.registry)
	setIfEmpty(&cfg.Treasury, d.treasury)
	// the insurance fund starts out as the treasury until contacts are set
	setIfEmpty(&cfg.InsuranceFund, cfg.Treasury)

	if cfg.FirstOracleReport == 0 {
		cfg.FirstOracleReport = d.firstReport
	}
	if cfg.OraclePeriod == 0 {
		cfg.OraclePeriod = d.period
	}
	if cfg.ReconcileBlocks == nil {
		cfg.ReconcileBlocks = d.reconcileBlocks
	}

	return nil
}

func (cfg *NetworkConfig) Validate() error {
	if cfg.Name == "" {
		return errors.New("network name is required")
	}

	addresses := map[string]string{
		"lido":                   cfg.Lido,
		"oracle":                 cfg.Oracle,
		"node-operator-registry": cfg.NodeOperatorRegistry,
		"treasury":               cfg.Treasury,
		"insurance-fund":         cfg.InsuranceFund,
	}
	for name, addr := range addresses {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("network %s address is invalid: %q", name, addr)
		}
	}

	if cfg.OraclePeriod == 0 {
		return errors.New("network oracle-period must be positive")
	}

	if cfg.OracleRunsBuffer == 0 {
		cfg.OracleRunsBuffer = defaultOracleRunsBuffer
	}

	return nil
}

func (cfg *NetworkConfig) LidoAddress() common.Address {
	return common.HexToAddress(cfg.Lido)
}

func (cfg *NetworkConfig) OracleAddress() common.Address {
	return common.HexToAddress(cfg.Oracle)
}

func (cfg *NetworkConfig) RegistryAddress() common.Address {
	return common.HexToAddress(cfg.NodeOperatorRegistry)
}

func (cfg *NetworkConfig) TreasuryAddress() common.Address {
	return common.HexToAddress(cfg.Treasury)
}

func (cfg *NetworkConfig) InsuranceFundAddress() common.Address {
	return common.HexToAddress(cfg.InsuranceFund)
}
