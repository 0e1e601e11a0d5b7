package networks

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ChainDefinitions models the structure of configs/chains.yaml.
type ChainDefinitions struct {
	Chains map[string]ChainDefinition `yaml:"chains"`
}

// ChainDefinition overrides fields of a built-in network. Unset fields keep
// the built-in value.
type ChainDefinition struct {
	RPCURL                string   `yaml:"rpc_url"`
	RPCURLEnv             string   `yaml:"rpc_url_env"`
	GasPrice              *uint64  `yaml:"gas_price"`
	GasPriceMultiplier    *float64 `yaml:"gas_price_multiplier"`
	MinGasPrice           *uint64  `yaml:"min_gas_price"`
	MinRunnerBalance      *float64 `yaml:"min_runner_balance"`
	MaxMulticallSize      *int     `yaml:"max_multicall_size"`
	BlockTime             *float64 `yaml:"block_time"`
	MaxFetchEventsPerCall *uint64  `yaml:"max_fetch_events_per_call"`
	MulticallAddress      string   `yaml:"multicall_address"`
}

// LoadChainDefinitions parses the YAML file containing chain overrides.
func LoadChainDefinitions(path string) (ChainDefinitions, error) {
	if strings.TrimSpace(path) == "" {
		return ChainDefinitions{Chains: map[string]ChainDefinition{}}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ChainDefinitions{}, fmt.Errorf("read chain definitions: %w", err)
	}
	return ParseChainDefinitions(content)
}

// ParseChainDefinitions decodes chain overrides, rejecting unknown fields.
func ParseChainDefinitions(content []byte) (ChainDefinitions, error) {
	var defs ChainDefinitions
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil && !errors.Is(err, io.EOF) {
		return ChainDefinitions{}, fmt.Errorf("parse chain definitions: %w", err)
	}
	if defs.Chains == nil {
		defs.Chains = map[string]ChainDefinition{}
	}
	return defs, nil
}

func (d ChainDefinition) apply(n *NetworkConfig) error {
	if url := strings.TrimSpace(d.RPCURL); url != "" {
		n.RPCURL = url
	}
	if env := strings.TrimSpace(d.RPCURLEnv); env != "" {
		n.RPCURLEnv = env
	}
	if d.GasPrice != nil {
		n.GasPrice = new(big.Int).SetUint64(*d.GasPrice)
	}
	if d.GasPriceMultiplier != nil {
		if *d.GasPriceMultiplier <= 0 {
			return fmt.Errorf("gas price multiplier must be positive, got %v", *d.GasPriceMultiplier)
		}
		n.GasPriceMultiplier = *d.GasPriceMultiplier
	}
	if d.MinGasPrice != nil {
		n.MinGasPrice = new(big.Int).SetUint64(*d.MinGasPrice)
	}
	if d.MinRunnerBalance != nil {
		if *d.MinRunnerBalance < 0 {
			return fmt.Errorf("min runner balance must not be negative, got %v", *d.MinRunnerBalance)
		}
		n.MinRunnerBalance = ether(*d.MinRunnerBalance)
	}
	if d.MaxMulticallSize != nil {
		n.MaxMulticallSize = *d.MaxMulticallSize
	}
	if d.BlockTime != nil {
		n.BlockTimeSeconds = *d.BlockTime
	}
	if d.MaxFetchEventsPerCall != nil {
		n.MaxFetchEventsPerCall = *d.MaxFetchEventsPerCall
	}
	if addr := strings.TrimSpace(d.MulticallAddress); addr != "" {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid multicall address %q", addr)
		}
		n.MulticallAddress = common.HexToAddress(addr)
	}
	return nil
}
