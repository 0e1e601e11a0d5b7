package networks

import (
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	chainerrors "ChainKit/internal/errors"
)

// NetworkConfig describes one chain. Values are fixed once the registry is built.
type NetworkConfig struct {
	ChainID   ChainID
	Key       string
	RPCURL    string
	RPCURLEnv string
	// GasPrice forces a fixed gas price when set.
	GasPrice              *big.Int
	GasPriceMultiplier    float64
	MinGasPrice           *big.Int
	// MinRunnerBalance is the native balance, in wei, below which a signing
	// account is considered underfunded.
	MinRunnerBalance      *big.Int
	MaxMulticallSize      int
	BlockTimeSeconds      float64
	MaxFetchEventsPerCall uint64
	MulticallAddress      common.Address
}

// BlockTime returns the approximate block interval.
func (n NetworkConfig) BlockTime() time.Duration {
	return time.Duration(n.BlockTimeSeconds * float64(time.Second))
}

// clone copies the big.Int fields so callers cannot mutate the registry.
func (n NetworkConfig) clone() NetworkConfig {
	n.GasPrice = copyBig(n.GasPrice)
	n.MinGasPrice = copyBig(n.MinGasPrice)
	n.MinRunnerBalance = copyBig(n.MinRunnerBalance)
	return n
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func (n NetworkConfig) validate() error {
	if !n.ChainID.Known() {
		return fmt.Errorf("unsupported chain id %d", uint64(n.ChainID))
	}
	if n.BlockTimeSeconds <= 0 {
		return fmt.Errorf("%s: block time must be positive", n.Key)
	}
	if n.MaxMulticallSize < 0 {
		return fmt.Errorf("%s: max multicall size must not be negative", n.Key)
	}
	if n.GasPriceMultiplier < 0 {
		return fmt.Errorf("%s: gas price multiplier must not be negative", n.Key)
	}
	if n.GasPrice != nil && n.GasPrice.Sign() < 0 {
		return fmt.Errorf("%s: gas price must not be negative", n.Key)
	}
	if n.MinGasPrice != nil && n.MinGasPrice.Sign() < 0 {
		return fmt.Errorf("%s: min gas price must not be negative", n.Key)
	}
	if n.MinRunnerBalance != nil && n.MinRunnerBalance.Sign() < 0 {
		return fmt.Errorf("%s: min runner balance must not be negative", n.Key)
	}
	if n.MulticallAddress == (common.Address{}) {
		return fmt.Errorf("%s: multicall address is not set", n.Key)
	}
	return nil
}

// Registry is an immutable lookup table of network configurations.
type Registry struct {
	networks map[ChainID]NetworkConfig
}

// Option customises registry construction.
type Option func(*registryOptions)

type registryOptions struct {
	getenv    func(string) string
	overrides ChainDefinitions
}

// WithEnv replaces os.Getenv for RPC URL resolution.
func WithEnv(getenv func(string) string) Option {
	return func(o *registryOptions) { o.getenv = getenv }
}

// WithDefinitions applies overrides loaded from a chain definition file.
func WithDefinitions(defs ChainDefinitions) Option {
	return func(o *registryOptions) { o.overrides = defs }
}

// NewRegistry builds the registry from the built-in table, applies overrides
// and resolves RPC URLs. A missing URL is not an error here; it surfaces on Get.
func NewRegistry(opts ...Option) (*Registry, error) {
	o := registryOptions{getenv: os.Getenv}
	for _, opt := range opts {
		opt(&o)
	}

	networks := make(map[ChainID]NetworkConfig)
	for _, n := range builtinNetworks() {
		n.Key = n.ChainID.String()
		n.RPCURLEnv = strings.ToUpper(n.Key) + "_RPC_URL"
		n.MulticallAddress = Multicall3Address
		networks[n.ChainID] = n
	}

	for key, def := range o.overrides.Chains {
		id, ok := ParseChainID(key)
		if !ok {
			return nil, chainerrors.Newf(chainerrors.CodeConfigNotFound, "chain definition %q does not match a supported chain", key)
		}
		n := networks[id]
		if err := def.apply(&n); err != nil {
			return nil, fmt.Errorf("chain %s: %w", key, err)
		}
		networks[id] = n
	}

	for id, n := range networks {
		if n.RPCURL == "" && n.RPCURLEnv != "" {
			n.RPCURL = strings.TrimSpace(o.getenv(n.RPCURLEnv))
		}
		if err := n.validate(); err != nil {
			return nil, err
		}
		networks[id] = n
	}

	return &Registry{networks: networks}, nil
}

// Load builds a registry with overrides from the YAML file at path. An empty
// path yields the built-in table.
func Load(path string, opts ...Option) (*Registry, error) {
	defs, err := LoadChainDefinitions(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(append([]Option{WithDefinitions(defs)}, opts...)...)
}

// Get returns the configuration of chainID. It fails with ConfigNotFound when
// the chain is unknown or its RPC URL is unset.
func (r *Registry) Get(chainID ChainID) (NetworkConfig, error) {
	n, ok := r.Config(chainID)
	if !ok {
		return NetworkConfig{}, chainerrors.Newf(chainerrors.CodeConfigNotFound, "configuration for network %d not found", uint64(chainID))
	}
	if n.RPCURL == "" {
		return NetworkConfig{}, chainerrors.Newf(chainerrors.CodeConfigNotFound,
			"configuration for network %d not found: %s is not set", uint64(chainID), n.RPCURLEnv)
	}
	return n, nil
}

// Config returns the configuration of chainID without requiring an RPC URL.
func (r *Registry) Config(chainID ChainID) (NetworkConfig, bool) {
	if r == nil {
		return NetworkConfig{}, false
	}
	n, ok := r.networks[chainID]
	if !ok {
		return NetworkConfig{}, false
	}
	return n.clone(), true
}

// Lookup resolves a chain by key or numeric id and returns its configuration.
func (r *Registry) Lookup(name string) (NetworkConfig, error) {
	id, ok := ParseChainID(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return NetworkConfig{}, chainerrors.Newf(chainerrors.CodeConfigNotFound, "unknown network %q", name)
	}
	return r.Get(id)
}

// Chains returns the configured chain ids in ascending order.
func (r *Registry) Chains() []ChainID {
	if r == nil {
		return nil
	}
	ids := make([]ChainID, 0, len(r.networks))
	for id := range r.networks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
