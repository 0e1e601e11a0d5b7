package networks

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// ChainID identifies one of the supported EVM networks.
type ChainID uint64

const (
	Optimism  ChainID = 10
	Cronos    ChainID = 25
	BSC       ChainID = 56
	Gnosis    ChainID = 100
	Polygon   ChainID = 137
	Fantom    ChainID = 250
	Metis     ChainID = 1088
	Core      ChainID = 1116
	Dogechain ChainID = 2000
	Arbitrum  ChainID = 42161
	Celo      ChainID = 42220
	Avalanche ChainID = 43114
	Harmony   ChainID = 1666600000
)

// Multicall3 is deployed at the same address on every supported chain and
// exposes the tryAggregate entry point used by the aggregator.
var Multicall3Address = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

var chainKeys = map[ChainID]string{
	Optimism:  "optimism",
	Cronos:    "cronos",
	BSC:       "bsc",
	Gnosis:    "gnosis",
	Polygon:   "polygon",
	Fantom:    "fantom",
	Metis:     "metis",
	Core:      "core",
	Dogechain: "doge",
	Arbitrum:  "arbitrum",
	Celo:      "celo",
	Avalanche: "avalanche",
	Harmony:   "harmony",
}

// String returns the chain key, or the numeric id for unknown chains.
func (c ChainID) String() string {
	if key, ok := chainKeys[c]; ok {
		return key
	}
	return strconv.FormatUint(uint64(c), 10)
}

// Known reports whether c is one of the supported chains.
func (c ChainID) Known() bool {
	_, ok := chainKeys[c]
	return ok
}

// BigInt returns the chain id as used by go-ethereum signers.
func (c ChainID) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(c))
}

// ParseChainID resolves a chain key ("polygon") or numeric id ("137").
func ParseChainID(s string) (ChainID, bool) {
	for id, key := range chainKeys {
		if key == s {
			return id, true
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	id := ChainID(n)
	return id, id.Known()
}

func gwei(n float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(n), big.NewFloat(params.GWei)).Int(nil)
	return wei
}

// ether converts a native token amount to wei.
func ether(n float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(n), big.NewFloat(params.Ether)).Int(nil)
	return wei
}

// builtinNetworks is the static per-chain table. RPC URLs are resolved from
// the environment variable named by RPCURLEnv.
func builtinNetworks() []NetworkConfig {
	return []NetworkConfig{
		{ChainID: Arbitrum, MinRunnerBalance: ether(0.1), BlockTimeSeconds: 13},
		{ChainID: Avalanche, MinGasPrice: gwei(25), GasPriceMultiplier: 0.75, MinRunnerBalance: ether(1), BlockTimeSeconds: 2, MaxFetchEventsPerCall: 1000},
		{ChainID: BSC, MinGasPrice: gwei(5), MinRunnerBalance: ether(2), BlockTimeSeconds: 3, MaxFetchEventsPerCall: 2000},
		{ChainID: Celo, MinGasPrice: gwei(0.5), MinRunnerBalance: ether(10), BlockTimeSeconds: 5, MaxFetchEventsPerCall: 100000},
		{ChainID: Cronos, MinGasPrice: gwei(5000), MinRunnerBalance: ether(100), BlockTimeSeconds: 5, MaxFetchEventsPerCall: 1000},
		{ChainID: Fantom, MinGasPrice: gwei(2), GasPriceMultiplier: 0.9, MinRunnerBalance: ether(200), BlockTimeSeconds: 0.78, MaxFetchEventsPerCall: 500},
		{ChainID: Gnosis, MinRunnerBalance: ether(200), BlockTimeSeconds: 5},
		{ChainID: Harmony, MinGasPrice: gwei(2), MinRunnerBalance: ether(500), BlockTimeSeconds: 2.2, MaxFetchEventsPerCall: 1024},
		{ChainID: Polygon, MinGasPrice: gwei(30), MinRunnerBalance: ether(50), BlockTimeSeconds: 2, MaxMulticallSize: 1000, MaxFetchEventsPerCall: 2500},
		{ChainID: Metis, MinGasPrice: gwei(8), MinRunnerBalance: ether(1), BlockTimeSeconds: 5.5, MaxFetchEventsPerCall: 100000},
		{ChainID: Optimism, MinRunnerBalance: ether(0.1), BlockTimeSeconds: 10},
		{ChainID: Dogechain, MinRunnerBalance: ether(500), BlockTimeSeconds: 2},
		{ChainID: Core, MinRunnerBalance: ether(50), BlockTimeSeconds: 2},
	}
}
