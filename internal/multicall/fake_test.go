package multicall

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"ChainKit/internal/web3"
	"ChainKit/internal/web3/networks"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const erc20ABIJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

const pairABIJSON = `[
{"type":"function","name":"getReserves","stateMutability":"view","inputs":[],"outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}]}
]`

var (
	erc20ABI = mustParseABI(erc20ABIJSON)
	pairABI  = mustParseABI(pairABIJSON)

	tokenA = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB = common.HexToAddress("0x000000000000000000000000000000000000000b")
	pair   = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	broken = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	garble = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

// contractFunc executes calldata and reports success.
type contractFunc func(data []byte) ([]byte, bool)

func token(symbol string, decimals uint8, balances map[common.Address]int64) contractFunc {
	return func(data []byte) ([]byte, bool) {
		method, err := erc20ABI.MethodById(data[:4])
		if err != nil {
			return nil, false
		}
		switch method.Name {
		case "symbol":
			out, _ := method.Outputs.Pack(symbol)
			return out, true
		case "decimals":
			out, _ := method.Outputs.Pack(decimals)
			return out, true
		case "balanceOf":
			args, err := method.Inputs.Unpack(data[4:])
			if err != nil {
				return nil, false
			}
			out, _ := method.Outputs.Pack(big.NewInt(balances[args[0].(common.Address)]))
			return out, true
		}
		return nil, false
	}
}

func reserves(r0, r1 int64, ts uint32) contractFunc {
	return func(data []byte) ([]byte, bool) {
		if !bytes.Equal(data, pairABI.Methods["getReserves"].ID) {
			return nil, false
		}
		out, _ := pairABI.Methods["getReserves"].Outputs.Pack(big.NewInt(r0), big.NewInt(r1), ts)
		return out, true
	}
}

// fakeChain mimics a node with a deployed Multicall3 contract.
type fakeChain struct {
	multicall common.Address
	contracts map[common.Address]contractFunc
	// reportFailures returns success=false instead of reverting when
	// requireSuccess is set, exercising the client-side check.
	reportFailures bool
	// plainReverts reverts with a bare message error, as some RPC proxies do.
	plainReverts bool
	// truncate drops the last result of every response.
	truncate bool
	err      error

	roundTrips [][]common.Address
	blocks     []*big.Int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		multicall: networks.Multicall3Address,
		contracts: map[common.Address]contractFunc{
			tokenA: token("AAA", 18, map[common.Address]int64{tokenB: 42}),
			tokenB: token("BBB", 6, nil),
			pair:   reserves(1000, 2000, 77),
			broken: func([]byte) ([]byte, bool) { return nil, false },
			garble: func([]byte) ([]byte, bool) { return []byte{0x01, 0x02, 0x03}, true },
		},
	}
}

func (f *fakeChain) CallContract(_ context.Context, msg gethcore.CallMsg, block *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if msg.To == nil || *msg.To != f.multicall {
		return nil, fmt.Errorf("unexpected call target %v", msg.To)
	}
	method, err := multicallABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	requireSuccess := args[0].(bool)
	calls := *abi.ConvertType(args[1], new([]aggregateCall)).(*[]aggregateCall)

	targets := make([]common.Address, len(calls))
	results := make([]rawResult, len(calls))
	for i, c := range calls {
		targets[i] = c.Target
		var (
			out []byte
			ok  bool
		)
		if fn, found := f.contracts[c.Target]; found {
			out, ok = fn(c.CallData)
		}
		if !ok && requireSuccess && !f.reportFailures {
			if f.plainReverts {
				return nil, errors.New("execution reverted")
			}
			return nil, &nodeRevertError{reason: "Multicall3: call failed"}
		}
		results[i] = rawResult{Success: ok, ReturnData: out}
	}
	f.roundTrips = append(f.roundTrips, targets)
	f.blocks = append(f.blocks, block)
	if f.truncate {
		results = results[:len(results)-1]
	}
	return method.Outputs.Pack(results)
}

func (f *fakeChain) sizes() []int {
	sizes := make([]int, len(f.roundTrips))
	for i, rt := range f.roundTrips {
		sizes[i] = len(rt)
	}
	return sizes
}

// nodeRevertError is the JSON-RPC error a node returns for a reverted eth_call.
type nodeRevertError struct {
	reason string
}

func (e *nodeRevertError) Error() string { return "execution reverted: " + e.reason }

func (e *nodeRevertError) ErrorCode() int { return 3 }

func (e *nodeRevertError) ErrorData() any { return hexutil.Encode(revertPayload(e.reason)) }

// revertPayload encodes reason as Error(string).
func revertPayload(reason string) []byte {
	stringType, _ := abi.NewType("string", "", nil)
	packed, _ := abi.Arguments{{Type: stringType}}.Pack(reason)
	selector := crypto.Keccak256([]byte("Error(string)"))[:4]
	return append(append([]byte{}, selector...), packed...)
}

// fakeSource serves a single network backed by a fakeChain.
type fakeSource struct {
	cfg     networks.NetworkConfig
	chain   *fakeChain
	lookups int
}

func newFakeSource(maxSize int) *fakeSource {
	return &fakeSource{
		cfg: networks.NetworkConfig{
			ChainID:          networks.Polygon,
			Key:              "polygon",
			RPCURL:           "http://polygon.invalid",
			MaxMulticallSize: maxSize,
			BlockTimeSeconds: 2,
			MulticallAddress: networks.Multicall3Address,
		},
		chain: newFakeChain(),
	}
}

func (s *fakeSource) Network(chainID networks.ChainID) (networks.NetworkConfig, error) {
	s.lookups++
	if chainID != s.cfg.ChainID {
		return networks.NetworkConfig{}, fmt.Errorf("network %d: %w", uint64(chainID), errNoNetwork)
	}
	return s.cfg, nil
}

func (s *fakeSource) Caller(context.Context, networks.ChainID) (web3.ContractCaller, error) {
	return s.chain, nil
}

var errNoNetwork = errors.New("no network")
