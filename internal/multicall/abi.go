package multicall

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// tryAggregateABI is the slice of the Multicall2/Multicall3 interface the
// aggregator speaks. The wire format must match the deployed contracts.
const tryAggregateABI = `[{"inputs":[{"internalType":"bool","name":"requireSuccess","type":"bool"},{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall3.Call[]","name":"calls","type":"tuple[]"}],"name":"tryAggregate","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall3.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"payable","type":"function"}]`

const tryAggregateMethod = "tryAggregate"

var multicallABI = mustParseABI(tryAggregateABI)

// ContractABI returns the tryAggregate interface of the multicall contract.
func ContractABI() abi.ABI {
	return multicallABI
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// aggregateCall is the (address,bytes) tuple sent to tryAggregate.
type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

// rawResult is the (bool,bytes) tuple returned by tryAggregate for each call.
type rawResult struct {
	Success    bool
	ReturnData []byte
}

func packTryAggregate(requireSuccess bool, calls []Call) ([]byte, error) {
	reqs := make([]aggregateCall, len(calls))
	for i, call := range calls {
		reqs[i] = aggregateCall{Target: call.Target, CallData: call.data}
	}
	return multicallABI.Pack(tryAggregateMethod, requireSuccess, reqs)
}

func unpackTryAggregate(output []byte) ([]rawResult, error) {
	values, err := multicallABI.Unpack(tryAggregateMethod, output)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(values[0], new([]rawResult)).(*[]rawResult), nil
}
