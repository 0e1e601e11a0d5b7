package multicall

import (
	"fmt"
	"math/big"

	chainerrors "ChainKit/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Call is one contract read. Arguments are packed when the call is built, so
// an unknown method or mismatched arguments fail before any RPC is issued.
type Call struct {
	Target common.Address
	Method string
	abi    *abi.ABI
	data   []byte
}

// NewCall validates method against contractABI and packs args.
func NewCall(target common.Address, contractABI *abi.ABI, method string, args ...any) (Call, error) {
	if contractABI == nil {
		return Call{}, chainerrors.Newf(chainerrors.CodeInvalidArgument, "call %s: abi is nil", method)
	}
	if _, ok := contractABI.Methods[method]; !ok {
		return Call{}, chainerrors.Newf(chainerrors.CodeInvalidArgument, "method %q not found in abi", method)
	}
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return Call{}, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err, "pack "+method)
	}
	return Call{Target: target, Method: method, abi: contractABI, data: data}, nil
}

// Data returns the packed calldata.
func (c Call) Data() []byte {
	return c.data
}

func (c Call) decode(output []byte) ([]any, error) {
	if c.abi == nil {
		return nil, fmt.Errorf("call %s was not built with NewCall", c.Method)
	}
	return c.abi.Unpack(c.Method, output)
}

// SingleCall is a read against a contract whose ABI is supplied separately.
type SingleCall struct {
	Target common.Address
	Method string
	Args   []any
}

// Result is the decoded outcome of one call. Values is nil when the call
// reverted or its output could not be decoded; Err then holds the cause.
type Result struct {
	Values []any
	Err    error
}

// OK reports whether the call succeeded and decoded.
func (r Result) OK() bool {
	return r.Err == nil && r.Values != nil
}

// Value returns output i of r converted to T.
func Value[T any](r Result, i int) (T, bool) {
	var zero T
	if !r.OK() || i < 0 || i >= len(r.Values) {
		return zero, false
	}
	v, ok := r.Values[i].(T)
	return v, ok
}

type callOptions struct {
	requireSuccess bool
	blockNumber    *big.Int
}

// CallOption tunes a multicall invocation.
type CallOption func(*callOptions)

// AllowFailure turns reverted or undecodable calls into empty results instead
// of failing the whole invocation.
func AllowFailure() CallOption {
	return func(o *callOptions) { o.requireSuccess = false }
}

// RequireSuccess sets whether any failing call aborts the invocation. This is
// the default.
func RequireSuccess(require bool) CallOption {
	return func(o *callOptions) { o.requireSuccess = require }
}

// AtBlock pins the read to a block number. Pinned reads may be served from the
// result cache.
func AtBlock(number *big.Int) CallOption {
	return func(o *callOptions) {
		if number != nil {
			o.blockNumber = new(big.Int).Set(number)
		} else {
			o.blockNumber = nil
		}
	}
}

func buildOptions(opts []CallOption) callOptions {
	o := callOptions{requireSuccess: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
