package multicall

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	chainerrors "ChainKit/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// revertErrorCode is the JSON-RPC code geth returns when eth_call reverts.
const revertErrorCode = 3

// isExecutionRevert reports whether err is the node rejecting the aggregate
// call because the EVM reverted, as opposed to a transport failure.
func isExecutionRevert(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertErrorCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}

// revertReason decodes the Error(string) payload attached to a revert.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return ""
	}
	data, ok := dataErr.ErrorData().(string)
	if !ok {
		return ""
	}
	raw, decodeErr := hexutil.Decode(data)
	if decodeErr != nil {
		return ""
	}
	reason, unpackErr := abi.UnpackRevert(raw)
	if unpackErr != nil {
		return ""
	}
	return reason
}

// chunkReverted maps a reverted required-success aggregate call to CallFailed.
// The contract does not say which call failed, so the chunk range is attached.
func chunkReverted(err error, offset, size int) *chainerrors.Error {
	last := offset + size - 1
	opts := []chainerrors.Option{
		chainerrors.WithMetadata("from", strconv.Itoa(offset)),
		chainerrors.WithMetadata("to", strconv.Itoa(last)),
	}
	if reason := revertReason(err); reason != "" {
		opts = append(opts, chainerrors.WithMetadata("reason", reason))
	}
	return chainerrors.Wrap(chainerrors.CodeCallFailed, err,
		fmt.Sprintf("calls %d-%d: aggregate reverted", offset, last), opts...)
}
