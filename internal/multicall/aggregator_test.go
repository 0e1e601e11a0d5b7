package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall/cache"
	"ChainKit/internal/web3/networks"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCall(t *testing.T, target common.Address, method string, args ...any) Call {
	t.Helper()
	abiDef := &erc20ABI
	if target == pair {
		abiDef = &pairABI
	}
	call, err := NewCall(target, abiDef, method, args...)
	require.NoError(t, err)
	return call
}

func TestChunk(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk(items, 2))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, chunk(items, 5))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5}}, chunk(items, 0))
	assert.Equal(t, [][]int{{1}, {2}, {3}, {4}, {5}}, chunk(items, 1))

	for length := 1; length <= 9; length++ {
		in := make([]int, length)
		for i := range in {
			in[i] = i
		}
		for size := 1; size <= 4; size++ {
			parts := chunk(in, size)
			assert.Len(t, parts, (length+size-1)/size)
			var flat []int
			for _, p := range parts {
				assert.LessOrEqual(t, len(p), size)
				flat = append(flat, p...)
			}
			assert.Equal(t, in, flat)
		}
	}
}

func TestCallSingleContractChunksSequentially(t *testing.T) {
	src := newFakeSource(2)
	agg := New(src)

	calls := []SingleCall{
		{Target: tokenA, Method: "symbol"},
		{Target: tokenB, Method: "symbol"},
		{Target: tokenA, Method: "decimals"},
		{Target: tokenB, Method: "decimals"},
		{Target: tokenA, Method: "balanceOf", Args: []any{tokenB}},
	}
	results, err := agg.CallSingleContract(context.Background(), networks.Polygon, &erc20ABI, calls)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2, 1}, src.chain.sizes())
	assert.Equal(t, [][]common.Address{{tokenA, tokenB}, {tokenA, tokenB}, {tokenA}}, src.chain.roundTrips)
	require.Len(t, results, 5)

	sym, ok := Value[string](results[0], 0)
	assert.True(t, ok)
	assert.Equal(t, "AAA", sym)
	sym, _ = Value[string](results[1], 0)
	assert.Equal(t, "BBB", sym)
	dec, _ := Value[uint8](results[2], 0)
	assert.Equal(t, uint8(18), dec)
	dec, _ = Value[uint8](results[3], 0)
	assert.Equal(t, uint8(6), dec)
	bal, ok := Value[*big.Int](results[4], 0)
	require.True(t, ok)
	assert.Equal(t, int64(42), bal.Int64())
}

func TestChunkingMatchesUnboundedResults(t *testing.T) {
	calls := func(t *testing.T) []Call {
		return []Call{
			mustCall(t, tokenA, "symbol"),
			mustCall(t, pair, "getReserves"),
			mustCall(t, tokenB, "decimals"),
			mustCall(t, tokenA, "balanceOf", tokenB),
			mustCall(t, tokenB, "symbol"),
			mustCall(t, tokenA, "decimals"),
			mustCall(t, pair, "getReserves"),
		}
	}

	unbounded := newFakeSource(0)
	want, err := New(unbounded).CallManyContracts(context.Background(), networks.Polygon, calls(t))
	require.NoError(t, err)
	assert.Equal(t, []int{7}, unbounded.chain.sizes())

	for size := 1; size <= 8; size++ {
		src := newFakeSource(size)
		got, err := New(src).CallManyContracts(context.Background(), networks.Polygon, calls(t))
		require.NoError(t, err)
		assert.Len(t, src.chain.roundTrips, (7+size-1)/size, "size %d", size)
		assert.Equal(t, want, got, "size %d", size)
	}
}

func TestCallManyContractsMixedABIs(t *testing.T) {
	src := newFakeSource(10)
	results, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, pair, "getReserves"),
		mustCall(t, tokenA, "symbol"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, results[0].Values, 3)
	assert.Equal(t, int64(1000), results[0].Values[0].(*big.Int).Int64())
	assert.Equal(t, int64(2000), results[0].Values[1].(*big.Int).Int64())
	assert.Equal(t, uint32(77), results[0].Values[2])
	assert.Equal(t, []any{"AAA"}, results[1].Values)
}

func TestEmptyCallListSkipsRPC(t *testing.T) {
	src := newFakeSource(2)
	agg := New(src)

	results, err := agg.CallManyContracts(context.Background(), networks.Polygon, nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = agg.CallSingleContract(context.Background(), networks.Polygon, &erc20ABI, []SingleCall{})
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Empty(t, src.chain.roundTrips)
	assert.Zero(t, src.lookups)
}

func TestAllowFailureYieldsEmptySlots(t *testing.T) {
	src := newFakeSource(2)
	results, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, broken, "symbol"),
		mustCall(t, garble, "decimals"),
		mustCall(t, tokenB, "decimals"),
	}, AllowFailure())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].OK())
	assert.Equal(t, []any{"AAA"}, results[0].Values)

	for _, i := range []int{1, 2} {
		assert.False(t, results[i].OK())
		assert.Nil(t, results[i].Values)
		assert.True(t, errors.Is(results[i].Err, chainerrors.ErrCallFailed))
		_, ok := Value[string](results[i], 0)
		assert.False(t, ok)
	}
	coded, ok := chainerrors.From(results[1].Err)
	require.True(t, ok)
	assert.Equal(t, "1", coded.Metadata()["index"])

	assert.Equal(t, []any{uint8(6)}, results[3].Values)
}

func TestRequireSuccessFailsWholeInvocation(t *testing.T) {
	src := newFakeSource(10)
	results, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, broken, "symbol"),
	})
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))

	coded, ok := chainerrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "0", coded.Metadata()["from"])
	assert.Equal(t, "1", coded.Metadata()["to"])
	assert.Equal(t, "Multicall3: call failed", coded.Metadata()["reason"])

	var revert *nodeRevertError
	assert.True(t, errors.As(err, &revert))
}

func TestRequireSuccessRevertRangeFollowsChunk(t *testing.T) {
	src := newFakeSource(2)
	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, tokenB, "symbol"),
		mustCall(t, tokenA, "decimals"),
		mustCall(t, broken, "symbol"),
		mustCall(t, tokenB, "decimals"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))

	coded, ok := chainerrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "2", coded.Metadata()["from"])
	assert.Equal(t, "3", coded.Metadata()["to"])
	assert.Equal(t, []int{2}, src.chain.sizes())
}

func TestRequireSuccessPlainRevertMessage(t *testing.T) {
	src := newFakeSource(10)
	src.chain.plainReverts = true

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, broken, "symbol"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
	coded, ok := chainerrors.From(err)
	require.True(t, ok)
	assert.Empty(t, coded.Metadata()["reason"])
}

func TestRequireSuccessChecksReportedFailures(t *testing.T) {
	src := newFakeSource(10)
	src.chain.reportFailures = true

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, broken, "symbol"),
	}, RequireSuccess(true))
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
	coded, ok := chainerrors.From(err)
	require.True(t, ok)
	assert.Equal(t, "1", coded.Metadata()["index"])
}

func TestRequireSuccessTreatsDecodeFailureAsFailure(t *testing.T) {
	src := newFakeSource(10)
	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, garble, "decimals"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
}

func TestLaterChunksNotSentAfterFailure(t *testing.T) {
	src := newFakeSource(1)
	src.chain.reportFailures = true

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, broken, "symbol"),
		mustCall(t, tokenA, "symbol"),
	})
	require.Error(t, err)
	assert.Len(t, src.chain.roundTrips, 1)
}

func TestLaterChunksNotSentAfterRevert(t *testing.T) {
	src := newFakeSource(1)

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, broken, "symbol"),
		mustCall(t, tokenA, "symbol"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
	assert.Empty(t, src.chain.roundTrips)
}

func TestTransportErrorPropagatesUnchanged(t *testing.T) {
	src := newFakeSource(2)
	boom := errors.New("dial tcp: connection refused")
	src.chain.err = boom

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
	}, AllowFailure())
	assert.Same(t, boom, err)

	_, err = New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
	})
	assert.Same(t, boom, err)
	assert.False(t, errors.Is(err, chainerrors.ErrCallFailed))
}

func TestIsExecutionRevert(t *testing.T) {
	assert.True(t, isExecutionRevert(&nodeRevertError{reason: "x"}))
	assert.True(t, isExecutionRevert(fmt.Errorf("eth_call: %w", &nodeRevertError{})))
	assert.True(t, isExecutionRevert(errors.New("Execution reverted")))
	assert.False(t, isExecutionRevert(errors.New("dial tcp: connection refused")))
	assert.False(t, isExecutionRevert(context.DeadlineExceeded))

	assert.Equal(t, "boom", revertReason(&nodeRevertError{reason: "boom"}))
	assert.Empty(t, revertReason(errors.New("execution reverted")))
}

func TestResultCountMismatch(t *testing.T) {
	src := newFakeSource(10)
	src.chain.truncate = true

	_, err := New(src).CallManyContracts(context.Background(), networks.Polygon, []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, tokenB, "symbol"),
	}, AllowFailure())
	require.Error(t, err)
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
}

func TestUnknownNetwork(t *testing.T) {
	src := newFakeSource(10)
	_, err := New(src).CallManyContracts(context.Background(), networks.BSC, []Call{
		mustCall(t, tokenA, "symbol"),
	})
	assert.True(t, errors.Is(err, errNoNetwork))
	assert.Empty(t, src.chain.roundTrips)
}

func TestInvalidCallsRejectedBeforeRPC(t *testing.T) {
	src := newFakeSource(10)
	agg := New(src)

	_, err := agg.CallSingleContract(context.Background(), networks.Polygon, &erc20ABI, []SingleCall{
		{Target: tokenA, Method: "symbol"},
		{Target: tokenA, Method: "balanceOf", Args: []any{"not-an-address"}},
	})
	assert.True(t, errors.Is(err, chainerrors.ErrInvalidArgument))

	_, err = agg.CallSingleContract(context.Background(), networks.Polygon, &erc20ABI, []SingleCall{
		{Target: tokenA, Method: "transfer"},
	})
	assert.True(t, errors.Is(err, chainerrors.ErrInvalidArgument))

	_, err = agg.CallManyContracts(context.Background(), networks.Polygon, []Call{{Target: tokenA, Method: "symbol"}})
	assert.True(t, errors.Is(err, chainerrors.ErrInvalidArgument))

	_, err = NewCall(tokenA, nil, "symbol")
	assert.True(t, errors.Is(err, chainerrors.ErrInvalidArgument))

	assert.Empty(t, src.chain.roundTrips)
}

func TestAtBlockForwardsBlockNumber(t *testing.T) {
	src := newFakeSource(10)
	agg := New(src)

	_, err := agg.CallManyContracts(context.Background(), networks.Polygon, []Call{mustCall(t, tokenA, "symbol")})
	require.NoError(t, err)
	_, err = agg.CallManyContracts(context.Background(), networks.Polygon, []Call{mustCall(t, tokenA, "symbol")}, AtBlock(big.NewInt(123)))
	require.NoError(t, err)

	require.Len(t, src.chain.blocks, 2)
	assert.Nil(t, src.chain.blocks[0])
	assert.Equal(t, int64(123), src.chain.blocks[1].Int64())
}

func TestPinnedReadsServedFromCache(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemory(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	src := newFakeSource(2)
	agg := New(src, WithCache(mem))
	calls := []Call{
		mustCall(t, tokenA, "symbol"),
		mustCall(t, tokenB, "symbol"),
		mustCall(t, tokenA, "decimals"),
	}

	first, err := agg.CallManyContracts(ctx, networks.Polygon, calls, AtBlock(big.NewInt(9)))
	require.NoError(t, err)
	assert.Len(t, src.chain.roundTrips, 2)

	second, err := agg.CallManyContracts(ctx, networks.Polygon, calls, AtBlock(big.NewInt(9)))
	require.NoError(t, err)
	assert.Len(t, src.chain.roundTrips, 2)
	assert.Equal(t, first, second)

	_, err = agg.CallManyContracts(ctx, networks.Polygon, calls, AtBlock(big.NewInt(10)))
	require.NoError(t, err)
	assert.Len(t, src.chain.roundTrips, 4)

	_, err = agg.CallManyContracts(ctx, networks.Polygon, calls)
	require.NoError(t, err)
	_, err = agg.CallManyContracts(ctx, networks.Polygon, calls)
	require.NoError(t, err)
	assert.Len(t, src.chain.roundTrips, 8)
}

func TestCacheKeyDependsOnInputs(t *testing.T) {
	cfg := newFakeSource(1).cfg
	input := []byte{1, 2, 3}
	base := cacheKey(cfg, big.NewInt(1), input)

	assert.NotEqual(t, base, cacheKey(cfg, big.NewInt(2), input))
	assert.NotEqual(t, base, cacheKey(cfg, big.NewInt(1), []byte{1, 2, 4}))
	other := cfg
	other.ChainID = networks.BSC
	assert.NotEqual(t, base, cacheKey(other, big.NewInt(1), input))
	assert.Equal(t, base, cacheKey(cfg, big.NewInt(1), []byte{1, 2, 3}))
}
