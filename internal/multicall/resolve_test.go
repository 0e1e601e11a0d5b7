package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/web3/networks"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenInfo struct {
	Symbol   string
	Decimals uint8
}

func tokenGroup(t *testing.T, target common.Address) BatchGroup[tokenInfo] {
	return NewGroup(func(results []Result) (tokenInfo, error) {
		if len(results) != 2 {
			return tokenInfo{}, fmt.Errorf("want 2 results, got %d", len(results))
		}
		sym, _ := Value[string](results[0], 0)
		dec, _ := Value[uint8](results[1], 0)
		return tokenInfo{Symbol: sym, Decimals: dec}, nil
	}, mustCall(t, target, "symbol"), mustCall(t, target, "decimals"))
}

func TestCallAndResolveSingleRoundTrip(t *testing.T) {
	src := newFakeSource(10)
	agg := New(src)

	infos, err := CallAndResolve(context.Background(), agg, networks.Polygon, []BatchGroup[tokenInfo]{
		tokenGroup(t, tokenA),
		tokenGroup(t, tokenB),
	})
	require.NoError(t, err)

	assert.Equal(t, []tokenInfo{{"AAA", 18}, {"BBB", 6}}, infos)
	assert.Equal(t, []int{4}, src.chain.sizes())
}

func TestCallAndResolvePartitionsByGroupSize(t *testing.T) {
	src := newFakeSource(2)
	agg := New(src)

	var seen [][]Result
	record := func(results []Result) (int, error) {
		seen = append(seen, results)
		return len(results), nil
	}
	groups := []BatchGroup[int]{
		NewGroup(record, mustCall(t, tokenA, "symbol"), mustCall(t, tokenB, "symbol")),
		NewGroup(record),
		NewGroup(record, mustCall(t, tokenA, "decimals"), mustCall(t, tokenB, "decimals"), mustCall(t, pair, "getReserves")),
	}

	sizes, err := CallAndResolve(context.Background(), agg, networks.Polygon, groups)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 3}, sizes)
	assert.Equal(t, []int{2, 2, 1}, src.chain.sizes())

	require.Len(t, seen, 3)
	assert.Equal(t, []any{"AAA"}, seen[0][0].Values)
	assert.Equal(t, []any{"BBB"}, seen[0][1].Values)
	assert.Empty(t, seen[1])
	assert.Equal(t, []any{uint8(18)}, seen[2][0].Values)
	assert.Equal(t, []any{uint8(6)}, seen[2][1].Values)
	assert.Len(t, seen[2][2].Values, 3)
}

func TestResolveGroupsSlicesAreIsolated(t *testing.T) {
	results := []Result{
		{Values: []any{1}}, {Values: []any{2}}, {Values: []any{3}},
	}
	groups := []BatchGroup[int]{
		{Calls: make([]Call, 1), Resolve: func(r []Result) (int, error) {
			r = append(r, Result{Values: []any{99}})
			return len(r), nil
		}},
		{Calls: make([]Call, 2), Resolve: func(r []Result) (int, error) {
			return r[0].Values[0].(int) + r[1].Values[0].(int), nil
		}},
	}

	out, err := resolveGroups(groups, results)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, out)
	assert.Equal(t, []any{2}, results[1].Values)
}

func TestResolveGroupsShortResults(t *testing.T) {
	groups := []BatchGroup[int]{
		{Calls: make([]Call, 3), Resolve: func([]Result) (int, error) { return 0, nil }},
	}
	_, err := resolveGroups(groups, make([]Result, 2))
	assert.True(t, errors.Is(err, chainerrors.ErrCallFailed))
}

func TestCallAndResolveResolverError(t *testing.T) {
	src := newFakeSource(10)
	boom := errors.New("bad pool")

	_, err := CallAndResolve(context.Background(), New(src), networks.Polygon, []BatchGroup[*big.Int]{
		NewGroup(func([]Result) (*big.Int, error) { return nil, boom }, mustCall(t, pair, "getReserves")),
	})
	assert.ErrorIs(t, err, boom)
}

func TestCallAndResolveRejectsMissingResolver(t *testing.T) {
	src := newFakeSource(10)

	_, err := CallAndResolve(context.Background(), New(src), networks.Polygon, []BatchGroup[int]{
		{Calls: []Call{mustCall(t, tokenA, "symbol")}},
	})
	assert.True(t, errors.Is(err, chainerrors.ErrInvalidArgument))
	assert.Empty(t, src.chain.roundTrips)
}

func TestCallAndResolveNoGroups(t *testing.T) {
	src := newFakeSource(10)

	out, err := CallAndResolve[int](context.Background(), New(src), networks.Polygon, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, src.chain.roundTrips)
}

func TestCallAndResolveAllowFailure(t *testing.T) {
	src := newFakeSource(10)

	out, err := CallAndResolve(context.Background(), New(src), networks.Polygon, []BatchGroup[bool]{
		NewGroup(func(r []Result) (bool, error) { return r[0].OK(), nil }, mustCall(t, broken, "symbol")),
		NewGroup(func(r []Result) (bool, error) { return r[0].OK(), nil }, mustCall(t, tokenA, "symbol")),
	}, AllowFailure())
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, out)
}
