package multicall

import (
	"context"
	"fmt"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/web3/networks"
)

// BatchGroup is one logical query: its calls and a pure function turning the
// results of exactly those calls, in order, into a typed value.
type BatchGroup[T any] struct {
	Calls   []Call
	Resolve func(results []Result) (T, error)
}

// NewGroup builds a BatchGroup.
func NewGroup[T any](resolve func(results []Result) (T, error), calls ...Call) BatchGroup[T] {
	return BatchGroup[T]{Calls: calls, Resolve: resolve}
}

// CallAndResolve executes the calls of every group as one flat sequence and
// hands each group's resolver the slice of results belonging to it. Groups
// without calls still have their resolver invoked with an empty slice.
func CallAndResolve[T any](ctx context.Context, a *Aggregator, chainID networks.ChainID, groups []BatchGroup[T], opts ...CallOption) ([]T, error) {
	total := 0
	for i, g := range groups {
		if g.Resolve == nil {
			return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument, "group %d has no resolver", i)
		}
		total += len(g.Calls)
	}

	flat := make([]Call, 0, total)
	for _, g := range groups {
		flat = append(flat, g.Calls...)
	}

	results, err := a.CallManyContracts(ctx, chainID, flat, opts...)
	if err != nil {
		return nil, err
	}
	return resolveGroups(groups, results)
}

func resolveGroups[T any](groups []BatchGroup[T], results []Result) ([]T, error) {
	resolved := make([]T, 0, len(groups))
	offset := 0
	for i, g := range groups {
		n := len(g.Calls)
		if offset+n > len(results) {
			return nil, chainerrors.Newf(chainerrors.CodeCallFailed, "group %d needs %d results, only %d left", i, n, len(results)-offset)
		}
		part := results[offset : offset+n : offset+n]
		offset += n

		v, err := g.Resolve(part)
		if err != nil {
			return nil, fmt.Errorf("resolve group %d: %w", i, err)
		}
		resolved = append(resolved, v)
	}
	return resolved, nil
}
