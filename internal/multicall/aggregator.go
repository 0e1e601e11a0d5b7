package multicall

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"time"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall/cache"
	"ChainKit/internal/observability/metrics"
	"ChainKit/internal/web3"
	"ChainKit/internal/web3/networks"
	"ChainKit/pkg/logger"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ClientSource resolves network configuration and eth_call clients per chain.
// provider.Factory satisfies it.
type ClientSource interface {
	Network(chainID networks.ChainID) (networks.NetworkConfig, error)
	Caller(ctx context.Context, chainID networks.ChainID) (web3.ContractCaller, error)
}

// Aggregator batches contract reads into tryAggregate calls on the chain's
// multicall contract. Chunks are dispatched sequentially.
type Aggregator struct {
	source ClientSource
	cache  cache.Cache
	log    *slog.Logger
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithCache enables the result cache for block-pinned reads.
func WithCache(c cache.Cache) Option {
	return func(a *Aggregator) { a.cache = c }
}

// WithLogger sets the aggregator logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Aggregator) { a.log = log }
}

// New creates an aggregator reading through source.
func New(source ClientSource, opts ...Option) *Aggregator {
	a := &Aggregator{source: source}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("multicall")
	}
	return a
}

// CallSingleContract executes calls that all share contractABI.
func (a *Aggregator) CallSingleContract(ctx context.Context, chainID networks.ChainID, contractABI *abi.ABI, calls []SingleCall, opts ...CallOption) ([]Result, error) {
	built := make([]Call, len(calls))
	for i, c := range calls {
		call, err := NewCall(c.Target, contractABI, c.Method, c.Args...)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		built[i] = call
	}
	return a.execute(ctx, chainID, built, buildOptions(opts))
}

// CallManyContracts executes calls that each carry their own ABI.
func (a *Aggregator) CallManyContracts(ctx context.Context, chainID networks.ChainID, calls []Call, opts ...CallOption) ([]Result, error) {
	return a.execute(ctx, chainID, calls, buildOptions(opts))
}

func (a *Aggregator) execute(ctx context.Context, chainID networks.ChainID, calls []Call, o callOptions) ([]Result, error) {
	if len(calls) == 0 {
		return []Result{}, nil
	}
	for i, call := range calls {
		if call.abi == nil {
			return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument, "call %d (%s) was not built with NewCall", i, call.Method)
		}
	}

	cfg, err := a.source.Network(chainID)
	if err != nil {
		return nil, err
	}
	caller, err := a.source.Caller(ctx, chainID)
	if err != nil {
		return nil, err
	}

	chunks := chunk(calls, cfg.MaxMulticallSize)
	log := a.log.With("batch", uuid.NewString(), "chain", cfg.Key)
	log.Debug("multicall started", "calls", len(calls), "chunks", len(chunks), "require_success", o.requireSuccess)

	results := make([]Result, 0, len(calls))
	for n, part := range chunks {
		raw, err := a.tryAggregate(ctx, caller, cfg, part, len(results), o)
		if err != nil {
			log.Debug("multicall chunk failed", "chunk", n, "error", err)
			return nil, err
		}
		for j, r := range raw {
			index := len(results)
			res, err := decodeResult(part[j], r, index, o.requireSuccess)
			if err != nil {
				metrics.ObserveMulticallFailedCall(cfg.Key)
				return nil, err
			}
			if res.Err != nil {
				metrics.ObserveMulticallFailedCall(cfg.Key)
				if r.Success {
					log.Warn("multicall result could not be decoded", "index", index, "method", part[j].Method, "target", part[j].Target.Hex(), "error", res.Err)
				}
			}
			results = append(results, res)
		}
	}
	return results, nil
}

// tryAggregate issues one aggregate eth_call for part and returns one raw
// result per call, in order. offset is the index of part[0] in the invocation.
func (a *Aggregator) tryAggregate(ctx context.Context, caller web3.ContractCaller, cfg networks.NetworkConfig, part []Call, offset int, o callOptions) ([]rawResult, error) {
	input, err := packTryAggregate(o.requireSuccess, part)
	if err != nil {
		return nil, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err, "pack tryAggregate")
	}

	var key string
	if a.cache != nil && o.blockNumber != nil {
		key = cacheKey(cfg, o.blockNumber, input)
		if output, ok, err := a.cache.Get(ctx, key); err != nil {
			a.log.Warn("multicall cache read failed", "error", err)
		} else if ok {
			if raw, err := decodeAggregate(output, len(part)); err == nil {
				metrics.ObserveMulticallCacheHit(cfg.Key)
				return raw, nil
			}
		}
	}

	target := cfg.MulticallAddress
	start := time.Now()
	output, err := caller.CallContract(ctx, gethcore.CallMsg{To: &target, Data: input}, o.blockNumber)
	metrics.ObserveMulticallRoundTrip(cfg.Key, len(part), time.Since(start), err)
	if err != nil {
		// With requireSuccess set the contract reverts the whole chunk.
		if o.requireSuccess && isExecutionRevert(err) {
			metrics.ObserveMulticallFailedCall(cfg.Key)
			return nil, chunkReverted(err, offset, len(part))
		}
		return nil, err
	}

	raw, err := decodeAggregate(output, len(part))
	if err != nil {
		return nil, err
	}
	if key != "" {
		if err := a.cache.Set(ctx, key, output); err != nil {
			a.log.Warn("multicall cache write failed", "error", err)
		}
	}
	return raw, nil
}

func decodeAggregate(output []byte, want int) ([]rawResult, error) {
	raw, err := unpackTryAggregate(output)
	if err != nil {
		return nil, chainerrors.Wrap(chainerrors.CodeCallFailed, err, "decode tryAggregate response")
	}
	if len(raw) != want {
		return nil, chainerrors.Newf(chainerrors.CodeCallFailed, "tryAggregate returned %d results for %d calls", len(raw), want)
	}
	return raw, nil
}

func decodeResult(call Call, raw rawResult, index int, requireSuccess bool) (Result, error) {
	var failure *chainerrors.Error
	meta := chainerrors.WithMetadata("index", strconv.Itoa(index))
	if !raw.Success {
		failure = chainerrors.New(chainerrors.CodeCallFailed,
			fmt.Sprintf("call %d: %s on %s reverted", index, call.Method, call.Target.Hex()), meta)
	} else {
		values, err := call.decode(raw.ReturnData)
		if err == nil {
			return Result{Values: values}, nil
		}
		failure = chainerrors.Wrap(chainerrors.CodeCallFailed, err,
			fmt.Sprintf("call %d: decode %s from %s", index, call.Method, call.Target.Hex()), meta)
	}
	if requireSuccess {
		return Result{}, failure
	}
	return Result{Err: failure}, nil
}

func cacheKey(cfg networks.NetworkConfig, block *big.Int, input []byte) string {
	return fmt.Sprintf("multicall:%d:%s:%s:%s",
		uint64(cfg.ChainID), cfg.MulticallAddress.Hex(), block.String(), hex.EncodeToString(crypto.Keccak256(input)))
}

// chunk splits items into consecutive slices of at most size elements. A
// non-positive size means unbounded.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		return [][]T{items}
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
