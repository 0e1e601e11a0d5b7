package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"ChainKit/internal/web3"

	gethcore "github.com/ethereum/go-ethereum"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Config describes how to construct an EVM compatible client.
type Config struct {
	Name    string
	RPCURL  string
	ChainID *big.Int
	Notes   string
}

// Backend is the subset of ethclient.Client the client relies on.
type Backend interface {
	web3.ContractCaller
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q gethcore.FilterQuery) ([]coretypes.Log, error)
}

// Client is a read-only handle on one EVM chain.
type Client struct {
	name      string
	notes     string
	chainID   *big.Int
	rpcClient *gethrpc.Client
	backend   Backend
	mu        sync.Mutex
}

// NewClient returns a client bound to the configured RPC endpoint. HTTP
// endpoints are not contacted until the first request.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rpcURL := strings.TrimSpace(cfg.RPCURL)
	if rpcURL == "" {
		return nil, errors.New("rpc url is not configured")
	}

	rpcClient, err := gethrpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s rpc: %w", cfg.Name, err)
	}

	c := &Client{
		name:      cfg.Name,
		notes:     cfg.Notes,
		rpcClient: rpcClient,
		backend:   ethclient.NewClient(rpcClient),
	}
	if cfg.ChainID != nil {
		c.chainID = new(big.Int).Set(cfg.ChainID)
	}
	return c, nil
}

// NewClientWithBackend wraps an arbitrary backend, typically a test double.
func NewClientWithBackend(name string, chainID *big.Int, backend Backend) *Client {
	c := &Client{name: name, backend: backend, notes: "custom backend"}
	if chainID != nil {
		c.chainID = new(big.Int).Set(chainID)
	}
	return c
}

// Name returns the chain key the client was built for.
func (c *Client) Name() string {
	return c.name
}

// Close releases network connections held by the client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
	c.backend = nil
}

func (c *Client) getBackend() (Backend, error) {
	if c == nil {
		return nil, errors.New("ethereum client is not initialised")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend == nil {
		return nil, errors.New("ethereum client is closed")
	}
	return c.backend, nil
}

// CallContract executes an eth_call. Transport errors are returned as is.
func (c *Client) CallContract(ctx context.Context, call gethcore.CallMsg, blockNumber *big.Int) ([]byte, error) {
	backend, err := c.getBackend()
	if err != nil {
		return nil, err
	}
	return backend.CallContract(ctx, call, blockNumber)
}

// FetchChainSnapshot gathers lightweight metadata from the chain.
func (c *Client) FetchChainSnapshot(ctx context.Context) (web3.ChainSnapshot, error) {
	backend, err := c.getBackend()
	if err != nil {
		return web3.ChainSnapshot{}, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return web3.ChainSnapshot{}, fmt.Errorf("fetch chain id: %w", err)
	}
	if c.chainID != nil && chainID.Cmp(c.chainID) != 0 {
		return web3.ChainSnapshot{}, fmt.Errorf("rpc endpoint for %s reports chain id %s, expected %s", c.name, chainID, c.chainID)
	}
	blockNumber, err := backend.BlockNumber(ctx)
	if err != nil {
		return web3.ChainSnapshot{}, fmt.Errorf("fetch block number: %w", err)
	}
	return web3.ChainSnapshot{
		ChainID:     toHexBig(chainID),
		BlockNumber: fmt.Sprintf("0x%x", blockNumber),
		Notes:       c.notes,
	}, nil
}

// FilterLogsChunked fetches logs for [from, to] in consecutive block spans of
// at most span blocks, one request at a time. A zero span issues one request.
func (c *Client) FilterLogsChunked(ctx context.Context, query gethcore.FilterQuery, from, to, span uint64) ([]coretypes.Log, error) {
	if to < from {
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}
	backend, err := c.getBackend()
	if err != nil {
		return nil, err
	}
	if span == 0 {
		q := query
		q.BlockHash = nil
		q.FromBlock = new(big.Int).SetUint64(from)
		q.ToBlock = new(big.Int).SetUint64(to)
		return backend.FilterLogs(ctx, q)
	}

	var logs []coretypes.Log
	for start := from; start <= to; {
		end := to
		if to-start >= span {
			end = start + span - 1
		}
		q := query
		q.BlockHash = nil
		q.FromBlock = new(big.Int).SetUint64(start)
		q.ToBlock = new(big.Int).SetUint64(end)
		chunk, err := backend.FilterLogs(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("filter logs %d-%d: %w", start, end, err)
		}
		logs = append(logs, chunk...)
		if end == to {
			break
		}
		start = end + 1
	}
	return logs, nil
}

func toHexBig(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return "0x" + n.Text(16)
}
