// Package web3 houses blockchain connectivity utilities: the per-chain network
// registry, named signing accounts, RPC client construction and the shared
// interfaces the multicall aggregator depends on.
package web3
