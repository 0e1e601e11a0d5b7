// Package api exposes the network registry and the multicall aggregator over
// HTTP.
package api
