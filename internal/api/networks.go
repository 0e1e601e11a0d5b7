package api

import (
	"net/http"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/web3"
	"ChainKit/internal/web3/networks"
)

// networkView 是对外展示的链配置，RPC 地址只暴露是否已配置。
type networkView struct {
	ChainID               uint64  `json:"chain_id"`
	Key                   string  `json:"key"`
	RPCConfigured         bool    `json:"rpc_configured"`
	RPCURLEnv             string  `json:"rpc_url_env"`
	GasPrice              string  `json:"gas_price,omitempty"`
	GasPriceMultiplier    float64 `json:"gas_price_multiplier,omitempty"`
	MinGasPrice           string  `json:"min_gas_price,omitempty"`
	MinRunnerBalance      string  `json:"min_runner_balance,omitempty"`
	MaxMulticallSize      int     `json:"max_multicall_size"`
	BlockTimeSeconds      float64 `json:"block_time_seconds"`
	MaxFetchEventsPerCall uint64  `json:"max_fetch_events_per_call"`
	MulticallAddress      string  `json:"multicall_address"`
}

func newNetworkView(n networks.NetworkConfig) networkView {
	v := networkView{
		ChainID:               uint64(n.ChainID),
		Key:                   n.Key,
		RPCConfigured:         n.RPCURL != "",
		RPCURLEnv:             n.RPCURLEnv,
		GasPriceMultiplier:    n.GasPriceMultiplier,
		MaxMulticallSize:      n.MaxMulticallSize,
		BlockTimeSeconds:      n.BlockTimeSeconds,
		MaxFetchEventsPerCall: n.MaxFetchEventsPerCall,
		MulticallAddress:      n.MulticallAddress.Hex(),
	}
	if n.GasPrice != nil {
		v.GasPrice = n.GasPrice.String()
	}
	if n.MinGasPrice != nil {
		v.MinGasPrice = n.MinGasPrice.String()
	}
	if n.MinRunnerBalance != nil {
		v.MinRunnerBalance = n.MinRunnerBalance.String()
	}
	return v
}

type networkDetail struct {
	Network       networkView         `json:"network"`
	Snapshot      *web3.ChainSnapshot `json:"snapshot,omitempty"`
	SnapshotError string              `json:"snapshot_error,omitempty"`
}

// handleListNetworks 返回所有已登记的链。
func (s *Server) handleListNetworks(w http.ResponseWriter, r *http.Request) {
	registry := s.clients.Registry()
	ids := registry.Chains()
	views := make([]networkView, 0, len(ids))
	for _, id := range ids {
		if n, ok := registry.Config(id); ok {
			views = append(views, newNetworkView(n))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": views})
}

// handleNetworkDetail 返回单条链配置，并在 RPC 可用时附带链上快照。
func (s *Server) handleNetworkDetail(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("chain")
	id, ok := networks.ParseChainID(name)
	if !ok {
		s.writeError(w, r, chainerrors.Newf(chainerrors.CodeConfigNotFound, "unknown network %q", name))
		return
	}
	n, ok := s.clients.Registry().Config(id)
	if !ok {
		s.writeError(w, r, chainerrors.Newf(chainerrors.CodeConfigNotFound, "configuration for network %d not found", uint64(id)))
		return
	}

	detail := networkDetail{Network: newNetworkView(n)}
	client, err := s.clients.ReadOnlyClient(r.Context(), id)
	if err == nil {
		var snapshot web3.ChainSnapshot
		snapshot, err = client.FetchChainSnapshot(r.Context())
		if err == nil {
			detail.Snapshot = &snapshot
		}
	}
	if err != nil {
		detail.SnapshotError = err.Error()
	}
	writeJSON(w, http.StatusOK, detail)
}
