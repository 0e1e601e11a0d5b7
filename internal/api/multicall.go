package api

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall"
	"ChainKit/internal/web3/abiutil"
	"ChainKit/internal/web3/networks"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// multicallRequest 描述一次批量只读调用。
type multicallRequest struct {
	Chain          json.RawMessage `json:"chain"`
	RequireSuccess *bool           `json:"requireSuccess"`
	Block          json.RawMessage `json:"block"`
	Calls          []callRequest   `json:"calls"`
}

type callRequest struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
	Method  string          `json:"method"`
	Args    []any           `json:"args"`
}

type multicallResponse struct {
	Results []callResult `json:"results"`
}

type callResult struct {
	Success bool   `json:"success"`
	Values  []any  `json:"values"`
	Error   string `json:"error,omitempty"`
}

// handleMulticall 执行 POST /api/v1/multicall。
func (s *Server) handleMulticall(w http.ResponseWriter, r *http.Request) {
	if s.aggregator == nil {
		http.Error(w, "聚合器未初始化", http.StatusServiceUnavailable)
		return
	}

	// 解析请求体。
	var req multicallRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err, "请求体解析失败"))
		return
	}

	chainID, err := parseChain(req.Chain)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	calls, err := buildCalls(req.Calls)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := []multicall.CallOption{}
	if req.RequireSuccess != nil {
		opts = append(opts, multicall.RequireSuccess(*req.RequireSuccess))
	}
	if len(req.Block) > 0 && string(req.Block) != "null" {
		block, err := parseBlock(req.Block)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		opts = append(opts, multicall.AtBlock(block))
	}

	// 调用聚合器执行批量读取。
	results, err := s.aggregator.CallManyContracts(r.Context(), chainID, calls, opts...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := multicallResponse{Results: make([]callResult, len(results))}
	for i, res := range results {
		out := callResult{Success: res.OK(), Values: abiutil.FormatValues(res.Values)}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		resp.Results[i] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseChain 接受链 key（"polygon"）、数字或数字字符串。
func parseChain(raw json.RawMessage) (networks.ChainID, error) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, chainerrors.New(chainerrors.CodeInvalidArgument, "chain must be a key or a chain id")
		}
		name = n.String()
	}
	id, ok := networks.ParseChainID(name)
	if !ok {
		return 0, chainerrors.Newf(chainerrors.CodeConfigNotFound, "unknown network %q", name)
	}
	return id, nil
}

func parseBlock(raw json.RawMessage) (*big.Int, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, chainerrors.New(chainerrors.CodeInvalidArgument, "block must be a number")
		}
		text = n.String()
	}
	text = strings.TrimSpace(text)
	base := 10
	if strings.HasPrefix(text, "0x") {
		text, base = text[2:], 16
	}
	block, ok := new(big.Int).SetString(text, base)
	if !ok || block.Sign() < 0 {
		return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument, "invalid block %s", string(raw))
	}
	return block, nil
}

// buildCalls 解析每个调用的 ABI 并打包参数，相同 ABI 文本只解析一次。
func buildCalls(reqs []callRequest) ([]multicall.Call, error) {
	parsed := make(map[string]*abi.ABI)
	calls := make([]multicall.Call, len(reqs))
	for i, req := range reqs {
		if !common.IsHexAddress(req.Address) {
			return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument, "call %d: invalid address %q", i, req.Address)
		}

		rawABI, err := abiText(req.ABI)
		if err != nil {
			return nil, chainerrors.Wrap(chainerrors.CodeInvalidArgument, err, fmt.Sprintf("call %d", i))
		}
		contractABI, ok := parsed[rawABI]
		if !ok {
			contractABI, err = abiutil.ParseABI(rawABI)
			if err != nil {
				return nil, fmt.Errorf("call %d: %w", i, err)
			}
			parsed[rawABI] = contractABI
		}

		method, ok := contractABI.Methods[req.Method]
		if !ok {
			return nil, chainerrors.Newf(chainerrors.CodeInvalidArgument, "call %d: method %q not found in abi", i, req.Method)
		}
		args, err := abiutil.ConvertArgs(method, req.Args)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		calls[i], err = multicall.NewCall(common.HexToAddress(req.Address), contractABI, req.Method, args...)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
	}
	return calls, nil
}

// abiText 允许 ABI 以 JSON 数组/对象直接内嵌，或以字符串形式提供。
func abiText(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", fmt.Errorf("abi is required")
	}
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", err
		}
		return text, nil
	}
	return trimmed, nil
}
