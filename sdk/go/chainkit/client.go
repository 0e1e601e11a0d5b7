// Package chainkit is a Go client for the ChainKit REST API.
package chainkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the ChainKit REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Network is the public view of a chain configuration.
type Network struct {
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

// Snapshot is lightweight live chain metadata.
type Snapshot struct {
	ChainID     string `json:"chain_id"`
	BlockNumber string `json:"block_number"`
	Notes       string `json:"notes,omitempty"`
}

// NetworkDetail is a network plus its snapshot when the RPC endpoint answered.
type NetworkDetail struct {
	Network       Network   `json:"network"`
	Snapshot      *Snapshot `json:"snapshot,omitempty"`
	SnapshotError string    `json:"snapshot_error,omitempty"`
}

// Call is one contract read. ABI holds the JSON ABI of the target contract.
type Call struct {
	Address string          `json:"address"`
	ABI     json.RawMessage `json:"abi"`
	Method  string          `json:"method"`
	Args    []any           `json:"args"`
}

// MulticallRequest batches calls against one chain. Chain accepts a key such
// as "polygon" or a numeric id.
type MulticallRequest struct {
	Chain          string `json:"chain"`
	RequireSuccess *bool  `json:"requireSuccess,omitempty"`
	Block          string `json:"block,omitempty"`
	Calls          []Call `json:"calls"`
}

// CallResult is the outcome of one call. Integers are decimal strings and
// byte values 0x hex.
type CallResult struct {
	Success bool   `json:"success"`
	Values  []any  `json:"values"`
	Error   string `json:"error,omitempty"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("chainkit api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("chainkit api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the ChainKit API. When httpClient is
// nil, a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// Networks lists every supported chain.
func (c *Client) Networks(ctx context.Context) ([]Network, error) {
	var body struct {
		Networks []Network `json:"networks"`
	}
	if err := c.get(ctx, "/api/v1/networks", &body); err != nil {
		return nil, err
	}
	return body.Networks, nil
}

// Network fetches one chain by key or id.
func (c *Client) Network(ctx context.Context, chain string) (NetworkDetail, error) {
	var detail NetworkDetail
	if err := c.get(ctx, "/api/v1/networks/"+url.PathEscape(chain), &detail); err != nil {
		return NetworkDetail{}, err
	}
	return detail, nil
}

// Multicall executes req and returns one result per call, in order.
func (c *Client) Multicall(ctx context.Context, req MulticallRequest) ([]CallResult, error) {
	if req.Calls == nil {
		req.Calls = []Call{}
	}
	var body struct {
		Results []CallResult `json:"results"`
	}
	if err := c.post(ctx, "/api/v1/multicall", req, &body); err != nil {
		return nil, err
	}
	return body.Results, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Request, error) {
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint)}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &struct {
				Error *APIError `json:"error"`
			}{Error: &apiErr})
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
