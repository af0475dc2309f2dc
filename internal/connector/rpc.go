package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcClient is a minimal JSON-RPC 2.0 client over HTTP POST.
type rpcClient struct {
	url    string
	client *http.Client
	nextID atomic.Int64
}

func newRPCClient(url string) *rpcClient {
	return &rpcClient{url: url, client: &http.Client{Timeout: 5 * time.Second}}
}

func (r *rpcClient) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	id := r.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned HTTP %d", method, resp.StatusCode)
	}

	var res rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if res.Error != nil {
		return fmt.Errorf("%s failed: %s (code %d)", method, res.Error.Message, res.Error.Code)
	}
	if err := json.Unmarshal(res.Result, out); err != nil {
		return fmt.Errorf("unexpected %s result: %w", method, err)
	}
	return nil
}

// RPCAccountRequester forwards account requests to an Ethereum JSON-RPC
// endpoint.
type RPCAccountRequester struct {
	rpc *rpcClient
}

func NewRPCAccountRequester(url string) *RPCAccountRequester {
	return &RPCAccountRequester{rpc: newRPCClient(url)}
}

func (r *RPCAccountRequester) Request(ctx context.Context, method string, params []any) ([]string, error) {
	var accounts []string
	if err := r.rpc.call(ctx, method, params, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// RPCKeyConnector answers Phantom connections with the identity public key
// of a Solana JSON-RPC node (getIdentity).
type RPCKeyConnector struct {
	rpc *rpcClient
}

func NewRPCKeyConnector(url string) *RPCKeyConnector {
	return &RPCKeyConnector{rpc: newRPCClient(url)}
}

func (r *RPCKeyConnector) Connect(ctx context.Context) (string, error) {
	var result struct {
		Identity string `json:"identity"`
	}
	if err := r.rpc.call(ctx, "getIdentity", nil, &result); err != nil {
		return "", err
	}
	return result.Identity, nil
}
