package fhe

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RPCEngine talks JSON-RPC to an FHE coprocessor gateway. Every method maps
// to one gateway call; handles are whatever opaque strings the gateway
// returns.
type RPCEngine struct {
	httpURL    string
	httpClient *http.Client
}

func NewRPCEngine(httpURL string) (*RPCEngine, error) {
	if strings.TrimSpace(httpURL) == "" {
		return nil, fmt.Errorf("missing FHE_COPROCESSOR_HTTP_RPC")
	}
	return &RPCEngine{
		httpURL:    strings.TrimSpace(httpURL),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (e *RPCEngine) Encrypt(ctx context.Context, value uint64) (Handle, error) {
	return e.handleCall(ctx, "fhe_trivialEncrypt", []any{value})
}

func (e *RPCEngine) Add(ctx context.Context, a, b Handle) (Handle, error) {
	return e.handleCall(ctx, "fhe_add", []any{string(a), string(b)})
}

func (e *RPCEngine) Mul(ctx context.Context, a, b Handle) (Handle, error) {
	return e.handleCall(ctx, "fhe_mul", []any{string(a), string(b)})
}

func (e *RPCEngine) Div(ctx context.Context, a, b Handle) (Handle, error) {
	return e.handleCall(ctx, "fhe_div", []any{string(a), string(b)})
}

func (e *RPCEngine) FromExternalInput(ctx context.Context, ciphertext, proof []byte) (Handle, error) {
	h, err := e.handleCall(ctx, "fhe_verifyInput", []any{
		"0x" + hex.EncodeToString(ciphertext),
		"0x" + hex.EncodeToString(proof),
	})
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return h, nil
}

func (e *RPCEngine) TransportForm(ctx context.Context, h Handle) ([]byte, error) {
	var encoded string
	if err := e.rpc(ctx, "fhe_transportForm", []any{string(h)}, &encoded); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(encoded, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid transport form response")
	}
	return raw, nil
}

func (e *RPCEngine) handleCall(ctx context.Context, method string, params []any) (Handle, error) {
	var out string
	if err := e.rpc(ctx, method, params, &out); err != nil {
		return "", err
	}
	if !strings.HasPrefix(out, "0x") {
		return "", fmt.Errorf("invalid handle response")
	}
	return Handle(out), nil
}

func (e *RPCEngine) rpc(ctx context.Context, method string, params []any, out any) error {
	reqBody, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.httpURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if payload.Error != nil {
		return fmt.Errorf("rpc error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Result) == 0 {
		return fmt.Errorf("rpc empty result")
	}
	if err := json.Unmarshal(payload.Result, out); err != nil {
		return err
	}
	return nil
}
