package attest

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

// RPCOracle talks JSON-RPC to an external decryption gateway.
type RPCOracle struct {
	httpURL    string
	httpClient *http.Client
}

func NewRPCOracle(httpURL string, timeout time.Duration) (*RPCOracle, error) {
	if strings.TrimSpace(httpURL) == "" {
		return nil, fmt.Errorf("missing ORACLE_HTTP_RPC")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RPCOracle{
		httpURL:    strings.TrimSpace(httpURL),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (o *RPCOracle) Decrypt(ctx context.Context, handles []fhe.Handle) ([]byte, []byte, error) {
	var out struct {
		Clear string `json:"clear"`
		Proof string `json:"proof"`
	}
	if err := o.rpc(ctx, "oracle_decrypt", []any{handleStrings(handles)}, &out); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	clear, err := hex.DecodeString(strings.TrimPrefix(out.Clear, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid clear encoding", ErrDecryptionFailed)
	}
	proof, err := hex.DecodeString(strings.TrimPrefix(out.Proof, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: invalid proof encoding", ErrDecryptionFailed)
	}
	return clear, proof, nil
}

func (o *RPCOracle) Verify(ctx context.Context, handles []fhe.Handle, clear, proof []byte) (bool, error) {
	var ok bool
	err := o.rpc(ctx, "oracle_verify", []any{
		handleStrings(handles),
		"0x" + hex.EncodeToString(clear),
		"0x" + hex.EncodeToString(proof),
	}, &ok)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func handleStrings(handles []fhe.Handle) []string {
	out := make([]string, 0, len(handles))
	for _, h := range handles {
		out = append(out, string(h))
	}
	return out
}

func (o *RPCOracle) rpc(ctx context.Context, method string, params []any, out any) error {
	reqBody, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.httpURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
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
