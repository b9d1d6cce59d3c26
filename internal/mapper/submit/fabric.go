// Package submit implements the channels that deliver payloads.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/pkg/log"
)

const (
	// DefaultMethod is the JSON-RPC method that receives payloads.
	DefaultMethod = "omp2p_shareData"

	// DefaultTimeout bounds one JSON-RPC call.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

var _ core.Submitter = (*FabricSubmitter)(nil)

// FabricConfig configures a FabricSubmitter.
type FabricConfig struct {
	Endpoint   string
	Method     string
	Credential string
	Timeout    time.Duration

	// HTTPClient defaults to a client without its own timeout; Timeout applies per call.
	HTTPClient *http.Client
}

// FabricSubmitter posts every payload as a JSON-RPC 2.0 call.
type FabricSubmitter struct {
	endpoint   string
	method     string
	credential string
	timeout    time.Duration
	client     *http.Client
	logger     log.Logger
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      string `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

// NewFabric returns a submitter for the JSON-RPC endpoint in cfg.
func NewFabric(cfg FabricConfig) (*FabricSubmitter, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("fabric endpoint is required")
	}
	if cfg.Method == "" {
		cfg.Method = DefaultMethod
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &FabricSubmitter{
		endpoint:   cfg.Endpoint,
		method:     cfg.Method,
		credential: cfg.Credential,
		timeout:    cfg.Timeout,
		client:     cfg.HTTPClient,
		logger:     log.WithName("submit").WithValues("transport", "fabric", "endpoint", cfg.Endpoint),
	}, nil
}

// Submit performs one call and maps its failure onto the package sentinels.
func (f *FabricSubmitter) Submit(ctx context.Context, p *core.Payload) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  f.method,
		Params:  []any{p},
		ID:      uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if f.credential != "" {
		req.Header.Set("Authorization", "Bearer "+f.credential)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, f.timeout, err)
		}
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w reading response: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w reading response: %v", ErrConnection, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	// Any "error" member fails the call, null or malformed ones included.
	if len(rr.Error) > 0 {
		return fmt.Errorf("%w: %s", ErrRemote, remoteError(rr.Error))
	}
	if !truthy(rr.Result) {
		return fmt.Errorf("%w: result %s", ErrRejected, resultText(rr.Result))
	}

	f.logger.Debug("Payload accepted", "payloadIdx", p.PayloadIdx)
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// truthy reports whether a JSON value is present and not null, false, 0,
// an empty string, an empty array or an empty object.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

func remoteError(raw json.RawMessage) string {
	var e rpcError
	if err := json.Unmarshal(raw, &e); err != nil || (e.Code == 0 && e.Message == "") {
		return string(raw)
	}
	return fmt.Sprintf("code %d: %s", e.Code, e.Message)
}

func resultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "missing"
	}
	return string(raw)
}
