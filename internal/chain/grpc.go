package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/manifest-network/tracker/internal/client"
)

const (
	getBodyMethod        = "tracker.chaindata.v1.Service.GetBody"
	isTxValidMethod      = "tracker.chaindata.v1.Service.IsTxValid"
	isTxSuccessfulMethod = "tracker.chaindata.v1.Service.IsTxSuccessful"
	unpinMethod          = "tracker.chaindata.v1.Service.Unpin"
	headMethod           = "tracker.chaindata.v1.Service.Head"
	finalizedHeadMethod  = "tracker.chaindata.v1.Service.FinalizedHead"
	pendingTxsMethod     = "tracker.chaindata.v1.Service.PendingTransactions"
)

// GRPC queries chain data over a reflection-based gRPC client.
// It implements both API and HeadSource.
type GRPC struct {
	client     *client.GRPCClient
	maxRetries uint
}

// NewGRPC wraps an established gRPC client. maxRetries applies per lookup.
func NewGRPC(c *client.GRPCClient, maxRetries uint) *GRPC {
	return &GRPC{client: c, maxRetries: maxRetries}
}

func (g *GRPC) GetBody(ctx context.Context, blockHash string) ([]string, error) {
	out, err := g.invoke(ctx, getBodyMethod, map[string]any{"block_hash": blockHash})
	if err != nil {
		return nil, fmt.Errorf("failed to get body of block %s: %w", blockHash, err)
	}

	var resp struct {
		Txs []string `json:"txs"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, errors.WithMessage(err, "error parsing block body response")
	}
	return resp.Txs, nil
}

func (g *GRPC) IsTxValid(ctx context.Context, blockHash, txHash string) (bool, error) {
	out, err := g.invoke(ctx, isTxValidMethod, map[string]any{"block_hash": blockHash, "tx_hash": txHash})
	if err != nil {
		return false, fmt.Errorf("failed to check validity of tx %s in block %s: %w", txHash, blockHash, err)
	}
	return parseBoolField(out, "valid")
}

func (g *GRPC) IsTxSuccessful(ctx context.Context, blockHash, txHash string) (bool, error) {
	out, err := g.invoke(ctx, isTxSuccessfulMethod, map[string]any{"block_hash": blockHash, "tx_hash": txHash})
	if err != nil {
		return false, fmt.Errorf("failed to check outcome of tx %s in block %s: %w", txHash, blockHash, err)
	}
	return parseBoolField(out, "successful")
}

func (g *GRPC) Unpin(ctx context.Context, blockHashes []string) error {
	if _, err := g.invoke(ctx, unpinMethod, map[string]any{"block_hashes": blockHashes}); err != nil {
		return fmt.Errorf("failed to unpin %d blocks: %w", len(blockHashes), err)
	}
	return nil
}

func (g *GRPC) Head(ctx context.Context) (string, string, error) {
	out, err := g.invoke(ctx, headMethod, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to get chain head: %w", err)
	}

	var resp struct {
		BlockHash string `json:"blockHash"`
		Parent    string `json:"parent"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", "", errors.WithMessage(err, "error parsing head response")
	}
	return resp.BlockHash, resp.Parent, nil
}

func (g *GRPC) FinalizedHead(ctx context.Context) (string, error) {
	out, err := g.invoke(ctx, finalizedHeadMethod, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get finalized head: %w", err)
	}

	var resp struct {
		BlockHash string `json:"blockHash"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", errors.WithMessage(err, "error parsing finalized head response")
	}
	return resp.BlockHash, nil
}

func (g *GRPC) PendingTransactions(ctx context.Context) ([]string, error) {
	out, err := g.invoke(ctx, pendingTxsMethod, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	var resp struct {
		Txs []string `json:"txs"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, errors.WithMessage(err, "error parsing pending transactions response")
	}
	return resp.Txs, nil
}

func (g *GRPC) invoke(ctx context.Context, method string, params map[string]any) ([]byte, error) {
	var body []byte
	if params != nil {
		var err error
		body, err = json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode params for %s: %w", method, err)
		}
	}
	return g.client.InvokeWithRetry(ctx, method, g.maxRetries, body)
}

// parseBoolField extracts a single boolean field from a JSON object,
// tolerating both proto JSON (camelCase) and plain snake_case keys.
func parseBoolField(raw []byte, field string) (bool, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false, errors.WithMessage(err, "error parsing response object")
	}

	v, ok := m[field]
	if !ok {
		// proto3 omits false-valued fields from JSON output
		return false, nil
	}

	var b bool
	if err := json.Unmarshal(v, &b); err != nil {
		return false, errors.WithMessagef(err, "error parsing field %q", field)
	}
	return b, nil
}
