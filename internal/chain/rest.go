package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// REST queries a JSON chain-data service over HTTP.
// It implements both API and HeadSource.
type REST struct {
	http *resty.Client
}

// NewREST creates a REST chain-data client for the given base URL.
func NewREST(baseURL string, timeout time.Duration, maxRetries uint) *REST {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(int(maxRetries)).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &REST{http: c}
}

func (r *REST) GetBody(ctx context.Context, blockHash string) ([]string, error) {
	var out struct {
		Txs []string `json:"txs"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("hash", blockHash).
		Get("/v1/blocks/{hash}/body")
	if err != nil {
		return nil, fmt.Errorf("failed to get body of block %s: %w", blockHash, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chain-data service returned %s for body of block %s", resp.Status(), blockHash)
	}
	return out.Txs, nil
}

func (r *REST) IsTxValid(ctx context.Context, blockHash, txHash string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParams(map[string]string{"hash": blockHash, "tx": txHash}).
		Get("/v1/blocks/{hash}/txs/{tx}/validity")
	if err != nil {
		return false, fmt.Errorf("failed to check validity of tx %s in block %s: %w", txHash, blockHash, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("chain-data service returned %s for validity of tx %s", resp.Status(), txHash)
	}
	return out.Valid, nil
}

func (r *REST) IsTxSuccessful(ctx context.Context, blockHash, txHash string) (bool, error) {
	var out struct {
		Successful bool `json:"successful"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParams(map[string]string{"hash": blockHash, "tx": txHash}).
		Get("/v1/blocks/{hash}/txs/{tx}/receipt")
	if err != nil {
		return false, fmt.Errorf("failed to check outcome of tx %s in block %s: %w", txHash, blockHash, err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("chain-data service returned %s for receipt of tx %s", resp.Status(), txHash)
	}
	return out.Successful, nil
}

func (r *REST) Unpin(ctx context.Context, blockHashes []string) error {
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(map[string][]string{"block_hashes": blockHashes}).
		Post("/v1/blocks/unpin")
	if err != nil {
		return fmt.Errorf("failed to unpin %d blocks: %w", len(blockHashes), err)
	}
	if resp.IsError() {
		return fmt.Errorf("chain-data service returned %s for unpin", resp.Status())
	}
	return nil
}

func (r *REST) Head(ctx context.Context) (string, string, error) {
	var out struct {
		BlockHash string `json:"block_hash"`
		Parent    string `json:"parent"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/head")
	if err != nil {
		return "", "", fmt.Errorf("failed to get chain head: %w", err)
	}
	if resp.IsError() {
		return "", "", fmt.Errorf("chain-data service returned %s for head", resp.Status())
	}
	return out.BlockHash, out.Parent, nil
}

func (r *REST) FinalizedHead(ctx context.Context) (string, error) {
	var out struct {
		BlockHash string `json:"block_hash"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/head/finalized")
	if err != nil {
		return "", fmt.Errorf("failed to get finalized head: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chain-data service returned %s for finalized head", resp.Status())
	}
	return out.BlockHash, nil
}

func (r *REST) PendingTransactions(ctx context.Context) ([]string, error) {
	var out struct {
		Txs []string `json:"txs"`
	}
	resp, err := r.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/txs/pending")
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chain-data service returned %s for pending transactions", resp.Status())
	}
	return out.Txs, nil
}
