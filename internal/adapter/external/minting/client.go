// Package minting talks to the NFT-minting provider: mint, transfer,
// ownership lookup and transaction status, authenticated by API key.
package minting

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/httpx"
	"orbitlend-backend/internal/domain/apperr"
)

const provider = "minting"

var ErrNotConfigured = apperr.New(apperr.KindExternal, "minting provider is not configured")

type Config struct {
	BaseURL         string
	APIKey          string
	Chain           string
	ContractAddress string
	Timeout         time.Duration
}

type MintRequest struct {
	Recipient string `json:"recipient"`
	TokenURI  string `json:"tokenURI"`
	Metadata  any    `json:"metadata,omitempty"`
}

type MintResult struct {
	TokenID         string `json:"tokenId"`
	ContractAddress string `json:"contractAddress"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     *int64 `json:"blockNumber,omitempty"`
	Network         string `json:"chain"`
}

type TransferRequest struct {
	ContractAddress string `json:"contractAddress"`
	TokenID         string `json:"tokenId"`
	From            string `json:"from"`
	To              string `json:"to"`
}

type TransferResult struct {
	TransactionHash string `json:"transactionHash"`
}

type TxStatus struct {
	Hash          string `json:"hash"`
	Status        string `json:"status"`
	BlockNumber   *int64 `json:"blockNumber,omitempty"`
	Confirmations int    `json:"confirmations"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpx.NewClient(cfg.Timeout)}
}

func (c *Client) Chain() string { return c.cfg.Chain }

func (c *Client) Mint(ctx context.Context, in MintRequest) (*MintResult, error) {
	body := struct {
		Chain           string `json:"chain"`
		ContractAddress string `json:"contractAddress"`
		MintRequest
	}{c.cfg.Chain, c.cfg.ContractAddress, in}

	var out MintResult
	if err := c.call(ctx, http.MethodPost, "/v1/nfts/mint", body, &out); err != nil {
		return nil, err
	}
	if out.TokenID == "" {
		return nil, apperr.External(provider, errors.New("response missing tokenId"))
	}
	if out.ContractAddress == "" {
		out.ContractAddress = c.cfg.ContractAddress
	}
	if out.Network == "" {
		out.Network = c.cfg.Chain
	}
	return &out, nil
}

func (c *Client) Transfer(ctx context.Context, in TransferRequest) (*TransferResult, error) {
	if in.ContractAddress == "" {
		in.ContractAddress = c.cfg.ContractAddress
	}
	body := struct {
		Chain string `json:"chain"`
		TransferRequest
	}{c.cfg.Chain, in}

	var out TransferResult
	if err := c.call(ctx, http.MethodPost, "/v1/nfts/transfer", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Owner returns the live on-chain owner of a token.
func (c *Client) Owner(ctx context.Context, contract, tokenID string) (string, error) {
	if contract == "" {
		contract = c.cfg.ContractAddress
	}
	path := "/v1/nfts/" + url.PathEscape(c.cfg.Chain) + "/" + url.PathEscape(contract) + "/" + url.PathEscape(tokenID) + "/owner"
	var out struct {
		Owner string `json:"owner"`
	}
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", err
	}
	return out.Owner, nil
}

func (c *Client) TransactionStatus(ctx context.Context, hash string) (*TxStatus, error) {
	path := "/v1/transactions/" + url.PathEscape(c.cfg.Chain) + "/" + url.PathEscape(hash)
	var out TxStatus
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Hash == "" {
		out.Hash = hash
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if c.cfg.BaseURL == "" || c.cfg.APIKey == "" {
		return ErrNotConfigured
	}
	req, err := httpx.NewJSONRequest(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return apperr.External(provider, err)
	}
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	if err := httpx.Do(c.http, req, out); err != nil {
		return apperr.External(provider, err)
	}
	return nil
}
