package mintmock

import (
	"context"
	"errors"

	"orbitlend-backend/internal/adapter/external/minting"
)

var errUnimplemented = errors.New("mintmock: method not implemented")

// Client is a function-backed stand-in for *minting.Client.
type Client struct {
	ChainName  string
	MintFn     func(ctx context.Context, in minting.MintRequest) (*minting.MintResult, error)
	TransferFn func(ctx context.Context, in minting.TransferRequest) (*minting.TransferResult, error)
	OwnerFn    func(ctx context.Context, contract, tokenID string) (string, error)
	TxStatusFn func(ctx context.Context, hash string) (*minting.TxStatus, error)

	MintCalls int
}

func (m *Client) Chain() string {
	if m.ChainName == "" {
		return "testnet"
	}
	return m.ChainName
}

func (m *Client) Mint(ctx context.Context, in minting.MintRequest) (*minting.MintResult, error) {
	m.MintCalls++
	if m.MintFn != nil {
		return m.MintFn(ctx, in)
	}
	return nil, errUnimplemented
}

func (m *Client) Transfer(ctx context.Context, in minting.TransferRequest) (*minting.TransferResult, error) {
	if m.TransferFn != nil {
		return m.TransferFn(ctx, in)
	}
	return nil, errUnimplemented
}

func (m *Client) Owner(ctx context.Context, contract, tokenID string) (string, error) {
	if m.OwnerFn != nil {
		return m.OwnerFn(ctx, contract, tokenID)
	}
	return "", errUnimplemented
}

func (m *Client) TransactionStatus(ctx context.Context, hash string) (*minting.TxStatus, error) {
	if m.TxStatusFn != nil {
		return m.TxStatusFn(ctx, hash)
	}
	return nil, errUnimplemented
}
