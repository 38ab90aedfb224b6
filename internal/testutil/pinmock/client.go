package pinmock

import (
	"context"
	"io"

	"orbitlend-backend/internal/adapter/external/pinning"
)

// Client is a function-backed stand-in for *pinning.Client. Unset pins
// succeed with a CID derived from the name.
type Client struct {
	PinJSONFn func(ctx context.Context, name string, content any) (*pinning.PinResult, error)
	PinFileFn func(ctx context.Context, name string, r io.Reader) (*pinning.PinResult, error)
}

func (m *Client) PinJSON(ctx context.Context, name string, content any) (*pinning.PinResult, error) {
	if m.PinJSONFn != nil {
		return m.PinJSONFn(ctx, name, content)
	}
	return &pinning.PinResult{CID: "cid-" + name, URL: "https://gw.test/ipfs/cid-" + name}, nil
}

func (m *Client) PinFile(ctx context.Context, name string, r io.Reader) (*pinning.PinResult, error) {
	if m.PinFileFn != nil {
		return m.PinFileFn(ctx, name, r)
	}
	return &pinning.PinResult{CID: "cid-" + name, URL: "https://gw.test/ipfs/cid-" + name}, nil
}
