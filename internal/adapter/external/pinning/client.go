// Package pinning stores files and JSON documents on IPFS through a pinning
// service (Pinata-compatible API, bearer JWT).
package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orbitlend-backend/internal/adapter/external/httpx"
	"orbitlend-backend/internal/domain/apperr"
)

const provider = "pinning"

var ErrNotConfigured = apperr.New(apperr.KindExternal, "pinning provider is not configured")

type Config struct {
	BaseURL    string
	JWT        string
	GatewayURL string
	Timeout    time.Duration
}

type PinResult struct {
	CID       string    `json:"cid"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

type Pin struct {
	CID      string    `json:"cid"`
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	PinnedAt time.Time `json:"pinnedAt"`
}

type pinResponse struct {
	IpfsHash  string    `json:"IpfsHash"`
	PinSize   int64     `json:"PinSize"`
	Timestamp time.Time `json:"Timestamp"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.GatewayURL = strings.TrimRight(cfg.GatewayURL, "/")
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = "https://gateway.pinata.cloud"
	}
	return &Client{cfg: cfg, http: httpx.NewClient(cfg.Timeout)}
}

// GatewayURL is the public HTTP URL of a CID.
func (c *Client) GatewayURL(cid string) string { return c.cfg.GatewayURL + "/ipfs/" + cid }

func (c *Client) PinJSON(ctx context.Context, name string, content any) (*PinResult, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	body := map[string]any{
		"pinataContent":  content,
		"pinataMetadata": map[string]string{"name": name},
	}
	req, err := httpx.NewJSONRequest(ctx, http.MethodPost, c.cfg.BaseURL+"/pinning/pinJSONToIPFS", body)
	if err != nil {
		return nil, apperr.External(provider, err)
	}
	return c.pin(req)
}

func (c *Client) PinFile(ctx context.Context, name string, r io.Reader) (*PinResult, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, apperr.External(provider, err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, apperr.External(provider, fmt.Errorf("read file: %w", err))
	}
	meta, _ := json.Marshal(map[string]string{"name": name})
	if err := mw.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, apperr.External(provider, err)
	}
	if err := mw.Close(); err != nil {
		return nil, apperr.External(provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return nil, apperr.External(provider, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.pin(req)
}

func (c *Client) Unpin(ctx context.Context, cid string) error {
	if err := c.configured(); err != nil {
		return err
	}
	req, err := httpx.NewJSONRequest(ctx, http.MethodDelete, c.cfg.BaseURL+"/pinning/unpin/"+url.PathEscape(cid), nil)
	if err != nil {
		return apperr.External(provider, err)
	}
	c.auth(req)
	if err := httpx.Do(c.http, req, nil); err != nil {
		return apperr.External(provider, err)
	}
	return nil
}

func (c *Client) ListPinned(ctx context.Context, limit int) ([]Pin, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{"status": {"pinned"}, "pageLimit": {strconv.Itoa(limit)}}
	req, err := httpx.NewJSONRequest(ctx, http.MethodGet, c.cfg.BaseURL+"/data/pinList?"+q.Encode(), nil)
	if err != nil {
		return nil, apperr.External(provider, err)
	}
	c.auth(req)

	var out struct {
		Rows []struct {
			IpfsPinHash string    `json:"ipfs_pin_hash"`
			Size        int64     `json:"size"`
			DatePinned  time.Time `json:"date_pinned"`
			Metadata    struct {
				Name string `json:"name"`
			} `json:"metadata"`
		} `json:"rows"`
	}
	if err := httpx.Do(c.http, req, &out); err != nil {
		return nil, apperr.External(provider, err)
	}
	pins := make([]Pin, 0, len(out.Rows))
	for _, r := range out.Rows {
		pins = append(pins, Pin{CID: r.IpfsPinHash, Name: r.Metadata.Name, Size: r.Size, PinnedAt: r.DatePinned})
	}
	return pins, nil
}

func (c *Client) pin(req *http.Request) (*PinResult, error) {
	c.auth(req)
	var out pinResponse
	if err := httpx.Do(c.http, req, &out); err != nil {
		return nil, apperr.External(provider, err)
	}
	if out.IpfsHash == "" {
		return nil, apperr.External(provider, fmt.Errorf("response missing IpfsHash"))
	}
	return &PinResult{CID: out.IpfsHash, Size: out.PinSize, URL: c.GatewayURL(out.IpfsHash), Timestamp: out.Timestamp}, nil
}

func (c *Client) auth(req *http.Request) { req.Header.Set("Authorization", "Bearer "+c.cfg.JWT) }

func (c *Client) configured() error {
	if c.cfg.BaseURL == "" || c.cfg.JWT == "" {
		return ErrNotConfigured
	}
	return nil
}
