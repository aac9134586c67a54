// Package chronik provides an HTTP client for the Chronik eCash indexer.
//
// Reads are tried against each configured endpoint in order until one
// answers; broadcasts go to the first endpoint only and are never retried.
package chronik

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Klingon-tech/xecwallet/internal/log"
	"github.com/Klingon-tech/xecwallet/pkg/types"
)

const (
	contentType = "application/x-protobuf"

	// maxBodySize bounds response bodies. Token UTXO sets of popular tokens
	// are the largest responses.
	maxBodySize = 64 << 20

	infoKey = "blockchain-info"
)

// DefaultURLs are the public Chronik endpoints tried in order.
var DefaultURLs = []string{
	"https://chronik.fabien.cash/xec",
	"https://chronik.pay2stay.com/xec",
	"https://chronik.be.cash/xec",
}

// Config holds client settings.
type Config struct {
	URLs    []string
	Timeout time.Duration
	// RPS limits requests per second across all endpoints. Zero disables the limit.
	RPS float64
	// InfoTTL is how long BlockchainInfo results are reused.
	InfoTTL time.Duration
}

// DefaultConfig returns the public endpoints with a 10s timeout and a 30s
// blockchain-info cache.
func DefaultConfig() Config {
	return Config{
		URLs:    append([]string(nil), DefaultURLs...),
		Timeout: 10 * time.Second,
		InfoTTL: 30 * time.Second,
	}
}

// Client is a Chronik HTTP client. It is safe for concurrent use.
type Client struct {
	urls    []string
	http    *http.Client
	limiter *rate.Limiter
	info    *ttlcache.Cache[string, *types.BlockchainInfo]
	logger  zerolog.Logger
}

// New creates a client using a fresh http.Client with cfg.Timeout.
func New(cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return NewWithHTTPClient(cfg, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client that sends requests through hc.
func NewWithHTTPClient(cfg Config, hc *http.Client) (*Client, error) {
	urls := make([]string, 0, len(cfg.URLs))
	for _, u := range cfg.URLs {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, errors.New("chronik: no endpoint urls configured")
	}

	limit := rate.Inf
	burst := 1
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
		if int(cfg.RPS) > burst {
			burst = int(cfg.RPS)
		}
	}

	ttl := cfg.InfoTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	initPrometheusMetrics()

	return &Client{
		urls:    urls,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		info: ttlcache.New[string, *types.BlockchainInfo](
			ttlcache.WithTTL[string, *types.BlockchainInfo](ttl),
		),
		logger: log.Chronik,
	}, nil
}

// URLs returns the endpoints in the order they are tried.
func (c *Client) URLs() []string {
	return append([]string(nil), c.urls...)
}

// ScriptUtxos returns the UTXOs locked by a P2PKH script.
func (c *Client) ScriptUtxos(ctx context.Context, script []byte) ([]types.Utxo, error) {
	pkh, ok := types.ExtractPKH(script)
	if !ok {
		return nil, fmt.Errorf("chronik: only p2pkh scripts are supported")
	}
	body, err := c.get(ctx, "utxos", "/script/p2pkh/"+hex.EncodeToString(pkh[:])+"/utxos")
	if err != nil {
		return nil, err
	}
	utxos, err := decodeScriptUtxos(body)
	if err != nil {
		return nil, fmt.Errorf("chronik: decode script utxos: %w", err)
	}
	return utxos, nil
}

// TokenUtxos returns every UTXO of a token, across all holders.
func (c *Client) TokenUtxos(ctx context.Context, tokenID chainhash.Hash) ([]types.Utxo, error) {
	body, err := c.get(ctx, "token-utxos", "/token-id/"+tokenID.String()+"/utxos")
	if err != nil {
		return nil, err
	}
	utxos, err := decodeTokenUtxos(body)
	if err != nil {
		return nil, fmt.Errorf("chronik: decode token utxos: %w", err)
	}
	return utxos, nil
}

// Token returns genesis metadata of a token.
func (c *Client) Token(ctx context.Context, tokenID chainhash.Hash) (*types.TokenMeta, error) {
	body, err := c.get(ctx, "token", "/token/"+tokenID.String())
	if err != nil {
		return nil, err
	}
	meta, err := decodeTokenInfo(body)
	if err != nil {
		return nil, fmt.Errorf("chronik: decode token: %w", err)
	}
	meta.TokenID = tokenID
	return meta, nil
}

// Tx returns a transaction with its outputs.
func (c *Client) Tx(ctx context.Context, txid chainhash.Hash) (*types.Tx, error) {
	body, err := c.get(ctx, "tx", "/tx/"+txid.String())
	if err != nil {
		return nil, err
	}
	tx, err := decodeTx(body)
	if err != nil {
		return nil, fmt.Errorf("chronik: decode tx: %w", err)
	}
	return tx, nil
}

// BlockchainInfo returns the chain tip. Results are cached for InfoTTL.
func (c *Client) BlockchainInfo(ctx context.Context) (*types.BlockchainInfo, error) {
	if item := c.info.Get(infoKey); item != nil {
		info := *item.Value()
		return &info, nil
	}
	body, err := c.get(ctx, "blockchain-info", "/blockchain-info")
	if err != nil {
		return nil, err
	}
	info, err := decodeBlockchainInfo(body)
	if err != nil {
		return nil, fmt.Errorf("chronik: decode blockchain info: %w", err)
	}
	c.info.Set(infoKey, info, ttlcache.DefaultTTL)
	out := *info
	return &out, nil
}

// CheckConnection reports whether any endpoint answers, bypassing the cache.
func (c *Client) CheckConnection(ctx context.Context) error {
	c.info.Delete(infoKey)
	_, err := c.BlockchainInfo(ctx)
	return err
}

// Broadcast submits a raw transaction to the first endpoint.
// A rejection is returned as *BroadcastError.
func (c *Client) Broadcast(ctx context.Context, rawTx []byte) (chainhash.Hash, error) {
	var txid chainhash.Hash
	body, status, err := c.do(ctx, "broadcast", http.MethodPost, c.urls[0]+"/broadcast-tx",
		encodeBroadcastRequest(rawTx, false))
	if err != nil {
		prometheusRequests.WithLabelValues("broadcast", "unavailable").Inc()
		return txid, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if status != http.StatusOK {
		prometheusRequests.WithLabelValues("broadcast", "error").Inc()
		reason := decodeErrorMsg(body)
		if reason == "" {
			reason = http.StatusText(status)
		}
		return txid, &BroadcastError{Reason: reason}
	}
	prometheusRequests.WithLabelValues("broadcast", "ok").Inc()

	txid, err = decodeBroadcastResponse(body)
	if err != nil {
		return txid, fmt.Errorf("chronik: decode broadcast response: %w", err)
	}
	return txid, nil
}

// get performs a read against each endpoint in turn. Transport failures
// and 5xx responses move on to the next endpoint; other non-2xx responses
// are returned as *Error immediately.
func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	var lastErr error
	for i, base := range c.urls {
		body, status, err := c.do(ctx, endpoint, http.MethodGet, base+path, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		} else if status >= 500 {
			lastErr = &Error{Status: status, Msg: decodeErrorMsg(body)}
		} else if status != http.StatusOK {
			prometheusRequests.WithLabelValues(endpoint, "error").Inc()
			return nil, &Error{Status: status, Msg: decodeErrorMsg(body)}
		} else {
			prometheusRequests.WithLabelValues(endpoint, "ok").Inc()
			if i > 0 {
				c.logger.Debug().Str("url", base).Str("endpoint", endpoint).Msg("Served by fallback endpoint")
			}
			return body, nil
		}
		c.logger.Warn().Err(lastErr).Str("url", base).Str("endpoint", endpoint).Msg("Chronik endpoint failed")
	}
	prometheusRequests.WithLabelValues(endpoint, "unavailable").Inc()
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// do sends a single request and returns the body and status code.
func (c *Client) do(ctx context.Context, endpoint, method, url string, payload []byte) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", contentType)
	if payload != nil {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	prometheusRequestSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
