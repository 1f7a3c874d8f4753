package http

import (
	"bytes"
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/base"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	clientRequestsTotal = metrics.NewCounter(`dinfer_rpc_client_requests_total{transport="http"}`)
	clientRetriesTotal  = metrics.NewCounter(`dinfer_rpc_client_retries_total{transport="http"}`)
	clientFailuresTotal = metrics.NewCounter(`dinfer_rpc_client_failures_total{transport="http"}`)
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

// httpClientTransport posts every request to /{shardId} of one of the endpoints.
// A failed attempt is retried on the next endpoint.
type httpClientTransport struct {
	shardURLs  []string // endpoint base urls ending with a slash
	client     *http.Client
	next       atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	shardURLs := make([]string, len(config.Transport.Endpoints))
	for i, endpoint := range config.Transport.Endpoints {
		// plain host:port endpoints (as used by the tcp transport) default to http
		if !strings.Contains(endpoint, "://") {
			endpoint = "http://" + endpoint
		}
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		shardURLs[i] = strings.TrimSuffix(u.String(), "/") + "/"
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	perHost := max(config.Transport.ConnectionsPerEndpoint, 1)

	t.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        perHost * len(shardURLs),
			MaxIdleConnsPerHost: perHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	t.shardURLs = shardURLs
	t.next.Store(0)
	t.retryCount = max(config.Transport.RetryCount, 1)
	return nil
}

func (t *httpClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}
	clientRequestsTotal.Inc()

	shard := strconv.FormatUint(shardId, 10)

	var lastErr error
	for i := 0; i < t.retryCount; i++ {
		if i > 0 {
			clientRetriesTotal.Inc()
		}
		endpoint := t.shardURLs[int(t.next.Add(1))%len(t.shardURLs)]

		resp, err := t.post(endpoint+shard, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		Logger.Debugf("Request to shard %d failed (attempt %d/%d): %v", shardId, i+1, t.retryCount, err)
	}

	clientFailuresTotal.Inc()
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", t.retryCount, lastErr)
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.shardURLs = nil
	return nil
}

// post sends one request, the body is recreated for every attempt
func (t *httpClientTransport) post(target string, req []byte) ([]byte, error) {
	resp, err := t.client.Post(target, "application/octet-stream", bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, base.MaxFrameSize))
}
