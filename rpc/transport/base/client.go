package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

var (
	errTransportClosed = errors.New("transport is closed")
	errNotConnected    = errors.New("connection is not established")
)

const (
	initialBackoff = 50 * time.Millisecond
	maxSendBackoff = time.Second
	maxDialBackoff = 5 * time.Second
)

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect dials a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

type responseResult struct {
	data []byte
	err  error
}

// clientConnection multiplexes concurrent requests over one net.Conn.
// Responses are matched to their request by the request id of the frame.
type clientConnection struct {
	endpoint string
	parent   *clientTransport
	stopCh   chan struct{}
	pending  *xsync.MapOf[uint64, chan responseResult]

	mu      sync.RWMutex // guards conn
	conn    net.Conn
	writeMu sync.Mutex // serializes frame writes
}

// clientTransport balances requests round robin over all connections of all endpoints
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	connections   []*clientConnection
	connectionsMu sync.RWMutex
	nextConnIndex atomic.Uint64
	nextRequestID atomic.Uint64
	stopping      atomic.Bool

	requests   *metrics.Counter
	retries    *metrics.Counter
	failures   *metrics.Counter
	reconnects *metrics.Counter
}

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	counter := func(name string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`dinfer_rpc_client_%s_total{transport=%q}`, name, connector.GetName()))
	}
	return &clientTransport{
		connector:  connector,
		requests:   counter("requests"),
		retries:    counter("retries"),
		failures:   counter("failures"),
		reconnects: counter("reconnects"),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	t.closeConnections()
	t.config = config
	t.stopping.Store(false)

	perEndpoint := max(config.Transport.ConnectionsPerEndpoint, 1)
	total := len(config.Transport.Endpoints) * perEndpoint

	connections := make([]*clientConnection, 0, total)
	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < perEndpoint; i++ {
			c := &clientConnection{
				endpoint: endpoint,
				parent:   t,
				stopCh:   make(chan struct{}),
				pending:  xsync.NewMapOf[uint64, chan responseResult](),
			}
			if err := c.dial(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, perEndpoint, err)
				continue
			}
			connections = append(connections, c)
			go c.readResponses()
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any of %v", config.Transport.Endpoints)
	}

	t.connectionsMu.Lock()
	t.connections = connections
	t.connectionsMu.Unlock()

	Logger.Infof("Opened %d of %d %s connections to %d endpoints",
		len(connections), total, t.connector.GetName(), len(config.Transport.Endpoints))
	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if t.stopping.Load() {
		return nil, errTransportClosed
	}
	t.requests.Inc()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	attempts := max(t.config.Transport.RetryCount, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			t.retries.Inc()
			time.Sleep(backoff(i-1, maxSendBackoff))
		}

		c := t.getNextConnection()
		if c == nil {
			t.failures.Inc()
			return nil, fmt.Errorf("no active connections available")
		}

		// every attempt gets its own id so a late answer to a previous attempt is discarded
		data, err := c.roundTrip(shardId, t.nextRequestID.Add(1), req, timeout)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, errTransportClosed) {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request to shard %d failed (attempt %d/%d): %v", shardId, i+1, attempts, err)
	}

	t.failures.Inc()
	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.stopping.Store(true)
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *clientTransport) getNextConnection() *clientConnection {
	t.connectionsMu.RLock()
	defer t.connectionsMu.RUnlock()

	switch len(t.connections) {
	case 0:
		return nil
	case 1:
		return t.connections[0]
	default:
		return t.connections[t.nextConnIndex.Add(1)%uint64(len(t.connections))]
	}
}

func (t *clientTransport) closeConnections() {
	t.connectionsMu.Lock()
	connections := t.connections
	t.connections = nil
	t.connectionsMu.Unlock()

	for _, c := range connections {
		c.close()
	}
}

// backoff returns an exponentially growing delay with +-10% jitter, capped at limit
func backoff(attempt int, limit time.Duration) time.Duration {
	d := limit
	if attempt < 16 {
		d = min(initialBackoff<<attempt, limit)
	}
	return time.Duration(float64(d) * (0.9 + 0.2*rand.Float64()))
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

func (c *clientConnection) current() net.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *clientConnection) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// roundTrip writes one request frame and waits for the matching response
func (c *clientConnection) roundTrip(shardID, requestID uint64, req []byte, timeout time.Duration) ([]byte, error) {
	if c.stopped() {
		return nil, errTransportClosed
	}
	conn := c.current()
	if conn == nil {
		return nil, fmt.Errorf("%s: %w", c.endpoint, errNotConnected)
	}

	respCh := make(chan responseResult, 1)
	c.pending.Store(requestID, respCh)
	defer c.pending.Delete(requestID)

	c.writeMu.Lock()
	if timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	err := writeFrame(conn, shardID, requestID, req)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write request to %s: %w", c.endpoint, err)
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-respCh:
		return res.data, res.err
	case <-expired:
		return nil, fmt.Errorf("request to %s timed out after %s", c.endpoint, timeout)
	}
}

// readResponses hands incoming frames to the waiting requests until the connection is closed.
// A broken connection fails all pending requests and is dialed again.
func (c *clientConnection) readResponses() {
	for {
		conn := c.current()
		if conn == nil {
			if !c.redial() {
				return
			}
			continue
		}

		h, data, err := readFrame(conn, nil)
		if err != nil {
			if c.stopped() {
				c.failPending(errTransportClosed)
				return
			}
			Logger.Warningf("Connection to %s broke: %v", c.endpoint, err)
			c.drop(conn)
			c.failPending(fmt.Errorf("connection to %s broke: %w", c.endpoint, err))
			continue
		}

		if respCh, ok := c.pending.LoadAndDelete(h.requestID); ok {
			respCh <- responseResult{data: data}
		} else {
			Logger.Debugf("Discarding response for unknown request %d (shard %d)", h.requestID, h.shardID)
		}
	}
}

// failPending completes all waiting requests with err
func (c *clientConnection) failPending(err error) {
	c.pending.Range(func(id uint64, _ chan responseResult) bool {
		if respCh, ok := c.pending.LoadAndDelete(id); ok {
			respCh <- responseResult{err: err}
		}
		return true
	})
}

// dial replaces the connection with a freshly established one
func (c *clientConnection) dial() error {
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped() {
		conn.Close()
		return errTransportClosed
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = conn
	return nil
}

// redial dials until it succeeds or the connection is closed
func (c *clientConnection) redial() bool {
	for attempt := 0; ; attempt++ {
		if c.stopped() {
			return false
		}
		c.parent.reconnects.Inc()
		err := c.dial()
		if err == nil {
			Logger.Infof("Reconnected to %s", c.endpoint)
			return true
		}
		if errors.Is(err, errTransportClosed) {
			return false
		}
		Logger.Warningf("Reconnect to %s failed: %v", c.endpoint, err)

		timer := time.NewTimer(backoff(attempt, maxDialBackoff))
		select {
		case <-c.stopCh:
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

// drop closes conn if it is still the current connection
func (c *clientConnection) drop(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *clientConnection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped() {
		close(c.stopCh)
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}
