package base

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"net"
	"sync"
	"time"
)

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates the listener for the configured endpoint
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// defaultWorkersPerConn is used if the configuration does not set WorkersPerConn
const defaultWorkersPerConn = 16

// serverTransport accepts connections and answers every frame with the result of the handler
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool *sync.Pool

	listener   net.Listener
	listenerMu sync.Mutex
	conns      *xsync.MapOf[net.Conn, struct{}]

	requests *metrics.Counter
	duration *metrics.Histogram
}

// NewBaseServerTransport creates a new base server transport with a worker pool per connection.
// bufferSize is the size of the pooled read buffers, larger requests allocate their own buffer.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IRPCServerTransport {
	name := connector.GetName()
	return &serverTransport{
		connector: connector,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
		conns:    xsync.NewMapOf[net.Conn, struct{}](),
		requests: metrics.GetOrCreateCounter(fmt.Sprintf(`dinfer_rpc_server_requests_total{transport=%q}`, name)),
		duration: metrics.GetOrCreateHistogram(fmt.Sprintf(`dinfer_rpc_server_request_duration_seconds{transport=%q}`, name)),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	t.listenerMu.Lock()
	t.listener = listener
	t.listenerMu.Unlock()

	workers := config.Transport.WorkersPerConn
	if workers <= 0 {
		workers = defaultWorkersPerConn
	}
	Logger.Infof("Starting %s server on %s with %d workers per connection",
		t.connector.GetName(), config.Transport.Endpoint, workers)

	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		t.conns.Store(conn, struct{}{})
		go func() {
			defer t.conns.Delete(conn)
			t.serveConnection(conn, workers)
		}()
	}
}

// Close stops accepting connections and closes the open ones.
// Requests already being processed still run to completion.
func (t *serverTransport) Close() error {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	if t.listener == nil {
		return nil
	}
	err := t.listener.Close()

	t.conns.Range(func(conn net.Conn, _ struct{}) bool {
		conn.Close()
		return true
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// serveConnection reads frames until the connection fails and processes up to
// workers of them concurrently. Responses may be written out of order.
func (t *serverTransport) serveConnection(conn net.Conn, workers int) {
	defer conn.Close()

	timeout := time.Duration(t.config.TimeoutSecond) * time.Second
	slots := make(chan struct{}, workers)

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)

	reply := func(h frameHeader, resp []byte) {
		writeMu.Lock()
		defer writeMu.Unlock()

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}
		if err := writeFrame(conn, h.shardID, h.requestID, resp); err != nil {
			Logger.Errorf("Failed to write response for request %d: %v", h.requestID, err)
		}
	}

	for {
		buf := t.bufferPool.Get().([]byte)
		h, data, err := readFrame(conn, buf)
		if err != nil {
			t.bufferPool.Put(buf)
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				Logger.Debugf("Connection from %s closed", conn.RemoteAddr())
			default:
				Logger.Errorf("Failed to read request from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}

		slots <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				t.bufferPool.Put(buf)
				<-slots
				wg.Done()
			}()

			start := time.Now()
			resp := t.handler(h.shardID, data)
			t.requests.Inc()
			t.duration.UpdateDuration(start)
			Logger.Debugf("Request %d for shard %d took %s", h.requestID, h.shardID, time.Since(start))

			reply(h, resp)
		}()
	}

	wg.Wait()
}
