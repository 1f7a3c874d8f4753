package tcp

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/base"
	"net"
	"time"
)

const defaultBufferSize = 512 * 1024

// dialTimeout bounds connection setup, request timeouts start after it
const dialTimeout = 5 * time.Second

// NewTCPClientTransport creates a client transport dialing TCP endpoints (host:port)
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(clientConnector{})
}

// NewTCPDefaultServerTransport creates a server transport with 512 KB read buffers
func NewTCPDefaultServerTransport() transport.IRPCServerTransport {
	return NewTCPServerTransport(defaultBufferSize)
}

// NewTCPServerTransport creates a server transport with read buffers of bufferSize bytes
func NewTCPServerTransport(bufferSize int) transport.IRPCServerTransport {
	return base.NewBaseServerTransport(serverConnector{}, bufferSize)
}

type clientConnector struct{}

func (clientConnector) GetName() string {
	return "tcp"
}

func (clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, dialTimeout)
}

func (clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return upgradeTCPConn(conn, config.Transport.TCPConf, config.Transport.SocketConf)
}

type serverConnector struct{}

func (serverConnector) GetName() string {
	return "tcp"
}

func (serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	l, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", config.Transport.Endpoint, err)
	}
	return l, nil
}

func (serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	return upgradeTCPConn(conn, config.Transport.TCPConf, config.Transport.SocketConf)
}
