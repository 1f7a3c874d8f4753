package unix

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/base"
	"io/fs"
	"net"
	"os"
)

const defaultBufferSize = 64 * 1024

// NewUnixClientTransport creates a client transport dialing Unix sockets
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(clientConnector{})
}

// NewUnixDefaultServerTransport creates a server transport with 64 KB read buffers
func NewUnixDefaultServerTransport() transport.IRPCServerTransport {
	return NewUnixServerTransport(defaultBufferSize)
}

// NewUnixServerTransport creates a server transport with read buffers of bufferSize bytes
func NewUnixServerTransport(bufferSize int) transport.IRPCServerTransport {
	return base.NewBaseServerTransport(serverConnector{}, bufferSize)
}

type clientConnector struct{}

func (clientConnector) GetName() string {
	return "unix"
}

func (clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}

func (clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return applySocketConf(conn, config.Transport.SocketConf)
}

type serverConnector struct{}

func (serverConnector) GetName() string {
	return "unix"
}

func (serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	path := config.Transport.Endpoint

	// a stale socket of a previous run blocks the listener, other files are left alone
	if fi, err := os.Lstat(path); err == nil {
		if fi.Mode().Type() != fs.ModeSocket {
			return nil, fmt.Errorf("%s exists and is not a socket", path)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	return l, nil
}

func (serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	return applySocketConf(conn, config.Transport.SocketConf)
}

func applySocketConf(conn net.Conn, conf common.SocketConf) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	if conf.WriteBufferSize > 0 {
		if err := uc.SetWriteBuffer(conf.WriteBufferSize); err != nil {
			return err
		}
	}
	if conf.ReadBufferSize > 0 {
		if err := uc.SetReadBuffer(conf.ReadBufferSize); err != nil {
			return err
		}
	}
	return nil
}
