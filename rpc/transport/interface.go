package transport

import (
	"github.com/ValentinKolb/dInfer/rpc/common"
)

// ServerHandleFunc answers one request for a shard. The returned bytes are sent back
// to the client unchanged.
type ServerHandleFunc func(shardId uint64, req []byte) (resp []byte)

// IRPCServerTransport receives requests and passes them to the registered handler
type IRPCServerTransport interface {
	// RegisterHandler sets the handler. It must be called before Listen.
	RegisterHandler(handler ServerHandleFunc)
	// Listen serves the configured endpoint. It blocks until Close is called
	// (returns nil) or the listener fails.
	Listen(config common.ServerConfig) error
	// Close stops the transport, Listen returns afterwards
	Close() error
}

// IRPCClientTransport delivers requests to a server. Implementations are safe for
// concurrent use once connected.
type IRPCClientTransport interface {
	// Connect prepares the connections to the configured endpoints
	Connect(config common.ClientConfig) error
	// Send delivers req to the shard and returns the response, retrying as configured
	Send(shardId uint64, req []byte) (resp []byte, err error)
	// Close releases all connections
	Close() error
}
