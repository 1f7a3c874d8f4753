// Package base implements the framed transport shared by the tcp and unix
// transports. Both sides exchange frames of the form
//
//	| shard id (8) | request id (8) | payload length (4) | payload |
//
// where the payload is a serialized common.Message. Payloads are limited to
// MaxFrameSize bytes.
//
// The client keeps ConnectionsPerEndpoint connections to every endpoint and picks
// one round robin per request. Requests are pipelined: any number of them may be in
// flight on one connection and the request id matches a response to its caller.
// When a connection breaks, its waiting requests fail immediately and the
// connection is dialed again in the background with exponential backoff. Send
// retries a failed request on the next connection up to RetryCount times.
//
// The server processes up to WorkersPerConn frames of a connection concurrently,
// so responses may arrive in a different order than the requests were sent. Read
// buffers are pooled. Close stops the listener and closes all open connections.
//
// Both sides export counters (requests, retries, failures, reconnects) and a
// request duration histogram through github.com/VictoriaMetrics/metrics, labelled
// with the name of the connector.
package base
