// Package transport defines how the RPC layer moves opaque request and response
// bytes between a dInfer client and server. Serialization is not part of a
// transport, see package serializer.
//
// A request is always addressed to a shard id. The server side hands the shard id
// and the request bytes to the registered ServerHandleFunc and sends its result back
// unchanged. The client side returns the response bytes or an error if no response
// could be obtained after the configured number of retries.
//
// Implementations live in the sub packages: http, tcp and unix. The tcp and unix
// transports share the framed protocol of package base.
package transport
