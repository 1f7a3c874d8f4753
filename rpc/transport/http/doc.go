// Package http implements the RPC transport over plain HTTP/1.1.
//
// Every request is a POST to /{shardId} with the serialized message as body, the
// response body is the serialized answer. Status codes other than 200 are only
// used for transport errors (unknown route, malformed shard id, oversized body).
// Store errors travel inside the message.
//
// The client rotates over all endpoints and moves on to the next endpoint when an
// attempt fails. Endpoints without a scheme default to http://.
//
// The server also answers GET /metrics with all metrics of the process (classifier,
// store and transport) in the Prometheus text format. With log level debug every
// request is logged with its status and duration.
package http
