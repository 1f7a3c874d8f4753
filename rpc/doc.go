// Package rpc provides the remote procedure call layer of dInfer.
// It lets the classifier run against a counter store living in another process
// (or replicated across a raft cluster) through the same store.IStore interface.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB)
//     for converting between Message objects and byte arrays.
//
//   - client: RPC client implementing store.IStore, every command batch is sent
//     as a single request.
//
//   - server: RPC server that executes incoming batches against local or raft backed shards.
package rpc
