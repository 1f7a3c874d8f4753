// Package common provides core data structures and utilities shared by the
// RPC server, the RPC client and the command line tools.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. An Exec request
//     carries a binary encoded command batch (db.EncodeCommands), the response
//     the encoded results (db.EncodeResults). Store errors keep their
//     store.RetCode across the wire.
//
//   - MessageType: Enumeration of all supported operations (exec, save, info)
//     and the control messages (success, error).
//
//   - ServerConfig: Configuration of a server node, including the shards it
//     serves (lstore or dstore), RAFT parameters and the snapshot directory
//     of local shards. Provides conversions to Dragonboat configurations.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
