// Package store is the storage contract of the classifier. An IStore executes
// batches of hash and sorted counter commands atomically and returns one db.Result
// per command in submission order. Save marks a persistence point.
//
// Batch builds the command list (HIncrBy, ZIncrBy, ZRevRangeByScore, ...). A batch
// without write commands reports ReadOnly, which lets replicated implementations
// skip the log for it.
//
// Errors are *Error values carrying a RetCode. A batch that executes but contains
// failing commands (e.g. a hash command on a sorted counter key) returns its results
// together with the error of the first failing command, see CheckResults.
//
// Implementations:
//
//   - lstore: a db.KVDB in the current process. Save writes a snapshot file if a
//     path is configured.
//   - dstore: a raft shard replicated with dragonboat. Save requests a raft snapshot.
//   - rpc/client: forwards each batch to a shard of a dInfer server.
//
// The store/testing package holds the conformance tests every implementation runs.
package store
