// Package db provides a standardized interface for counter database implementations.
// It defines the KVDB interface that the store layer uses to hold the category hash
// and the sorted word counters of the classifier, while abstracting implementation details.
//
// The package focuses on:
//   - A unified, batch oriented interface for hash and sorted counter operations
//   - Feature discovery through capability flags
//   - Standardized persistence operations
//   - A compact binary encoding for command batches and their results
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     All reads and writes go through Apply, which executes a batch of Commands in order
//     and returns one Result per Command. Persistence is provided by Save and Load.
//
//   - Commands: Every key holds either a hash (field -> integer, fields keep their
//     insertion order) or a sorted counter collection (member -> integer score, ordered
//     by score, equal scores ordered by member descending). The available commands are
//     HGet, HSetNX, HIncrBy, HDel, HExists, HKeys, HGetAll, ZIncrBy, ZScore, ZRevRange,
//     ZRevRangeByScore, ZRemRangeByScore and Del. A command against a key holding the
//     other kind of value fails with ErrMsgWrongType in its Result without affecting
//     the rest of the batch.
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method.
//
//   - Codec: EncodeCommands/DecodeCommands and EncodeResults/DecodeResults convert
//     batches into a big endian binary format. The format is used for raft log entries
//     and the binary rpc serializer.
//
// Note on the Write Index:
//   - Every batch carries a write index that serves as a logical timestamp. Batches that
//     modify the database advance the global index, read-only batches leave it unchanged.
//   - Monotonicity Guarantee: All implementations must ensure that the write-index only increases
//     monotonically. Attempts to set a write-index lower than the current one must be ignored.
//
// Related Packages:
//
// The engines/maple package (github.com/ValentinKolb/dInfer/lib/db/engines/maple) provides a
// sharded in-memory implementation of the KVDB interface with atomic batches and binary persistence.
//
// The testing package (github.com/ValentinKolb/dInfer/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
