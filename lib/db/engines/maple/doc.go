// Package maple implements an in-memory counter database (KVDB) with sharded
// data and atomic batches. It provides a complete implementation of the db.KVDB
// interface and is the storage engine behind every classifier store.
//
// Key Components:
//
//   - mapleImpl: The central database structure implementing db.KVDB. It manages the shards
//     and executes command batches. The mapleImpl structure does not manage the write index
//     itself, but rather delegates this responsibility to the caller (e.g. the raft log index
//     or a local counter).
//
//   - Shard: A partition of the database that manages a subset of the key space.
//     Each shard owns a map from key to entry and a read-write lock.
//
//   - Entry: A hash (fields in insertion order) or a sorted counter collection. Sorted
//     counters are stored as a plain map and ordered on read, which keeps increments cheap.
//
// Internal Mechanisms:
//
//   - Sharding Strategy: Keys are distributed across shards in a two-step process:
//     1. String keys are converted to 64-bit integers using util.Hash64
//     with a database-specific seed
//     2. The integer key is right-shifted by 7 bits to use higher-quality bits for
//     distribution
//
//   - Atomic Batches: Before a batch is executed, all shards touched by the batch are
//     locked in ascending order (read locks for read-only batches). A batch therefore
//     never observes a partially applied concurrent batch, and the fixed lock order
//     prevents deadlocks between overlapping batches.
//
//   - Empty Containers: Hashes and sorted counters without fields/members are removed.
//
//   - Persistence Format: The database uses a compact binary format with the
//     following structure:
//     1. Magic number "MAPLEDB\x00" to identify the file format
//     2. Version number (currently 4)
//     3. Database seed value and current write index
//     4. Number of entries
//     5. For each entry: key, type, index, number of pairs and every pair as member and score
//     The snapshot is taken under read locks of all shards and represents a consistent cut.
//     Load reads the whole snapshot before replacing the data, a broken snapshot leaves
//     the database unchanged.
package maple
