// Package lstore implements a local, in-memory, single-node counter store based on the
// store.IStore interface. It provides a thin wrapper around any db.KVDB
// implementation with automatic write index management.
//
// Key Features:
//   - In-memory storage with an optional snapshot file
//   - Direct integration with db.KVDB implementations
//   - Automatic write index progression using atomic operations
//   - Feature detection to handle unsupported commands gracefully
//
// Implementation Details:
//
//   - Write Index Management: The store maintains an atomic counter that increments with
//     each batch that modifies the database. Read-only batches use the current index.
//
//   - Feature Detection: Before executing a batch, the store checks if the underlying
//     db.KVDB implementation supports every command of the batch. Unsupported commands
//     reject the whole batch before anything is applied.
//
//   - Persistence: A store created with NewPersistentLocalStore restores the database from
//     the snapshot file on start and writes a new snapshot on every Save. The snapshot is
//     written to a temporary file and renamed, a crash during Save keeps the previous snapshot.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	s := lstore.NewLocalStore(factory)
//
//	results, err := s.Exec(store.NewBatch().
//		ZIncrBy("inferx:red", "apple", 1).
//		HIncrBy("inferx:categories", "red", 1))
//
// For distributed scenarios requiring consensus across multiple nodes, consider
// using the dstore package instead, which provides a RAFT-based implementation
// of the same interface with strong consistency guarantees.
package lstore
