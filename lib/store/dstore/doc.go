// Package dstore replicates the counter store with the dragonboat raft library.
// NewDistributedStore returns a store.IStore whose batches are linearizable across
// all replicas of a shard, so several dInfer servers can train and classify on the
// same categories.
//
// Writes: a batch containing at least one write command is encoded with
// db.EncodeCommands and proposed with SyncPropose. Once the entry is committed every
// replica applies the whole batch atomically to its db.KVDB, with the raft log index
// as write index. The encoded results travel back in the raft result. A batch the
// replica cannot apply at all (broken encoding, unsupported command) is answered
// with its store.RetCode instead.
//
// Reads: read-only batches (see store.Batch.ReadOnly) are executed by SyncRead on the
// local replica after the read index is confirmed and never enter the log. GetDBInfo
// uses a StaleRead.
//
// Save requests a raft snapshot. Snapshots are written with db.KVDB.Save and
// restored with db.KVDB.Load when a replica restarts or falls behind. Besides
// explicit requests dragonboat snapshots every SnapshotEntries entries.
//
// Requests rejected with ErrSystemBusy are retried a few times with growing
// pauses. Every request is bounded by the timeout passed to NewDistributedStore.
//
// Setup:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//	...
//	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }
//	err = nh.StartConcurrentReplica(members, false, dstore.NewStateMachineFactory(dbFactory), shardConfig)
//	...
//	s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//	categories := bayes.NewCategories(s, bayes.Config{})
//
// The server package does all of this for shards of type dstore. A cluster needs a
// majority of its replicas to make progress, use an odd number of replicas.
package dstore
