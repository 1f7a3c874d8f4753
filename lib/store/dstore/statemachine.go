package dstore

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/lib/store/dstore/internal"
	"github.com/VictoriaMetrics/metrics"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"io"
	"time"
)

var (
	appliedBatches = metrics.NewCounter(`dinfer_raft_applied_batches_total`)
	rejectedBatch  = metrics.NewCounter(`dinfer_raft_rejected_batches_total`)
	updateDuration = metrics.NewHistogram(`dinfer_raft_update_duration_seconds`)
)

// slowUpdate is the duration above which an Update call is logged
const slowUpdate = 10 * time.Millisecond

// counterStateMachine replicates a db.KVDB. Every raft entry carries one command
// batch which is applied atomically with the raft index as write index.
type counterStateMachine struct {
	shardID   uint64
	replicaID uint64
	database  db.KVDB
}

// NewStateMachineFactory returns the factory passed to NodeHost.StartConcurrentReplica.
// Each replica gets its own database from dbFactory.
func NewStateMachineFactory(dbFactory store.DBFactory) sm.CreateConcurrentStateMachineFunc {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &counterStateMachine{
			shardID:   shardID,
			replicaID: replicaID,
			database:  dbFactory(),
		}
	}
}

// unsupported returns an error for the first command the database cannot execute
func (fsm *counterStateMachine) unsupported(cmds []db.Command) *store.Error {
	for _, cmd := range cmds {
		feat, err := cmd.Type.ToDBFeature()
		if err != nil {
			return store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown command %s", cmd.Type))
		}
		if !fsm.database.SupportsFeature(feat) {
			return store.NewError(store.RetCUnsupportedOperation, fmt.Sprintf("%s is not supported by %s", cmd.Type, fsm.database.GetInfo().DbType))
		}
	}
	return nil
}

// Update applies committed write batches. A batch that cannot be applied at all is
// answered with its RetCode as result value and the message as data; otherwise the
// value is RetCSuccess and the data holds the encoded per command results.
func (fsm *counterStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {
	start := time.Now()

	for i := range entries {
		entries[i].Result = fsm.apply(entries[i])
	}

	updateDuration.UpdateDuration(start)
	if elapsed := time.Since(start); elapsed > slowUpdate {
		log.Infof("Shard %d: applying %d entries took %s", fsm.shardID, len(entries), elapsed)
	}
	return entries, nil
}

func (fsm *counterStateMachine) apply(e sm.Entry) sm.Result {
	reject := func(code store.RetCode, msg string) sm.Result {
		rejectedBatch.Inc()
		return sm.Result{Value: uint64(code), Data: []byte(msg)}
	}

	if len(e.Cmd) == 0 {
		return reject(store.RetCInvalidOperation, "empty entry")
	}
	cmds, err := db.DecodeCommands(e.Cmd)
	if err != nil {
		return reject(store.RetCInternalError, fmt.Sprintf("failed to decode batch: %v", err))
	}
	if storeErr := fsm.unsupported(cmds); storeErr != nil {
		return reject(storeErr.Code, storeErr.Msg)
	}

	appliedBatches.Inc()
	return sm.Result{
		Value: uint64(store.RetCSuccess),
		Data:  db.EncodeResults(fsm.database.Apply(cmds, e.Index)),
	}
}

// Lookup answers read-only batches and info queries without going through the raft log
func (fsm *counterStateMachine) Lookup(query interface{}) (interface{}, error) {
	q, ok := query.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid query type %T", query))
	}

	switch q.Type {
	case internal.QueryTExec:
		if !db.IsReadOnly(q.Commands) {
			return nil, store.NewError(store.RetCInvalidOperation, "write commands are not allowed in a read query")
		}
		if err := fsm.unsupported(q.Commands); err != nil {
			return nil, err
		}
		return internal.QueryResult{
			Results: fsm.database.Apply(q.Commands, fsm.database.WriteIdx()),
		}, nil
	case internal.QueryTGetDBInfo:
		return fsm.database.GetInfo(), nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown query %s", q.Type))
	}
}

// PrepareSnapshot returns nothing, the database takes a consistent snapshot in SaveSnapshot
func (fsm *counterStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

func (fsm *counterStateMachine) SaveSnapshot(_ interface{}, w io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureSave) {
		return fmt.Errorf("%s does not support snapshots", fsm.database.GetInfo().DbType)
	}
	return fsm.database.Save(w)
}

func (fsm *counterStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(db.FeatureLoad) {
		return fmt.Errorf("%s does not support snapshots", fsm.database.GetInfo().DbType)
	}
	return fsm.database.Load(r)
}

func (fsm *counterStateMachine) Close() error {
	return fsm.database.Close()
}
