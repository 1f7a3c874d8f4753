package dstore

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/lib/store/dstore/internal"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
	sm "github.com/lni/dragonboat/v4/statemachine"
	"time"
)

var log = logger.GetLogger("store")

// busyRetries is how often a request is repeated while the node host reports ErrSystemBusy
const busyRetries = 5

// raftStore executes batches on a raft shard of a NodeHost
type raftStore struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	session *client.Session
	timeout time.Duration
}

// NewDistributedStore returns a linearizable store.IStore backed by the raft shard
// shardID of nh. The replica must already be started on nh. Every request is
// bounded by timeout.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IStore {
	return &raftStore{
		nh:      nh,
		shardID: shardID,
		session: nh.GetNoOPSession(shardID),
		timeout: timeout,
	}
}

// whileBusy calls f with a fresh timeout context until it returns something other
// than ErrSystemBusy. Other errors are converted to *store.Error.
func whileBusy[R any](s *raftStore, op string, f func(ctx context.Context) (R, error)) (R, error) {
	var zero R
	for attempt := 1; attempt <= busyRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		res, err := f(ctx)
		cancel()

		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, dragonboat.ErrSystemBusy):
			log.Infof("%s on shard %d: system busy (%d/%d)", op, s.shardID, attempt, busyRetries)
			time.Sleep(time.Duration(attempt) * s.timeout / 10)
		default:
			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return zero, storeErr
			}
			return zero, store.NewError(store.RetCInternalError, fmt.Sprintf("%s: %v", op, err))
		}
	}
	return zero, store.NewError(store.RetCInternalError, fmt.Sprintf("%s: shard %d stayed busy", op, s.shardID))
}

// propose appends the batch to the raft log and returns its results once applied
func (s *raftStore) propose(cmds []db.Command) ([]db.Result, error) {
	data := db.EncodeCommands(cmds)
	res, err := whileBusy(s, "propose", func(ctx context.Context) (sm.Result, error) {
		return s.nh.SyncPropose(ctx, s.session, data)
	})
	if err != nil {
		return nil, err
	}
	if res.Value != uint64(store.RetCSuccess) {
		return nil, store.NewError(store.RetCode(res.Value), string(res.Data))
	}

	results, err := db.DecodeResults(res.Data)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to decode results: %v", err))
	}
	return results, nil
}

// lookup queries the state machine. stale reads skip the read index protocol and
// may miss the latest writes.
func lookup[R any](s *raftStore, q internal.Query, stale bool) (R, error) {
	var zero R
	res, err := whileBusy(s, "read", func(ctx context.Context) (interface{}, error) {
		if stale {
			return s.nh.StaleRead(s.shardID, q)
		}
		return s.nh.SyncRead(ctx, s.shardID, q)
	})
	if err != nil {
		return zero, err
	}

	r, ok := res.(R)
	if !ok {
		return zero, store.NewError(store.RetCInternalError, fmt.Sprintf("unexpected %s result %T", q.Type, res))
	}
	return r, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IStore)
// --------------------------------------------------------------------------

// Exec proposes batches with write commands. Read-only batches are answered by a
// linearizable read and never enter the raft log.
func (s *raftStore) Exec(batch *store.Batch) ([]db.Result, error) {
	cmds := batch.Commands()
	if len(cmds) == 0 {
		return []db.Result{}, nil
	}

	var (
		results []db.Result
		err     error
	)
	if batch.ReadOnly() {
		var qr internal.QueryResult
		qr, err = lookup[internal.QueryResult](s, internal.Query{Type: internal.QueryTExec, Commands: cmds}, false)
		results = qr.Results
	} else {
		results, err = s.propose(cmds)
	}
	if err != nil {
		return nil, err
	}
	return results, store.CheckResults(cmds, results)
}

// Save requests a raft snapshot of the shard.
// A rejected request (no new entries since the last snapshot) is not an error.
func (s *raftStore) Save() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	idx, err := s.nh.SyncRequestSnapshot(ctx, s.shardID, dragonboat.DefaultSnapshotOption)
	switch {
	case errors.Is(err, dragonboat.ErrRejected):
		log.Debugf("Snapshot of shard %d rejected, nothing to save", s.shardID)
		return nil
	case err != nil:
		return store.NewError(store.RetCInternalError, err.Error())
	}

	log.Debugf("Created snapshot of shard %d at index %d", s.shardID, idx)
	return nil
}

// GetDBInfo uses a stale read, the numbers are informational
func (s *raftStore) GetDBInfo() (db.DatabaseInfo, error) {
	return lookup[db.DatabaseInfo](s, internal.Query{Type: internal.QueryTGetDBInfo}, true)
}
