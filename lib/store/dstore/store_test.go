package dstore

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/db/engines/maple"
	"github.com/ValentinKolb/dInfer/lib/store"
	storetesting "github.com/ValentinKolb/dInfer/lib/store/testing"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/config"
	"net"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// freeAddress returns a local address that is not in use
func freeAddress(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

// newSingleNodeHost starts a NodeHost with a single replica per shard
func newSingleNodeHost(t *testing.T) (*dragonboat.NodeHost, string) {
	dir := t.TempDir()
	addr := freeAddress(t)
	nh, err := dragonboat.NewNodeHost(config.NodeHostConfig{
		WALDir:         filepath.Join(dir, "wal"),
		NodeHostDir:    filepath.Join(dir, "nh"),
		RTTMillisecond: 10,
		RaftAddress:    addr,
	})
	if err != nil {
		t.Fatalf("Failed to create node host: %v", err)
	}
	t.Cleanup(nh.Close)
	return nh, addr
}

// waitForLeader blocks until the shard is able to serve requests
func waitForLeader(t *testing.T, s store.IStore) {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Exec(store.NewBatch().HIncrBy("ready", "ready", 1).Del("ready")); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("Shard did not become ready")
}

func TestDistributedStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping raft test in short mode")
	}

	nh, addr := newSingleNodeHost(t)
	dbFactory := func() db.KVDB { return maple.NewMapleDB(nil) }

	var shardID atomic.Uint64
	shardID.Store(100)

	storetesting.RunStoreTests(t, "DistributedStore", func(t *testing.T) store.IStore {
		id := shardID.Add(1)
		err := nh.StartConcurrentReplica(map[uint64]string{1: addr}, false, NewStateMachineFactory(dbFactory), config.Config{
			ReplicaID:          1,
			ShardID:            id,
			ElectionRTT:        10,
			HeartbeatRTT:       1,
			CheckQuorum:        true,
			SnapshotEntries:    100,
			CompactionOverhead: 50,
		})
		if err != nil {
			t.Fatalf("Failed to start shard %d: %v", id, err)
		}

		s := NewDistributedStore(nh, id, 5*time.Second)
		waitForLeader(t, s)
		return s
	})
}
