package server

import (
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/serializer"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"strings"
	"testing"
)

// stubTransport records the handler instead of listening
type stubTransport struct {
	handler transport.ServerHandleFunc
	closed  bool
}

func (s *stubTransport) RegisterHandler(h transport.ServerHandleFunc) { s.handler = h }
func (s *stubTransport) Listen(common.ServerConfig) error             { return nil }
func (s *stubTransport) Close() error                                 { s.closed = true; return nil }

func newTestServer(t *testing.T, snapshotDir string) (*RPCServer, *stubTransport) {
	t.Helper()
	st := &stubTransport{}
	s := NewRPCServer(common.ServerConfig{
		Shards:      []common.ServerShard{{ShardID: 100, Type: common.ShardTypeLocalIStore}},
		SnapshotDir: snapshotDir,
		LogLevel:    "error",
	}, st, serializer.NewBinarySerializer())
	if err := s.Serve(); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	return s, st
}

func call(t *testing.T, st *stubTransport, shardID uint64, req *common.Message) *common.Message {
	t.Helper()
	ser := serializer.NewBinarySerializer()
	data, err := ser.Serialize(*req)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	var resp common.Message
	if err := ser.Deserialize(st.handler(shardID, data), &resp); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	return &resp
}

func TestHandle(t *testing.T) {
	s, st := newTestServer(t, "")
	defer s.Close()

	exec := common.NewExecRequest(db.EncodeCommands(store.NewBatch().HIncrBy("h", "a", 2).HGet("h", "a").Commands()))

	t.Run("Exec", func(t *testing.T) {
		resp := call(t, st, 100, exec)
		if err := resp.Error(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		results, err := db.DecodeResults(resp.Batch)
		if err != nil {
			t.Fatalf("DecodeResults failed: %v", err)
		}
		if len(results) != 2 || results[1].Int != 2 || !results[1].Ok {
			t.Errorf("unexpected results %+v", results)
		}
	})

	t.Run("UnknownShard", func(t *testing.T) {
		resp := call(t, st, 101, exec)
		if resp.MsgType != common.MsgTError || !strings.Contains(resp.Err, "shard 101 not found") {
			t.Errorf("expected shard not found error, got %+v", resp)
		}
	})

	t.Run("MalformedRequest", func(t *testing.T) {
		var resp common.Message
		ser := serializer.NewBinarySerializer()
		if err := ser.Deserialize(st.handler(100, []byte{0xff}), &resp); err != nil {
			t.Fatalf("Deserialize failed: %v", err)
		}
		if resp.Error() == nil {
			t.Errorf("expected error for malformed request")
		}
	})

	t.Run("Info", func(t *testing.T) {
		resp := call(t, st, 100, common.NewInfoRequest())
		if err := resp.Error(); err != nil || len(resp.Meta) == 0 {
			t.Errorf("unexpected info response %+v", resp)
		}
	})
}

func TestInvalidShardConfig(t *testing.T) {
	tests := []struct {
		name   string
		config common.ServerConfig
	}{
		{"InvalidType", common.ServerConfig{Shards: []common.ServerShard{{ShardID: 1, Type: "other"}}}},
		{"InvalidLogLevel", common.ServerConfig{LogLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRPCServer(tt.config, &stubTransport{}, serializer.NewBinarySerializer())
			if err := s.Serve(); err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestCloseSavesLocalShards(t *testing.T) {
	dir := t.TempDir()
	s, st := newTestServer(t, dir)
	call(t, st, 100, common.NewExecRequest(db.EncodeCommands(store.NewBatch().ZIncrBy("z", "m", 5).Commands())))

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !st.closed {
		t.Errorf("transport was not closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	s, st = newTestServer(t, dir)
	defer s.Close()
	resp := call(t, st, 100, common.NewExecRequest(db.EncodeCommands(store.NewBatch().ZScore("z", "m").Commands())))
	results, err := db.DecodeResults(resp.Batch)
	if err != nil {
		t.Fatalf("DecodeResults failed: %v", err)
	}
	if len(results) != 1 || results[0].Int != 5 {
		t.Errorf("restored score = %+v, want 5", results)
	}
}
