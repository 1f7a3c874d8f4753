package server

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/db/engines/maple"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/lib/store/dstore"
	"github.com/ValentinKolb/dInfer/lib/store/lstore"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/serializer"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync"
	"time"
)

var Logger = logger.GetLogger("rpc")

var (
	unknownShardRequests = metrics.NewCounter(`dinfer_rpc_unknown_shard_requests_total`)
	malformedRequests    = metrics.NewCounter(`dinfer_rpc_malformed_requests_total`)
)

// serverShard is a store served under a shard id
type serverShard struct {
	store   store.IStore
	adapter IRPCServerAdapter

	// local shards are saved when the server closes, raft shards snapshot themselves
	local bool
}

// RPCServer serves the shards of a ServerConfig over a single transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	shards     *xsync.MapOf[uint64, serverShard]

	mu       sync.Mutex
	nodeHost *dragonboat.NodeHost
	closed   bool
}

// NewRPCServer creates a server for the shards of config. Nothing is opened
// before Serve is called.
//
// Usage:
//
//	s := server.NewRPCServer(
//		config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//
//	if err := s.Serve(); err != nil {
//		log.Fatal(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		shards:     xsync.NewMapOf[uint64, serverShard](),
	}
}

// Serve opens all shards and answers requests until Close is called or the transport fails
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport, saves all local shards and stops the raft node host (if any)
func (s *RPCServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	errs := []error{s.transport.Close()}

	s.shards.Range(func(id uint64, shard serverShard) bool {
		if !shard.local {
			return true
		}
		if err := shard.store.Save(); err != nil {
			errs = append(errs, fmt.Errorf("failed to save shard %d: %w", id, err))
		}
		return true
	})

	if s.nodeHost != nil {
		s.nodeHost.Close()
		s.nodeHost = nil
	}

	Logger.Infof("RPC server closed")
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Setup
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if s.config.LogLevel != "" {
		if !common.ValidLogLevel(s.config.LogLevel) {
			return fmt.Errorf("invalid log level %q", s.config.LogLevel)
		}
		common.InitLoggers(s.config.LogLevel)
	}
	Logger.Infof("Starting dInfer server\n%s", s.config.String())

	// the node host is only needed for raft shards
	if s.config.HasRemoteShard() {
		nh, err := dragonboat.NewNodeHost(s.config.ToNodeHostConfig())
		if err != nil {
			return fmt.Errorf("failed to create node host: %w", err)
		}
		s.mu.Lock()
		s.nodeHost = nh
		s.mu.Unlock()
	}

	for _, sc := range s.config.Shards {
		shard, err := s.openShard(sc)
		if err != nil {
			return err
		}
		s.shards.Store(sc.ShardID, shard)
	}

	s.transport.RegisterHandler(s.handle)
	return nil
}

// openShard creates the store of a configured shard. Local shards are restored
// from their snapshot file if one is configured.
func (s *RPCServer) openShard(sc common.ServerShard) (serverShard, error) {
	newDB := func() db.KVDB { return maple.NewMapleDB(nil) }

	switch sc.Type {
	case common.ShardTypeLocalIStore:
		path := s.config.SnapshotPath(sc.ShardID)
		if path == "" {
			Logger.Infof("Shard %d: in-memory local store", sc.ShardID)
			return serverShard{store: lstore.NewLocalStore(newDB), adapter: NewIStoreServerAdapter(), local: true}, nil
		}
		st, err := lstore.NewPersistentLocalStore(newDB, path)
		if err != nil {
			return serverShard{}, fmt.Errorf("failed to restore shard %d from %s: %w", sc.ShardID, path, err)
		}
		Logger.Infof("Shard %d: local store persisted to %s", sc.ShardID, path)
		return serverShard{store: st, adapter: NewIStoreServerAdapter(), local: true}, nil

	case common.ShardTypeRemoteIStore:
		s.mu.Lock()
		nh := s.nodeHost
		s.mu.Unlock()
		if nh == nil {
			return serverShard{}, fmt.Errorf("shard %d: no node host for raft shard", sc.ShardID)
		}

		err := nh.StartConcurrentReplica(s.config.ClusterMembers, false,
			dstore.NewStateMachineFactory(newDB), s.config.ToDragonboatConfig(sc.ShardID))
		if err != nil {
			return serverShard{}, fmt.Errorf("failed to start raft shard %d: %w", sc.ShardID, err)
		}

		timeout := time.Duration(s.config.TimeoutSecond) * time.Second
		Logger.Infof("Shard %d: raft store with %d members", sc.ShardID, len(s.config.ClusterMembers))
		return serverShard{store: dstore.NewDistributedStore(nh, sc.ShardID, timeout), adapter: NewIStoreServerAdapter()}, nil

	default:
		return serverShard{}, fmt.Errorf("shard %d: invalid shard type %q", sc.ShardID, sc.Type)
	}
}

// --------------------------------------------------------------------------
// Request Handling
// --------------------------------------------------------------------------

// handle answers a single request frame. Every failure is reported to the
// client as an error message.
func (s *RPCServer) handle(shardID uint64, req []byte) []byte {
	var resp *common.Message

	if shard, ok := s.shards.Load(shardID); !ok {
		unknownShardRequests.Inc()
		resp = common.NewErrorResponse(fmt.Sprintf("shard %d not found", shardID))
	} else {
		var msg common.Message
		if err := s.serializer.Deserialize(req, &msg); err != nil {
			malformedRequests.Inc()
			resp = common.NewErrorResponse(fmt.Sprintf("failed to deserialize request: %s", err))
		} else {
			resp = shard.adapter.Handle(&msg, shard.store)
		}
	}

	out, err := s.serializer.Serialize(*resp)
	if err != nil {
		Logger.Errorf("Failed to serialize response for shard %d: %v", shardID, err)
		out, _ = s.serializer.Serialize(*common.NewErrorResponse(fmt.Sprintf("failed to serialize response: %s", err)))
	}
	return out
}
