// Package server implements the RPC server of the counter store.
// It routes requests per shard to an adapter that executes them against a store.IStore.
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a store.IStore.
//
//   - NewIStoreServerAdapter: Adapter that decodes command batches (db.DecodeCommands),
//     executes them atomically and encodes the results (db.EncodeResults).
//     Save and Info requests are forwarded to the store as well.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Shards: []common.ServerShard{
//	    {ShardID: 100, Type: common.ShardTypeLocalIStore},
//	  },
//	  SnapshotDir:   "/var/lib/dinfer",
//	  TimeoutSecond: 5,
//	  LogLevel:      "info",
//	  Transport:     common.ServerTransportConfig{Endpoint: "0.0.0.0:8080"},
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPDefaultServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// The server supports two types of shards, which can be mixed within a single server:
//
//   - ShardTypeLocalIStore: A store living in this process. If a SnapshotDir is configured
//     the shard is restored from and saved to <SnapshotDir>/shard-<id>.snapshot.
//
//   - ShardTypeRemoteIStore: A distributed store using Raft consensus. The raft settings
//     (RTTMillisecond, SnapshotEntries, CompactionOverhead, DataDir, ReplicaID and
//     ClusterMembers) must be configured.
//
// Thread Safety:
//
//	The server handles concurrent requests across multiple connections.
//	Serve should be called only once.
package server
