package common

import (
	"fmt"
	"github.com/lni/dragonboat/v4/config"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
)

// --------------------------------------------------------------------------
// Shards
// --------------------------------------------------------------------------

type ServerShardType string

const (
	ShardTypeLocalIStore  ServerShardType = "lstore"
	ShardTypeRemoteIStore ServerShardType = "dstore"
)

// ParseShardType converts the name used on the command line into a ServerShardType
func ParseShardType(s string) (ServerShardType, error) {
	switch ServerShardType(strings.ToLower(strings.TrimSpace(s))) {
	case ShardTypeLocalIStore:
		return ShardTypeLocalIStore, nil
	case ShardTypeRemoteIStore:
		return ShardTypeRemoteIStore, nil
	default:
		return "", fmt.Errorf("invalid shard type %q (expected lstore or dstore)", s)
	}
}

type ServerShard struct {
	ShardID uint64
	Type    ServerShardType
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// ServerConfig holds all parameters of an RPC server and, for dstore shards, of
// its raft replica
type ServerConfig struct {
	// Shards served by this server, local and replicated shards can be mixed
	Shards []ServerShard

	// TimeoutSecond bounds raft requests and transport reads and writes
	TimeoutSecond int64

	// SnapshotDir is the directory of the snapshot files of local shards ("" = no persistence)
	SnapshotDir string

	// raft
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string // replica id -> raft address

	Transport ServerTransportConfig

	LogLevel string
}

// Election and heartbeat timeouts in multiples of RTTMillisecond
const (
	electionRTT  = 10
	heartbeatRTT = 1
)

// ToDragonboatConfig returns the replica configuration of a dstore shard
func (c *ServerConfig) ToDragonboatConfig(shardId uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardId,
		ElectionRTT:        electionRTT,
		HeartbeatRTT:       heartbeatRTT,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
	}
}

// ToNodeHostConfig returns the node host configuration shared by all dstore shards
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         filepath.Join(c.DataDir, "wal"),
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// HasRemoteShard reports whether a raft node host is needed
func (c *ServerConfig) HasRemoteShard() bool {
	return slices.ContainsFunc(c.Shards, func(s ServerShard) bool {
		return s.Type == ShardTypeRemoteIStore
	})
}

// SnapshotPath returns the snapshot file of a local shard ("" if local shards are not persisted)
func (c *ServerConfig) SnapshotPath(shardID uint64) string {
	if c.SnapshotDir == "" {
		return ""
	}
	return filepath.Join(c.SnapshotDir, fmt.Sprintf("shard-%d.snapshot", shardID))
}

// String renders the configuration for the startup log
func (c *ServerConfig) String() string {
	r := newReport()

	r.section("server")
	r.field("endpoint", c.Transport.Endpoint)
	r.field("timeout", fmt.Sprintf("%ds", c.TimeoutSecond))
	r.field("workers per conn", strconv.Itoa(c.Transport.WorkersPerConn))
	r.field("tcp no delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	r.field("log level", c.LogLevel)
	if c.SnapshotDir != "" {
		r.field("snapshot dir", c.SnapshotDir)
	}

	r.section("shards")
	for _, shard := range c.Shards {
		r.field(strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	if c.HasRemoteShard() {
		r.section("raft")
		r.field("replica", strconv.FormatUint(c.ReplicaID, 10))
		r.field("address", c.ClusterMembers[c.ReplicaID])
		r.field("data dir", c.DataDir)
		r.field("rtt", fmt.Sprintf("%dms", c.RTTMillisecond))
		r.field("election timeout", fmt.Sprintf("%dms", c.RTTMillisecond*electionRTT))
		r.field("heartbeat", fmt.Sprintf("%dms", c.RTTMillisecond*heartbeatRTT))
		r.field("snapshot entries", strconv.FormatUint(c.SnapshotEntries, 10))
		r.field("compaction overhead", strconv.FormatUint(c.CompactionOverhead, 10))

		r.section("cluster")
		ids := make([]uint64, 0, len(c.ClusterMembers))
		for id := range c.ClusterMembers {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			r.field(strconv.FormatUint(id, 10), c.ClusterMembers[id])
		}
	}
	return r.String()
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

type ClientConfig struct {
	TimeoutSecond int
	Transport     ClientTransportConfig
}

// String renders the configuration as printed by the perf command
func (c *ClientConfig) String() string {
	r := newReport()

	r.section("client")
	r.field("timeout", fmt.Sprintf("%ds", c.TimeoutSecond))
	r.field("retries", strconv.Itoa(c.Transport.RetryCount))
	r.field("conns per endpoint", strconv.Itoa(max(1, c.Transport.ConnectionsPerEndpoint)))

	r.section("endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		r.field(strconv.Itoa(i), endpoint)
	}
	return r.String()
}

// report formats sections of aligned name/value pairs
type report struct {
	sb strings.Builder
	tw *tabwriter.Writer
}

func newReport() *report {
	r := &report{}
	r.tw = tabwriter.NewWriter(&r.sb, 0, 4, 2, ' ', 0)
	return r
}

func (r *report) section(title string) {
	r.tw.Flush()
	fmt.Fprintf(&r.sb, "\n%s\n", strings.ToUpper(title))
}

func (r *report) field(name, value string) {
	fmt.Fprintf(r.tw, "  %s\t%s\n", name, value)
}

func (r *report) String() string {
	r.tw.Flush()
	return r.sb.String()
}

// --------------------------------------------------------------------------
// Transport
// --------------------------------------------------------------------------

// TCPConf holds the options applied to every TCP connection (ignored by other transports)
type TCPConf struct {
	TCPNoDelay      bool // disable Nagle's algorithm
	TCPKeepAliveSec int  // keep alive idle time, 0 = disabled
	TCPLingerSec    int  // linger timeout, < 0 = OS default
}

// SocketConf holds the socket buffer sizes (0 = OS default)
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// ServerTransportConfig configures the server side of a transport
type ServerTransportConfig struct {
	// Endpoint is the listen address (host:port for tcp and http, a socket path for unix)
	Endpoint string
	// WorkersPerConn limits the requests processed in parallel per connection
	WorkersPerConn int
	TCPConf
	SocketConf
}

// ClientTransportConfig configures the client side of a transport
type ClientTransportConfig struct {
	// Endpoints of the servers, requests are distributed round-robin
	Endpoints []string
	// RetryCount is the number of attempts per request (at least one)
	RetryCount             int
	ConnectionsPerEndpoint int
	TCPConf
	SocketConf
}
