package serve

import (
	"fmt"
	cmdUtil "github.com/ValentinKolb/dInfer/cmd/util"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/server"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/http"
	"github.com/ValentinKolb/dInfer/rpc/transport/tcp"
	"github.com/ValentinKolb/dInfer/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the dInfer server",
		Long: `Start a dInfer server holding one or more store shards. Classifier commands of
other dInfer processes connect to it with --shard and --transport-endpoints.

Every flag can also be set as environment variable DINFER_<FLAG> (e.g.
DINFER_SNAPSHOT_DIR=/var/lib/dinfer) or in a .env file.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	flags := ServeCmd.PersistentFlags()

	// shards
	flags.String("shards", "100=lstore", cmdUtil.WrapString("Comma separated shards to serve as ID=TYPE, TYPE is lstore (in process) or dstore (raft replicated)"))
	flags.String("snapshot-dir", "", cmdUtil.WrapString("Directory for the snapshot files of lstore shards. They are restored on start and written on save and on shutdown. Empty keeps lstore shards in memory only"))
	flags.Int64("timeout", 5, cmdUtil.WrapString("Timeout of store and transport operations in seconds"))

	// raft
	flags.String("replica-id", "", cmdUtil.WrapString("Name of this replica (e.g. node-1), required for dstore shards"))
	flags.String("cluster-members", "", cmdUtil.WrapString("Initial members of the raft cluster as NAME=RAFT_ADDRESS pairs (e.g. node-1=localhost:63001,node-2=localhost:63002)"))
	flags.String("data-dir", "data", cmdUtil.WrapString("Directory of the raft log and snapshots"))
	flags.Int("rtt-millisecond", 100, cmdUtil.WrapString("Average round trip time between replicas in milliseconds. Election and heartbeat timeouts are derived from it"))
	flags.Int("snapshot-entries", 10, cmdUtil.WrapString("Number of applied entries after which a raft snapshot is taken automatically (0 disables it)"))
	flags.Int("compaction-overhead", 5, cmdUtil.WrapString("Number of entries kept in the log after a snapshot, about half of snapshot-entries works well"))

	// transport
	flags.String("endpoint", "0.0.0.0:8080", cmdUtil.WrapString("Listen address (host:port for http and tcp, a socket path for unix)"))
	flags.Int("workers-per-conn", 16, cmdUtil.WrapString("Requests processed concurrently per connection (ignored for http)"))
	flags.Bool("transport-tcp-nodelay", true, cmdUtil.WrapString("Enable TCP_NODELAY on accepted connections (tcp only)"))
	flags.Int("transport-tcp-keepalive", 0, cmdUtil.WrapString("Keep alive idle time of accepted connections in seconds, 0 disables it (tcp only)"))
	flags.Int("transport-tcp-linger", -1, cmdUtil.WrapString("Linger time of accepted connections in seconds, -1 keeps the OS default (tcp only)"))
	flags.Int("transport-write-buffer", 512, cmdUtil.WrapString("Socket write buffer in KB (ignored for http)"))
	flags.Int("transport-read-buffer", 512, cmdUtil.WrapString("Socket read buffer in KB (ignored for http)"))

	flags.String("log-level", "info", cmdUtil.WrapString("Log level (debug, info, warn, error)"))
}

// processConfig builds the server configuration from flags and environment
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}

	cfg := common.ServerConfig{
		Shards:             shards,
		TimeoutSecond:      viper.GetInt64("timeout"),
		SnapshotDir:        viper.GetString("snapshot-dir"),
		DataDir:            viper.GetString("data-dir"),
		RTTMillisecond:     viper.GetUint64("rtt-millisecond"),
		SnapshotEntries:    viper.GetUint64("snapshot-entries"),
		CompactionOverhead: viper.GetUint64("compaction-overhead"),
		LogLevel:           viper.GetString("log-level"),
		Transport: common.ServerTransportConfig{
			Endpoint:       viper.GetString("endpoint"),
			WorkersPerConn: viper.GetInt("workers-per-conn"),
			TCPConf: common.TCPConf{
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
			},
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
		},
	}

	if !common.ValidLogLevel(cfg.LogLevel) {
		return fmt.Errorf("invalid log level %s (expected debug, info, warn or error)", cfg.LogLevel)
	}

	if cfg.SnapshotDir != "" {
		if err := os.MkdirAll(cfg.SnapshotDir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot dir: %w", err)
		}
	}

	if cfg.HasRemoteShard() {
		if cfg.ReplicaID, cfg.ClusterMembers, err = parseCluster(viper.GetString("replica-id"), viper.GetString("cluster-members")); err != nil {
			return err
		}
	}

	*serveCmdConfig = cfg
	return nil
}

// newServerTransport creates the transport selected with --transport
func newServerTransport(name string) (transport.IRPCServerTransport, error) {
	switch name {
	case "http":
		return http.NewHttpServerTransport(), nil
	case "tcp":
		return tcp.NewTCPDefaultServerTransport(), nil
	case "unix":
		return unix.NewUnixDefaultServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", name)
	}
}

// run serves until SIGINT or SIGTERM, then closes the server which saves the local shards
func run(cmd *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	t, err := newServerTransport(viper.GetString("transport"))
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		if err := serv.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "error closing server: %v\n", err)
		}
	}()

	if err := serv.Serve(); err != nil {
		serv.Close()
		return err
	}
	return nil
}
