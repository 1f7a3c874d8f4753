package util

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/bayes"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/client"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/serializer"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/http"
	"github.com/ValentinKolb/dInfer/rpc/transport/tcp"
	"github.com/ValentinKolb/dInfer/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
)

const (
	// Wrap is the width of the flag help texts
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. DINFER_NAMESPACE)
	EnvPrefix = "dinfer"
)

// WrapString breaks text into lines of at most Wrap characters. Words longer
// than Wrap get a line of their own.
func WrapString(text string) string {
	var sb strings.Builder
	width := 0
	for _, word := range strings.Fields(text) {
		switch {
		case width == 0:
		case width+1+len(word) > Wrap:
			sb.WriteByte('\n')
			width = 0
		default:
			sb.WriteByte(' ')
			width++
		}
		sb.WriteString(word)
		width += len(word)
	}
	return sb.String()
}

// InitConfig loads .env and .env.local and lets DINFER_* environment variables
// override every flag (dashes become underscores)
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// RPC Client
// --------------------------------------------------------------------------

// SetupRPCClientFlags adds the flags of the connection to a dInfer server
func SetupRPCClientFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()

	f.Int("shard", 100, WrapString("ID of the shard holding the classifier"))
	f.Int("timeout", 10, WrapString("Timeout of a single request in seconds"))
	f.String("log-level", "warn", WrapString("Log level of the client (debug, info, warn, error), logs are written to stderr"))

	f.String("transport-endpoints", "localhost:8080", WrapString("Comma separated server addresses, requests are balanced over all of them"))
	f.Int("transport-conn-per-endpoint", 1, WrapString("Connections per endpoint (tcp, unix)"))
	f.Int("transport-retries", 3, WrapString("Attempts per request before giving up"))
	f.Int("transport-write-buffer", 512, WrapString("Socket write buffer in KB (tcp, unix)"))
	f.Int("transport-read-buffer", 512, WrapString("Socket read buffer in KB (tcp, unix)"))
	f.Bool("transport-tcp-nodelay", true, WrapString("Set TCP_NODELAY (tcp)"))
	f.Int("transport-tcp-keepalive", 0, WrapString("Keepalive idle time in seconds, 0 keeps the OS default (tcp)"))
	f.Int("transport-tcp-linger", -1, WrapString("SO_LINGER in seconds, -1 keeps the OS default (tcp)"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		TimeoutSecond: viper.GetInt("timeout"),
		Transport: common.ClientTransportConfig{
			RetryCount:             viper.GetInt("transport-retries"),
			Endpoints:              strings.Split(viper.GetString("transport-endpoints"), ","),
			ConnectionsPerEndpoint: viper.GetInt("transport-conn-per-endpoint"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	return conf
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates transport based on configuration
func GetTransport() (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "http":
		return http.NewHttpClientTransport(), nil
	case "tcp":
		return tcp.NewTCPClientTransport(), nil
	case "unix":
		return unix.NewUnixClientTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// NewStore connects to the configured shard of a dInfer server
func NewStore() (store.IStore, error) {
	level := viper.GetString("log-level")
	if !common.ValidLogLevel(level) {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	common.InitLoggers(level)

	s, err := GetSerializer()
	if err != nil {
		return nil, err
	}

	t, err := GetTransport()
	if err != nil {
		return nil, err
	}

	return client.NewRPCStore(GetShardID(), *GetClientConfig(), t, s)
}

// --------------------------------------------------------------------------
// Classifier
// --------------------------------------------------------------------------

// SetupClassifierFlags adds the flags selecting and configuring the classifier
func SetupClassifierFlags(cmd *cobra.Command) {
	key := "namespace"
	cmd.PersistentFlags().String(key, "", WrapString("Namespace of the classifier, classifiers in different namespaces share a store without interfering"))

	key = "manual-save"
	cmd.PersistentFlags().Bool(key, false, WrapString("Do not save the store after every change (use 'category save' to create a persistence point)"))

	key = "mode"
	cmd.PersistentFlags().String(key, "standard", WrapString("Training mode (standard, complementary). Complementary training updates every other category and classifies by the lowest score"))

	key = "smoothing"
	cmd.PersistentFlags().Float64(key, bayes.DefaultSmoothing, WrapString("Value used in place of the score of a word the category has never seen"))
}

// GetBayesConfig reads the classifier configuration from viper
func GetBayesConfig() (bayes.Config, error) {
	mode, err := bayes.ParseTrainingMode(strings.ToLower(strings.TrimSpace(viper.GetString("mode"))))
	if err != nil {
		return bayes.Config{}, err
	}
	return bayes.Config{
		Namespace:  viper.GetString("namespace"),
		ManualSave: viper.GetBool("manual-save"),
		Mode:       mode,
	}, nil
}

// GetCategories connects to the server and opens the configured categories
func GetCategories() (*bayes.Categories, error) {
	cfg, err := GetBayesConfig()
	if err != nil {
		return nil, err
	}

	s, err := NewStore()
	if err != nil {
		return nil, err
	}

	return bayes.NewCategories(s, cfg), nil
}

// GetClassifier creates a classifier on top of the categories using the configured smoothing
func GetClassifier(categories *bayes.Categories) (*bayes.Classifier, error) {
	smoothing := viper.GetFloat64("smoothing")
	if smoothing <= 0 {
		return nil, fmt.Errorf("smoothing must be positive, got %v", smoothing)
	}
	return bayes.NewClassifier(categories, bayes.WithSmoothing(smoothing)), nil
}
