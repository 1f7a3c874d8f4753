package http

import (
	"errors"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/ValentinKolb/dInfer/rpc/transport/base"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

var Logger = logger.GetLogger("transport/rpc")

var (
	requestsTotal   = metrics.NewCounter(`dinfer_rpc_server_requests_total{transport="http"}`)
	requestDuration = metrics.NewHistogram(`dinfer_rpc_server_request_duration_seconds{transport="http"}`)
)

// NewHttpServerTransport serves requests as POST /{shardId} and the process
// metrics as GET /metrics
func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler transport.ServerHandleFunc

	mu     sync.Mutex
	server *http.Server
}

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	srv := &http.Server{
		Addr:              config.Transport.Endpoint,
		Handler:           t.routes(config.LogLevel == "debug"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	Logger.Infof("Starting HTTP server on %s", config.Transport.Endpoint)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (t *httpServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.server == nil {
		return nil
	}
	return t.server.Close()
}

func (t *httpServerTransport) routes(logRequests bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{shardId}", t.serveShard)
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	if logRequests {
		return logRequestsHandler(mux)
	}
	return mux
}

// serveShard passes the body to the handler of the transport. Protocol errors
// of the handler are part of its response, the status is only set for
// malformed HTTP requests.
func (t *httpServerTransport) serveShard(w http.ResponseWriter, r *http.Request) {
	shardID, err := strconv.ParseUint(r.PathValue("shardId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid shard id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, base.MaxFrameSize))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusRequestEntityTooLarge)
		return
	}

	start := time.Now()
	resp := t.handler(shardID, body)
	requestsTotal.Inc()
	requestDuration.UpdateDuration(start)

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(resp); err != nil {
		Logger.Errorf("Failed to write response for shard %d: %v", shardID, err)
	}
}

// statusRecorder remembers the status written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequestsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
