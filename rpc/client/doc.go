// Package client implements the RPC client of the counter store.
// NewRPCStore returns a store.IStore that forwards every command batch to a
// shard of a remote server, so the bayes package works unchanged on top of it.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:8080"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 1,
//	  },
//	}
//
//	s, err := client.NewRPCStore(100, config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	if err != nil {
//	  return err
//	}
//	categories := bayes.NewCategories(s, bayes.Config{})
//
// Whole batches travel in a single request, which keeps them atomic on the server.
// Failed commands inside a batch come back as a *store.Error with the same code
// a local store would return.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
