// Package cmd implements the command-line interface of dInfer.
// It provides a hierarchical command structure for running the server
// and for training and querying a classifier as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring the dInfer server
//   - category: Commands for managing categories (add, remove, list, show, save, info)
//   - classifier: Commands for training and classification (train, untrain, classify, scores, perf)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as an environment variable DINFER_<FLAG>
// (e.g. DINFER_NAMESPACE=mail), .env and .env.local files are loaded on start.
//
// See dinfer -help for a list of all commands.
package cmd
