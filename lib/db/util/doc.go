// Package util holds small helpers shared by the storage engines and the server
// setup: the seeded FNV-1a hash used to pick the shard of a key, the mapping from
// replica names to raft node ids and the shard balance reported by engine info.
package util
