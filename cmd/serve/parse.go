package serve

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db/util"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"strconv"
	"strings"
)

// parseShards parses "100=lstore,200=dstore"
func parseShards(spec string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	seen := make(map[uint64]bool)

	for _, item := range strings.Split(spec, ",") {
		id, kind, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			return nil, fmt.Errorf("invalid shard %q (expected ID=TYPE)", item)
		}

		shardID, err := strconv.ParseUint(strings.TrimSpace(id), 10, 64)
		if err != nil || shardID == 0 {
			return nil, fmt.Errorf("invalid shard id %q", id)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("shard %d is listed twice", shardID)
		}
		seen[shardID] = true

		shardType, err := common.ParseShardType(strings.TrimSpace(kind))
		if err != nil {
			return nil, err
		}
		shards = append(shards, common.ServerShard{ShardID: shardID, Type: shardType})
	}
	return shards, nil
}

// parseCluster resolves the replica name and the "name=address" member list to raft node ids.
// The replica itself must be one of the members.
func parseCluster(replica, members string) (uint64, map[uint64]string, error) {
	if replica == "" {
		return 0, nil, fmt.Errorf("--replica-id is required for dstore shards")
	}
	if members == "" {
		return 0, nil, fmt.Errorf("--cluster-members is required for dstore shards")
	}

	cluster := make(map[uint64]string)
	for _, member := range strings.Split(members, ",") {
		name, addr, ok := strings.Cut(strings.TrimSpace(member), "=")
		if !ok || name == "" || addr == "" {
			return 0, nil, fmt.Errorf("invalid cluster member %q (expected NAME=ADDRESS)", member)
		}
		cluster[util.NodeID(name)] = addr
	}

	replicaID := util.NodeID(replica)
	if _, ok := cluster[replicaID]; !ok {
		return 0, nil, fmt.Errorf("replica %s is not one of the cluster members", replica)
	}
	return replicaID, cluster, nil
}
