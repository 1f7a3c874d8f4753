package client

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/serializer"
	"github.com/ValentinKolb/dInfer/rpc/transport"
)

// NewRPCStore connects the transport and returns a store.IStore that executes
// every batch on shard shardId of the server
func NewRPCStore(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (store.IStore, error) {

	if err := transport.Connect(config); err != nil {
		return nil, err
	}

	return &rpcStore{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}, nil
}

type rpcStore struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store.IStore)
// --------------------------------------------------------------------------

// Exec sends the whole batch in one request. The results are checked again on the
// client so that failed commands surface with their store error code.
func (i *rpcStore) Exec(batch *store.Batch) ([]db.Result, error) {
	cmds := batch.Commands()
	req := common.NewExecRequest(db.EncodeCommands(cmds))
	resp, err := i.call(req)
	if err != nil {
		return nil, err
	}
	if !resp.Ok {
		return nil, store.NewError(store.RetCInternalError, "exec response without results")
	}

	results, err := db.DecodeResults(resp.Batch)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("failed to decode results: %s", err))
	}
	return results, store.CheckResults(cmds, results)
}

func (i *rpcStore) Save() error {
	_, err := i.call(common.NewSaveRequest())
	return err
}

func (i *rpcStore) GetDBInfo() (info db.DatabaseInfo, err error) {
	resp, err := i.call(common.NewInfoRequest())
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	if err := json.Unmarshal(resp.Meta, &info); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("invalid info response: %w", err)
	}
	return info, nil
}
