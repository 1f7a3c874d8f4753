package server

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dInfer/lib/db"
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
)

// NewIStoreServerAdapter returns the adapter executing Exec, Save and Info requests
func NewIStoreServerAdapter() IRPCServerAdapter {
	return &iStoreServerAdapterImpl{}
}

type iStoreServerAdapterImpl struct{}

func (adapter *iStoreServerAdapterImpl) Handle(req *common.Message, s store.IStore) *common.Message {
	if s == nil {
		return common.NewErrorResponse("handler: store is nil")
	}

	switch req.MsgType {
	case common.MsgTExec:
		cmds, err := db.DecodeCommands(req.Batch)
		if err != nil {
			return common.NewExecResponse(nil, store.NewError(store.RetCInvalidOperation, err.Error()))
		}
		results, err := s.Exec(store.BatchOf(cmds))
		if err != nil && results == nil {
			return common.NewExecResponse(nil, err)
		}
		// per command errors travel inside the results, the client checks them again
		return common.NewExecResponse(db.EncodeResults(results), nil)
	case common.MsgTSave:
		return common.NewSaveResponse(s.Save())
	case common.MsgTInfo:
		info, err := s.GetDBInfo()
		if err != nil {
			return common.NewInfoResponse(nil, err)
		}
		data, err := json.Marshal(info)
		return common.NewInfoResponse(data, err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("unsupported message type: %s", req.MsgType),
		)
	}
}
