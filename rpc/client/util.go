package client

import (
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
	"github.com/ValentinKolb/dInfer/rpc/serializer"
	"github.com/ValentinKolb/dInfer/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("rpc")

// rpcClientAdapter holds everything needed to talk to one shard of a server
type rpcClientAdapter struct {
	shardId    uint64
	config     common.ClientConfig
	transport  transport.IRPCClientTransport
	serializer serializer.IRPCSerializer
}

// call sends req to the shard and returns the response of the same message type.
// Error responses are returned as errors, store errors keep their code
// (see common.Message.Error).
func (a *rpcClientAdapter) call(req *common.Message) (*common.Message, error) {
	reqBytes, err := a.serializer.Serialize(*req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s request: %w", req.MsgType, err)
	}

	respBytes, err := a.transport.Send(a.shardId, reqBytes)
	if err != nil {
		return nil, err
	}

	resp := &common.Message{}
	if err := a.serializer.Deserialize(respBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to deserialize %s response: %w", req.MsgType, err)
	}

	if err := resp.Error(); err != nil {
		Logger.Debugf("%s request to shard %d failed: %v", req.MsgType, a.shardId, err)
		return nil, err
	}
	if resp.MsgType != req.MsgType {
		return nil, fmt.Errorf("unexpected response type %s to %s request", resp.MsgType, req.MsgType)
	}
	return resp, nil
}
