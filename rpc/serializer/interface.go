package serializer

import "github.com/ValentinKolb/dInfer/rpc/common"

// IRPCSerializer converts RPC messages to and from their wire representation
type IRPCSerializer interface {
	// Serialize encodes msg
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize decodes b into msg, replacing all of its previous content
	Deserialize(b []byte, msg *common.Message) error
}
