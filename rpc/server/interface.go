package server

import (
	"github.com/ValentinKolb/dInfer/lib/store"
	"github.com/ValentinKolb/dInfer/rpc/common"
)

// IRPCServerAdapter turns a request message into calls on the store of the
// addressed shard. Failures are reported inside the returned message, never as
// a Go error, since the message is all the client receives.
type IRPCServerAdapter interface {
	Handle(req *common.Message, store store.IStore) (resp *common.Message)
}
