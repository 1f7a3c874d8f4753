package serializer

import (
	"encoding/json"
	"github.com/ValentinKolb/dInfer/rpc/common"
)

// NewJSONSerializer creates a serializer using encoding/json.
// Batch and Meta are byte slices and therefore appear base64 encoded.
func NewJSONSerializer() IRPCSerializer {
	return jsonSerializerImpl{}
}

type jsonSerializerImpl struct{}

func (jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return json.Unmarshal(b, msg)
}
