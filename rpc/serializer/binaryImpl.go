package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/ValentinKolb/dInfer/rpc/common"
)

// NewBinarySerializer creates the compact binary serializer, the default of the CLI
func NewBinarySerializer() IRPCSerializer {
	return binarySerializerImpl{}
}

// binarySerializerImpl writes only the fields that are set:
//
//	| type (1) | flags (1) | [batch len (4) | batch] | [ok (1)] | [code (1)] | [err len (4) | err] | [meta len (4) | meta] |
//
// Lengths are big endian.
type binarySerializerImpl struct{}

const (
	hasBatch byte = 1 << iota
	hasOk
	hasCode
	hasErr
	hasMeta
)

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	size := 2
	var flags byte
	if msg.Batch != nil {
		flags |= hasBatch
		size += 4 + len(msg.Batch)
	}
	if msg.Ok {
		flags |= hasOk
		size++
	}
	if msg.Code != 0 {
		flags |= hasCode
		size++
	}
	if msg.Err != "" {
		flags |= hasErr
		size += 4 + len(msg.Err)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		size += 4 + len(msg.Meta)
	}

	out := make([]byte, 2, size)
	out[0] = byte(msg.MsgType)
	out[1] = flags
	if flags&hasBatch != 0 {
		out = appendBytes(out, msg.Batch)
	}
	if flags&hasOk != 0 {
		out = append(out, 1)
	}
	if flags&hasCode != 0 {
		out = append(out, msg.Code)
	}
	if flags&hasErr != 0 {
		out = appendBytes(out, []byte(msg.Err))
	}
	if flags&hasMeta != 0 {
		out = appendBytes(out, msg.Meta)
	}
	return out, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	*msg = common.Message{}
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}
	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	r := reader{data: data, pos: 2}

	if flags&hasBatch != 0 {
		msg.Batch = r.readBytes("batch")
	}
	if flags&hasOk != 0 {
		msg.Ok = r.readByte("ok flag") != 0
	}
	if flags&hasCode != 0 {
		msg.Code = r.readByte("code")
	}
	if flags&hasErr != 0 {
		msg.Err = string(r.readBytes("error"))
	}
	if flags&hasMeta != 0 {
		msg.Meta = r.readBytes("meta")
	}
	return r.err
}

func appendBytes(dst, src []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(src)))
	return append(dst, src...)
}

// reader reads fields until the first error, later reads return zero values
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) readByte(field string) byte {
	if r.err != nil {
		return 0
	}
	if r.pos+1 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return 0
	}
	r.pos++
	return r.data[r.pos-1]
}

// readBytes reads a length prefixed field. The result is a copy (never nil) so it
// does not alias the transport buffer.
func (r *reader) readBytes(field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s length", field)
		return nil
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	if n < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out
}
