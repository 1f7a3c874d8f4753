package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// Frame layout on the wire (all integers big endian):
//
//	| shard id (8) | request id (8) | payload length (4) | payload |
const (
	frameHeaderSize = 20

	// MaxFrameSize is the largest payload a frame may carry. A peer announcing a
	// larger payload is treated as a protocol error and the connection is dropped.
	MaxFrameSize = 64 << 20
)

// ErrFrameTooLarge is returned when a frame exceeds MaxFrameSize
var ErrFrameTooLarge = fmt.Errorf("frame exceeds %d bytes", MaxFrameSize)

// frameHeader routes a payload to a shard and correlates it with its request
type frameHeader struct {
	shardID   uint64
	requestID uint64
	length    uint32
}

func (h frameHeader) put(dst []byte) {
	binary.BigEndian.PutUint64(dst[0:8], h.shardID)
	binary.BigEndian.PutUint64(dst[8:16], h.requestID)
	binary.BigEndian.PutUint32(dst[16:20], h.length)
}

func parseFrameHeader(src []byte) frameHeader {
	return frameHeader{
		shardID:   binary.BigEndian.Uint64(src[0:8]),
		requestID: binary.BigEndian.Uint64(src[8:16]),
		length:    binary.BigEndian.Uint32(src[16:20]),
	}
}

// writeFrame writes header and payload with a single vectored write
func writeFrame(conn net.Conn, shardID uint64, requestID uint64, data []byte) error {
	if len(data) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var header [frameHeaderSize]byte
	frameHeader{shardID: shardID, requestID: requestID, length: uint32(len(data))}.put(header[:])

	b := net.Buffers{header[:]}
	if len(data) > 0 {
		b = append(b, data)
	}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads the next frame. The payload is read into buf when it fits,
// otherwise a new slice is allocated. The returned payload aliases buf.
func readFrame(r io.Reader, buf []byte) (frameHeader, []byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frameHeader{}, nil, err
	}

	h := parseFrameHeader(header[:])
	if h.length > MaxFrameSize {
		return h, nil, ErrFrameTooLarge
	}
	if h.length == 0 {
		return h, []byte{}, nil
	}

	if len(buf) < int(h.length) {
		buf = make([]byte, h.length)
	}
	if _, err := io.ReadFull(r, buf[:h.length]); err != nil {
		return h, nil, err
	}
	return h, buf[:h.length], nil
}
