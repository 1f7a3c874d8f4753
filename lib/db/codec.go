package db

import (
	"encoding/binary"
	"fmt"
)

// --------------------------------------------------------------------------
// Command batch encoding
// --------------------------------------------------------------------------

// fixed part of an encoded command:
// 1 byte type + 4 bytes key length + 4 bytes field length + 6 * 8 bytes for the integer fields
const commandHeaderSize = 1 + 4 + 4 + 6*8

// SizeBytes returns the exact number of bytes needed to serialize this command
func (c *Command) SizeBytes() int {
	return commandHeaderSize + len(c.Key) + len(c.Field)
}

// EncodeCommands serializes a batch of commands into a byte array with the format:
// 4 bytes for the number of commands (big endian), followed by every command as
// 1 byte for the command type,
// 4 bytes for key length, 4 bytes for field length,
// 8 bytes each for Delta, Min, Max, Start, Stop and Count,
// N bytes for key data, N bytes for field data
func EncodeCommands(cmds []Command) []byte {
	totalSize := 4
	for i := range cmds {
		totalSize += cmds[i].SizeBytes()
	}

	result := make([]byte, totalSize)
	binary.BigEndian.PutUint32(result[0:4], uint32(len(cmds)))
	pos := 4

	for i := range cmds {
		c := &cmds[i]
		result[pos] = byte(c.Type)
		binary.BigEndian.PutUint32(result[pos+1:pos+5], uint32(len(c.Key)))
		binary.BigEndian.PutUint32(result[pos+5:pos+9], uint32(len(c.Field)))
		pos += 9

		for _, v := range [...]int64{c.Delta, c.Min, c.Max, c.Start, c.Stop, c.Count} {
			binary.BigEndian.PutUint64(result[pos:pos+8], uint64(v))
			pos += 8
		}

		pos += copy(result[pos:], c.Key)
		pos += copy(result[pos:], c.Field)
	}

	return result
}

// DecodeCommands extracts a batch of commands from a byte array created by EncodeCommands.
func DecodeCommands(data []byte) ([]Command, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("data too short for command batch")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	pos := 4

	if int(count) > (len(data)-pos)/commandHeaderSize {
		return nil, fmt.Errorf("data too short for %d commands", count)
	}

	cmds := make([]Command, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < pos+commandHeaderSize {
			return nil, fmt.Errorf("data too short for command %d", i)
		}

		c := Command{Type: CommandType(data[pos])}
		keyLen := int(binary.BigEndian.Uint32(data[pos+1 : pos+5]))
		fieldLen := int(binary.BigEndian.Uint32(data[pos+5 : pos+9]))
		pos += 9

		ints := [6]int64{}
		for j := range ints {
			ints[j] = int64(binary.BigEndian.Uint64(data[pos : pos+8]))
			pos += 8
		}
		c.Delta, c.Min, c.Max, c.Start, c.Stop, c.Count = ints[0], ints[1], ints[2], ints[3], ints[4], ints[5]

		if len(data) < pos+keyLen+fieldLen {
			return nil, fmt.Errorf("data too short for key and field of command %d", i)
		}
		c.Key = string(data[pos : pos+keyLen])
		pos += keyLen
		c.Field = string(data[pos : pos+fieldLen])
		pos += fieldLen

		cmds = append(cmds, c)
	}

	if pos != len(data) {
		return nil, fmt.Errorf("%d trailing bytes after command batch", len(data)-pos)
	}
	return cmds, nil
}

// --------------------------------------------------------------------------
// Result encoding
// --------------------------------------------------------------------------

// Bit flags to indicate which optional fields of a result are present
const (
	resHasInt     byte = 1 << 0
	resHasOk      byte = 1 << 1
	resHasMembers byte = 1 << 2
	resHasPairs   byte = 1 << 3
	resHasErr     byte = 1 << 4
)

// EncodeResults serializes a list of results. Every result starts with a flags
// byte, followed by the present fields in the order Int, Members, Pairs, Err.
// Strings are prefixed by their 4 byte length, lists by their 4 byte count.
func EncodeResults(results []Result) []byte {
	buf := make([]byte, 4, 4+len(results)*10)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(results)))

	for i := range results {
		r := &results[i]

		var flags byte
		if r.Int != 0 {
			flags |= resHasInt
		}
		if r.Ok {
			flags |= resHasOk
		}
		if r.Members != nil {
			flags |= resHasMembers
		}
		if r.Pairs != nil {
			flags |= resHasPairs
		}
		if r.Err != "" {
			flags |= resHasErr
		}
		buf = append(buf, flags)

		if flags&resHasInt != 0 {
			buf = binary.BigEndian.AppendUint64(buf, uint64(r.Int))
		}
		if flags&resHasMembers != 0 {
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Members)))
			for _, m := range r.Members {
				buf = appendString(buf, m)
			}
		}
		if flags&resHasPairs != 0 {
			buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Pairs)))
			for _, p := range r.Pairs {
				buf = appendString(buf, p.Member)
				buf = binary.BigEndian.AppendUint64(buf, uint64(p.Score))
			}
		}
		if flags&resHasErr != 0 {
			buf = appendString(buf, r.Err)
		}
	}

	return buf
}

// DecodeResults extracts a list of results from a byte array created by EncodeResults.
func DecodeResults(data []byte) ([]Result, error) {
	r := &reader{data: data}

	count, err := r.readUint32()
	if err != nil {
		return nil, fmt.Errorf("data too short for result list")
	}

	// every result needs at least its flags byte
	if int(count) > len(data)-r.pos {
		return nil, fmt.Errorf("data too short for %d results", count)
	}

	results := make([]Result, count)
	for i := range results {
		flags, err := r.readByte()
		if err != nil {
			return nil, fmt.Errorf("data too short for flags of result %d", i)
		}

		res := &results[i]
		res.Ok = flags&resHasOk != 0

		if flags&resHasInt != 0 {
			v, err := r.readUint64()
			if err != nil {
				return nil, fmt.Errorf("data too short for int of result %d", i)
			}
			res.Int = int64(v)
		}
		if flags&resHasMembers != 0 {
			n, err := r.readUint32()
			if err != nil {
				return nil, fmt.Errorf("data too short for members of result %d", i)
			}
			res.Members = make([]string, n)
			for j := range res.Members {
				if res.Members[j], err = r.readString(); err != nil {
					return nil, fmt.Errorf("data too short for member %d of result %d", j, i)
				}
			}
		}
		if flags&resHasPairs != 0 {
			n, err := r.readUint32()
			if err != nil {
				return nil, fmt.Errorf("data too short for pairs of result %d", i)
			}
			res.Pairs = make([]Pair, n)
			for j := range res.Pairs {
				member, err := r.readString()
				if err != nil {
					return nil, fmt.Errorf("data too short for pair %d of result %d", j, i)
				}
				score, err := r.readUint64()
				if err != nil {
					return nil, fmt.Errorf("data too short for score %d of result %d", j, i)
				}
				res.Pairs[j] = Pair{Member: member, Score: int64(score)}
			}
		}
		if flags&resHasErr != 0 {
			if res.Err, err = r.readString(); err != nil {
				return nil, fmt.Errorf("data too short for error of result %d", i)
			}
		}
	}

	return results, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// reader is a bounds checked cursor over a byte slice
type reader struct {
	data []byte
	pos  int
}

func (r *reader) next(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("unexpected end of data")
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) readByte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) readUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) readUint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) readString() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	b, err := r.next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
