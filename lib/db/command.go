package db

import (
	"fmt"
	"math"
)

// Score bounds used as -inf / +inf for the range commands.
const (
	MinScore int64 = math.MinInt64
	MaxScore int64 = math.MaxInt64
)

// Error messages returned in Result.Err
const (
	ErrMsgWrongType      = "WRONGTYPE operation against a key holding the wrong kind of value"
	ErrMsgUnknownCommand = "unknown command"
)

// CommandType defines the possible commands of a batch.
type CommandType uint8

const (
	CmdHGet             CommandType = iota // Read a hash field.
	CmdHSetNX                              // Create a hash field if it does not exist.
	CmdHIncrBy                             // Increment a hash field.
	CmdHDel                                // Delete a hash field.
	CmdHExists                             // Check if a hash field exists.
	CmdHKeys                               // List all fields of a hash (insertion order).
	CmdHGetAll                             // List all fields with values of a hash (insertion order).
	CmdZIncrBy                             // Increment the score of a member.
	CmdZScore                              // Read the score of a member.
	CmdZRevRange                           // Members by rank, highest score first.
	CmdZRevRangeByScore                    // Members within a score range, highest score first.
	CmdZRemRangeByScore                    // Remove members within a score range.
	CmdDel                                 // Delete a key.
)

func (ct CommandType) String() string {
	switch ct {
	case CmdHGet:
		return "HGet"
	case CmdHSetNX:
		return "HSetNX"
	case CmdHIncrBy:
		return "HIncrBy"
	case CmdHDel:
		return "HDel"
	case CmdHExists:
		return "HExists"
	case CmdHKeys:
		return "HKeys"
	case CmdHGetAll:
		return "HGetAll"
	case CmdZIncrBy:
		return "ZIncrBy"
	case CmdZScore:
		return "ZScore"
	case CmdZRevRange:
		return "ZRevRange"
	case CmdZRevRangeByScore:
		return "ZRevRangeByScore"
	case CmdZRemRangeByScore:
		return "ZRemRangeByScore"
	case CmdDel:
		return "Del"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// IsWrite reports whether the command modifies the database.
func (ct CommandType) IsWrite() bool {
	switch ct {
	case CmdHSetNX, CmdHIncrBy, CmdHDel, CmdZIncrBy, CmdZRemRangeByScore, CmdDel:
		return true
	default:
		return false
	}
}

// ToDBFeature converts a CommandType to the corresponding db.Feature.
// This can be used for checking if the database supports a certain command.
func (ct CommandType) ToDBFeature() (Feature, error) {
	switch ct {
	case CmdHGet, CmdHSetNX, CmdHIncrBy, CmdHDel, CmdHExists, CmdHKeys, CmdHGetAll:
		return FeatureHash, nil
	case CmdZIncrBy, CmdZScore, CmdZRevRange, CmdZRevRangeByScore, CmdZRemRangeByScore:
		return FeatureSortedCounters, nil
	case CmdDel:
		return FeatureDelete, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// Command is a single operation of a batch.
// Which fields are used depends on the type of the command:
//
//   - Field: hash field or sorted counter member
//   - Delta: increment (HIncrBy, ZIncrBy) or initial value (HSetNX)
//   - Min, Max: inclusive score bounds (ZRevRangeByScore, ZRemRangeByScore)
//   - Start, Stop: inclusive rank bounds, negative values count from the end (ZRevRange)
//   - Count: maximum number of returned members, 0 means unlimited (ZRevRangeByScore)
type Command struct {
	Type  CommandType
	Key   string
	Field string
	Delta int64
	Min   int64
	Max   int64
	Start int64
	Stop  int64
	Count int64
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s %s)", c.Type, c.Key, c.Field)
}

// IsReadOnly reports whether none of the commands modifies the database.
func IsReadOnly(cmds []Command) bool {
	for _, cmd := range cmds {
		if cmd.Type.IsWrite() {
			return false
		}
	}
	return true
}

// Pair is a member (or hash field) together with its score (or value).
type Pair struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
}

// Result is the outcome of a single Command.
// Which fields are set depends on the type of the command:
//
//   - Int: HGet, HIncrBy, ZIncrBy, ZScore (value), ZRemRangeByScore (removed members)
//   - Ok: HGet, ZScore (found), HSetNX (created), HDel, Del (existed), HExists
//   - Members: HKeys
//   - Pairs: HGetAll, ZRevRange, ZRevRangeByScore
//   - Err: set if the command failed, the other commands of the batch are not affected
type Result struct {
	Int     int64    `json:"int,omitempty"`
	Ok      bool     `json:"ok,omitempty"`
	Members []string `json:"members,omitempty"`
	Pairs   []Pair   `json:"pairs,omitempty"`
	Err     string   `json:"err,omitempty"`
}
