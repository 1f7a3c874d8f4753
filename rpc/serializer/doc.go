// Package serializer turns a common.Message into bytes and back.
//
// A message carries either an encoded command batch (requests), encoded results
// (exec responses) or JSON metadata (info responses) together with an ok flag, a
// store error code and an error text. The batch and result encoding itself belongs
// to package db, the serializers only frame the message around it.
//
// Three formats are available and must match on client and server:
//
//   - binary: a type byte, a presence bitmask and length prefixed fields. Absent
//     fields cost nothing. This is the default.
//   - json: readable output, useful when inspecting traffic.
//   - gob: the encoding/gob format.
//
// Deserialize overwrites every field of the target message, so a message may be
// reused for consecutive calls. All serializers are stateless and safe for
// concurrent use.
package serializer
