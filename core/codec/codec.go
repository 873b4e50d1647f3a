// Package codec encodes remote message payloads. Codecs are selected by
// name so the sender can tell the receiver which one it used.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	NameJSON    = "json"
	NameMsgpack = "msgpack"
)

var ErrUnknownCodec = errors.New("unknown codec")

type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type (
	JSON    struct{}
	Msgpack struct{}
)

func (JSON) Name() string                       { return NameJSON }
func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, v any) error    { return json.Unmarshal(b, v) }
func (Msgpack) Name() string                    { return NameMsgpack }
func (Msgpack) Marshal(v any) ([]byte, error)   { return msgpack.Marshal(v) }
func (Msgpack) Unmarshal(b []byte, v any) error { return msgpack.Unmarshal(b, v) }

// Default is used when an envelope does not name a codec.
var Default Codec = JSON{}

// ByName resolves a codec name. The empty name resolves to Default.
func ByName(name string) (Codec, error) {
	switch name {
	case "":
		return Default, nil
	case NameJSON:
		return JSON{}, nil
	case NameMsgpack:
		return Msgpack{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}
