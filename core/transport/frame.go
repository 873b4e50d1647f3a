package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// responseFrame is what travels back for a request. Every transport uses
// this encoding so that nodes on different transports agree.
type responseFrame struct {
	Data []byte `json:"data,omitempty"`
	Err  string `json:"err,omitempty"`
}

// EncodeResponse builds a reply frame. A non-nil err replaces data.
func EncodeResponse(data []byte, err error) []byte {
	rf := responseFrame{Data: data}
	if err != nil {
		rf.Data, rf.Err = nil, err.Error()
	}
	b, _ := json.Marshal(rf)
	return b
}

// DecodeResponse unpacks a reply frame. A remote error comes back as a
// plain error carrying the original text.
func DecodeResponse(b []byte) ([]byte, error) {
	var rf responseFrame
	if err := json.Unmarshal(b, &rf); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rf.Err != "" {
		return nil, errors.New(rf.Err)
	}
	return rf.Data, nil
}
