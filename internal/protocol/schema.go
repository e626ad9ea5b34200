package protocol

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/inbound.schema.json
var inboundSchemaJSON string

var inboundSchema = jsonschema.MustCompileString("inbound.schema.json", inboundSchemaJSON)

// ValidateInbound checks a raw client frame against the inbound schema.
func ValidateInbound(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("bad json: %w", err)
	}
	if err := inboundSchema.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

// Inbound is a decoded and validated client frame.
type Inbound struct {
	Type string
	Join PlayerJoinData
	Chat ChatMessageData
}

// DecodeInbound parses raw and returns a protocol error code on failure.
func DecodeInbound(raw []byte) (Inbound, string, error) {
	base, err := DecodeBase(raw)
	if err != nil {
		return Inbound{}, ErrProtoBadRequest, fmt.Errorf("bad json: %w", err)
	}
	if !IsInboundType(base.Type) {
		return Inbound{}, ErrUnknownType, fmt.Errorf("unknown message type %q", base.Type)
	}
	if err := ValidateInbound(raw); err != nil {
		return Inbound{}, ErrProtoBadRequest, err
	}
	in := Inbound{Type: base.Type}
	if len(base.Data) > 0 {
		switch base.Type {
		case TypePlayerJoin:
			err = json.Unmarshal(base.Data, &in.Join)
		case TypeChatMessage:
			err = json.Unmarshal(base.Data, &in.Chat)
		}
		if err != nil {
			return Inbound{}, ErrProtoBadRequest, fmt.Errorf("bad data: %w", err)
		}
	}
	return in, "", nil
}
