package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMalformed is returned for inbound payloads that are not valid JSON or
// do not match a known message schema.
var ErrMalformed = errors.New("malformed message")

// Encode serializes an outbound message as a flat JSON object with the
// "type" discriminator first.
func Encode(msg Outbound) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	kind, _ := json.Marshal(string(msg.Kind()))

	out := make([]byte, 0, len(body)+len(kind)+10)
	out = append(out, `{"type":`...)
	out = append(out, kind...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}

type binaryState struct {
	Type      Kind `msgpack:"type"`
	GameState `msgpack:",inline"`
}

// EncodeBinary serializes a snapshot as msgpack for clients that negotiated
// the binary feature.
func EncodeBinary(s GameState) ([]byte, error) {
	data, err := msgpack.Marshal(binaryState{Type: KindGameState, GameState: s})
	if err != nil {
		return nil, fmt.Errorf("encode binary state: %w", err)
	}
	return data, nil
}

// DecodeBinary is the inverse of EncodeBinary.
func DecodeBinary(data []byte) (GameState, error) {
	var s binaryState
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return GameState{}, fmt.Errorf("decode binary state: %w", err)
	}
	if s.Type != KindGameState {
		return GameState{}, fmt.Errorf("decode binary state: unexpected type %q", s.Type)
	}
	return s.GameState, nil
}

type inboundWire struct {
	Type      string `json:"type"`
	InputType string `json:"inputType"`
	Key       string `json:"key"`
}

// Decode parses an inbound client payload. Every failure wraps ErrMalformed.
func Decode(data []byte) (Inbound, error) {
	var w inboundWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Kind(w.Type) {
	case KindInput:
		var in Input
		switch w.InputType {
		case "keydown":
			in.Pressed = true
		case "keyup":
		default:
			return nil, fmt.Errorf("%w: inputType %q", ErrMalformed, w.InputType)
		}
		switch Key(w.Key) {
		case KeyUp, KeyDown:
			in.Key = Key(w.Key)
		default:
			return nil, fmt.Errorf("%w: key %q", ErrMalformed, w.Key)
		}
		return in, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, w.Type)
	}
}

// DecodeOutbound parses a server message. Clients and tests use it; the
// server never reads its own outbound kinds.
func DecodeOutbound(data []byte) (Outbound, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Outbound
	var err error
	switch head.Type {
	case KindMatchAssigned:
		var m MatchAssigned
		err = json.Unmarshal(data, &m)
		msg = m
	case KindReady:
		var m Ready
		err = json.Unmarshal(data, &m)
		msg = m
	case KindCountdown:
		var m Countdown
		err = json.Unmarshal(data, &m)
		msg = m
	case KindGameStart:
		var m GameStart
		err = json.Unmarshal(data, &m)
		msg = m
	case KindGameState:
		var m GameState
		err = json.Unmarshal(data, &m)
		msg = m
	case KindGameOver:
		var m GameOver
		err = json.Unmarshal(data, &m)
		msg = m
	case KindGameAbandoned:
		var m GameAbandoned
		err = json.Unmarshal(data, &m)
		msg = m
	case KindPlayerDisconnected:
		var m PlayerDisconnected
		err = json.Unmarshal(data, &m)
		msg = m
	case KindError:
		var m Error
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return msg, nil
}

// Features are the optional connection flags negotiated at upgrade time.
type Features struct {
	Binary bool
}

// ParseFeatures reads a comma separated flag list such as "binary".
// Unknown flags are returned so the caller can log them.
func ParseFeatures(raw string) (Features, []string) {
	var f Features
	var unknown []string
	for _, part := range strings.Split(raw, ",") {
		flag := strings.ToLower(strings.TrimSpace(part))
		switch flag {
		case "":
		case "binary", "msgpack":
			f.Binary = true
		default:
			unknown = append(unknown, flag)
		}
	}
	return f, unknown
}
