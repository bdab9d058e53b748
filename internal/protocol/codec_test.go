package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodePutsTypeFirst(t *testing.T) {
	data, err := Encode(GameOver{MatchID: 7, Winner: 2, WinnerUsername: "Bob", Player1Score: 3, Player2Score: 5})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"type":"game-over","matchId":7,"winner":2,"winnerUsername":"Bob","player1Score":3,"player2Score":5}`
	if string(data) != want {
		t.Errorf("unexpected encoding:\n got %s\nwant %s", data, want)
	}
}

func TestEncodeGameStateFields(t *testing.T) {
	data, err := Encode(GameState{BallX: 400, BallY: 300, Player1Username: "Alice", Player2Username: "Bob"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"type", "ballX", "ballY", "leftPaddleY", "rightPaddleY", "speedX", "speedY",
		"player1Score", "player2Score", "player1Username", "player2Username"} {
		if _, ok := m[key]; !ok {
			t.Errorf("game-state missing %q", key)
		}
	}
	if m["type"] != "game-state" {
		t.Errorf("expected type game-state, got %v", m["type"])
	}
}

func TestDecodeOutboundRoundTripsEveryKind(t *testing.T) {
	msgs := []Outbound{
		MatchAssigned{MatchID: 1, Ordinal: 1, Username: "Alice", Created: true},
		Ready{MatchID: 1, Player1Username: "Alice", Player2Username: "Bob"},
		Countdown{MatchID: 1, Seconds: 3},
		GameStart{MatchID: 1},
		GameState{BallX: 1, SpeedY: -2},
		GameOver{MatchID: 1, Winner: 1},
		GameAbandoned{MatchID: 1, Winner: 1, Reason: "disconnect"},
		PlayerDisconnected{MatchID: 1, Ordinal: 2, Username: "Bob"},
		Error{Code: ErrCodeMatchFull, Message: "full"},
	}
	for _, msg := range msgs {
		data, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode %s: %v", msg.Kind(), err)
		}
		got, err := DecodeOutbound(data)
		if err != nil {
			t.Fatalf("decode %s: %v", msg.Kind(), err)
		}
		if got != msg {
			t.Errorf("%s: got %+v want %+v", msg.Kind(), got, msg)
		}
	}
}

func TestDecodeInput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Input
		wantErr bool
	}{
		{"keydown up", `{"type":"input","inputType":"keydown","key":"up"}`, Input{Pressed: true, Key: KeyUp}, false},
		{"keyup down", `{"type":"input","inputType":"keyup","key":"down"}`, Input{Pressed: false, Key: KeyDown}, false},
		{"not json", `not json`, Input{}, true},
		{"unknown type", `{"type":"teleport"}`, Input{}, true},
		{"bad key", `{"type":"input","inputType":"keydown","key":"left"}`, Input{}, true},
		{"bad input type", `{"type":"input","inputType":"hold","key":"up"}`, Input{}, true},
		{"empty object", `{}`, Input{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.payload))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Fatalf("expected ErrMalformed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			in, ok := got.(Input)
			if !ok {
				t.Fatalf("expected Input, got %T", got)
			}
			if in != tt.want {
				t.Errorf("got %+v want %+v", in, tt.want)
			}
		})
	}
}

func TestBinaryStateRoundTrip(t *testing.T) {
	s := GameState{BallX: 12.5, BallY: 40, LeftPaddleY: 100, RightPaddleY: 250, SpeedX: -5, SpeedY: 1.25,
		Player1Score: 2, Player2Score: 4, Player1Username: "Alice", Player2Username: "Bob"}
	data, err := EncodeBinary(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBinary(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != s {
		t.Errorf("got %+v want %+v", got, s)
	}
}

func TestParseFeatures(t *testing.T) {
	f, unknown := ParseFeatures("binary, sparkles")
	if !f.Binary {
		t.Error("expected binary feature to be enabled")
	}
	if len(unknown) != 1 || unknown[0] != "sparkles" {
		t.Errorf("expected [sparkles] unknown, got %v", unknown)
	}

	f, unknown = ParseFeatures("")
	if f.Binary || len(unknown) != 0 {
		t.Errorf("empty flags should parse to zero value, got %+v %v", f, unknown)
	}
}
