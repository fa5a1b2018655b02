package game

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/thraizz/gridduel-server/internal/game/card"
)

// ChecksumVersion identifies the canonical encoding the checksum covers.
const ChecksumVersion = 1

// Marshal encodes the state as JSON. Map keys are emitted sorted, so equal
// states encode to equal bytes.
func Marshal(state *GameState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("nil game state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a state produced by Marshal.
func Unmarshal(data []byte) (*GameState, error) {
	var state GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	if state.Board == nil || state.Player1 == nil || state.Player2 == nil {
		return nil, fmt.Errorf("game state %q is incomplete", state.ID)
	}
	if state.Cards == nil {
		state.Cards = make(map[string]*card.Instance)
	}
	return &state, nil
}

// Checksum returns a blake2b-256 digest of the canonical encoding. Two
// states with the same checksum are the same game position.
func (s *GameState) Checksum() (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("v%d:%s", ChecksumVersion, hex.EncodeToString(sum[:])), nil
}

// ValidateRoundtrip checks that the state survives an encode/decode cycle
// unchanged.
func ValidateRoundtrip(state *GameState) error {
	before, err := state.Checksum()
	if err != nil {
		return err
	}
	data, err := Marshal(state)
	if err != nil {
		return err
	}
	decoded, err := Unmarshal(data)
	if err != nil {
		return err
	}
	after, err := decoded.Checksum()
	if err != nil {
		return err
	}
	if before != after {
		return fmt.Errorf("checksum mismatch after roundtrip: %s != %s", before, after)
	}
	return nil
}
