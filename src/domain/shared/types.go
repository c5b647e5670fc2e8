package shared

import (
	"errors"
	"strings"
)

// ID types keep domain entities distinct while remaining simple strings at runtime.
type (
	TournamentID string
	PlayerID     string
	InviteCode   string
)

// Validate ensures IDs are not blank and normalized.
func (id TournamentID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return errors.New("tournament id is required")
	}
	return nil
}

func (id PlayerID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return errors.New("player id is required")
	}
	return nil
}

func (code InviteCode) Validate() error {
	if strings.TrimSpace(string(code)) == "" {
		return errors.New("invite code is required")
	}
	return nil
}
