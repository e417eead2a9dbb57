package store

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

const tokenFileName = "auth.json"

// AuthToken is the persisted sign-in state.
type AuthToken struct {
	Token    string    `json:"token"`
	Username string    `json:"username,omitempty"`
	SavedAt  time.Time `json:"saved_at"`
}

// TokenFile keeps the auth token in the user config dir, readable only by
// the owner.
type TokenFile struct{}

// Load returns the zero AuthToken when nothing is stored.
func (TokenFile) Load() (AuthToken, error) {
	path, err := configPath(tokenFileName)
	if err != nil {
		return AuthToken{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return AuthToken{}, nil
		}
		return AuthToken{}, err
	}
	var token AuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return AuthToken{}, errors.New("invalid auth token format")
	}
	return token, nil
}

func (TokenFile) Save(token AuthToken) error {
	if token.SavedAt.IsZero() {
		token.SavedAt = time.Now()
	}
	return writeJSON(tokenFileName, token, 0o600)
}

func (TokenFile) Clear() error {
	path, err := configPath(tokenFileName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
