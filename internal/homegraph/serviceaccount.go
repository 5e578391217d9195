package homegraph

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceAccount is the subset of a Google service account key file needed
// to mint access tokens.
type ServiceAccount struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`

	key *rsa.PrivateKey
}

// LoadServiceAccount reads and parses a service account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("reading service account file: %w", err)
	}
	return ParseServiceAccount(data)
}

// ParseServiceAccount parses service account JSON and its PEM private key.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceAccount, err)
	}
	if sa.ClientEmail == "" {
		return nil, fmt.Errorf("%w: missing client_email", ErrInvalidServiceAccount)
	}
	if sa.PrivateKey == "" {
		return nil, fmt.Errorf("%w: missing private_key", ErrInvalidServiceAccount)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidServiceAccount, err)
	}
	sa.key = key
	return &sa, nil
}
