// Package auth issues and verifies staff access tokens and hashes the staff
// password.
package auth

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aidanwoods.dev/go-paseto"
)

// keyFile holds the hex-encoded PASETO v4 symmetric key under the data dir.
const keyFile = "auth.key"

// LoadOrGenerateKey returns the token key stored in dataPath, creating it on
// first start. Tokens survive restarts as long as the file does.
func LoadOrGenerateKey(dataPath string) (paseto.V4SymmetricKey, error) {
	keyPath := filepath.Join(dataPath, keyFile)

	//#nosec G304 -- path is derived from the configured data dir
	if raw, err := os.ReadFile(keyPath); err == nil {
		return ParseKey(strings.TrimSpace(string(raw)))
	}

	key := paseto.NewV4SymmetricKey()

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(key.ExportHex()), 0o600); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}

// ParseKey decodes a 64-character hex key.
func ParseKey(keyHex string) (paseto.V4SymmetricKey, error) {
	if len(keyHex) != 64 {
		return paseto.V4SymmetricKey{}, fmt.Errorf("invalid auth key length: expected 64 hex chars, got %d", len(keyHex))
	}
	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
	}
	key, err := paseto.V4SymmetricKeyFromBytes(raw)
	if err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("invalid auth key: %w", err)
	}
	return key, nil
}
