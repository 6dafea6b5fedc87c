// Package id generates opaque identifiers for requests, tokens and events.
// Flavors use storage-assigned integer ids; everything ephemeral uses these.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes in use.
const (
	PrefixRequest = "req"
	PrefixToken   = "tok"
	PrefixEvent   = "evt"
	PrefixClient  = "sse"
)

// shortAlphabet avoids look-alike characters; used where ids end up in logs
// that staff read aloud.
const shortAlphabet = "23456789abcdefghijkmnpqrstuvwxyz"

// Generate creates a prefixed NanoID, e.g. "req-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system has no entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Short returns an n-character id from a reduced, unambiguous alphabet.
func Short(n int) (string, error) {
	s, err := gonanoid.Generate(shortAlphabet, n)
	if err != nil {
		return "", fmt.Errorf("generate short id: %w", err)
	}
	return s, nil
}
