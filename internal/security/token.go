package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// sessionTokenBytes gives 256 bits of entropy per session identifier.
const sessionTokenBytes = 32

// NewSessionToken returns an unguessable opaque session identifier.
// Tokens are URL-safe and carry no embedded meaning.
func NewSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
