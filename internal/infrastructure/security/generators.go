// Package security provides identifiers, secrets and token sealing for
// visitors and their Instagram sessions.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewVisitorID returns a fresh visitor identifier.
func NewVisitorID() string {
	return ulid.Make().String()
}

// NewAnalysisID returns a fresh id for an analysis result. ULIDs sort by
// creation time, which keeps history ordering stable.
func NewAnalysisID() string {
	return ulid.Make().String()
}

// GenerateConfirmationCode returns a lowercase ULID for deletion callbacks.
func GenerateConfirmationCode() string {
	return strings.ToLower(ulid.Make().String())
}

// NewOAuthState returns n random bytes, base64url encoded without padding.
func NewOAuthState(n int) (string, error) {
	buf, err := randomBytes(n)
	if err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateSecureKey returns n random bytes as hex. 32 bytes yields an AES-256
// key usable with NewTokenCipher.
func GenerateSecureKey(n int) (string, error) {
	buf, err := randomBytes(n)
	if err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func randomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
