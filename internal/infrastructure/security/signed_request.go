package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSignature is returned when a signed_request fails verification.
var ErrInvalidSignature = errors.New("signed request signature mismatch")

// SignedRequest is the decoded payload of a Meta signed_request.
type SignedRequest struct {
	Algorithm string `json:"algorithm"`
	IssuedAt  int64  `json:"issued_at"`
	UserID    string `json:"user_id"`
}

// ParseSignedRequest decodes "<sig>.<payload>" (both base64url, unpadded).
// When appSecret is non-empty the HMAC-SHA256 signature over the encoded
// payload is verified.
func ParseSignedRequest(signedRequest, appSecret string) (*SignedRequest, error) {
	encodedSig, encodedPayload, ok := strings.Cut(signedRequest, ".")
	if !ok || encodedSig == "" || encodedPayload == "" {
		return nil, errors.New("malformed signed request")
	}

	sig, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encodedSig, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", err)
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encodedPayload, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	var req SignedRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	if appSecret != "" {
		if !strings.EqualFold(req.Algorithm, "HMAC-SHA256") {
			return nil, fmt.Errorf("unsupported signed request algorithm %q", req.Algorithm)
		}
		mac := hmac.New(sha256.New, []byte(appSecret))
		mac.Write([]byte(encodedPayload))
		if !hmac.Equal(sig, mac.Sum(nil)) {
			return nil, ErrInvalidSignature
		}
	}

	return &req, nil
}

// SignRequest builds a signed_request for payload. Used by tests and local tooling.
func SignRequest(payload SignedRequest, appSecret string) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encodedPayload := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)) + "." + encodedPayload, nil
}
