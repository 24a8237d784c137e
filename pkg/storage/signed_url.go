package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner issues and validates HMAC-signed download tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// SignedToken is the parsed, verified content of a download token.
type SignedToken struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// NewSignedURLSigner creates a signer. Secret must be non-empty.
func NewSignedURLSigner(secret string, ttl time.Duration) (*SignedURLSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("signed url secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Generate produces an opaque token binding a job ID to a storage path.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, error) {
	if jobID == "" || relPath == "" {
		return "", fmt.Errorf("job id and path are required")
	}
	exp := s.now().Add(s.ttl).Unix()
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	payload := fmt.Sprintf("%s.%d.%s", jobID, exp, encodedPath)
	sig := s.sign(payload)
	return payload + "." + sig, nil
}

// Parse verifies a token and returns its contents, rejecting expired or
// tampered tokens.
func (s *SignedURLSigner) Parse(token string) (*SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed token")
	}
	payload := strings.Join(parts[:3], ".")
	expected := s.sign(payload)
	if !hmac.Equal([]byte(expected), []byte(parts[3])) {
		return nil, fmt.Errorf("invalid token signature")
	}

	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed token expiry")
	}
	expiresAt := time.Unix(exp, 0)
	if s.now().After(expiresAt) {
		return nil, fmt.Errorf("token expired")
	}

	pathBytes, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed token path")
	}

	return &SignedToken{
		JobID:     parts[0],
		Path:      string(pathBytes),
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
