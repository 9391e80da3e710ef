package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/juriscalc/payment-bridge/internal/errs"
)

// Service computes and verifies HMAC-SHA256 digests over the exact
// serialized bytes of a payload. The same service signs outbound
// gateway requests and verifies inbound webhook signatures, each with
// its own key.
type Service struct {
	key []byte
}

func New(key string) *Service {
	return &Service{key: []byte(key)}
}

// Sign returns the hex-encoded HMAC-SHA256 digest of payload. Signing
// with an empty key is a configuration fault, never a silent
// degradation to "unsigned".
func (s *Service) Sign(payload []byte) (string, error) {
	if len(s.key) == 0 {
		return "", errs.Configuration("signature.Sign", "signing key is not configured")
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the digest for payload and compares it to the
// supplied one in constant time. The supplied digest is never compared
// against anything attacker-controlled other than itself.
func (s *Service) Verify(payload []byte, supplied string) (bool, error) {
	if len(s.key) == 0 {
		return false, errs.Configuration("signature.Verify", "verification key is not configured")
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	expected := mac.Sum(nil)

	suppliedRaw, err := hex.DecodeString(supplied)
	if err != nil {
		return false, nil
	}
	return hmac.Equal(expected, suppliedRaw), nil
}
