package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// ApprovalTokenBytes is the entropy drawn for each approval token.
// 32 bytes = 256 bits, hex-encoded to a 64-character token.
const ApprovalTokenBytes = 32

// GenerateApprovalToken returns an opaque bearer token for a delegated
// approval link. The token is a pure lookup key: it embeds no task id and
// carries no signature, so its security rests entirely on being unguessable
// and delivered over TLS.
//
// Returns:
//   - string: 64 lowercase hex characters from a CSPRNG
//   - error: only if the platform's random source fails
func GenerateApprovalToken() (string, error) {
	buf := make([]byte, ApprovalTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateTempPassword returns a random one-time password for newly invited
// users. The value is handed to the credential-setup flow and is never
// stored in clear.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
