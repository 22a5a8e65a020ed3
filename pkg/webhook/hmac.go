package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifySignature checks the `x-hub-signature-256: sha256=<hex>` header
// against an HMAC-SHA256 of body computed with secret, in constant time.
func VerifySignature(secret string, body []byte, header string) error {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return fmt.Errorf("webhook: malformed signature header")
	}
	want, err := hex.DecodeString(strings.TrimPrefix(header, prefix))
	if err != nil {
		return fmt.Errorf("webhook: malformed signature hex: %w", err)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	got := mac.Sum(nil)

	if !hmac.Equal(want, got) {
		return fmt.Errorf("webhook: signature mismatch")
	}
	return nil
}

// BranchFromRef strips the refs/heads/ prefix GitHub sends in push payloads.
func BranchFromRef(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
