package cryptofield

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// BlindIndex computes a deterministic HMAC-SHA256 of value under hmacKey,
// hex-encoded for storage in an indexed column. It lets a lookup like
// find_by_mrn match an AES-GCM-encrypted column (which is never the same
// ciphertext twice) by comparing this separate, deterministic digest
// instead of decrypting every row.
func BlindIndex(value string, hmacKey []byte) string {
	mac := hmac.New(sha256.New, hmacKey)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
