package cryptofield

import "errors"

// ErrAuthTagMismatch means the GCM tag did not verify — either the blob was
// tampered with or it was sealed under a different key. The two cases are
// deliberately indistinguishable to the caller to avoid a decryption oracle.
var ErrAuthTagMismatch = errors.New("cryptofield: authentication tag mismatch")

// ErrMalformedBlob means the blob is not valid base64, or decodes to fewer
// bytes than a nonce plus a GCM tag, so it could never have been produced
// by Encrypt.
var ErrMalformedBlob = errors.New("cryptofield: malformed blob")

// ErrInvalidKeyLength means a key was not exactly 32 bytes.
var ErrInvalidKeyLength = errors.New("cryptofield: key must be 32 bytes")

// ErrInvalidHash means a stored password hash string could not be parsed.
var ErrInvalidHash = errors.New("cryptofield: invalid password hash")

// ErrValue is the sentinel substituted for a field that failed to decrypt.
// Callers display it instead of aborting a list query over one bad row.
var ErrValue = errors.New("cryptofield: value unavailable")
