// Package checksum derives content validators for blobs served over HTTP and MCP.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag quotes sum as a strong entity tag. An empty sum yields "".
func ETag(sum string) string {
	if sum == "" {
		return ""
	}
	return `"` + sum + `"`
}
