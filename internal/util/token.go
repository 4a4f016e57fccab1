package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const tokenKeyPrefix = "tok:"

// TokenKey derives the identity cache key for a bearer token so the raw
// token never sits in memory longer than the request.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}
