package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strings"
)

// hashes maps the algorithm prefix of a signature header to its hash.
var hashes = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// VerifySignature checks a "<algo>=<hex>" signature header against the HMAC
// of body keyed with secret. It fails closed: an empty secret, a missing or
// malformed header, an unknown algorithm or bad hex all return false.
//
// The decoded digests are compared in constant time.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}

	algo, hexSig, ok := strings.Cut(strings.TrimSpace(header), "=")
	if !ok {
		return false
	}
	newHash, ok := hashes[strings.ToLower(algo)]
	if !ok {
		return false
	}
	actualMAC, err := hex.DecodeString(hexSig)
	if err != nil || len(actualMAC) == 0 {
		return false
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), actualMAC)
}

// VerifyToken compares a shared token (GitLab's X-Gitlab-Token) with secret
// in constant time. An empty secret or token never matches.
func VerifyToken(secret, token string) bool {
	if secret == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(token)) == 1
}
