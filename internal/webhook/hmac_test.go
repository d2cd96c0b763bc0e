package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"ref":"refs/heads/master","repository":{"full_name":"o/r"}}`)

	sha1Mac := hmac.New(sha1.New, []byte(secret))
	sha1Mac.Write(body)
	sha1Sig := "sha1=" + hex.EncodeToString(sha1Mac.Sum(nil))

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{name: "valid sha256", body: body, signature: sign("sha256", secret, body), secret: secret, want: true},
		{name: "valid sha1", body: body, signature: sha1Sig, secret: secret, want: true},
		{name: "valid sha512", body: body, signature: sign("sha512", secret, body), secret: secret, want: true},
		{name: "uppercase algo", body: body, signature: "SHA256=" + sign("sha256", secret, body)[len("sha256="):], secret: secret, want: true},
		{name: "wrong secret", body: body, signature: sign("sha256", "other", body), secret: secret, want: false},
		{name: "tampered body", body: []byte(`{"ref":"refs/heads/evil"}`), signature: sign("sha256", secret, body), secret: secret, want: false},
		{name: "empty secret", body: body, signature: sign("sha256", "", body), secret: "", want: false},
		{name: "empty signature", body: body, signature: "", secret: secret, want: false},
		{name: "plain hex without algo", body: body, signature: sign("sha256", secret, body)[len("sha256="):], secret: secret, want: false},
		{name: "unknown algo", body: body, signature: "md5=abcdef", secret: secret, want: false},
		{name: "bad hex", body: body, signature: "sha256=zzzz", secret: secret, want: false},
		{name: "empty digest", body: body, signature: "sha256=", secret: secret, want: false},
		{name: "algo digest mismatch", body: body, signature: "sha1=" + sign("sha256", secret, body)[len("sha256="):], secret: secret, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, tt.body, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		token  string
		want   bool
	}{
		{name: "match", secret: "s3cret", token: "s3cret", want: true},
		{name: "mismatch", secret: "s3cret", token: "s3cre7", want: false},
		{name: "prefix", secret: "s3cret", token: "s3c", want: false},
		{name: "empty secret", secret: "", token: "", want: false},
		{name: "empty token", secret: "s3cret", token: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyToken(tt.secret, tt.token); got != tt.want {
				t.Errorf("VerifyToken() = %v, want %v", got, tt.want)
			}
		})
	}
}

// sign returns the "<algo>=<hex>" header value a sender would attach to body.
func sign(algo, secret string, body []byte) string {
	newHash, ok := hashes[algo]
	if !ok {
		return ""
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return algo + "=" + hex.EncodeToString(mac.Sum(nil))
}
