// Package auth signs the websocket handshake to the gateway bridge with an
// RSA-PSS signature over timestamp, method and path.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Handshake header names.
const (
	HeaderKey       = "X-Bridge-Key"
	HeaderTimestamp = "X-Bridge-Timestamp"
	HeaderSignature = "X-Bridge-Signature"
)

// ErrBadSignature is returned by Verify when the headers do not match.
var ErrBadSignature = errors.New("bad handshake signature")

// Credentials identify this client to the bridge.
type Credentials struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// LoadCredentials loads credentials from a key id and a PEM private key file.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("key id is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	key, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}
	return &Credentials{KeyID: keyID, PrivateKey: key}, nil
}

// LoadPrivateKey reads an RSA private key in PKCS#8 or PKCS#1 PEM form.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// SignHandshake returns the headers for a websocket upgrade to path.
func (c *Credentials) SignHandshake(path string) (http.Header, error) {
	return c.sign(http.MethodGet, path, time.Now())
}

func (c *Credentials) sign(method, path string, now time.Time) (http.Header, error) {
	ts := now.UnixMilli()
	hashed := digest(ts, method, path)

	sig, err := rsa.SignPSS(rand.Reader, c.PrivateKey, crypto.SHA256, hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return nil, fmt.Errorf("sign handshake: %w", err)
	}

	h := http.Header{}
	h.Set(HeaderKey, c.KeyID)
	h.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	h.Set(HeaderSignature, base64.StdEncoding.EncodeToString(sig))
	return h, nil
}

// Verify checks handshake headers against pub. Signatures older than maxAge
// are rejected when maxAge > 0.
func Verify(pub *rsa.PublicKey, h http.Header, method, path string, maxAge time.Duration) error {
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: timestamp %q", ErrBadSignature, h.Get(HeaderTimestamp))
	}
	if maxAge > 0 && time.Since(time.UnixMilli(ts)) > maxAge {
		return fmt.Errorf("%w: expired", ErrBadSignature)
	}

	sig, err := base64.StdEncoding.DecodeString(h.Get(HeaderSignature))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}

	hashed := digest(ts, method, path)
	if err := rsa.VerifyPSS(pub, crypto.SHA256, hashed[:], sig,
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return nil
}

// digest hashes timestamp_ms + method + path.
func digest(tsMillis int64, method, path string) [32]byte {
	return sha256.Sum256([]byte(strconv.FormatInt(tsMillis, 10) + method + path))
}
