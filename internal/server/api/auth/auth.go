// Package auth implements the password handshake and the encrypted framing
// used by the keybridge API and by VIIPER servers.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
)

const (
	AutoGenKeyLength = 16
	Base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	PBKDF2Iterations = 100000
	NonceSize        = 32
)

// ErrEmptyPassword is returned when deriving a key from "".
var ErrEmptyPassword = errors.New("password cannot be empty")

// Protocol names the constants that distinguish one handshake dialect from
// another. Both sides of a connection must use the same Protocol.
type Protocol struct {
	Name           string
	Magic          string
	KeySalt        string
	AuthContext    string
	SessionContext string
}

// KeyBridge is spoken by the keybridge API server and apiclient.
var KeyBridge = Protocol{
	Name:           "keybridge",
	Magic:          "kBR1\x00",
	KeySalt:        "keybridge-Key-v1",
	AuthContext:    "keybridge-Auth-v1",
	SessionContext: "keybridge-Session-v1",
}

// VIIPER is spoken by VIIPER servers; the viiper output sink uses it.
var VIIPER = Protocol{
	Name:           "viiper",
	Magic:          "eVI1\x00",
	KeySalt:        "VIIPER-Key-v1",
	AuthContext:    "VIIPER-Auth-v1",
	SessionContext: "VIIPER-Session-v1",
}

// GenerateKey creates a random 16-char base62 password.
func GenerateKey() (string, error) {
	randomBytes := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	key := make([]byte, AutoGenKeyLength)
	for i, b := range randomBytes {
		key[i] = Base62Chars[int(b)%62]
	}

	return string(key), nil
}

// DeriveKey stretches password to 32 bytes with PBKDF2.
func (p Protocol) DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(
		sha256.New,
		password,
		[]byte(p.KeySalt),
		PBKDF2Iterations,
		32,
	)
}

// DeriveSessionKey mixes the long-term key with both nonces.
func (p Protocol) DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(p.SessionContext))
	return h.Sum(nil)
}
