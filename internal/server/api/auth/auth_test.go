package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/internal/server/api/auth"
)

func TestGenerateKey(t *testing.T) {
	key, err := auth.GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, auth.AutoGenKeyLength)
	assert.Regexp(t, "^[0-9A-Za-z]{16}$", key)
}

func TestDeriveKey_VIIPERVectors(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     []byte
	}{
		{
			name:     "normal password",
			password: "password123",
			want:     []byte{0x94, 0x50, 0x29, 0x55, 0x1, 0xd7, 0x3, 0xf, 0x4, 0x61, 0xf, 0x81, 0x6a, 0xdf, 0x43, 0x1c, 0xaf, 0x8f, 0xc8, 0x21, 0xd4, 0xc1, 0x2f, 0x2f, 0x21, 0x2c, 0x1b, 0xf8, 0x64, 0x46, 0x9, 0x82},
		},
		{
			name:     "single char",
			password: "1",
			want:     []byte{0xfe, 0xdf, 0xdf, 0x4d, 0xab, 0xd2, 0x5d, 0x9f, 0xfd, 0x97, 0x96, 0xec, 0x76, 0xd2, 0xa2, 0xec, 0x2, 0x4f, 0xbf, 0xeb, 0x17, 0x8c, 0x6, 0x13, 0xed, 0x4f, 0x10, 0x9e, 0x4d, 0xef, 0xd1, 0xd2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := auth.VIIPER.DeriveKey(tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}

	_, err := auth.VIIPER.DeriveKey("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}

func TestDeriveKey_ProtocolsDiffer(t *testing.T) {
	a, err := auth.KeyBridge.DeriveKey("same")
	require.NoError(t, err)
	b, err := auth.VIIPER.DeriveKey("same")
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestDeriveSessionKey(t *testing.T) {
	key := make([]byte, 32)
	serverNonce := make([]byte, 32)
	clientNonce := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
		serverNonce[i] = byte(i + 10)
		clientNonce[i] = byte(i + 20)
	}

	sk := auth.KeyBridge.DeriveSessionKey(key, serverNonce, clientNonce)
	assert.Len(t, sk, 32)
	assert.Equal(t, sk, auth.KeyBridge.DeriveSessionKey(key, serverNonce, clientNonce))
	assert.NotEqual(t, sk, auth.VIIPER.DeriveSessionKey(key, serverNonce, clientNonce))

	clientNonce[0] = 99
	assert.NotEqual(t, sk, auth.KeyBridge.DeriveSessionKey(key, serverNonce, clientNonce))
}
