package apiclient_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/apiclient"
	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/internal/server/api/auth"
)

// plainServer accepts one connection, records the request up to its
// terminator and answers with response.
func plainServer(t *testing.T, response string) (addr string, request <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		req, _ := bufio.NewReader(conn).ReadString('\x00')
		got <- req
		_, _ = conn.Write([]byte(response))
	}()
	return ln.Addr().String(), got
}

func TestTransportPayloadEncoding(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		payload any
		want    string
	}{
		{name: "no payload", path: "layout/list", want: "layout/list\x00"},
		{name: "empty string", path: "macro/cancel", payload: "", want: "macro/cancel\x00"},
		{name: "string", path: "layout/set", payload: "de_DE", want: "layout/set de_DE\x00"},
		{name: "bytes", path: "layout/set", payload: []byte("fr_FR"), want: "layout/set fr_FR\x00"},
		{name: "newlines kept", path: "keyboard/type", payload: "one\ntwo", want: "keyboard/type one\ntwo\x00"},
		{name: "struct as json", path: "macro/save", payload: struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}{ID: "m1", Name: "copy"}, want: `macro/save {"id":"m1","name":"copy"}` + "\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, request := plainServer(t, "{}\n")
			out, err := apiclient.NewTransport(addr).Do(tt.path, tt.payload, nil)
			require.NoError(t, err)
			assert.Equal(t, "{}", out)
			assert.Equal(t, tt.want, <-request)
		})
	}
}

func TestTransportMultiLineResponse(t *testing.T) {
	addr, _ := plainServer(t, "{\n  \"layouts\": [\n    \"en_US\"\n  ]\n}\n")
	out, err := apiclient.NewTransport(addr).Do("layout/list", nil, nil)
	require.NoError(t, err)
	var res struct{ Layouts []string }
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"en_US"}, res.Layouts)
}

func echoServer(proto auth.Protocol, password string) func(t *testing.T, conn net.Conn) {
	return func(t *testing.T, conn net.Conn) {
		defer conn.Close()
		r := bufio.NewReader(conn)

		key, err := proto.DeriveKey(password)
		assert.NoError(t, err)

		ok, err := proto.IsHandshake(r)
		if err != nil || !ok {
			return
		}
		clientNonce, serverNonce, err := proto.ServerHandshake(r, conn, key)
		if err != nil {
			var apiErr apitypes.ApiError
			if errors.As(err, &apiErr) {
				b, _ := json.Marshal(apiErr)
				_, _ = conn.Write(append(b, '\n'))
			}
			return
		}

		secureConn, err := auth.WrapConn(conn, proto.DeriveSessionKey(key, serverNonce, clientNonce))
		assert.NoError(t, err)

		rr := bufio.NewReader(secureConn)
		line, err := rr.ReadString('\x00')
		if err != nil {
			return
		}
		_, err = secureConn.Write([]byte(line))
		assert.NoError(t, err)
	}
}

func TestEncryptedTransport(t *testing.T) {
	type testCase struct {
		name          string
		password      string
		protocol      auth.Protocol
		serverHandler func(t *testing.T, conn net.Conn)
		line          string
		expectedErr   error
	}

	cases := []testCase{
		{
			name:          "success",
			password:      "test123",
			serverHandler: echoServer(auth.KeyBridge, "test123"),
			line:          "echo hi",
		},
		{
			name:          "viiper dialect",
			password:      "test123",
			protocol:      auth.VIIPER,
			serverHandler: echoServer(auth.VIIPER, "test123"),
			line:          "bus/list",
		},
		{
			name:          "dialect mismatch",
			password:      "test123",
			protocol:      auth.VIIPER,
			serverHandler: echoServer(auth.KeyBridge, "test123"),
			expectedErr:   errors.New(""),
		},
		{
			name:          "wrong password",
			password:      "wrongpass",
			serverHandler: echoServer(auth.KeyBridge, "test123"),
			expectedErr:   errors.New("401 Unauthorized: invalid password"),
		},
		{
			name:     "bad handshake response",
			password: "test123",
			serverHandler: func(t *testing.T, conn net.Conn) {
				defer conn.Close()
				_, _ = conn.Write([]byte("NO\x00" + strings.Repeat("x", 32)))
			},
			expectedErr: errors.New(""),
		},
		{
			name:     "server closes early",
			password: "test123",
			serverHandler: func(t *testing.T, conn net.Conn) {
				_ = conn.Close()
			},
			expectedErr: errors.New(""),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			assert.NoError(t, err)
			defer ln.Close()

			go func() {
				conn, err := ln.Accept()
				if err != nil {
					return
				}
				tc.serverHandler(t, conn)
			}()

			client := apiclient.NewTransportWithConfig(ln.Addr().String(), &apiclient.Config{
				DialTimeout:  time.Second,
				ReadTimeout:  2 * time.Second,
				WriteTimeout: 2 * time.Second,
				Password:     tc.password,
				Protocol:     tc.protocol,
			})
			path, payload, _ := strings.Cut(tc.line, " ")
			out, err := client.Do(path, payload, nil)

			if tc.expectedErr != nil {
				assert.Error(t, err)
				assert.ErrorContains(t, err, tc.expectedErr.Error())
				return
			}

			assert.NoError(t, err)
			resp := strings.TrimSuffix(out, "\x00")
			assert.Equal(t, tc.line, resp)
		})
	}
}

func TestTransportPathParams(t *testing.T) {
	var gotPath string
	var gotParams map[string]string
	tr := apiclient.NewMockTransport(func(path string, _ any, params map[string]string) (string, error) {
		gotPath, gotParams = path, params
		return "", nil
	})
	_, err := tr.Do("macro/{id}/play", nil, map[string]string{"id": "Ab Cd"})
	require.NoError(t, err)
	assert.Equal(t, "macro/{id}/play", gotPath)
	assert.Equal(t, "Ab Cd", gotParams["id"])

	addr, request := plainServer(t, "\n")
	_, err = apiclient.NewTransport(addr).Do("macro/{id}/play", nil, map[string]string{"id": "Ab Cd"})
	require.NoError(t, err)
	assert.Equal(t, "macro/Ab%20Cd/play\x00", <-request)
}
