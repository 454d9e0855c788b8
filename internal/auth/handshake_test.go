package auth_test

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/Alia5/HECATE/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteServerHandshake(t *testing.T) {
	type testCase struct {
		name        string
		writer      io.Writer
		expectedErr error
	}

	testCases := []testCase{
		{
			name:        "Success",
			writer:      bytes.NewBuffer(nil),
			expectedErr: nil,
		},
		{
			name:        "Err no writer",
			writer:      nil,
			expectedErr: fmt.Errorf("write response: write on nil pointer"),
		},
		{
			name: "Err closed writer",
			writer: func() io.Writer {
				_, w := io.Pipe()
				w.Close()
				return w
			}(),
			expectedErr: fmt.Errorf("write response: io: read/write on closed pipe"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			serverNonce, err := auth.WriteServerHandshake(tc.writer)

			if tc.expectedErr != nil {
				assert.Error(t, err)
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}

			assert.NoError(t, err)
			assert.Len(t, serverNonce, 32)

			buf := tc.writer.(*bytes.Buffer)
			expectedResponse := buf.Bytes()
			assert.Equal(t, "OK\x00", string(expectedResponse[:3]))
			assert.Equal(t, serverNonce, expectedResponse[3:])
			assert.Len(t, expectedResponse, 35)
		})
	}
}

func TestServerHandshake(t *testing.T) {

	type testCase struct {
		name        string
		reader      *bufio.Reader
		writer      io.Writer
		key         []byte
		expectedErr error
	}

	validKey, err := auth.DeriveKey("test123")
	assert.NoError(t, err)
	wrongKey, err := auth.DeriveKey("wrongpass")
	assert.NoError(t, err)

	clientNonce := make([]byte, 32)
	for i := range clientNonce {
		clientNonce[i] = byte(i)
	}
	mac := hmac.New(sha256.New, validKey)
	_, _ = mac.Write([]byte("HECATE-Auth-v1"))
	_, _ = mac.Write(clientNonce)
	clientAuth := mac.Sum(nil)

	validHandshake := append([]byte(auth.HandshakeMagic), clientNonce...)
	validHandshake = append(validHandshake, clientAuth...)
	testCases := []testCase{
		{
			name:        "Successful Handshake",
			reader:      bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer:      bytes.NewBuffer(nil),
			key:         validKey,
			expectedErr: nil,
		},
		{
			name:        "Err reading client nonce",
			reader:      bufio.NewReader(bytes.NewBuffer(append([]byte(auth.HandshakeMagic), []byte("short")...))),
			writer:      bytes.NewBuffer(nil),
			key:         validKey,
			expectedErr: fmt.Errorf("read client nonce: unexpected EOF"),
		},
		{
			name:        "Err writing server handshake",
			reader:      bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer:      nil,
			key:         validKey,
			expectedErr: fmt.Errorf("write response: write on nil pointer"),
		},
		{
			name:        "Err discarding handshake magic",
			reader:      bufio.NewReader(bytes.NewBuffer([]byte("sh"))),
			writer:      bytes.NewBuffer(nil),
			key:         validKey,
			expectedErr: fmt.Errorf("discard handshake magic: EOF"),
		},
		{
			name:        "Err invalid password",
			reader:      bufio.NewReader(bytes.NewBuffer(validHandshake)),
			writer:      bytes.NewBuffer(nil),
			key:         wrongKey,
			expectedErr: fmt.Errorf("unauthorized: invalid password"),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clientNonce, serverNonce, err := auth.HandleAuthHandshake(
				tc.reader,
				tc.writer,
				tc.key,
				false,
			)
			if tc.expectedErr != nil {
				assert.Error(t, err)
				assert.EqualError(t, err, tc.expectedErr.Error())
				return
			}
			assert.NoError(t, err)
			assert.Len(t, clientNonce, 32)
			assert.Len(t, serverNonce, 32)
		})
	}

}

func TestHandshakeRoundTrip(t *testing.T) {
	key, err := auth.DeriveKey("round-trip")
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	type result struct {
		clientNonce []byte
		serverNonce []byte
		err         error
	}
	serverCh := make(chan result, 1)
	go func() {
		cn, sn, err := auth.HandleAuthHandshake(bufio.NewReader(server), server, key, false)
		serverCh <- result{cn, sn, err}
	}()

	cn, sn, err := auth.HandleAuthHandshake(bufio.NewReader(client), client, key, true)
	require.NoError(t, err)

	srv := <-serverCh
	require.NoError(t, srv.err)

	assert.Equal(t, cn, srv.clientNonce)
	assert.Equal(t, sn, srv.serverNonce)

	clientSession := auth.DeriveSessionKey(key, sn, cn)
	serverSession := auth.DeriveSessionKey(key, srv.serverNonce, srv.clientNonce)
	assert.Equal(t, clientSession, serverSession)
}
