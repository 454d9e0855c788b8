package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	HandshakeMagic = "eHC1\x00"
	NonceSize      = 32
	authContext    = "HECATE-Auth-v1"
)

// ErrUnauthorized is returned when the peer fails authentication.
var ErrUnauthorized = errors.New("unauthorized")

// WriteServerHandshake generates server nonce and sends response
// Sends: "OK\0" + server_nonce[32]
func WriteServerHandshake(w io.Writer) (serverNonce []byte, err error) {
	if w == nil {
		return nil, fmt.Errorf("write response: write on nil pointer")
	}
	serverNonce = make([]byte, NonceSize)
	if _, err = rand.Read(serverNonce); err != nil {
		return nil, fmt.Errorf("generate server nonce: %w", err)
	}

	response := append([]byte("OK\x00"), serverNonce...)
	if _, err = w.Write(response); err != nil {
		return nil, fmt.Errorf("write response: %w", err)
	}

	return serverNonce, nil
}

// HandleAuthHandshake performs the authentication handshake. The client
// sends magic + nonce + HMAC over the shared key; the server verifies and
// answers with its own nonce. Both sides then derive the session key from
// the two nonces.
func HandleAuthHandshake(r *bufio.Reader, w io.Writer, key []byte, isClient bool) (clientNonce, serverNonce []byte, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("handshake: nil reader")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}

	if isClient {
		if w == nil {
			return nil, nil, fmt.Errorf("handshake: nil writer")
		}
		clientNonce = make([]byte, NonceSize)
		if _, err := rand.Read(clientNonce); err != nil {
			return nil, nil, fmt.Errorf("generate client nonce: %w", err)
		}

		mac := hmac.New(sha256.New, key)
		_, _ = mac.Write([]byte(authContext))
		_, _ = mac.Write(clientNonce)
		clientAuth := mac.Sum(nil)

		msg := append([]byte(HandshakeMagic), clientNonce...)
		msg = append(msg, clientAuth...)
		if _, err := w.Write(msg); err != nil {
			return nil, nil, fmt.Errorf("write handshake: %w", err)
		}

		respPrefix := make([]byte, 3)
		if _, err := io.ReadFull(r, respPrefix); err != nil {
			return nil, nil, fmt.Errorf("read handshake response: %w", err)
		}
		if string(respPrefix) != "OK\x00" {
			rest, _ := io.ReadAll(r)
			raw := append(respPrefix, rest...)
			line := strings.TrimSuffix(string(raw), "\n")
			return nil, nil, fmt.Errorf("invalid handshake response from server: %s", line)
		}

		serverNonce = make([]byte, NonceSize)
		if _, err := io.ReadFull(r, serverNonce); err != nil {
			return nil, nil, fmt.Errorf("read server nonce: %w", err)
		}
		return clientNonce, serverNonce, nil
	}

	_, err = r.Discard(len(HandshakeMagic))
	if err != nil {
		return nil, nil, fmt.Errorf("discard handshake magic: %w", err)
	}

	clientNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("read client nonce: %w", err)
	}

	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientAuth); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(clientNonce)
	expectedAuth := mac.Sum(nil)
	if !hmac.Equal(clientAuth, expectedAuth) {
		return nil, nil, fmt.Errorf("%w: invalid password", ErrUnauthorized)
	}

	serverNonce, err = WriteServerHandshake(w)
	if err != nil {
		return nil, nil, err
	}

	return clientNonce, serverNonce, nil
}
