package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	maxPacketSize = 2 * 1024 * 1024
	nonceSize     = chacha20poly1305.NonceSize
)

// ErrPacketTooLarge is returned when a peer announces a frame over 2 MiB.
var ErrPacketTooLarge = errors.New("encrypted packet too large")

// Conn seals every Write into one frame: a 4-byte big-endian length, a
// 12-byte counter nonce and the chacha20poly1305 ciphertext.
type Conn struct {
	net.Conn
	aead cipher.AEAD

	wmu     sync.Mutex
	sendCtr uint64

	rmu     sync.Mutex
	recvBuf bytes.Buffer
}

// WrapConn encrypts conn with sessionKey.
func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

func (s *Conn) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	frame := make([]byte, 4+nonceSize, 4+nonceSize+len(p)+s.aead.Overhead())
	binary.BigEndian.PutUint64(frame[8:4+nonceSize], s.sendCtr)
	s.sendCtr++

	frame = s.aead.Seal(frame, frame[4:4+nonceSize], p, nil)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))

	if _, err := s.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (s *Conn) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	if s.recvBuf.Len() == 0 {
		var hdr [4]byte
		if _, err := io.ReadFull(s.Conn, hdr[:]); err != nil {
			return 0, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length > maxPacketSize {
			return 0, ErrPacketTooLarge
		}
		if length < nonceSize {
			return 0, io.ErrUnexpectedEOF
		}

		pkt := make([]byte, length)
		if _, err := io.ReadFull(s.Conn, pkt); err != nil {
			return 0, err
		}

		pt, err := s.aead.Open(nil, pkt[:nonceSize], pkt[nonceSize:], nil)
		if err != nil {
			return 0, err
		}
		s.recvBuf.Write(pt)
	}
	return s.recvBuf.Read(p)
}
