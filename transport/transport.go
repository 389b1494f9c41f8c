// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

// Package transport frames MQTT packets over a byte-oriented connection.
// It owns no buffers; callers pass the transmit and receive buffers and
// received frames borrow from them.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/petrel-mqtt/client/packets"
)

var (
	// ErrRead wraps any connection failure on the receive path.
	ErrRead = errors.New("connection read failed")

	// ErrWrite wraps any connection failure on the send path.
	ErrWrite = errors.New("connection write failed")

	// ErrBufferTooSmall is returned when an inbound packet body exceeds the
	// capacity of the caller's receive buffer.
	ErrBufferTooSmall = errors.New("receive buffer too small for packet")

	// ErrUnexpectedEOF is returned when the connection closes mid-packet.
	ErrUnexpectedEOF = errors.New("connection closed mid-packet")
)

// Connection is a byte-oriented transport capable of carrying MQTT packets.
type Connection interface {

	// ReadExact fills buf completely or fails.
	ReadExact(ctx context.Context, buf []byte) error

	// WriteAll writes buf completely or fails.
	WriteAll(ctx context.Context, buf []byte) error

	// ReadReady reports whether a read can be started without blocking.
	// Transports which cannot know ahead of a read report false; callers
	// fall back to blocking reads.
	ReadReady() (bool, error)

	// Close closes the connection.
	Close() error
}

// Frame is a received packet: its decoded fixed header and its body bytes,
// borrowed from the caller's receive buffer.
type Frame struct {
	Header packets.FixedHeader
	Body   []byte
}

// Send encodes pk into txBuf and writes exactly the encoded bytes. Write
// failures are fatal to the connection.
func Send(ctx context.Context, pk packets.Packet, txBuf []byte, conn Connection) error {
	w := packets.NewWriter(txBuf)
	if err := pk.Encode(w); err != nil {
		return err
	}

	if err := conn.WriteAll(ctx, w.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Receive blocks until a complete packet has been read into rxBuf and
// returns its frame. The frame body is a view into rxBuf and is valid only
// until the next receive.
func Receive(ctx context.Context, rxBuf []byte, conn Connection) (Frame, error) {
	var header [1]byte
	if err := conn.ReadExact(ctx, header[:]); err != nil {
		return Frame{}, readErr(err)
	}
	return receiveRest(ctx, header[0], rxBuf, conn)
}

// ReceiveIfReady receives a packet only if the connection reports a read
// ready, returning ok false when there is nothing to read. Once the header
// byte has been read the rest of the packet is read to completion.
func ReceiveIfReady(ctx context.Context, rxBuf []byte, conn Connection) (Frame, bool, error) {
	ready, err := conn.ReadReady()
	if err != nil {
		return Frame{}, false, readErr(err)
	}
	if !ready {
		return Frame{}, false, nil
	}

	frame, err := Receive(ctx, rxBuf, conn)
	if err != nil {
		return Frame{}, false, err
	}
	return frame, true, nil
}

func receiveRest(ctx context.Context, headerByte byte, rxBuf []byte, conn Connection) (Frame, error) {
	var fh packets.FixedHeader
	if err := fh.Decode(headerByte); err != nil {
		return Frame{}, err
	}

	remaining, err := readRemainingLength(ctx, conn)
	if err != nil {
		return Frame{}, err
	}
	fh.Remaining = remaining

	if remaining > len(rxBuf) {
		return Frame{}, ErrBufferTooSmall
	}

	body := rxBuf[:remaining]
	if err := conn.ReadExact(ctx, body); err != nil {
		return Frame{}, readErr(err)
	}

	return Frame{Header: fh, Body: body}, nil
}

// readRemainingLength reads the 1 to 4 byte variable length remaining
// length field one byte at a time.
func readRemainingLength(ctx context.Context, conn Connection) (int, error) {
	var n int
	var shift uint
	for i := 0; i < 4; i++ {
		var b [1]byte
		if err := conn.ReadExact(ctx, b[:]); err != nil {
			return 0, readErr(err)
		}

		n |= int(b[0]&0x7F) << shift
		if b[0]&0x80 == 0 {
			return n, nil
		}
		shift += 7
	}

	return 0, packets.ErrMalformedVariableByteInteger
}

func readErr(err error) error {
	if errors.Is(err, ErrUnexpectedEOF) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRead, err)
}
