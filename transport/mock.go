// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package transport

import (
	"context"
)

// MockConnection is a scripted Connection for tests. Inbound bytes are
// served from a queue fed by the test; outbound writes are captured.
type MockConnection struct {
	inbound []byte
	pos     int

	// Writes holds each WriteAll payload in order.
	Writes [][]byte

	// Closed reports whether Close was called.
	Closed bool

	// ErrOnRead and ErrOnWrite force the next read or write to fail.
	ErrOnRead  error
	ErrOnWrite error
}

// NewMockConnection returns a mock with the given scripted inbound bytes.
func NewMockConnection(inbound ...byte) *MockConnection {
	return &MockConnection{inbound: inbound}
}

// Feed appends more scripted inbound bytes.
func (c *MockConnection) Feed(b ...byte) {
	c.inbound = append(c.inbound, b...)
}

// Sent returns all captured outbound bytes concatenated.
func (c *MockConnection) Sent() []byte {
	var out []byte
	for _, w := range c.Writes {
		out = append(out, w...)
	}
	return out
}

func (c *MockConnection) ReadExact(ctx context.Context, buf []byte) error {
	if c.ErrOnRead != nil {
		err := c.ErrOnRead
		c.ErrOnRead = nil
		return err
	}

	if len(c.inbound)-c.pos < len(buf) {
		return ErrUnexpectedEOF
	}

	copy(buf, c.inbound[c.pos:])
	c.pos += len(buf)
	return nil
}

func (c *MockConnection) WriteAll(ctx context.Context, buf []byte) error {
	if c.ErrOnWrite != nil {
		err := c.ErrOnWrite
		c.ErrOnWrite = nil
		return err
	}

	c.Writes = append(c.Writes, append([]byte{}, buf...))
	return nil
}

func (c *MockConnection) ReadReady() (bool, error) {
	return c.pos < len(c.inbound), nil
}

func (c *MockConnection) Close() error {
	c.Closed = true
	return nil
}
