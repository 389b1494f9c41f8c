// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package mqtt

import (
	"errors"
	"fmt"

	"github.com/petrel-mqtt/client/packets"
)

var (
	// ErrNotConnected is returned by operations which require an active
	// connection.
	ErrNotConnected = errors.New("client is not connected")

	// ErrNotDisconnected is returned by Connect when a connection is
	// already active.
	ErrNotDisconnected = errors.New("client is already connected")

	// ErrIdentifierSpaceExhausted is returned when the outstanding
	// acknowledgement set is at capacity. Poll until pending
	// acknowledgements arrive before sending more.
	ErrIdentifierSpaceExhausted = errors.New("no free packet identifiers")

	// ErrDuplicatePingPending is returned by Ping while an earlier pingreq
	// still awaits its response.
	ErrDuplicatePingPending = errors.New("ping already awaiting response")

	// ErrKeepAliveTimeout means the server failed to answer a pingreq
	// within the keep alive interval and the connection is considered dead.
	ErrKeepAliveTimeout = errors.New("keep alive timeout")

	// ErrConnectTimeout means no connack arrived within the connect
	// timeout.
	ErrConnectTimeout = errors.New("timed out waiting for connack")

	// ErrUnknownPacketIdentifier means the server acknowledged a packet
	// identifier this session never issued, or with the wrong
	// acknowledgement type.
	ErrUnknownPacketIdentifier = errors.New("acknowledgement for unknown packet identifier")

	// ErrUnexpectedPingresp means a pingresp arrived with no ping pending.
	ErrUnexpectedPingresp = errors.New("pingresp received with no ping pending")

	// ErrUnexpectedPacket means the server sent a packet type a client
	// session never accepts, or one that is invalid in the current state.
	ErrUnexpectedPacket = errors.New("unexpected packet")

	// ErrUnsupportedQos2 means the server sent a qos 2 publish, or Publish
	// was asked to send one; this client does not negotiate or handle qos 2.
	ErrUnsupportedQos2 = errors.New("qos 2 publishes are not supported")

	// ErrSessionPresent means the server claimed a stored session after a
	// clean start connect.
	ErrSessionPresent = errors.New("session present after clean start")
)

// ConnackError is returned by Connect when the server refuses the
// connection with a non-success connack reason code.
type ConnackError struct {
	ReasonCode packets.Code
}

func (e *ConnackError) Error() string {
	return fmt.Sprintf("connection refused: %s (0x%02X)", e.ReasonCode.Reason, e.ReasonCode.Code)
}

// SubackError is surfaced when a suback rejects a requested topic filter
// with an error reason code.
type SubackError struct {
	ReasonCode packets.Code
}

func (e *SubackError) Error() string {
	return fmt.Sprintf("subscription rejected: %s (0x%02X)", e.ReasonCode.Reason, e.ReasonCode.Code)
}
