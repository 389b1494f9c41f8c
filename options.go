// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package mqtt

import (
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/petrel-mqtt/client/packets"
)

const (
	// DefaultConnectTimeout bounds the wait for a connack.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultCapacity is the default size of the outstanding
	// acknowledgement set. Capacity 1 requires a poll between sends.
	DefaultCapacity = 1
)

// Options contains the configurable values for a client session.
type Options struct {

	// ClientID is the identifier presented to the server. If empty a
	// unique identifier is generated.
	ClientID string

	// Username and Password are optional credentials. A nil Password is
	// not sent; an empty non-nil Password is.
	Username string
	Password []byte

	// Will is the optional last will and testament registered on connect.
	Will *packets.Will

	// CleanStart asks the server to discard any existing session state.
	CleanStart bool

	// KeepAlive is the keep alive interval in seconds; 0 disables pings.
	// The server may override it via the connack server keep alive
	// property.
	KeepAlive uint16

	// SessionExpiryInterval, ReceiveMaximum, MaximumPacketSize and
	// TopicAliasMaximum advertise the client's limits in the connect
	// properties when non-zero.
	SessionExpiryInterval uint32
	ReceiveMaximum        uint16
	MaximumPacketSize     uint32
	TopicAliasMaximum     uint16

	// ConnectTimeout bounds the wait for a connack.
	ConnectTimeout time.Duration

	// Capacity is the size of the outstanding acknowledgement set,
	// bounding how many un-acknowledged sends may be in flight.
	Capacity int

	// Logger receives structured session logs. Defaults to a discard
	// logger.
	Logger *slog.Logger

	// Clock supplies time for keep alive scheduling. Defaults to the wall
	// clock.
	Clock Clock
}

// ensureDefaults fills any unset option with its default.
func (o *Options) ensureDefaults() {
	if o.ClientID == "" {
		o.ClientID = "petrel-" + xid.New().String()
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Clock == nil {
		o.Clock = wallClock{}
	}
}
