// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package mqtt

import (
	"strings"

	"github.com/jinzhu/copier"

	"github.com/petrel-mqtt/client/packets"
)

// AckKind identifies which acknowledgement packet released an outstanding
// identifier.
type AckKind byte

const (
	AckPuback AckKind = iota
	AckSuback
	AckUnsuback
)

// String returns a human-readable name for the acknowledgement kind.
func (k AckKind) String() string {
	switch k {
	case AckPuback:
		return "puback"
	case AckSuback:
		return "suback"
	case AckUnsuback:
		return "unsuback"
	}
	return "unknown"
}

// Event is something that happened on the session which the caller may care
// about, delivered to the session's EventHandler during a poll.
type Event interface {
	isEvent()
}

// EventHandler consumes events dispatched by a poll. Handlers are invoked
// synchronously; an error propagates out of the operation that was polling.
type EventHandler func(ev Event) error

// Message is an application message received from the server. Its topic,
// payload and properties borrow from the session's receive buffer and are
// valid only until the next poll; use Clone to retain a message beyond that.
type Message struct {
	Topic      string
	Payload    []byte
	Properties packets.Properties
	Qos        byte
	Retain     bool
}

func (Message) isEvent() {}

// Clone deep-copies the message out of the receive buffer so it can be
// retained after the poll returns.
func (m Message) Clone() (Message, error) {
	var out Message
	if err := copier.CopyWithOption(&out, &m, copier.Option{DeepCopy: true}); err != nil {
		return Message{}, err
	}

	// Decoded strings alias the receive buffer, so string fields must be
	// recopied explicitly.
	out.Topic = strings.Clone(m.Topic)
	out.Properties.ContentType = strings.Clone(m.Properties.ContentType)
	out.Properties.ResponseTopic = strings.Clone(m.Properties.ResponseTopic)
	if m.Properties.User != nil {
		out.Properties.User = make([]packets.UserProperty, len(m.Properties.User))
		for i, u := range m.Properties.User {
			out.Properties.User[i] = packets.UserProperty{Key: strings.Clone(u.Key), Val: strings.Clone(u.Val)}
		}
	}
	return out, nil
}

// Ack reports a released acknowledgement. A non-success reason code that is
// not an error, such as no matching subscribers on a puback, is surfaced
// here rather than as an error.
type Ack struct {
	ReasonCode packets.Code
	ID         uint16
	Kind       AckKind
}

func (Ack) isEvent() {}

// SubscriptionGrantedBelowRequestedQos reports a suback which granted the
// subscription at a lower qos than requested. The subscription stands.
type SubscriptionGrantedBelowRequestedQos struct {
	ID           uint16
	RequestedQos byte
	GrantedQos   byte
}

func (SubscriptionGrantedBelowRequestedQos) isEvent() {}

// ConnectionClosed reports a disconnect packet received from the server.
// The session has already transitioned to the disconnected state.
type ConnectionClosed struct {
	ReasonCode packets.Code
}

func (ConnectionClosed) isEvent() {}
