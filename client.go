// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

// Package mqtt implements the client side of an MQTT v5 session over a
// caller-provided transport and buffer pair. The session is a
// single-owner state machine with no internal locking; all operations
// must be driven from one goroutine.
package mqtt

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petrel-mqtt/client/packets"
	"github.com/petrel-mqtt/client/transport"
)

// State is the connection state of a session.
type State byte

const (
	StateDisconnected State = iota
	StateConnected
)

// String returns a human-readable connection state.
func (s State) String() string {
	if s == StateConnected {
		return "connected"
	}
	return "disconnected"
}

// Client is an MQTT v5 session over a transport connection. It owns its
// transmit and receive buffers for the lifetime of the session; received
// message topics and payloads borrow from the receive buffer and are valid
// only until the next poll.
//
// A client which encounters a protocol, codec or transport error
// transitions to the disconnected state and may be reused for a fresh
// Connect.
type Client struct {
	opts      Options
	conn      transport.Connection
	txBuf     []byte
	rxBuf     []byte
	handler   EventHandler
	inflight  *inflight
	keepAlive keepAlive
	clock     Clock
	log       *slog.Logger
	state     State
}

// NewClient returns a disconnected session over conn. The transmit and
// receive buffers bound the largest packet the session can send or
// receive. Events received during polls are dispatched to handler, which
// may be nil to discard them.
func NewClient(conn transport.Connection, txBuf, rxBuf []byte, handler EventHandler, opts Options) *Client {
	opts.ensureDefaults()
	if handler == nil {
		handler = func(Event) error { return nil }
	}

	return &Client{
		opts:     opts,
		conn:     conn,
		txBuf:    txBuf,
		rxBuf:    rxBuf,
		handler:  handler,
		inflight: newInflight(opts.Capacity),
		clock:    opts.Clock,
		log:      opts.Logger,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	return c.state
}

// WaitingForResponses reports whether any acknowledgement or pingresp is
// still outstanding.
func (c *Client) WaitingForResponses() bool {
	return !c.inflight.isEmpty() || c.keepAlive.pendingPings > 0
}

// Connect sends a connect packet built from the session options and waits
// up to the connect timeout for the server's connack. A connack carrying an
// error reason code is returned as a ConnackError and the session stays
// disconnected.
func (c *Client) Connect(ctx context.Context) error {
	if c.state != StateDisconnected {
		return ErrNotDisconnected
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	pk := &packets.ConnectPacket{
		ClientID:     c.opts.ClientID,
		CleanStart:   c.opts.CleanStart,
		KeepAlive:    c.opts.KeepAlive,
		Will:         c.opts.Will,
		Username:     c.opts.Username,
		UsernameFlag: c.opts.Username != "",
		Password:     c.opts.Password,
		PasswordFlag: c.opts.Password != nil,
		Properties: packets.Properties{
			SessionExpiryInterval:     c.opts.SessionExpiryInterval,
			SessionExpiryIntervalFlag: c.opts.SessionExpiryInterval > 0,
			ReceiveMaximum:            c.opts.ReceiveMaximum,
			MaximumPacketSize:         c.opts.MaximumPacketSize,
			TopicAliasMaximum:         c.opts.TopicAliasMaximum,
		},
	}
	if err := c.send(ctx, pk); err != nil {
		return err
	}

	frame, err := transport.Receive(ctx, c.rxBuf, c.conn)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.drop()
			return ErrConnectTimeout
		}
		c.drop()
		return err
	}

	received, err := packets.ReadPacket(frame.Header, packets.NewReader(frame.Body))
	if err != nil {
		c.drop()
		return err
	}

	ack, ok := received.(*packets.ConnackPacket)
	if !ok {
		c.drop()
		return ErrUnexpectedPacket
	}

	if ack.ReasonCode.IsError() {
		return &ConnackError{ReasonCode: ack.ReasonCode}
	}

	if c.opts.CleanStart && ack.SessionPresent {
		c.drop()
		return ErrSessionPresent
	}

	interval := c.opts.KeepAlive
	if ack.Properties.ServerKeepAliveFlag { // [MQTT-3.1.2-21]
		interval = ack.Properties.ServerKeepAlive
	}
	c.keepAlive.reset(time.Duration(interval)*time.Second, c.clock.Now())

	c.state = StateConnected
	c.log.Info("connected", "client_id", c.opts.ClientID, "keep_alive", interval)
	return nil
}

// Disconnect sends a normal disconnect packet and closes the connection.
// The session transitions to disconnected even if the send fails.
func (c *Client) Disconnect(ctx context.Context) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	err := c.send(ctx, &packets.DisconnectPacket{ReasonCode: packets.CodeSuccess})
	c.drop()
	c.log.Info("disconnected", "client_id", c.opts.ClientID)
	return err
}

// Publish sends an application message. QoS 1 publishes allocate a packet
// identifier which stays outstanding until the matching puback arrives in
// a poll; QoS 2 is not supported by the session.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	if qos > packets.Qos1 {
		return ErrUnsupportedQos2
	}

	pk := &packets.PublishPacket{
		TopicName: topic,
		Payload:   payload,
		Qos:       qos,
		Retain:    retain,
	}

	if qos == packets.Qos1 {
		id, ok := c.inflight.allocate(AckPuback, 0)
		if !ok {
			return ErrIdentifierSpaceExhausted
		}
		pk.PacketID = id
	}

	if err := c.send(ctx, pk); err != nil {
		if qos == packets.Qos1 {
			c.inflight.release(pk.PacketID, AckPuback)
		}
		return err
	}

	c.log.Debug("published", "topic", topic, "qos", qos, "id", pk.PacketID)
	return nil
}

// Subscribe requests a subscription to a topic filter. The allocated
// identifier stays outstanding until the matching suback arrives in a poll.
func (c *Client) Subscribe(ctx context.Context, sub packets.Subscription) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	id, ok := c.inflight.allocate(AckSuback, sub.Qos)
	if !ok {
		return ErrIdentifierSpaceExhausted
	}

	pk := &packets.SubscribePacket{
		PacketID: id,
		Filters:  []packets.Subscription{sub},
	}
	if err := c.send(ctx, pk); err != nil {
		c.inflight.release(id, AckSuback)
		return err
	}

	c.log.Debug("subscribed", "filter", sub.Filter, "qos", sub.Qos, "id", id)
	return nil
}

// Unsubscribe requests removal of a topic filter subscription. The
// allocated identifier stays outstanding until the matching unsuback
// arrives in a poll.
func (c *Client) Unsubscribe(ctx context.Context, filter string) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}

	id, ok := c.inflight.allocate(AckUnsuback, 0)
	if !ok {
		return ErrIdentifierSpaceExhausted
	}

	pk := &packets.UnsubscribePacket{
		PacketID: id,
		Filters:  []string{filter},
	}
	if err := c.send(ctx, pk); err != nil {
		c.inflight.release(id, AckUnsuback)
		return err
	}

	c.log.Debug("unsubscribed", "filter", filter, "id", id)
	return nil
}

// Ping sends a keep alive probe. At most one pingresp may be outstanding.
func (c *Client) Ping(ctx context.Context) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	if c.keepAlive.pendingPings > 0 {
		return ErrDuplicatePingPending
	}

	if err := c.send(ctx, &packets.PingreqPacket{}); err != nil {
		return err
	}
	c.keepAlive.notePingSent(c.clock.Now())
	return nil
}

// Poll drives the receive side of the session once. When wait is false it
// returns immediately if no packet is buffered; when wait is true it blocks
// until a packet arrives or ctx expires. It reports whether a packet was
// handled.
//
// Poll also services the keep alive clock: it sends a pingreq when one is
// due and fails with ErrKeepAliveTimeout when a pingresp has been pending
// for longer than the keep alive interval.
func (c *Client) Poll(ctx context.Context, wait bool) (bool, error) {
	if c.state != StateConnected {
		return false, ErrNotConnected
	}

	now := c.clock.Now()
	if c.keepAlive.expired(now) {
		c.drop()
		return false, ErrKeepAliveTimeout
	}
	if c.keepAlive.pingDue(now) {
		if err := c.Ping(ctx); err != nil {
			return false, err
		}
	}

	var frame transport.Frame
	var err error
	if wait {
		frame, err = transport.Receive(ctx, c.rxBuf, c.conn)
	} else {
		var ok bool
		frame, ok, err = transport.ReceiveIfReady(ctx, c.rxBuf, c.conn)
		if err == nil && !ok {
			return false, nil
		}
	}
	if err != nil {
		c.drop()
		return false, err
	}

	return true, c.dispatch(ctx, frame)
}

// dispatch decodes a received frame and applies its session effect.
// Protocol and codec failures leave the wire unframed, so they drop the
// connection before returning.
func (c *Client) dispatch(ctx context.Context, frame transport.Frame) error {
	received, err := packets.ReadPacket(frame.Header, packets.NewReader(frame.Body))
	if err != nil {
		c.drop()
		return err
	}

	c.log.Debug("received", "packet", packets.Names[frame.Header.Type])

	switch pk := received.(type) {
	case *packets.PublishPacket:
		return c.dispatchPublish(ctx, pk)

	case *packets.PubackPacket:
		if _, ok := c.inflight.release(pk.PacketID, AckPuback); !ok {
			c.drop()
			return ErrUnknownPacketIdentifier
		}
		return c.handler(Ack{Kind: AckPuback, ID: pk.PacketID, ReasonCode: pk.ReasonCode})

	case *packets.SubackPacket:
		entry, ok := c.inflight.release(pk.PacketID, AckSuback)
		if !ok {
			c.drop()
			return ErrUnknownPacketIdentifier
		}

		code := pk.ReasonCodes[0]
		if code.IsError() {
			return &SubackError{ReasonCode: code}
		}
		if code.Code < entry.requestedQos {
			return c.handler(SubscriptionGrantedBelowRequestedQos{
				ID:           pk.PacketID,
				RequestedQos: entry.requestedQos,
				GrantedQos:   code.Code,
			})
		}
		return c.handler(Ack{Kind: AckSuback, ID: pk.PacketID, ReasonCode: code})

	case *packets.UnsubackPacket:
		if _, ok := c.inflight.release(pk.PacketID, AckUnsuback); !ok {
			c.drop()
			return ErrUnknownPacketIdentifier
		}
		return c.handler(Ack{Kind: AckUnsuback, ID: pk.PacketID, ReasonCode: pk.ReasonCodes[0]})

	case *packets.PingrespPacket:
		if !c.keepAlive.notePingResp() {
			c.drop()
			return ErrUnexpectedPingresp
		}
		return nil

	case *packets.DisconnectPacket:
		c.drop()
		c.log.Info("server disconnected", "reason", pk.ReasonCode.Reason)
		return c.handler(ConnectionClosed{ReasonCode: pk.ReasonCode})

	default:
		// Connack after the handshake, or any packet only a client sends.
		c.drop()
		return ErrUnexpectedPacket
	}
}

// dispatchPublish delivers an application message and emits the puback a
// qos 1 publish requires before any further send can happen.
func (c *Client) dispatchPublish(ctx context.Context, pk *packets.PublishPacket) error {
	msg := Message{
		Topic:      pk.TopicName,
		Payload:    pk.Payload,
		Properties: pk.Properties,
		Qos:        pk.Qos,
		Retain:     pk.Retain,
	}

	switch pk.Qos {
	case packets.Qos0:
		return c.handler(msg)

	case packets.Qos1:
		handlerErr := c.handler(msg)

		reason := packets.CodeSuccess
		if handlerErr != nil {
			reason = packets.ErrUnspecifiedError
		}
		ack := &packets.PubackPacket{PacketID: pk.PacketID, ReasonCode: reason}
		if err := c.send(ctx, ack); err != nil {
			return err
		}
		return handlerErr

	default:
		c.drop()
		return ErrUnsupportedQos2
	}
}

// send encodes and writes a packet. A transport write failure is fatal to
// the connection; an encode failure is not.
func (c *Client) send(ctx context.Context, pk packets.Packet) error {
	if err := transport.Send(ctx, pk, c.txBuf, c.conn); err != nil {
		if errors.Is(err, transport.ErrWrite) {
			c.drop()
		}
		return err
	}

	c.keepAlive.noteWrite(c.clock.Now())
	return nil
}

// drop forces the session to the disconnected state and closes the
// connection.
func (c *Client) drop() {
	c.state = StateDisconnected
	_ = c.conn.Close()
}
