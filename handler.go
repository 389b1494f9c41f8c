// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package mqtt

import (
	"context"

	"github.com/petrel-mqtt/client/packets"
	"github.com/petrel-mqtt/client/transport"
)

// HandlerClient wraps a session so that every operation which awaits a
// server response drives the receive side itself. Each wrapped operation
// polls until nothing is outstanding, dispatching received events to the
// session's handler along the way, so callers never need to interleave
// explicit polls between sends.
//
// The embedded session remains usable directly; Poll in particular can be
// called to drain incoming messages between operations.
type HandlerClient struct {
	*Client
}

// NewHandlerClient returns a disconnected auto-polling session over conn.
func NewHandlerClient(conn transport.Connection, txBuf, rxBuf []byte, handler EventHandler, opts Options) *HandlerClient {
	return &HandlerClient{Client: NewClient(conn, txBuf, rxBuf, handler, opts)}
}

// Publish sends an application message. A QoS 1 publish polls until the
// matching puback has arrived.
func (h *HandlerClient) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	if err := h.Client.Publish(ctx, topic, payload, qos, retain); err != nil {
		return err
	}
	return h.await(ctx)
}

// Subscribe requests a subscription and polls until the suback has arrived.
func (h *HandlerClient) Subscribe(ctx context.Context, sub packets.Subscription) error {
	if err := h.Client.Subscribe(ctx, sub); err != nil {
		return err
	}
	return h.await(ctx)
}

// Unsubscribe requests removal of a subscription and polls until the
// unsuback has arrived.
func (h *HandlerClient) Unsubscribe(ctx context.Context, filter string) error {
	if err := h.Client.Unsubscribe(ctx, filter); err != nil {
		return err
	}
	return h.await(ctx)
}

// Ping sends a keep alive probe and polls until the pingresp has arrived.
func (h *HandlerClient) Ping(ctx context.Context) error {
	if err := h.Client.Ping(ctx); err != nil {
		return err
	}
	return h.await(ctx)
}

// await drives polls until no acknowledgement or pingresp is outstanding.
// Events received while waiting, including unrelated application messages,
// are dispatched to the handler as they arrive.
func (h *HandlerClient) await(ctx context.Context) error {
	for h.WaitingForResponses() {
		if _, err := h.Poll(ctx, true); err != nil {
			return err
		}
	}
	return nil
}
