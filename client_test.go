// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petrel-mqtt/client/packets"
	"github.com/petrel-mqtt/client/transport"
)

var connackSuccess = []byte{
	packets.Connack << 4, 0x03, // fixed header
	0x00,       // session present
	0x00,       // success
	0x00,       // no properties
}

// eventRecorder captures dispatched events and can fail on demand.
type eventRecorder struct {
	events []Event
	err    error
}

// handle records ev. Received messages borrow the session's receive buffer,
// so they are cloned before being kept past the poll.
func (r *eventRecorder) handle(ev Event) error {
	if msg, ok := ev.(Message); ok {
		clone, err := msg.Clone()
		if err != nil {
			return err
		}
		ev = clone
	}
	r.events = append(r.events, ev)
	return r.err
}

func newTestClient(opts Options) (*Client, *transport.MockConnection, *eventRecorder, *manualClock) {
	conn := transport.NewMockConnection()
	rec := new(eventRecorder)
	ck := newManualClock()

	opts.Clock = ck
	cl := NewClient(conn, make([]byte, 1024), make([]byte, 1024), rec.handle, opts)
	return cl, conn, rec, ck
}

func connectTestClient(t *testing.T, opts Options) (*Client, *transport.MockConnection, *eventRecorder, *manualClock) {
	t.Helper()

	cl, conn, rec, ck := newTestClient(opts)
	conn.Feed(connackSuccess...)
	require.NoError(t, cl.Connect(context.Background()))
	conn.Writes = nil
	return cl, conn, rec, ck
}

func TestConnect(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{
		ClientID:   "c1",
		KeepAlive:  60,
		CleanStart: true,
	})

	conn.Feed(connackSuccess...)
	require.NoError(t, cl.Connect(context.Background()))
	require.Equal(t, StateConnected, cl.State())

	require.Equal(t, []byte{
		packets.Connect << 4, 0x0F,
		0x00, 0x04, 'M', 'Q', 'T', 'T', // protocol name
		0x05,       // protocol version
		0x02,       // clean start
		0x00, 0x3C, // keep alive 60
		0x00,             // no properties
		0x00, 0x02, 'c', '1', // client id
	}, conn.Sent())
}

func TestConnectGeneratesClientID(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{})
	conn.Feed(connackSuccess...)

	require.NoError(t, cl.Connect(context.Background()))
	require.NotEmpty(t, cl.opts.ClientID)
	require.Contains(t, cl.opts.ClientID, "petrel-")
}

func TestConnectWhileConnected(t *testing.T) {
	cl, _, _, _ := connectTestClient(t, Options{ClientID: "c1"})
	require.ErrorIs(t, cl.Connect(context.Background()), ErrNotDisconnected)
}

func TestConnectRefused(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{ClientID: "c1"})
	conn.Feed(
		packets.Connack<<4, 0x03,
		0x00,
		packets.ErrClientIdentifierNotValid.Code, // 0x85
		0x00,
	)

	err := cl.Connect(context.Background())

	var cerr *ConnackError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, packets.ErrClientIdentifierNotValid, cerr.ReasonCode)
	require.Equal(t, StateDisconnected, cl.State())
}

func TestConnectSessionPresentAfterCleanStart(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{ClientID: "c1", CleanStart: true})
	conn.Feed(
		packets.Connack<<4, 0x03,
		0x01, // session present
		0x00,
		0x00,
	)

	require.ErrorIs(t, cl.Connect(context.Background()), ErrSessionPresent)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestConnectServerKeepAliveOverride(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{ClientID: "c1", KeepAlive: 60})
	conn.Feed(
		packets.Connack<<4, 0x06,
		0x00,
		0x00,
		0x03,                                 // properties length
		packets.PropServerKeepAlive, 0x00, 0x05, // 5 seconds
	)

	require.NoError(t, cl.Connect(context.Background()))
	require.Equal(t, 5*time.Second, cl.keepAlive.interval)
}

func TestConnectUnexpectedPacket(t *testing.T) {
	cl, conn, _, _ := newTestClient(Options{ClientID: "c1"})
	conn.Feed(packets.Pingresp<<4, 0x00)

	require.ErrorIs(t, cl.Connect(context.Background()), ErrUnexpectedPacket)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestDisconnect(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Disconnect(context.Background()))
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
	require.Equal(t, []byte{packets.Disconnect << 4, 0x00}, conn.Sent())

	require.ErrorIs(t, cl.Disconnect(context.Background()), ErrNotConnected)
}

func TestPublishQos0(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Publish(context.Background(), "x", []byte("ok"), packets.Qos0, false))
	require.False(t, cl.WaitingForResponses())
	require.Equal(t, []byte{
		packets.Publish << 4, 0x06,
		0x00, 0x01, 'x',
		0x00, // no properties
		'o', 'k',
	}, conn.Sent())
}

func TestPublishQos1(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Publish(context.Background(), "x", []byte("ok"), packets.Qos1, false))
	require.True(t, cl.WaitingForResponses())
	require.Equal(t, []byte{
		packets.Publish<<4 | 0x02, 0x08,
		0x00, 0x01, 'x',
		0x00, 0x01, // packet id
		0x00, // no properties
		'o', 'k',
	}, conn.Sent())

	conn.Feed(packets.Puback<<4, 0x02, 0x00, 0x01)
	handled, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.True(t, handled)
	require.False(t, cl.WaitingForResponses())

	require.Len(t, rec.events, 1)
	ack, ok := rec.events[0].(Ack)
	require.True(t, ok)
	require.Equal(t, AckPuback, ack.Kind)
	require.Equal(t, uint16(1), ack.ID)
	require.Equal(t, packets.CodeSuccess.Code, ack.ReasonCode.Code)
}

func TestPublishQos1NoMatchingSubscribers(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Publish(context.Background(), "x", nil, packets.Qos1, false))
	conn.Feed(packets.Puback<<4, 0x03, 0x00, 0x01, packets.CodeNoMatchingSubscribers.Code)

	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, StateConnected, cl.State())

	ack := rec.events[0].(Ack)
	require.Equal(t, packets.CodeNoMatchingSubscribers.Code, ack.ReasonCode.Code)
}

func TestPublishQos2Unsupported(t *testing.T) {
	cl, _, _, _ := connectTestClient(t, Options{ClientID: "c1"})
	require.ErrorIs(t, cl.Publish(context.Background(), "x", nil, packets.Qos2, false), ErrUnsupportedQos2)
}

func TestPublishCapacityExhausted(t *testing.T) {
	cl, _, _, _ := connectTestClient(t, Options{ClientID: "c1", Capacity: 1})

	require.NoError(t, cl.Publish(context.Background(), "x", nil, packets.Qos1, false))
	require.ErrorIs(t, cl.Publish(context.Background(), "y", nil, packets.Qos1, false), ErrIdentifierSpaceExhausted)
}

func TestPublishNotConnected(t *testing.T) {
	cl, _, _, _ := newTestClient(Options{ClientID: "c1"})
	require.ErrorIs(t, cl.Publish(context.Background(), "x", nil, packets.Qos0, false), ErrNotConnected)
}

func TestSubscribe(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Subscribe(context.Background(), packets.Subscription{Filter: "t/#"}))
	require.Equal(t, []byte{
		packets.Subscribe<<4 | 0x02, 0x09,
		0x00, 0x01, // packet id
		0x00, // no properties
		0x00, 0x03, 't', '/', '#',
		0x00, // subscription options
	}, conn.Sent())

	conn.Feed(packets.Suback<<4, 0x04, 0x00, 0x01, 0x00, 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.False(t, cl.WaitingForResponses())

	ack := rec.events[0].(Ack)
	require.Equal(t, AckSuback, ack.Kind)
	require.Equal(t, uint16(1), ack.ID)
}

func TestSubscribeRefused(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Subscribe(context.Background(), packets.Subscription{Filter: "t/#"}))
	conn.Feed(packets.Suback<<4, 0x04, 0x00, 0x01, 0x00, packets.ErrNotAuthorized.Code)

	_, err := cl.Poll(context.Background(), true)

	var serr *SubackError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, packets.ErrNotAuthorized, serr.ReasonCode)
	require.Equal(t, StateConnected, cl.State(), "a refused subscription is not fatal")
	require.False(t, cl.WaitingForResponses())
}

func TestSubscribeGrantedBelowRequestedQos(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Subscribe(context.Background(), packets.Subscription{Filter: "t/#", Qos: packets.Qos1}))
	conn.Feed(packets.Suback<<4, 0x04, 0x00, 0x01, 0x00, packets.CodeGrantedQos0.Code)

	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)

	ev, ok := rec.events[0].(SubscriptionGrantedBelowRequestedQos)
	require.True(t, ok)
	require.Equal(t, byte(packets.Qos1), ev.RequestedQos)
	require.Equal(t, byte(packets.Qos0), ev.GrantedQos)
}

func TestUnsubscribe(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Unsubscribe(context.Background(), "t/#"))
	require.Equal(t, []byte{
		packets.Unsubscribe<<4 | 0x02, 0x08,
		0x00, 0x01, // packet id
		0x00, // no properties
		0x00, 0x03, 't', '/', '#',
	}, conn.Sent())

	conn.Feed(packets.Unsuback<<4, 0x04, 0x00, 0x01, 0x00, 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)

	ack := rec.events[0].(Ack)
	require.Equal(t, AckUnsuback, ack.Kind)
}

func TestUnsubackNoSubscriptionExisted(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Unsubscribe(context.Background(), "t/#"))
	conn.Feed(packets.Unsuback<<4, 0x04, 0x00, 0x01, 0x00, packets.CodeNoSubscriptionExisted.Code)

	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)

	ack := rec.events[0].(Ack)
	require.Equal(t, packets.CodeNoSubscriptionExisted.Code, ack.ReasonCode.Code)
}

func TestReceiveQos0Message(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(
		packets.Publish<<4, 0x08,
		0x00, 0x03, 't', '/', 'a',
		0x00, // no properties
		'h', 'i',
	)

	handled, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.True(t, handled)
	require.Empty(t, conn.Sent(), "qos 0 must not be acknowledged")

	msg, ok := rec.events[0].(Message)
	require.True(t, ok)
	require.Equal(t, "t/a", msg.Topic)
	require.Equal(t, []byte("hi"), msg.Payload)
	require.Equal(t, byte(packets.Qos0), msg.Qos)
}

func TestReceiveQos1MessageAcknowledged(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(
		packets.Publish<<4|0x02, 0x0A,
		0x00, 0x03, 't', '/', 'a',
		0x00, 0x05, // packet id
		0x00, // no properties
		'h', 'i',
	)

	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, []byte{packets.Puback << 4, 0x02, 0x00, 0x05}, conn.Sent())

	msg := rec.events[0].(Message)
	require.Equal(t, byte(packets.Qos1), msg.Qos)
}

func TestReceiveQos1HandlerError(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})
	rec.err = errors.New("handler failed")

	conn.Feed(
		packets.Publish<<4|0x02, 0x0A,
		0x00, 0x03, 't', '/', 'a',
		0x00, 0x05,
		0x00,
		'h', 'i',
	)

	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, rec.err)
	require.Equal(t, []byte{
		packets.Puback << 4, 0x04,
		0x00, 0x05,
		packets.ErrUnspecifiedError.Code,
		0x00, // no properties
	}, conn.Sent())
	require.Equal(t, StateConnected, cl.State())
}

func TestReceiveQos2MessageDrops(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(
		packets.Publish<<4|0x04, 0x07,
		0x00, 0x01, 'a',
		0x00, 0x01,
		0x00,
		'h',
	)

	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, ErrUnsupportedQos2)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestUnknownPubackDrops(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(packets.Puback<<4, 0x02, 0x00, 0x07)
	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, ErrUnknownPacketIdentifier)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestPing(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	require.NoError(t, cl.Ping(context.Background()))
	require.Equal(t, []byte{packets.Pingreq << 4, 0x00}, conn.Sent())
	require.True(t, cl.WaitingForResponses())

	require.ErrorIs(t, cl.Ping(context.Background()), ErrDuplicatePingPending)

	conn.Feed(packets.Pingresp<<4, 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.False(t, cl.WaitingForResponses())
}

func TestUnexpectedPingresp(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(packets.Pingresp<<4, 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, ErrUnexpectedPingresp)
	require.Equal(t, StateDisconnected, cl.State())
}

func TestPollSendsPingWhenDue(t *testing.T) {
	cl, conn, _, ck := connectTestClient(t, Options{ClientID: "c1", KeepAlive: 10})

	ck.advance(8 * time.Second)
	handled, err := cl.Poll(context.Background(), false)
	require.NoError(t, err)
	require.False(t, handled)
	require.Equal(t, []byte{packets.Pingreq << 4, 0x00}, conn.Sent())
}

func TestPollKeepAliveTimeout(t *testing.T) {
	cl, conn, _, ck := connectTestClient(t, Options{ClientID: "c1", KeepAlive: 10})

	require.NoError(t, cl.Ping(context.Background()))
	ck.advance(11 * time.Second)

	_, err := cl.Poll(context.Background(), false)
	require.ErrorIs(t, err, ErrKeepAliveTimeout)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestPollNothingReady(t *testing.T) {
	cl, _, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	handled, err := cl.Poll(context.Background(), false)
	require.NoError(t, err)
	require.False(t, handled)
}

func TestPollNotConnected(t *testing.T) {
	cl, _, _, _ := newTestClient(Options{ClientID: "c1"})
	_, err := cl.Poll(context.Background(), false)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestServerDisconnect(t *testing.T) {
	cl, conn, rec, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(packets.Disconnect<<4, 0x02, packets.ErrServerShuttingDown.Code, 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)

	ev, ok := rec.events[0].(ConnectionClosed)
	require.True(t, ok)
	require.Equal(t, packets.ErrServerShuttingDown, ev.ReasonCode)
}

func TestMalformedInboundDrops(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	// Publish with qos bits set to 3.
	conn.Feed(packets.Publish<<4|0x06, 0x04, 0x00, 0x01, 'a', 0x00)
	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, packets.ErrProtocolViolationQosOutOfRange)
	require.Equal(t, StateDisconnected, cl.State())
}

func TestWriteErrorDrops(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.ErrOnWrite = errors.New("broken pipe")
	err := cl.Publish(context.Background(), "x", nil, packets.Qos0, false)
	require.ErrorIs(t, err, transport.ErrWrite)
	require.Equal(t, StateDisconnected, cl.State())
	require.True(t, conn.Closed)
}

func TestReconnectAfterDrop(t *testing.T) {
	cl, conn, _, _ := connectTestClient(t, Options{ClientID: "c1"})

	conn.Feed(packets.Puback<<4, 0x02, 0x00, 0x07)
	_, err := cl.Poll(context.Background(), true)
	require.ErrorIs(t, err, ErrUnknownPacketIdentifier)

	conn.Feed(connackSuccess...)
	require.NoError(t, cl.Connect(context.Background()))
	require.Equal(t, StateConnected, cl.State())
}
