// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

import (
	"strings"
)

// PublishPacket carries an application message in either direction.
type PublishPacket struct {
	TopicName  string
	Payload    []byte
	Properties Properties
	PacketID   uint16
	Qos        byte
	Dup        bool
	Retain     bool
}

func (pk *PublishPacket) Type() byte {
	return Publish
}

func (pk *PublishPacket) Encode(w *Writer) error {
	if pk.Qos > Qos2 {
		return ErrProtocolViolationQosOutOfRange
	}
	if strings.ContainsAny(pk.TopicName, "+#") { // [MQTT-3.3.2-2]
		return ErrProtocolViolationSurplusWildcard
	}

	header := Publish<<4 | encodeBool(pk.Dup)<<3 | pk.Qos<<1 | encodeBool(pk.Retain)
	return encodePacket(w, header, func(w *Writer) error {
		if err := w.WriteString(pk.TopicName); err != nil {
			return err
		}
		if pk.Qos > 0 { // [MQTT-2.2.1-2]
			if pk.PacketID == 0 {
				return ErrProtocolViolationNoPacketID
			}
			if err := w.WriteUint16(pk.PacketID); err != nil {
				return err
			}
		}
		if err := pk.Properties.Encode(Publish, w); err != nil {
			return err
		}
		return w.Put(pk.Payload)
	})
}

func (pk *PublishPacket) Decode(fh FixedHeader, r *Reader) error {
	pk.Dup = fh.Dup
	pk.Qos = fh.Qos
	pk.Retain = fh.Retain

	var err error
	if pk.TopicName, err = r.ReadString(); err != nil {
		return err
	}
	if strings.ContainsAny(pk.TopicName, "+#") { // [MQTT-3.3.2-2]
		return ErrProtocolViolationSurplusWildcard
	}

	if pk.Qos > 0 { // [MQTT-2.2.1-2]
		if pk.PacketID, err = readPacketID(r); err != nil {
			return err
		}
	}

	if err = pk.Properties.Decode(Publish, r); err != nil {
		return err
	}

	// The payload is everything left in the packet body.
	pk.Payload, err = r.Take(r.Remaining())
	return err
}
