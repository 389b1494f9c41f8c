// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// SubscribePacket requests one or more topic filter subscriptions. Its
// fixed header carries the mandatory 0b0010 flag nibble. [MQTT-3.8.1-1]
type SubscribePacket struct {
	Filters    []Subscription
	Properties Properties
	PacketID   uint16
}

func (pk *SubscribePacket) Type() byte {
	return Subscribe
}

func (pk *SubscribePacket) Encode(w *Writer) error {
	if len(pk.Filters) == 0 { // [MQTT-3.8.3-2]
		return ErrProtocolViolationNoFilters
	}
	if pk.PacketID == 0 {
		return ErrProtocolViolationNoPacketID
	}

	return encodePacket(w, Subscribe<<4|0x02, func(w *Writer) error {
		if err := w.WriteUint16(pk.PacketID); err != nil {
			return err
		}
		if err := pk.Properties.Encode(Subscribe, w); err != nil {
			return err
		}

		for _, sub := range pk.Filters {
			if sub.Qos > Qos2 {
				return ErrProtocolViolationQosOutOfRange
			}
			if err := w.WriteString(sub.Filter); err != nil {
				return err
			}
			if err := w.WriteByte(sub.encodeOptions()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (pk *SubscribePacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	if pk.PacketID, err = readPacketID(r); err != nil {
		return err
	}

	if err = pk.Properties.Decode(Subscribe, r); err != nil {
		return err
	}

	for r.Remaining() > 0 {
		var sub Subscription
		if sub.Filter, err = r.ReadString(); err != nil {
			return err
		}
		opts, err := r.ReadByte()
		if err != nil {
			return err
		}
		if err = sub.decodeOptions(opts); err != nil {
			return err
		}
		pk.Filters = append(pk.Filters, sub)
	}

	if len(pk.Filters) == 0 { // [MQTT-3.8.3-2]
		return ErrProtocolViolationNoFilters
	}
	return nil
}
