// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// UnsubscribePacket requests removal of one or more topic filter
// subscriptions. Its fixed header carries the mandatory 0b0010 flag
// nibble. [MQTT-3.10.1-1]
type UnsubscribePacket struct {
	Filters    []string
	Properties Properties
	PacketID   uint16
}

func (pk *UnsubscribePacket) Type() byte {
	return Unsubscribe
}

func (pk *UnsubscribePacket) Encode(w *Writer) error {
	if len(pk.Filters) == 0 { // [MQTT-3.10.3-2]
		return ErrProtocolViolationNoFilters
	}
	if pk.PacketID == 0 {
		return ErrProtocolViolationNoPacketID
	}

	return encodePacket(w, Unsubscribe<<4|0x02, func(w *Writer) error {
		if err := w.WriteUint16(pk.PacketID); err != nil {
			return err
		}
		if err := pk.Properties.Encode(Unsubscribe, w); err != nil {
			return err
		}
		for _, filter := range pk.Filters {
			if err := w.WriteString(filter); err != nil {
				return err
			}
		}
		return nil
	})
}

func (pk *UnsubscribePacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	if pk.PacketID, err = readPacketID(r); err != nil {
		return err
	}

	if err = pk.Properties.Decode(Unsubscribe, r); err != nil {
		return err
	}

	for r.Remaining() > 0 {
		filter, err := r.ReadString()
		if err != nil {
			return err
		}
		pk.Filters = append(pk.Filters, filter)
	}

	if len(pk.Filters) == 0 { // [MQTT-3.10.3-2]
		return ErrProtocolViolationNoFilters
	}
	return nil
}
