// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// SubackPacket acknowledges a subscribe packet with one reason code per
// requested topic filter.
type SubackPacket struct {
	ReasonCodes []Code
	Properties  Properties
	PacketID    uint16
}

func (pk *SubackPacket) Type() byte {
	return Suback
}

func (pk *SubackPacket) Encode(w *Writer) error {
	if len(pk.ReasonCodes) == 0 {
		return ErrProtocolViolationNoReasonCodes
	}
	if pk.PacketID == 0 {
		return ErrProtocolViolationNoPacketID
	}

	return encodePacket(w, Suback<<4, func(w *Writer) error {
		if err := w.WriteUint16(pk.PacketID); err != nil {
			return err
		}
		if err := pk.Properties.Encode(Suback, w); err != nil {
			return err
		}
		for _, code := range pk.ReasonCodes {
			if err := w.WriteByte(code.Code); err != nil {
				return err
			}
		}
		return nil
	})
}

func (pk *SubackPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	if pk.PacketID, err = readPacketID(r); err != nil {
		return err
	}

	if err = pk.Properties.Decode(Suback, r); err != nil {
		return err
	}

	for r.Remaining() > 0 {
		code, err := readCode(r, SubackCodes)
		if err != nil {
			return err
		}
		pk.ReasonCodes = append(pk.ReasonCodes, code)
	}

	if len(pk.ReasonCodes) == 0 { // [MQTT-3.9.3-1]
		return ErrProtocolViolationNoReasonCodes
	}
	return nil
}
