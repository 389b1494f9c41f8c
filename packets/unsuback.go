// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// UnsubackPacket acknowledges an unsubscribe packet with one reason code
// per requested topic filter.
type UnsubackPacket struct {
	ReasonCodes []Code
	Properties  Properties
	PacketID    uint16
}

func (pk *UnsubackPacket) Type() byte {
	return Unsuback
}

func (pk *UnsubackPacket) Encode(w *Writer) error {
	if len(pk.ReasonCodes) == 0 {
		return ErrProtocolViolationNoReasonCodes
	}
	if pk.PacketID == 0 {
		return ErrProtocolViolationNoPacketID
	}

	return encodePacket(w, Unsuback<<4, func(w *Writer) error {
		if err := w.WriteUint16(pk.PacketID); err != nil {
			return err
		}
		if err := pk.Properties.Encode(Unsuback, w); err != nil {
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

func (pk *UnsubackPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	if pk.PacketID, err = readPacketID(r); err != nil {
		return err
	}

	if err = pk.Properties.Decode(Unsuback, r); err != nil {
		return err
	}

	for r.Remaining() > 0 {
		code, err := readCode(r, UnsubackCodes)
		if err != nil {
			return err
		}
		pk.ReasonCodes = append(pk.ReasonCodes, code)
	}

	if len(pk.ReasonCodes) == 0 { // [MQTT-3.11.3-1]
		return ErrProtocolViolationNoReasonCodes
	}
	return nil
}
