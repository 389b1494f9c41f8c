// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// PubrelPacket is the second packet of the qos 2 delivery handshake. Its
// fixed header carries the mandatory 0b0010 flag nibble. [MQTT-3.6.1-1]
type PubrelPacket struct {
	Properties Properties
	ReasonCode Code
	PacketID   uint16
}

func (pk *PubrelPacket) Type() byte {
	return Pubrel
}

func (pk *PubrelPacket) Encode(w *Writer) error {
	return encodePacket(w, Pubrel<<4|0x02, func(w *Writer) error {
		return encodeAckBody(w, Pubrel, pk.PacketID, pk.ReasonCode, &pk.Properties)
	})
}

func (pk *PubrelPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	pk.PacketID, pk.ReasonCode, err = decodeAckBody(r, Pubrel, PubrelCodes, &pk.Properties)
	return err
}
