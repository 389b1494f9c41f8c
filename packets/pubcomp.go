// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// PubcompPacket completes the qos 2 delivery handshake.
type PubcompPacket struct {
	Properties Properties
	ReasonCode Code
	PacketID   uint16
}

func (pk *PubcompPacket) Type() byte {
	return Pubcomp
}

func (pk *PubcompPacket) Encode(w *Writer) error {
	return encodePacket(w, Pubcomp<<4, func(w *Writer) error {
		return encodeAckBody(w, Pubcomp, pk.PacketID, pk.ReasonCode, &pk.Properties)
	})
}

func (pk *PubcompPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	pk.PacketID, pk.ReasonCode, err = decodeAckBody(r, Pubcomp, PubrelCodes, &pk.Properties)
	return err
}
