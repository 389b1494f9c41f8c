// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// PubackPacket acknowledges a qos 1 publish.
type PubackPacket struct {
	Properties Properties
	ReasonCode Code
	PacketID   uint16
}

func (pk *PubackPacket) Type() byte {
	return Puback
}

func (pk *PubackPacket) Encode(w *Writer) error {
	return encodePacket(w, Puback<<4, func(w *Writer) error {
		return encodeAckBody(w, Puback, pk.PacketID, pk.ReasonCode, &pk.Properties)
	})
}

func (pk *PubackPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	pk.PacketID, pk.ReasonCode, err = decodeAckBody(r, Puback, PubackCodes, &pk.Properties)
	return err
}
