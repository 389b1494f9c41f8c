// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// PubrecPacket is the first acknowledgement of a qos 2 publish.
type PubrecPacket struct {
	Properties Properties
	ReasonCode Code
	PacketID   uint16
}

func (pk *PubrecPacket) Type() byte {
	return Pubrec
}

func (pk *PubrecPacket) Encode(w *Writer) error {
	return encodePacket(w, Pubrec<<4, func(w *Writer) error {
		return encodeAckBody(w, Pubrec, pk.PacketID, pk.ReasonCode, &pk.Properties)
	})
}

func (pk *PubrecPacket) Decode(fh FixedHeader, r *Reader) error {
	var err error
	pk.PacketID, pk.ReasonCode, err = decodeAckBody(r, Pubrec, PubackCodes, &pk.Properties)
	return err
}
