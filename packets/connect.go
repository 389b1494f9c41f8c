// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

import (
	"bytes"
)

// Will contains the last will and testament registered during connection.
type Will struct {
	Topic      string
	Payload    []byte
	Properties Properties
	Qos        byte
	Retain     bool
}

// ConnectPacket is the first packet sent by a client to a server.
type ConnectPacket struct {
	ClientID     string
	Username     string
	Password     []byte
	Will         *Will
	Properties   Properties
	KeepAlive    uint16
	CleanStart   bool
	UsernameFlag bool
	PasswordFlag bool
}

func (pk *ConnectPacket) Type() byte {
	return Connect
}

func (pk *ConnectPacket) Encode(w *Writer) error {
	return encodePacket(w, Connect<<4, func(w *Writer) error {
		if err := w.WriteBinary(ProtocolName); err != nil {
			return err
		}
		if err := w.WriteByte(ProtocolVersion5); err != nil {
			return err
		}

		var flags byte
		flags |= encodeBool(pk.CleanStart) << 1
		if pk.Will != nil {
			flags |= 1 << 2
			flags |= pk.Will.Qos << 3
			flags |= encodeBool(pk.Will.Retain) << 5
		}
		flags |= encodeBool(pk.PasswordFlag) << 6
		flags |= encodeBool(pk.UsernameFlag) << 7
		if err := w.WriteByte(flags); err != nil {
			return err
		}

		if err := w.WriteUint16(pk.KeepAlive); err != nil {
			return err
		}
		if err := pk.Properties.Encode(Connect, w); err != nil {
			return err
		}

		if err := w.WriteString(pk.ClientID); err != nil {
			return err
		}

		if pk.Will != nil {
			if err := pk.Will.Properties.Encode(WillProperties, w); err != nil {
				return err
			}
			if err := w.WriteString(pk.Will.Topic); err != nil {
				return err
			}
			if err := w.WriteBinary(pk.Will.Payload); err != nil {
				return err
			}
		}

		if pk.UsernameFlag {
			if err := w.WriteString(pk.Username); err != nil {
				return err
			}
		}
		if pk.PasswordFlag {
			if err := w.WriteBinary(pk.Password); err != nil {
				return err
			}
		}

		return nil
	})
}

func (pk *ConnectPacket) Decode(fh FixedHeader, r *Reader) error {
	name, err := r.ReadBinary()
	if err != nil {
		return ErrMalformedProtocolName
	}
	if !bytes.Equal(name, ProtocolName) { // [MQTT-3.1.2-1]
		return ErrProtocolViolationProtocolName
	}

	version, err := r.ReadByte()
	if err != nil {
		return ErrMalformedProtocolVersion
	}
	if version != ProtocolVersion5 {
		return ErrProtocolViolationProtocolName
	}

	flags, err := r.ReadByte()
	if err != nil {
		return ErrMalformedFlags
	}
	if flags&1 > 0 { // [MQTT-3.1.2-3]
		return ErrProtocolViolationReservedBit
	}

	pk.CleanStart = flags&(1<<1) > 0
	willFlag := flags&(1<<2) > 0
	willQos := (flags >> 3) & 0b11
	willRetain := flags&(1<<5) > 0
	pk.PasswordFlag = flags&(1<<6) > 0
	pk.UsernameFlag = flags&(1<<7) > 0

	if willQos > Qos2 { // [MQTT-3.1.2-12]
		return ErrProtocolViolationQosOutOfRange
	}
	if !willFlag && (willQos > 0 || willRetain) { // [MQTT-3.1.2-11] [MQTT-3.1.2-15]
		return ErrProtocolViolationWillSurplusRetain
	}

	if pk.KeepAlive, err = r.ReadUint16(); err != nil {
		return ErrMalformedKeepalive
	}

	if err = pk.Properties.Decode(Connect, r); err != nil {
		return err
	}

	if pk.ClientID, err = r.ReadString(); err != nil {
		return ErrMalformedInvalidUTF8
	}

	if willFlag {
		pk.Will = &Will{Qos: willQos, Retain: willRetain}
		if err = pk.Will.Properties.Decode(WillProperties, r); err != nil {
			return ErrMalformedWillProperties
		}
		if pk.Will.Topic, err = r.ReadString(); err != nil {
			return ErrMalformedWillTopic
		}
		if pk.Will.Payload, err = r.ReadBinary(); err != nil {
			return ErrProtocolViolationWillFlagNoPayload
		}
	}

	if pk.UsernameFlag { // [MQTT-3.1.3-12]
		if pk.Username, err = r.ReadString(); err != nil {
			return ErrProtocolViolationFlagNoUsername
		}
	}
	if pk.PasswordFlag {
		if pk.Password, err = r.ReadBinary(); err != nil {
			return ErrProtocolViolationFlagNoPassword
		}
	}

	return nil
}
