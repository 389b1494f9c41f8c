// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

import (
	"fmt"
)

const (
	PropPayloadFormat          byte = 1
	PropMessageExpiryInterval  byte = 2
	PropContentType            byte = 3
	PropResponseTopic          byte = 8
	PropCorrelationData        byte = 9
	PropSubscriptionIdentifier byte = 11
	PropSessionExpiryInterval  byte = 17
	PropAssignedClientID       byte = 18
	PropServerKeepAlive        byte = 19
	PropAuthenticationMethod   byte = 21
	PropAuthenticationData     byte = 22
	PropRequestProblemInfo     byte = 23
	PropWillDelayInterval      byte = 24
	PropRequestResponseInfo    byte = 25
	PropResponseInfo           byte = 26
	PropServerReference        byte = 28
	PropReasonString           byte = 31
	PropReceiveMaximum         byte = 33
	PropTopicAliasMaximum      byte = 34
	PropTopicAlias             byte = 35
	PropMaximumQos             byte = 36
	PropRetainAvailable        byte = 37
	PropUser                   byte = 38
	PropMaximumPacketSize      byte = 39
	PropWildcardSubAvailable   byte = 40
	PropSubIDAvailable         byte = 41
	PropSharedSubAvailable     byte = 42
)

// validPacketProperties indicates which properties are valid for which
// packet types.
var validPacketProperties = map[byte]map[byte]byte{
	PropPayloadFormat:          {Publish: 1, WillProperties: 1},
	PropMessageExpiryInterval:  {Publish: 1, WillProperties: 1},
	PropContentType:            {Publish: 1, WillProperties: 1},
	PropResponseTopic:          {Publish: 1, WillProperties: 1},
	PropCorrelationData:        {Publish: 1, WillProperties: 1},
	PropSubscriptionIdentifier: {Publish: 1, Subscribe: 1},
	PropSessionExpiryInterval:  {Connect: 1, Connack: 1, Disconnect: 1},
	PropAssignedClientID:       {Connack: 1},
	PropServerKeepAlive:        {Connack: 1},
	PropAuthenticationMethod:   {Connect: 1, Connack: 1, Auth: 1},
	PropAuthenticationData:     {Connect: 1, Connack: 1, Auth: 1},
	PropRequestProblemInfo:     {Connect: 1},
	PropWillDelayInterval:      {WillProperties: 1},
	PropRequestResponseInfo:    {Connect: 1},
	PropResponseInfo:           {Connack: 1},
	PropServerReference:        {Connack: 1, Disconnect: 1},
	PropReasonString:           {Connack: 1, Puback: 1, Pubrec: 1, Pubrel: 1, Pubcomp: 1, Suback: 1, Unsuback: 1, Disconnect: 1, Auth: 1},
	PropReceiveMaximum:         {Connect: 1, Connack: 1},
	PropTopicAliasMaximum:      {Connect: 1, Connack: 1},
	PropTopicAlias:             {Publish: 1},
	PropMaximumQos:             {Connack: 1},
	PropRetainAvailable:        {Connack: 1},
	PropUser:                   {Connect: 1, Connack: 1, Publish: 1, Puback: 1, Pubrec: 1, Pubrel: 1, Pubcomp: 1, Subscribe: 1, Suback: 1, Unsubscribe: 1, Unsuback: 1, Disconnect: 1, Auth: 1, WillProperties: 1},
	PropMaximumPacketSize:      {Connect: 1, Connack: 1},
	PropWildcardSubAvailable:   {Connack: 1},
	PropSubIDAvailable:         {Connack: 1},
	PropSharedSubAvailable:     {Connack: 1},
}

// UserProperty is an arbitrary key-value pair for a packet user properties
// array. [MQTT-1.5.7-1]
type UserProperty struct {
	Key string `json:"k"`
	Val string `json:"v"`
}

// Properties contains all mqtt v5 properties available for a packet.
// Some properties have valid values of 0 or not-present. In this case, we
// opt for property flags to indicate the usage of property.
// Refer to mqtt v5 2.2.2.2 Property spec for more information.
type Properties struct {
	CorrelationData           []byte         `json:"cd"`
	SubscriptionIdentifier    []int          `json:"si"`
	AuthenticationData        []byte         `json:"ad"`
	User                      []UserProperty `json:"user"`
	ContentType               string         `json:"ct"`
	ResponseTopic             string         `json:"rt"`
	AssignedClientID          string         `json:"aci"`
	AuthenticationMethod      string         `json:"am"`
	ResponseInfo              string         `json:"ri"`
	ServerReference           string         `json:"sr"`
	ReasonString              string         `json:"rs"`
	MessageExpiryInterval     uint32         `json:"me"`
	SessionExpiryInterval     uint32         `json:"sei"`
	WillDelayInterval         uint32         `json:"wdi"`
	MaximumPacketSize         uint32         `json:"mps"`
	ServerKeepAlive           uint16         `json:"ska"`
	ReceiveMaximum            uint16         `json:"rm"`
	TopicAliasMaximum         uint16         `json:"tam"`
	TopicAlias                uint16         `json:"ta"`
	PayloadFormat             byte           `json:"pf"`
	PayloadFormatFlag         bool           `json:"fpf"`
	SessionExpiryIntervalFlag bool           `json:"fsei"`
	ServerKeepAliveFlag       bool           `json:"fska"`
	RequestProblemInfo        byte           `json:"rpi"`
	RequestProblemInfoFlag    bool           `json:"frpi"`
	RequestResponseInfo       byte           `json:"rri"`
	TopicAliasFlag            bool           `json:"fta"`
	MaximumQos                byte           `json:"mqos"`
	MaximumQosFlag            bool           `json:"fmqos"`
	RetainAvailable           byte           `json:"ra"`
	RetainAvailableFlag       bool           `json:"fra"`
	WildcardSubAvailable      byte           `json:"wsa"`
	WildcardSubAvailableFlag  bool           `json:"fwsa"`
	SubIDAvailable            byte           `json:"sida"`
	SubIDAvailableFlag        bool           `json:"fsida"`
	SharedSubAvailable        byte           `json:"ssa"`
	SharedSubAvailableFlag    bool           `json:"fssa"`
}

// canEncode returns true if the property type is valid for the packet type.
func (p *Properties) canEncode(pkt byte, k byte) bool {
	return validPacketProperties[k][pkt] == 1
}

// Encode writes the property length and the properties valid for the packet
// type. Properties holding their zero value (and with no presence flag set)
// are omitted.
func (p *Properties) Encode(pkt byte, w *Writer) error {
	return writePrefixed(w, func(w *Writer) error {
		if p == nil {
			return nil
		}
		return p.encodeBody(pkt, w)
	})
}

func (p *Properties) encodeBody(pkt byte, w *Writer) error {
	if p.canEncode(pkt, PropPayloadFormat) && p.PayloadFormatFlag {
		if err := w.WriteByte(PropPayloadFormat); err != nil {
			return err
		}
		if err := w.WriteByte(p.PayloadFormat); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropMessageExpiryInterval) && p.MessageExpiryInterval > 0 {
		if err := w.WriteByte(PropMessageExpiryInterval); err != nil {
			return err
		}
		if err := w.WriteUint32(p.MessageExpiryInterval); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropContentType) && p.ContentType != "" {
		if err := w.WriteByte(PropContentType); err != nil {
			return err
		}
		if err := w.WriteString(p.ContentType); err != nil { // [MQTT-3.3.2-19]
			return err
		}
	}

	if p.canEncode(pkt, PropResponseTopic) && p.ResponseTopic != "" {
		if err := w.WriteByte(PropResponseTopic); err != nil {
			return err
		}
		if err := w.WriteString(p.ResponseTopic); err != nil { // [MQTT-3.3.2-13]
			return err
		}
	}

	if p.canEncode(pkt, PropCorrelationData) && len(p.CorrelationData) > 0 {
		if err := w.WriteByte(PropCorrelationData); err != nil {
			return err
		}
		if err := w.WriteBinary(p.CorrelationData); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropSubscriptionIdentifier) {
		for _, v := range p.SubscriptionIdentifier {
			if v <= 0 {
				continue
			}
			if err := w.WriteByte(PropSubscriptionIdentifier); err != nil {
				return err
			}
			if err := w.WriteVarint(v); err != nil {
				return err
			}
		}
	}

	if p.canEncode(pkt, PropSessionExpiryInterval) && p.SessionExpiryIntervalFlag { // [MQTT-3.14.2-2]
		if err := w.WriteByte(PropSessionExpiryInterval); err != nil {
			return err
		}
		if err := w.WriteUint32(p.SessionExpiryInterval); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropAssignedClientID) && p.AssignedClientID != "" {
		if err := w.WriteByte(PropAssignedClientID); err != nil {
			return err
		}
		if err := w.WriteString(p.AssignedClientID); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropServerKeepAlive) && p.ServerKeepAliveFlag {
		if err := w.WriteByte(PropServerKeepAlive); err != nil {
			return err
		}
		if err := w.WriteUint16(p.ServerKeepAlive); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropAuthenticationMethod) && p.AuthenticationMethod != "" {
		if err := w.WriteByte(PropAuthenticationMethod); err != nil {
			return err
		}
		if err := w.WriteString(p.AuthenticationMethod); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropAuthenticationData) && len(p.AuthenticationData) > 0 {
		if err := w.WriteByte(PropAuthenticationData); err != nil {
			return err
		}
		if err := w.WriteBinary(p.AuthenticationData); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropRequestProblemInfo) && p.RequestProblemInfoFlag {
		if err := w.WriteByte(PropRequestProblemInfo); err != nil {
			return err
		}
		if err := w.WriteByte(p.RequestProblemInfo); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropWillDelayInterval) && p.WillDelayInterval > 0 {
		if err := w.WriteByte(PropWillDelayInterval); err != nil {
			return err
		}
		if err := w.WriteUint32(p.WillDelayInterval); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropRequestResponseInfo) && p.RequestResponseInfo > 0 {
		if err := w.WriteByte(PropRequestResponseInfo); err != nil {
			return err
		}
		if err := w.WriteByte(p.RequestResponseInfo); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropResponseInfo) && p.ResponseInfo != "" {
		if err := w.WriteByte(PropResponseInfo); err != nil {
			return err
		}
		if err := w.WriteString(p.ResponseInfo); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropServerReference) && p.ServerReference != "" {
		if err := w.WriteByte(PropServerReference); err != nil {
			return err
		}
		if err := w.WriteString(p.ServerReference); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropReasonString) && p.ReasonString != "" {
		if err := w.WriteByte(PropReasonString); err != nil {
			return err
		}
		if err := w.WriteString(p.ReasonString); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropReceiveMaximum) && p.ReceiveMaximum > 0 {
		if err := w.WriteByte(PropReceiveMaximum); err != nil {
			return err
		}
		if err := w.WriteUint16(p.ReceiveMaximum); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropTopicAliasMaximum) && p.TopicAliasMaximum > 0 {
		if err := w.WriteByte(PropTopicAliasMaximum); err != nil {
			return err
		}
		if err := w.WriteUint16(p.TopicAliasMaximum); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropTopicAlias) && p.TopicAliasFlag && p.TopicAlias > 0 { // [MQTT-3.3.2-8]
		if err := w.WriteByte(PropTopicAlias); err != nil {
			return err
		}
		if err := w.WriteUint16(p.TopicAlias); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropMaximumQos) && p.MaximumQosFlag && p.MaximumQos < 2 {
		if err := w.WriteByte(PropMaximumQos); err != nil {
			return err
		}
		if err := w.WriteByte(p.MaximumQos); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropRetainAvailable) && p.RetainAvailableFlag {
		if err := w.WriteByte(PropRetainAvailable); err != nil {
			return err
		}
		if err := w.WriteByte(p.RetainAvailable); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropUser) {
		for _, v := range p.User {
			if err := w.WriteByte(PropUser); err != nil {
				return err
			}
			if err := w.WriteStringPair(v.Key, v.Val); err != nil {
				return err
			}
		}
	}

	if p.canEncode(pkt, PropMaximumPacketSize) && p.MaximumPacketSize > 0 {
		if err := w.WriteByte(PropMaximumPacketSize); err != nil {
			return err
		}
		if err := w.WriteUint32(p.MaximumPacketSize); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropWildcardSubAvailable) && p.WildcardSubAvailableFlag {
		if err := w.WriteByte(PropWildcardSubAvailable); err != nil {
			return err
		}
		if err := w.WriteByte(p.WildcardSubAvailable); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropSubIDAvailable) && p.SubIDAvailableFlag {
		if err := w.WriteByte(PropSubIDAvailable); err != nil {
			return err
		}
		if err := w.WriteByte(p.SubIDAvailable); err != nil {
			return err
		}
	}

	if p.canEncode(pkt, PropSharedSubAvailable) && p.SharedSubAvailableFlag {
		if err := w.WriteByte(PropSharedSubAvailable); err != nil {
			return err
		}
		if err := w.WriteByte(p.SharedSubAvailable); err != nil {
			return err
		}
	}

	return nil
}

// Decode reads the property length and the properties it covers, rejecting
// property types not valid for the packet type.
func (p *Properties) Decode(pkt byte, r *Reader) error {
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}

	if r.Remaining() < n {
		return ErrMalformedInsufficientData
	}

	end := r.Position() + n
	for r.Position() < end {
		k, err := r.ReadByte()
		if err != nil {
			return err
		}

		if _, ok := validPacketProperties[k][pkt]; !ok {
			return fmt.Errorf("property type %v not valid for packet type %v: %w", k, pkt, ErrProtocolViolationUnsupportedProp)
		}

		switch k {
		case PropPayloadFormat:
			p.PayloadFormat, err = r.ReadByte()
			p.PayloadFormatFlag = true
		case PropMessageExpiryInterval:
			p.MessageExpiryInterval, err = r.ReadUint32()
		case PropContentType:
			p.ContentType, err = r.ReadString()
		case PropResponseTopic:
			p.ResponseTopic, err = r.ReadString()
		case PropCorrelationData:
			p.CorrelationData, err = r.ReadBinary()
		case PropSubscriptionIdentifier:
			var v int
			v, err = r.ReadVarint()
			p.SubscriptionIdentifier = append(p.SubscriptionIdentifier, v)
		case PropSessionExpiryInterval:
			p.SessionExpiryInterval, err = r.ReadUint32()
			p.SessionExpiryIntervalFlag = true
		case PropAssignedClientID:
			p.AssignedClientID, err = r.ReadString()
		case PropServerKeepAlive:
			p.ServerKeepAlive, err = r.ReadUint16()
			p.ServerKeepAliveFlag = true
		case PropAuthenticationMethod:
			p.AuthenticationMethod, err = r.ReadString()
		case PropAuthenticationData:
			p.AuthenticationData, err = r.ReadBinary()
		case PropRequestProblemInfo:
			p.RequestProblemInfo, err = r.ReadByte()
			p.RequestProblemInfoFlag = true
		case PropWillDelayInterval:
			p.WillDelayInterval, err = r.ReadUint32()
		case PropRequestResponseInfo:
			p.RequestResponseInfo, err = r.ReadByte()
		case PropResponseInfo:
			p.ResponseInfo, err = r.ReadString()
		case PropServerReference:
			p.ServerReference, err = r.ReadString()
		case PropReasonString:
			p.ReasonString, err = r.ReadString()
		case PropReceiveMaximum:
			p.ReceiveMaximum, err = r.ReadUint16()
		case PropTopicAliasMaximum:
			p.TopicAliasMaximum, err = r.ReadUint16()
		case PropTopicAlias:
			p.TopicAlias, err = r.ReadUint16()
			p.TopicAliasFlag = true
		case PropMaximumQos:
			p.MaximumQos, err = r.ReadByte()
			p.MaximumQosFlag = true
		case PropRetainAvailable:
			p.RetainAvailable, err = r.ReadByte()
			p.RetainAvailableFlag = true
		case PropUser:
			var uk, uv string
			uk, uv, err = r.ReadStringPair()
			p.User = append(p.User, UserProperty{Key: uk, Val: uv})
		case PropMaximumPacketSize:
			p.MaximumPacketSize, err = r.ReadUint32()
		case PropWildcardSubAvailable:
			p.WildcardSubAvailable, err = r.ReadByte()
			p.WildcardSubAvailableFlag = true
		case PropSubIDAvailable:
			p.SubIDAvailable, err = r.ReadByte()
			p.SubIDAvailableFlag = true
		case PropSharedSubAvailable:
			p.SharedSubAvailable, err = r.ReadByte()
			p.SharedSubAvailableFlag = true
		}

		if err != nil {
			return err
		}
	}

	return nil
}
