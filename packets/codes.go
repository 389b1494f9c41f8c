// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

package packets

// Code contains a reason code and reason string for a response.
type Code struct {
	Reason string
	Code   byte
}

// String returns the readable reason for a code.
func (c Code) String() string {
	return c.Reason
}

// Error returns the readable reason for a code.
func (c Code) Error() string {
	return c.Reason
}

// IsError returns true if the code indicates failure. Reason codes of 0x80
// and above indicate failure.
func (c Code) IsError() bool {
	return c.Code >= 0x80
}

var (
	CodeSuccess                = Code{Code: 0x00, Reason: "success"}
	CodeGrantedQos0            = Code{Code: 0x00, Reason: "granted qos 0"}
	CodeGrantedQos1            = Code{Code: 0x01, Reason: "granted qos 1"}
	CodeGrantedQos2            = Code{Code: 0x02, Reason: "granted qos 2"}
	CodeDisconnectWillMessage  = Code{Code: 0x04, Reason: "disconnect with will message"}
	CodeNoMatchingSubscribers  = Code{Code: 0x10, Reason: "no matching subscribers"}
	CodeNoSubscriptionExisted  = Code{Code: 0x11, Reason: "no subscription existed"}
	CodeContinueAuthentication = Code{Code: 0x18, Reason: "continue authentication"}
	CodeReAuthenticate         = Code{Code: 0x19, Reason: "re-authenticate"}

	ErrUnspecifiedError                    = Code{Code: 0x80, Reason: "unspecified error"}
	ErrMalformedPacket                     = Code{Code: 0x81, Reason: "malformed packet"}
	ErrMalformedProtocolName               = Code{Code: 0x81, Reason: "malformed packet: protocol name"}
	ErrMalformedProtocolVersion            = Code{Code: 0x81, Reason: "malformed packet: protocol version"}
	ErrMalformedFlags                      = Code{Code: 0x81, Reason: "malformed packet: flags"}
	ErrMalformedKeepalive                  = Code{Code: 0x81, Reason: "malformed packet: keepalive"}
	ErrMalformedPacketID                   = Code{Code: 0x81, Reason: "malformed packet: packet identifier"}
	ErrMalformedTopic                      = Code{Code: 0x81, Reason: "malformed packet: topic"}
	ErrMalformedWillTopic                  = Code{Code: 0x81, Reason: "malformed packet: will topic"}
	ErrMalformedWillPayload                = Code{Code: 0x81, Reason: "malformed packet: will message"}
	ErrMalformedUsername                   = Code{Code: 0x81, Reason: "malformed packet: username"}
	ErrMalformedPassword                   = Code{Code: 0x81, Reason: "malformed packet: password"}
	ErrMalformedQos                        = Code{Code: 0x81, Reason: "malformed packet: qos"}
	ErrMalformedSubscription               = Code{Code: 0x81, Reason: "malformed packet: subscription options"}
	ErrMalformedInsufficientData           = Code{Code: 0x81, Reason: "malformed packet: insufficient data"}
	ErrMalformedInvalidUTF8                = Code{Code: 0x81, Reason: "malformed packet: invalid utf-8 string"}
	ErrMalformedStringTooLong              = Code{Code: 0x81, Reason: "malformed packet: string exceeds 65535 bytes"}
	ErrMalformedBinaryTooLong              = Code{Code: 0x81, Reason: "malformed packet: binary data exceeds 65535 bytes"}
	ErrMalformedVariableByteInteger        = Code{Code: 0x81, Reason: "malformed packet: variable byte integer out of range"}
	ErrMalformedBadProperty                = Code{Code: 0x81, Reason: "malformed packet: unknown property"}
	ErrMalformedProperties                 = Code{Code: 0x81, Reason: "malformed packet: properties"}
	ErrMalformedWillProperties             = Code{Code: 0x81, Reason: "malformed packet: will properties"}
	ErrMalformedSessionPresent             = Code{Code: 0x81, Reason: "malformed packet: session present"}
	ErrMalformedReasonCode                 = Code{Code: 0x81, Reason: "malformed packet: reason code"}
	ErrProtocolViolation                   = Code{Code: 0x82, Reason: "protocol violation"}
	ErrProtocolViolationProtocolName       = Code{Code: 0x82, Reason: "protocol violation: protocol name"}
	ErrProtocolViolationReservedBit        = Code{Code: 0x82, Reason: "protocol violation: reserved bit not 0"}
	ErrProtocolViolationFlagNoUsername     = Code{Code: 0x82, Reason: "protocol violation: username flag set but no value"}
	ErrProtocolViolationFlagNoPassword     = Code{Code: 0x82, Reason: "protocol violation: password flag set but no value"}
	ErrProtocolViolationNoPacketID         = Code{Code: 0x82, Reason: "protocol violation: missing packet id"}
	ErrProtocolViolationSurplusPacketID    = Code{Code: 0x82, Reason: "protocol violation: surplus packet id"}
	ErrProtocolViolationQosOutOfRange      = Code{Code: 0x82, Reason: "protocol violation: qos out of range"}
	ErrProtocolViolationWillFlagNoPayload  = Code{Code: 0x82, Reason: "protocol violation: will flag no payload"}
	ErrProtocolViolationWillSurplusRetain  = Code{Code: 0x82, Reason: "protocol violation: will flag surplus retain"}
	ErrProtocolViolationSurplusWildcard    = Code{Code: 0x82, Reason: "protocol violation: topic contains wildcards"}
	ErrProtocolViolationNoFilters          = Code{Code: 0x82, Reason: "protocol violation: must contain at least one filter"}
	ErrProtocolViolationNoReasonCodes      = Code{Code: 0x82, Reason: "protocol violation: must contain at least one reason code"}
	ErrProtocolViolationDupNoQos           = Code{Code: 0x82, Reason: "protocol violation: dup true with no qos"}
	ErrProtocolViolationUnsupportedProp    = Code{Code: 0x82, Reason: "protocol violation: unsupported property"}
	ErrProtocolViolationUnsupportedPacket  = Code{Code: 0x82, Reason: "protocol violation: unsupported packet type"}
	ErrProtocolViolationNoTopic            = Code{Code: 0x82, Reason: "protocol violation: no topic"}
	ErrProtocolViolationSpuriousBody       = Code{Code: 0x82, Reason: "protocol violation: unexpected packet body"}
	ErrImplementationSpecificError         = Code{Code: 0x83, Reason: "implementation specific error"}
	ErrUnsupportedProtocolVersion          = Code{Code: 0x84, Reason: "unsupported protocol version"}
	ErrClientIdentifierNotValid            = Code{Code: 0x85, Reason: "client identifier not valid"}
	ErrBadUsernameOrPassword               = Code{Code: 0x86, Reason: "bad username or password"}
	ErrNotAuthorized                       = Code{Code: 0x87, Reason: "not authorized"}
	ErrServerUnavailable                   = Code{Code: 0x88, Reason: "server unavailable"}
	ErrServerBusy                          = Code{Code: 0x89, Reason: "server busy"}
	ErrBanned                              = Code{Code: 0x8A, Reason: "banned"}
	ErrServerShuttingDown                  = Code{Code: 0x8B, Reason: "server shutting down"}
	ErrBadAuthenticationMethod             = Code{Code: 0x8C, Reason: "bad authentication method"}
	ErrKeepAliveTimeout                    = Code{Code: 0x8D, Reason: "keep alive timeout"}
	ErrSessionTakenOver                    = Code{Code: 0x8E, Reason: "session takeover"}
	ErrTopicFilterInvalid                  = Code{Code: 0x8F, Reason: "topic filter invalid"}
	ErrTopicNameInvalid                    = Code{Code: 0x90, Reason: "topic name invalid"}
	ErrPacketIdentifierInUse               = Code{Code: 0x91, Reason: "packet identifier in use"}
	ErrPacketIdentifierNotFound            = Code{Code: 0x92, Reason: "packet identifier not found"}
	ErrReceiveMaximum                      = Code{Code: 0x93, Reason: "receive maximum exceeded"}
	ErrTopicAliasInvalid                   = Code{Code: 0x94, Reason: "topic alias invalid"}
	ErrPacketTooLarge                      = Code{Code: 0x95, Reason: "packet too large"}
	ErrMessageRateTooHigh                  = Code{Code: 0x96, Reason: "message rate too high"}
	ErrQuotaExceeded                       = Code{Code: 0x97, Reason: "quota exceeded"}
	ErrAdministrativeAction                = Code{Code: 0x98, Reason: "administrative action"}
	ErrPayloadFormatInvalid                = Code{Code: 0x99, Reason: "payload format invalid"}
	ErrRetainNotSupported                  = Code{Code: 0x9A, Reason: "retain not supported"}
	ErrQosNotSupported                     = Code{Code: 0x9B, Reason: "qos not supported"}
	ErrUseAnotherServer                    = Code{Code: 0x9C, Reason: "use another server"}
	ErrServerMoved                         = Code{Code: 0x9D, Reason: "server moved"}
	ErrSharedSubscriptionsNotSupported     = Code{Code: 0x9E, Reason: "shared subscriptions not supported"}
	ErrConnectionRateExceeded              = Code{Code: 0x9F, Reason: "connection rate exceeded"}
	ErrMaxConnectTime                      = Code{Code: 0xA0, Reason: "maximum connect time"}
	ErrSubscriptionIdentifiersNotSupported = Code{Code: 0xA1, Reason: "subscription identifiers not supported"}
	ErrWildcardSubscriptionsNotSupported   = Code{Code: 0xA2, Reason: "wildcard subscriptions not supported"}

	// ErrInsufficientCapacity is returned when an encode outgrows the
	// caller-provided write buffer. It never appears on the wire.
	ErrInsufficientCapacity = Code{Code: 0x95, Reason: "insufficient buffer capacity"}
)

// ConnackCodes contains the reason codes a connack packet may carry.
var ConnackCodes = codeSet(
	CodeSuccess,
	ErrUnspecifiedError,
	ErrMalformedPacket,
	ErrProtocolViolation,
	ErrImplementationSpecificError,
	ErrUnsupportedProtocolVersion,
	ErrClientIdentifierNotValid,
	ErrBadUsernameOrPassword,
	ErrNotAuthorized,
	ErrServerUnavailable,
	ErrServerBusy,
	ErrBanned,
	ErrBadAuthenticationMethod,
	ErrTopicNameInvalid,
	ErrPacketTooLarge,
	ErrQuotaExceeded,
	ErrPayloadFormatInvalid,
	ErrRetainNotSupported,
	ErrQosNotSupported,
	ErrUseAnotherServer,
	ErrServerMoved,
	ErrConnectionRateExceeded,
)

// PubackCodes contains the reason codes a puback or pubrec packet may carry.
var PubackCodes = codeSet(
	CodeSuccess,
	CodeNoMatchingSubscribers,
	ErrUnspecifiedError,
	ErrImplementationSpecificError,
	ErrNotAuthorized,
	ErrTopicNameInvalid,
	ErrPacketIdentifierInUse,
	ErrQuotaExceeded,
	ErrPayloadFormatInvalid,
)

// PubrelCodes contains the reason codes a pubrel or pubcomp packet may carry.
var PubrelCodes = codeSet(
	CodeSuccess,
	ErrPacketIdentifierNotFound,
)

// SubackCodes contains the reason codes a suback packet may carry, one per
// requested topic filter.
var SubackCodes = codeSet(
	CodeGrantedQos0,
	CodeGrantedQos1,
	CodeGrantedQos2,
	ErrUnspecifiedError,
	ErrImplementationSpecificError,
	ErrNotAuthorized,
	ErrTopicFilterInvalid,
	ErrPacketIdentifierInUse,
	ErrQuotaExceeded,
	ErrSharedSubscriptionsNotSupported,
	ErrSubscriptionIdentifiersNotSupported,
	ErrWildcardSubscriptionsNotSupported,
)

// UnsubackCodes contains the reason codes an unsuback packet may carry, one
// per requested topic filter.
var UnsubackCodes = codeSet(
	CodeSuccess,
	CodeNoSubscriptionExisted,
	ErrUnspecifiedError,
	ErrImplementationSpecificError,
	ErrNotAuthorized,
	ErrTopicFilterInvalid,
	ErrPacketIdentifierInUse,
)

// DisconnectCodes contains the reason codes a disconnect packet may carry.
var DisconnectCodes = codeSet(
	CodeSuccess,
	CodeDisconnectWillMessage,
	ErrUnspecifiedError,
	ErrMalformedPacket,
	ErrProtocolViolation,
	ErrImplementationSpecificError,
	ErrNotAuthorized,
	ErrServerBusy,
	ErrServerShuttingDown,
	ErrKeepAliveTimeout,
	ErrSessionTakenOver,
	ErrTopicFilterInvalid,
	ErrTopicNameInvalid,
	ErrReceiveMaximum,
	ErrTopicAliasInvalid,
	ErrPacketTooLarge,
	ErrMessageRateTooHigh,
	ErrQuotaExceeded,
	ErrAdministrativeAction,
	ErrPayloadFormatInvalid,
	ErrRetainNotSupported,
	ErrQosNotSupported,
	ErrUseAnotherServer,
	ErrServerMoved,
	ErrSharedSubscriptionsNotSupported,
	ErrConnectionRateExceeded,
	ErrMaxConnectTime,
	ErrSubscriptionIdentifiersNotSupported,
	ErrWildcardSubscriptionsNotSupported,
)

// AuthCodes contains the reason codes an auth packet may carry.
var AuthCodes = codeSet(
	CodeSuccess,
	CodeContinueAuthentication,
	CodeReAuthenticate,
)

func codeSet(codes ...Code) map[byte]Code {
	m := make(map[byte]Code, len(codes))
	for _, c := range codes {
		m[c.Code] = c
	}
	return m
}

// readCode reads a single reason code byte and validates it against the set
// permitted for the packet type being decoded.
func readCode(r *Reader, permitted map[byte]Code) (Code, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Code{}, err
	}

	code, ok := permitted[b]
	if !ok {
		return Code{}, ErrMalformedReasonCode
	}

	return code, nil
}
