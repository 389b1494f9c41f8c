// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 petrel-mqtt

// Package config parses a client configuration document, in YAML or JSON,
// into session options and a transport selection.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"gopkg.in/yaml.v3"

	mqtt "github.com/petrel-mqtt/client"
	"github.com/petrel-mqtt/client/packets"
	"github.com/petrel-mqtt/client/transport"
)

// DefaultBufferSize is the transmit and receive buffer size used when the
// document does not set one.
const DefaultBufferSize = 4096

// Transport types recognised in a configuration document.
const (
	TypeTCP       = "tcp"
	TypeWebsocket = "ws"
)

// Config is a parsed client configuration document.
type Config struct {
	Options   OptionsConfig   `yaml:"options" json:"options"`
	Transport TransportConfig `yaml:"transport" json:"transport"`
}

// OptionsConfig is the session options section of a document.
type OptionsConfig struct {
	ClientID              string      `yaml:"client_id" json:"client_id"`
	Username              string      `yaml:"username" json:"username"`
	Password              string      `yaml:"password" json:"password"`
	CleanStart            bool        `yaml:"clean_start" json:"clean_start"`
	KeepAlive             uint16      `yaml:"keep_alive" json:"keep_alive"`
	SessionExpiryInterval uint32      `yaml:"session_expiry_interval" json:"session_expiry_interval"`
	ReceiveMaximum        uint16      `yaml:"receive_maximum" json:"receive_maximum"`
	MaximumPacketSize     uint32      `yaml:"maximum_packet_size" json:"maximum_packet_size"`
	TopicAliasMaximum     uint16      `yaml:"topic_alias_maximum" json:"topic_alias_maximum"`
	ConnectTimeoutSeconds int         `yaml:"connect_timeout_seconds" json:"connect_timeout_seconds"`
	Capacity              int         `yaml:"capacity" json:"capacity"`
	BufferSize            int         `yaml:"buffer_size" json:"buffer_size"`
	Will                  *WillConfig `yaml:"will" json:"will"`
}

// WillConfig is the last will and testament section of a document.
type WillConfig struct {
	Topic   string `yaml:"topic" json:"topic"`
	Payload string `yaml:"payload" json:"payload"`
	Qos     byte   `yaml:"qos" json:"qos"`
	Retain  bool   `yaml:"retain" json:"retain"`
}

// TransportConfig is the transport section of a document.
type TransportConfig struct {
	Type    string `yaml:"type" json:"type"`
	Address string `yaml:"address" json:"address"`
	URL     string `yaml:"url" json:"url"`
}

// FromBytes unmarshals a byte slice of JSON or YAML config data into a
// client configuration. Empty input yields a nil config.
func FromBytes(b []byte) (*Config, error) {
	if len(b) == 0 {
		return nil, nil
	}

	c := new(Config)
	if b[0] == '{' {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	}

	if err := c.Transport.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ToOptions converts the options section into session options. Defaults for
// unset values are applied by the session itself.
func (o OptionsConfig) ToOptions() mqtt.Options {
	opts := mqtt.Options{
		ClientID:              o.ClientID,
		Username:              o.Username,
		CleanStart:            o.CleanStart,
		KeepAlive:             o.KeepAlive,
		SessionExpiryInterval: o.SessionExpiryInterval,
		ReceiveMaximum:        o.ReceiveMaximum,
		MaximumPacketSize:     o.MaximumPacketSize,
		TopicAliasMaximum:     o.TopicAliasMaximum,
		ConnectTimeout:        time.Duration(o.ConnectTimeoutSeconds) * time.Second,
		Capacity:              o.Capacity,
	}

	if o.Password != "" {
		opts.Password = []byte(o.Password)
	}

	if o.Will != nil {
		opts.Will = &packets.Will{
			Topic:   o.Will.Topic,
			Payload: []byte(o.Will.Payload),
			Qos:     o.Will.Qos,
			Retain:  o.Will.Retain,
		}
	}

	return opts
}

// BufferSizeOrDefault returns the configured buffer size or the default.
func (o OptionsConfig) BufferSizeOrDefault() int {
	if o.BufferSize > 0 {
		return o.BufferSize
	}
	return DefaultBufferSize
}

func (tc TransportConfig) validate() error {
	switch tc.Type {
	case "", TypeTCP:
		if tc.Address == "" {
			return fmt.Errorf("transport type %q requires an address", TypeTCP)
		}
	case TypeWebsocket:
		if tc.URL == "" {
			return fmt.Errorf("transport type %q requires a url", TypeWebsocket)
		}
	default:
		return fmt.Errorf("unknown transport type %q", tc.Type)
	}
	return nil
}

// Dial opens the configured transport.
func (tc TransportConfig) Dial(ctx context.Context) (transport.Connection, error) {
	switch tc.Type {
	case "", TypeTCP:
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", tc.Address)
		if err != nil {
			return nil, err
		}
		return transport.NewNetConnection(conn), nil

	case TypeWebsocket:
		return transport.DialWebsocket(ctx, tc.URL, nil)

	default:
		return nil, fmt.Errorf("unknown transport type %q", tc.Type)
	}
}
