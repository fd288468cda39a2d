package hysteria

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"

	"hy2core/internal/engine"
)

// OutboundType selects the outbound this engine drives.
const OutboundType = "hysteria2"

// Outbound is the subset of a hysteria2 outbound the engine needs.
type Outbound struct {
	Type       string     `json:"type"`
	Tag        string     `json:"tag,omitempty"`
	Server     string     `json:"server"`
	ServerPort int        `json:"server_port"`
	Password   string     `json:"password"`
	UpMbps     int        `json:"up_mbps,omitempty"`
	DownMbps   int        `json:"down_mbps,omitempty"`
	TLS        TLSOptions `json:"tls"`
}

type TLSOptions struct {
	Enabled    bool     `json:"enabled"`
	ServerName string   `json:"server_name,omitempty"`
	ALPN       []string `json:"alpn,omitempty"`
	Insecure   bool     `json:"insecure,omitempty"`
}

// Addr is host:port of the server.
func (o *Outbound) Addr() string {
	return net.JoinHostPort(o.Server, strconv.Itoa(o.ServerPort))
}

// SNI is the TLS server name, defaulting to the server host.
func (o *Outbound) SNI() string {
	if o.TLS.ServerName != "" {
		return o.TLS.ServerName
	}
	return o.Server
}

// NextProtos is the ALPN list offered during the handshake.
func (o *Outbound) NextProtos() []string {
	if len(o.TLS.ALPN) > 0 {
		return o.TLS.ALPN
	}
	return []string{"h3"}
}

// Name identifies the outbound in logs.
func (o *Outbound) Name() string {
	if o.Tag != "" {
		return o.Tag
	}
	return o.Addr()
}

// ParseConfig validates cfg and returns the first hysteria2 outbound. A
// config without one is valid and yields nil: the engine then runs idle.
func ParseConfig(cfg string) (*Outbound, error) {
	doc, err := engine.ValidateConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw, ok := doc["outbounds"]
	if !ok {
		return nil, nil
	}
	var outs []json.RawMessage
	if err := json.Unmarshal(raw, &outs); err != nil {
		return nil, fmt.Errorf("%w: outbounds: %v", engine.ErrInvalidConfig, err)
	}
	for i, r := range outs {
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil || head.Type != OutboundType {
			continue
		}
		var o Outbound
		if err := json.Unmarshal(r, &o); err != nil {
			return nil, fmt.Errorf("%w: outbounds[%d]: %v", engine.ErrInvalidConfig, i, err)
		}
		if err := o.validate(); err != nil {
			return nil, fmt.Errorf("%w: outbounds[%d]: %v", engine.ErrInvalidConfig, i, err)
		}
		return &o, nil
	}
	return nil, nil
}

func (o *Outbound) validate() error {
	o.Server = strings.TrimSpace(o.Server)
	switch {
	case o.Server == "":
		return fmt.Errorf("server is required")
	case o.ServerPort <= 0 || o.ServerPort > 65535:
		return fmt.Errorf("server_port %d out of range", o.ServerPort)
	case o.Password == "":
		return fmt.Errorf("password is required")
	case o.UpMbps < 0 || o.DownMbps < 0:
		return fmt.Errorf("bandwidth must not be negative")
	}
	return nil
}
