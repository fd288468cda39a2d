package hysteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hy2core/internal/engine"
)

func TestParseConfigPicksFirstHysteriaOutbound(t *testing.T) {
	out, err := ParseConfig(`{
		"outbounds": [
			{"type": "direct", "tag": "direct"},
			{"type": "hysteria2", "tag": "proxy", "server": "vpn.example.com", "server_port": 443,
			 "password": "secret", "tls": {"enabled": true, "alpn": ["h3"]}},
			{"type": "hysteria2", "server": "other", "server_port": 1, "password": "x"}
		],
		"route": {}
	}`)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "proxy", out.Name())
	assert.Equal(t, "vpn.example.com:443", out.Addr())
	assert.Equal(t, "vpn.example.com", out.SNI())
	assert.Equal(t, []string{"h3"}, out.NextProtos())
}

func TestParseConfigDefaults(t *testing.T) {
	out, err := ParseConfig(`{"outbounds":[{"type":"hysteria2","server":"::1","server_port":8443,"password":"p","tls":{"server_name":"example.org"}}]}`)
	require.NoError(t, err)
	assert.Equal(t, "[::1]:8443", out.Addr())
	assert.Equal(t, "example.org", out.SNI())
	assert.Equal(t, []string{"h3"}, out.NextProtos())
	assert.Equal(t, "[::1]:8443", out.Name())
}

func TestParseConfigWithoutOutbound(t *testing.T) {
	for _, cfg := range []string{`{"inbounds":[],"outbounds":[],"route":{}}`, `{}`, `{"outbounds":[{"type":"direct"}]}`} {
		out, err := ParseConfig(cfg)
		require.NoError(t, err, cfg)
		assert.Nil(t, out, cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	cases := map[string]string{
		"shape":    `{"outbounds":{}}`,
		"server":   `{"outbounds":[{"type":"hysteria2","server_port":443,"password":"p"}]}`,
		"port":     `{"outbounds":[{"type":"hysteria2","server":"h","server_port":70000,"password":"p"}]}`,
		"password": `{"outbounds":[{"type":"hysteria2","server":"h","server_port":443}]}`,
		"types":    `{"outbounds":[{"type":"hysteria2","server":"h","server_port":"443","password":"p"}]}`,
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig(cfg)
			require.Error(t, err)
			assert.True(t, engine.IsInvalidConfig(err), err.Error())
		})
	}
}
