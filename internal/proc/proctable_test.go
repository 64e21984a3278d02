package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

func TestParseHexAddr(t *testing.T) {
	for name, tc := range map[string]struct {
		raw  string
		ipv6 bool
		addr string
		port int
	}{
		"loopback":    {raw: "0100007F:1F90", addr: "127.0.0.1", port: 8080},
		"any":         {raw: "00000000:006F", addr: "0.0.0.0", port: 111},
		"lan":         {raw: "0502000A:01BB", addr: "10.0.2.5", port: 443},
		"v6 any":      {raw: "00000000000000000000000000000000:0016", ipv6: true, addr: "::", port: 22},
		"v6 loopback": {raw: "00000000000000000000000001000000:1F90", ipv6: true, addr: "::1", port: 8080},
		"malformed":   {raw: "garbage", addr: "", port: 0},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			addr, port := parseHexAddr(tc.raw, tc.ipv6)
			assert.Equal(t, tc.addr, addr)
			assert.Equal(t, tc.port, port)
		})
	}
}

func TestParseSocketLine(t *testing.T) {
	listen := "   1: 00000000:006F 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 14365 1 0000000000000000 100 0 0 10 0"
	conn, inode, ok := parseSocketLine(listen, model.ProtoTCP, false)
	require.True(t, ok)
	assert.Equal(t, "14365", inode)
	assert.Equal(t, model.StateListen, conn.State)
	assert.Equal(t, "0.0.0.0", conn.LocalAddr)
	assert.Equal(t, 111, conn.LocalPort)
	assert.Empty(t, conn.RemoteAddr)
	assert.Zero(t, conn.RemotePort)

	established := "  23: 0100007F:B65D 08080808:0050 01 00000001:00000000 01:000002E4 00000003  1000        0 75236 2 0000000000000000 800 0 0 1 7"
	conn, inode, ok = parseSocketLine(established, model.ProtoTCP, false)
	require.True(t, ok)
	assert.Equal(t, "75236", inode)
	assert.Equal(t, model.StateEstablished, conn.State)
	assert.Equal(t, "8.8.8.8", conn.RemoteAddr)
	assert.Equal(t, 80, conn.RemotePort)

	_, _, ok = parseSocketLine("short line", model.ProtoTCP, false)
	assert.False(t, ok)
}

func TestParseSocketLineUDPHasNoState(t *testing.T) {
	line := "  10: 0100007F:0035 00000000:0000 07 00000000:00000000 00:00000000 00000000   102        0 20123 2 0000000000000000 0"
	conn, _, ok := parseSocketLine(line, model.ProtoUDP, false)
	require.True(t, ok)
	assert.Equal(t, model.StateNone, conn.State)
	assert.Equal(t, 53, conn.LocalPort)
}

func TestParseEndpoint(t *testing.T) {
	for name, tc := range map[string]struct {
		in   string
		addr string
		port int
	}{
		"v4 colon":    {in: "127.0.0.1:8080", addr: "127.0.0.1", port: 8080},
		"v4 dot":      {in: "127.0.0.1.8080", addr: "127.0.0.1", port: 8080},
		"wildcard":    {in: "*:443", addr: "0.0.0.0", port: 443},
		"v6 bracket":  {in: "[::1]:8080", addr: "::1", port: 8080},
		"v6 wildcard": {in: "[::]:22", addr: "::", port: 22},
		"junk":        {in: "nonsense", addr: "", port: 0},
		"bare star":   {in: "*", addr: "", port: 0},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			addr, port := parseEndpoint(tc.in)
			assert.Equal(t, tc.addr, addr)
			assert.Equal(t, tc.port, port)
		})
	}
}
