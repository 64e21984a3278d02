package proc

import (
	"encoding/hex"
	"net"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// tcpStates maps the hex state codes of /proc/net/tcp to names.
// Codes follow include/net/tcp_states.h.
var tcpStates = map[int64]model.State{
	0x01: model.StateEstablished,
	0x02: model.StateSynSent,
	0x03: model.StateSynRecv,
	0x04: model.StateFinWait1,
	0x05: model.StateFinWait2,
	0x06: model.StateTimeWait,
	0x07: model.StateClose,
	0x08: model.StateCloseWait,
	0x09: model.StateLastAck,
	0x0A: model.StateListen,
	0x0B: model.StateClosing,
}

// parseHexAddr decodes an "ADDR:PORT" field from a /proc/net socket
// table, e.g. "0100007F:1F90" -> ("127.0.0.1", 8080).
func parseHexAddr(raw string, ipv6 bool) (string, int) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 {
		return "", 0
	}
	port, _ := strconv.ParseInt(parts[1], 16, 32)

	b, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", int(port)
	}

	if ipv6 {
		if len(b) != 16 {
			return "::", int(port)
		}
		// /proc/net/tcp6 stores the address as 4 little-endian 32-bit
		// groups; reverse bytes within each group.
		ip := make(net.IP, 16)
		for i := 0; i < 4; i++ {
			ip[i*4+0] = b[i*4+3]
			ip[i*4+1] = b[i*4+2]
			ip[i*4+2] = b[i*4+1]
			ip[i*4+3] = b[i*4+0]
		}
		return ip.String(), int(port)
	}

	if len(b) < 4 {
		return "", int(port)
	}
	ip := net.IPv4(b[3], b[2], b[1], b[0])
	return ip.String(), int(port)
}

// parseSocketLine parses one non-header row of a /proc/net socket
// table, returning the connection and its socket inode. ok is false
// for malformed rows, which callers skip.
func parseSocketLine(line string, proto model.Protocol, ipv6 bool) (conn model.Connection, inode string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 10 {
		return model.Connection{}, "", false
	}

	localAddr, localPort := parseHexAddr(fields[1], ipv6)
	remoteAddr, remotePort := parseHexAddr(fields[2], ipv6)

	conn = model.Connection{
		Protocol:  proto,
		LocalAddr: localAddr,
		LocalPort: localPort,
	}

	if proto == model.ProtoTCP {
		code, _ := strconv.ParseInt(fields[3], 16, 64)
		conn.State = tcpStates[code]
	}

	// An all-zero remote endpoint means no peer (LISTEN, or an
	// unconnected UDP socket).
	if remotePort != 0 || !isUnspecified(remoteAddr) {
		conn.RemoteAddr = remoteAddr
		conn.RemotePort = remotePort
	}

	return conn, fields[9], true
}

func isUnspecified(addr string) bool {
	ip := net.ParseIP(addr)
	return ip == nil || ip.IsUnspecified()
}

// parseEndpoint parses the address forms printed by lsof and netstat:
// "*:8080", "127.0.0.1:8080", "127.0.0.1.8080", "[::1]:8080".
func parseEndpoint(addr string) (string, int) {
	if strings.HasPrefix(addr, "[") {
		end := strings.LastIndex(addr, "]")
		if end == -1 {
			return "", 0
		}
		ip := addr[1:end]
		rest := addr[end+1:]
		if len(rest) > 1 && (rest[0] == ':' || rest[0] == '.') {
			if port, err := strconv.Atoi(rest[1:]); err == nil {
				if ip == "" {
					ip = "::"
				}
				return ip, port
			}
		}
		return "", 0
	}

	if strings.HasPrefix(addr, "*") {
		if len(addr) > 2 && (addr[1] == ':' || addr[1] == '.') {
			if port, err := strconv.Atoi(addr[2:]); err == nil {
				return "0.0.0.0", port
			}
		}
		return "", 0
	}

	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		if port, err := strconv.Atoi(addr[idx+1:]); err == nil {
			return addr[:idx], port
		}
	}

	// macOS netstat separates the port with a dot: "127.0.0.1.8080".
	if idx := strings.LastIndex(addr, "."); idx != -1 {
		if port, err := strconv.Atoi(addr[idx+1:]); err == nil {
			return addr[:idx], port
		}
	}

	return "", 0
}
