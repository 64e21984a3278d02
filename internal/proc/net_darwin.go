//go:build darwin

package proc

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

// Connections shells out to lsof, which can see every user's sockets
// when run as root and the caller's own otherwise. macOS exposes no
// /proc, so this is the same route the system netstat takes.
//
// lsof -F emits one field per line, keyed by the first character:
//
//	p<pid>  P<protocol>  n<addresses>  TST=<tcp state>
func Connections() ([]model.Connection, error) {
	out, err := exec.Command("lsof", "-i", "-n", "-P", "-F", "pnPT").Output()
	if err != nil {
		return nil, fmt.Errorf("running lsof: %w", err)
	}

	var conns []model.Connection
	var pid int
	var proto model.Protocol

	for _, line := range strings.Split(string(out), "\n") {
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case 'p':
			pid, _ = strconv.Atoi(line[1:])
		case 'P':
			switch line[1:] {
			case "UDP":
				proto = model.ProtoUDP
			default:
				proto = model.ProtoTCP
			}
		case 'n':
			conn, ok := parseLsofAddr(line[1:], proto)
			if !ok {
				continue
			}
			conn.PID = pid
			conns = append(conns, conn)
		case 'T':
			// TCP state arrives after the n line it belongs to.
			if strings.HasPrefix(line, "TST=") && len(conns) > 0 {
				conns[len(conns)-1].State = model.State(line[len("TST="):])
			}
		}
	}

	return conns, nil
}

func parseLsofAddr(addr string, proto model.Protocol) (model.Connection, bool) {
	conn := model.Connection{Protocol: proto}

	if local, remote, found := strings.Cut(addr, "->"); found {
		conn.LocalAddr, conn.LocalPort = parseEndpoint(local)
		conn.RemoteAddr, conn.RemotePort = parseEndpoint(remote)
	} else {
		conn.LocalAddr, conn.LocalPort = parseEndpoint(addr)
	}

	return conn, conn.LocalPort > 0
}
