package model

// Protocol identifies the transport protocol of a socket.
type Protocol string

const (
	ProtoTCP Protocol = "TCP"
	ProtoUDP Protocol = "UDP"
)

// State is a TCP connection state as reported by the kernel.
// UDP sockets carry StateNone.
type State string

const (
	StateNone        State = ""
	StateEstablished State = "ESTABLISHED"
	StateSynSent     State = "SYN_SENT"
	StateSynRecv     State = "SYN_RECV"
	StateFinWait1    State = "FIN_WAIT1"
	StateFinWait2    State = "FIN_WAIT2"
	StateTimeWait    State = "TIME_WAIT"
	StateClose       State = "CLOSE"
	StateCloseWait   State = "CLOSE_WAIT"
	StateLastAck     State = "LAST_ACK"
	StateListen      State = "LISTEN"
	StateClosing     State = "CLOSING"
)

// Connection is one row of the OS socket table.
type Connection struct {
	Protocol  Protocol
	LocalAddr string
	LocalPort int

	// Remote endpoint; zero values for listening and unconnected sockets.
	RemoteAddr string
	RemotePort int

	State State

	// PID is the owning process, or 0 when ownership could not be
	// determined (typically a permissions issue).
	PID int
}

// Listening reports whether the socket is waiting for inbound peers.
func (c Connection) Listening() bool {
	return c.State == StateListen
}
