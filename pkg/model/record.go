package model

// Record joins one connection with its owning process for a single scan
// cycle. Records are rebuilt from scratch every cycle and never shared
// across cycles.
type Record struct {
	Connection

	// Program is the owning process name, empty when the PID could not
	// be mapped. Renderers are responsible for the placeholder.
	Program string

	// RemoteName is the reverse-DNS name of RemoteAddr, empty unless
	// resolution was requested and succeeded.
	RemoteName string
}
