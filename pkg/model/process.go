package model

// ProcessSummary holds the identity of one running process.
type ProcessSummary struct {
	PID int

	// Name is the short process name, empty when it could not be read
	// (permission denial, or the process exited mid-scan).
	Name string
}
