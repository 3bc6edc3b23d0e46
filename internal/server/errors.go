package server

import "fmt"

// ProtocolError reports a failed handshake or channel negotiation with one
// client. It is logged and confined to that connection.
type ProtocolError struct {
	Remote string
	Op     string // "handshake", "accept channel", ...
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ssh %s with %s: %v", e.Op, e.Remote, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}
