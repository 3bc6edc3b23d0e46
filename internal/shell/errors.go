package shell

import "fmt"

// HandlerError reports a command handler that returned an error or
// panicked. It never escapes the session: the client sees a generic failure
// line and the session keeps prompting.
type HandlerError struct {
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
