package result

import "fmt"

// IOError reports a failure while producing the output blob. The blob has
// been aborted when it is returned.
type IOError struct {
	Op   string // "create", "write" or "commit"
	Name string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("result: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
