package extract

import "fmt"

// Error is a typed extraction failure. Reason is written for humans:
// the chat channel forwards it verbatim so the submitter knows why
// their document was not recorded.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}
