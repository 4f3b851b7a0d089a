package parser

import "fmt"

// MalformedError reports that a structurally required element of the
// tool output is absent or unrecognizable. It is never recovered
// locally: a malformed structural parse means the output format has
// drifted and guessing would corrupt the model.
type MalformedError struct {
	// 1-based line number within the parsed text, 0 when the problem
	// is the input as a whole.
	Line int
	Text string
	// What the parser expected at this point.
	Expected string
}

func (e *MalformedError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed output: expected %s", e.Expected)
	}
	return fmt.Sprintf("malformed output at line %d: expected %s, got %q", e.Line, e.Expected, e.Text)
}

// UnknownStateError reports a health-state or dataset-type token
// outside the recognized closed set. The literal token is carried so
// callers can log it without this package anticipating future tool
// vocabulary.
type UnknownStateError struct {
	Token string
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state token %q", e.Token)
}
