package pipeline

import "fmt"

// InvalidYearInputError means the requested years text contained
// nothing usable. Rejected before any browser work starts.
type InvalidYearInputError struct {
	Input string
}

func (e *InvalidYearInputError) Error() string {
	return fmt.Sprintf("no usable years in %q, expected forms like \"2025\" or \"2021-2024\"", e.Input)
}

// InvalidEmailInputError means the recipient list did not validate.
// Rejected before any browser work starts.
type InvalidEmailInputError struct {
	Input string
	Err   error
}

func (e *InvalidEmailInputError) Error() string {
	return fmt.Sprintf("bad recipient list %q: %v", e.Input, e.Err)
}

func (e *InvalidEmailInputError) Unwrap() error { return e.Err }
