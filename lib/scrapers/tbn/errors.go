package tbn

import (
	"errors"
	"fmt"
	"strings"
)

// FieldNotFoundError means none of the attempted selectors matched a
// required login-form control within the bounded wait. It is a subtype
// of authentication failure.
type FieldNotFoundError struct {
	Field     string
	Attempted []string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf(
		"could not locate %s field, attempted selectors: %s",
		e.Field, strings.Join(e.Attempted, ", "),
	)
}

// DatePickerNotFoundError means the report UI shape was unrecognized
// for one month. Fatal to that month only; the year scrape continues.
type DatePickerNotFoundError struct {
	Year      int
	Month     int
	Attempted []string
}

func (e *DatePickerNotFoundError) Error() string {
	return fmt.Sprintf(
		"could not locate date picker for %04d-%02d, attempted selectors: %s",
		e.Year, e.Month, strings.Join(e.Attempted, ", "),
	)
}

// Diagnostics captured when login could not be confirmed. For human
// troubleshooting only; nothing in the pipeline parses these.
type AuthDiagnostics struct {
	URL         string
	HTMLPrefix  string
	CookieNames []string
	Screenshot  []byte
}

// AuthenticationFailedError means login could not be confirmed within
// its bounds. Fatal to the run.
type AuthenticationFailedError struct {
	Reason      error
	Diagnostics AuthDiagnostics
}

func (e *AuthenticationFailedError) Error() string {
	msg := "login failed or report not found"
	if e.Reason != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Reason)
	}
	if e.Diagnostics.URL != "" {
		msg = fmt.Sprintf("%s (url: %s)", msg, e.Diagnostics.URL)
	}
	return msg
}

func (e *AuthenticationFailedError) Unwrap() error { return e.Reason }

func IsAuthenticationFailed(err error) bool {
	var target *AuthenticationFailedError
	return errors.As(err, &target)
}
