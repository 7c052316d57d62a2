package tbn

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Prioritized selector candidates for each control the portal is known
// to render. First match wins; the chains absorb markup churn between
// portal deployments.
var (
	usernameSelectors = []string{
		`input[name='email']`,
		`input#email`,
		`input#username`,
		`input[type='email']`,
	}
	passwordSelectors = []string{
		`input[name='password']`,
		`input#password`,
		`input[type='password']`,
	}
	datePickerSelectors = []string{
		`div.styles_dateTimePickerInputGroup__2urdc input.datetimepicker-input`,
		`input.datetimepicker-input`,
		`input[data-testid='month-picker']`,
	}
)

// submit buttons are matched on type or on a login-verb substring
const submitButtonXPath = `//button[@type='submit' or contains(., 'Log') or contains(., 'Sign')]`

// probe confirming the authenticated report view rendered
const reportProbeSelector = `table, .table, div[data-report], #report`

const (
	loginFieldWait  = time.Second * 30
	datePickerWait  = time.Second * 20
	reportProbeWait = time.Second * 12
	perAttemptWait  = time.Second * 2

	// fixed settle intervals for client-side re-rendering
	navigationSettle = time.Millisecond * 1300
	pickerSettle     = time.Second * 2
	preSubmitSettle  = time.Millisecond * 500
	postLoginSettle  = time.Second * 2
)

func queryOpts(frame *cdp.Node, extra ...chromedp.QueryOption) []chromedp.QueryOption {
	opts := []chromedp.QueryOption{chromedp.ByQuery}
	if frame != nil {
		opts = append(opts, chromedp.FromNode(frame))
	}
	return append(opts, extra...)
}

// waitAny cycles through the selector candidates in order, giving each
// a bounded attempt, until one is visible or the overall deadline
// passes. Returns the selector that matched.
func waitAny(ctx context.Context, frame *cdp.Node, selectors []string, total time.Duration) (string, bool) {
	deadline := time.Now().Add(total)
	for {
		for _, sel := range selectors {
			attemptCtx, cancel := context.WithTimeout(ctx, perAttemptWait)
			err := chromedp.Run(attemptCtx, chromedp.WaitVisible(sel, queryOpts(frame)...))
			cancel()
			if err == nil {
				return sel, true
			}
			if ctx.Err() != nil {
				return "", false
			}
		}
		if time.Now().After(deadline) {
			return "", false
		}
	}
}
