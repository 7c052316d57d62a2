// Package tbn drives the portal's login flow and daily-usage report
// through a live browser session, and extracts the monthly report
// table into row/column form.
package tbn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tbnreports/lib/browser"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tbnreports/lib/scrapers/tbn")

// Client drives one browser session through the portal. It owns the
// session for the duration of a scrape run; Close releases it.
type Client struct {
	session   *browser.Session
	endpoints Endpoints
}

func NewClient(session *browser.Session, endpoints Endpoints) *Client {
	return &Client{session: session, endpoints: endpoints}
}

func (c *Client) Session() *browser.Session { return c.session }

func (c *Client) Close() { c.session.Close() }

// Login navigates to the login page, fills the credential form and
// confirms the authenticated report view renders. On failure the
// returned AuthenticationFailedError carries the current URL, a markup
// prefix, cookie names and a screenshot for troubleshooting.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	bctx := c.session.Context()

	if err := chromedp.Run(bctx, chromedp.Navigate(c.endpoints.LoginURL)); err != nil {
		span.SetStatus(codes.Error, "failed to open login page")
		return err
	}

	// the login form is sometimes embedded in an iframe; switching
	// into the first one found is best effort, absence is not an error
	frame := findLoginFrame(bctx)
	if frame != nil {
		slog.DebugContext(ctx, "login form iframe found")
	}

	userSel, ok := waitAny(bctx, frame, usernameSelectors, loginFieldWait)
	if !ok {
		return c.authFailed(bctx, &FieldNotFoundError{Field: "username", Attempted: usernameSelectors})
	}
	pwdSel, ok := waitAny(bctx, frame, passwordSelectors, loginFieldWait)
	if !ok {
		return c.authFailed(bctx, &FieldNotFoundError{Field: "password", Attempted: passwordSelectors})
	}

	err := chromedp.Run(bctx,
		chromedp.Clear(userSel, queryOpts(frame)...),
		chromedp.SendKeys(userSel, username, queryOpts(frame)...),
		chromedp.Clear(pwdSel, queryOpts(frame)...),
		chromedp.SendKeys(pwdSel, password, queryOpts(frame)...),
	)
	if err != nil {
		return c.authFailed(bctx, fmt.Errorf("failed to fill credential fields: %w", err))
	}

	c.submitLogin(ctx, bctx, frame, pwdSel)

	if err := c.VerifyReportAccess(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "authenticated successfully")
	return nil
}

// submitLogin fires the form submission through a chain of
// strategies: the enclosing form element first (this carries hidden
// anti-forgery fields), then a submit-looking button, then a plain
// Enter keystroke in the password field. Every strategy is best
// effort; verification decides whether any of them worked.
func (c *Client) submitLogin(ctx context.Context, bctx context.Context, frame *cdp.Node, pwdSel string) {
	_ = chromedp.Run(bctx, chromedp.Sleep(preSubmitSettle))

	submitted := false
	js := fmt.Sprintf(
		`(function(){var el=document.querySelector(%q);if(el&&el.form){el.form.submit();return true}return false})()`,
		pwdSel,
	)
	if err := chromedp.Run(bctx, chromedp.Evaluate(js, &submitted)); err != nil {
		slog.DebugContext(ctx, "form submit evaluation failed", "err", err)
	}
	if submitted {
		slog.DebugContext(ctx, "submitted enclosing form element")
		return
	}

	clickCtx, cancel := context.WithTimeout(bctx, perAttemptWait*2)
	err := chromedp.Run(clickCtx, chromedp.Click(submitButtonXPath, chromedp.BySearch))
	cancel()
	if err == nil {
		slog.DebugContext(ctx, "clicked submit button")
		return
	}

	if err := chromedp.Run(bctx, chromedp.SendKeys(pwdSel, kb.Enter, queryOpts(frame)...)); err != nil {
		slog.DebugContext(ctx, "enter keystroke submit failed", "err", err)
	}
}

// VerifyReportAccess navigates to the report URL and waits (bounded)
// for a report-bearing element. A lingering login URL gets one reload
// before the check.
func (c *Client) VerifyReportAccess(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:VerifyReportAccess")
	defer span.End()

	bctx := c.session.Context()

	err := chromedp.Run(bctx,
		chromedp.Sleep(postLoginSettle),
		chromedp.Navigate(c.endpoints.ReportURL),
		chromedp.Sleep(postLoginSettle),
	)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open report page")
		return c.authFailed(bctx, err)
	}

	var location string
	if err := chromedp.Run(bctx, chromedp.Location(&location)); err == nil {
		lower := strings.ToLower(location)
		if strings.Contains(lower, "login") || strings.Contains(lower, "signin") {
			_ = chromedp.Run(bctx,
				chromedp.Reload(),
				chromedp.Sleep(postLoginSettle),
			)
		}
	}

	probeCtx, cancel := context.WithTimeout(bctx, reportProbeWait)
	defer cancel()
	if err := chromedp.Run(probeCtx, chromedp.WaitVisible(reportProbeSelector, chromedp.ByQuery)); err != nil {
		span.SetStatus(codes.Error, "report view did not render")
		return c.authFailed(bctx, fmt.Errorf("report element did not appear: %w", err))
	}

	span.SetAttributes(attribute.String("url", location))
	return nil
}

func findLoginFrame(bctx context.Context) *cdp.Node {
	var frames []*cdp.Node
	frameCtx, cancel := context.WithTimeout(bctx, perAttemptWait)
	defer cancel()
	err := chromedp.Run(frameCtx,
		chromedp.Nodes("iframe", &frames, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil || len(frames) == 0 {
		return nil
	}
	return frames[0]
}

// authFailed wraps a login failure with diagnostics scraped from the
// live page. Every capture step is best effort; diagnostics are for
// humans only.
func (c *Client) authFailed(bctx context.Context, reason error) error {
	diag := AuthDiagnostics{}

	_ = chromedp.Run(bctx, chromedp.Location(&diag.URL))

	var html string
	if err := chromedp.Run(bctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err == nil {
		if len(html) > 1200 {
			html = html[:1200]
		}
		diag.HTMLPrefix = html
	}

	_ = chromedp.Run(bctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, cookie := range cookies {
			diag.CookieNames = append(diag.CookieNames, cookie.Name)
		}
		return nil
	}))

	_ = chromedp.Run(bctx, chromedp.CaptureScreenshot(&diag.Screenshot))

	return &AuthenticationFailedError{Reason: reason, Diagnostics: diag}
}
