package tbn

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"tbnreports/lib/browser"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ContinueSignal blocks until the operator has finished logging in by
// hand, or the context is done.
type ContinueSignal func(ctx context.Context) error

// ManualLogin opens a visible session on the login page and hands
// control to the operator. Once the continue signal fires and report
// access is confirmed, it tries to move the authenticated cookies into
// a fresh invisible session so the rest of the run can go headless.
// If the invisible session cannot be provisioned or does not accept
// the cookies, the run keeps the visible one. The returned client owns
// whichever session survived.
func ManualLogin(ctx context.Context, endpoints Endpoints, engine browser.Engine, wait ContinueSignal) (*Client, error) {
	ctx, span := tracer.Start(ctx, "ManualLogin")
	defer span.End()

	visible, err := browser.Acquire(ctx, engine, true)
	if err != nil {
		return nil, err
	}
	client := NewClient(visible, endpoints)

	if err := chromedp.Run(visible.Context(), chromedp.Navigate(endpoints.LoginURL)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	slog.InfoContext(ctx, "waiting for manual login to finish")
	if err := wait(ctx); err != nil {
		client.Close()
		return nil, err
	}

	if err := client.VerifyReportAccess(ctx); err != nil {
		client.Close()
		return nil, err
	}

	headless, err := transplantToHeadless(ctx, client, engine)
	if err != nil {
		slog.WarnContext(ctx, "keeping visible session", "err", err)
		return client, nil
	}
	client.Close()
	return headless, nil
}

// transplantToHeadless copies the portal cookies from an authenticated
// session into a new invisible one and verifies the copy can reach the
// report. The invisible session is discarded on any failure; the
// source session is never touched.
func transplantToHeadless(ctx context.Context, src *Client, engine browser.Engine) (*Client, error) {
	invisible, err := browser.Acquire(ctx, engine, false)
	if err != nil {
		return nil, fmt.Errorf("could not provision headless session: %w", err)
	}
	headless := NewClient(invisible, src.endpoints)

	cookies, err := portalCookies(src.session.Context(), src.endpoints.ReportURL)
	if err != nil {
		headless.Close()
		return nil, fmt.Errorf("could not read session cookies: %w", err)
	}
	if len(cookies) == 0 {
		headless.Close()
		return nil, fmt.Errorf("no portal cookies to transplant")
	}

	err = chromedp.Run(invisible.Context(), chromedp.ActionFunc(func(cctx context.Context) error {
		for _, cookie := range cookies {
			err := network.SetCookie(cookie.Name, cookie.Value).
				WithDomain(cookie.Domain).
				WithPath(cookie.Path).
				WithSecure(cookie.Secure).
				WithHTTPOnly(cookie.HTTPOnly).
				Do(cctx)
			if err != nil {
				return fmt.Errorf("could not set cookie %q: %w", cookie.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		headless.Close()
		return nil, fmt.Errorf("could not transplant cookies: %w", err)
	}

	if err := headless.VerifyReportAccess(ctx); err != nil {
		headless.Close()
		return nil, fmt.Errorf("headless session not authenticated after transplant: %w", err)
	}

	slog.InfoContext(ctx, "moved session to headless browser", "cookies", len(cookies))
	return headless, nil
}

// portalCookies returns the session's cookies scoped to the portal
// host of the given URL.
func portalCookies(bctx context.Context, portalURL string) ([]*network.Cookie, error) {
	parsed, err := url.Parse(portalURL)
	if err != nil {
		return nil, err
	}
	host := parsed.Hostname()

	var matched []*network.Cookie
	err = chromedp.Run(bctx, chromedp.ActionFunc(func(cctx context.Context) error {
		cookies, err := storage.GetCookies().Do(cctx)
		if err != nil {
			return err
		}
		for _, cookie := range cookies {
			if cookieMatchesHost(cookie.Domain, host) {
				matched = append(matched, cookie)
			}
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return matched, nil
}

func cookieMatchesHost(domain, host string) bool {
	domain = strings.TrimPrefix(domain, ".")
	return host == domain || strings.HasSuffix(host, "."+domain)
}
