// Package browser acquires controllable browser sessions over the
// Chrome DevTools Protocol, falling back across installed engines and
// provisioning Chrome for Testing into a local cache when nothing is
// installed.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("tbnreports/lib/browser")

// Session is a live browser process. It is exclusively owned by
// whichever component currently drives it and must be released with
// Close on every exit path.
type Session struct {
	engine  Engine
	visible bool

	ctx       context.Context
	closeOnce sync.Once
	cancel    context.CancelFunc
}

// Context is the chromedp context actions run against.
func (s *Session) Context() context.Context { return s.ctx }

func (s *Session) Engine() Engine { return s.engine }

func (s *Session) Visible() bool { return s.visible }

// Close terminates the browser process. Safe to call more than once
// and never fails; cleanup of other resources must not be at the
// mercy of a dying browser.
func (s *Session) Close() {
	s.closeOnce.Do(s.cancel)
}

func allocatorOptions(execPath string, visible bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", !visible),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
	)
	return opts
}

func launch(parent context.Context, engine Engine, execPath string, visible bool) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocatorOptions(execPath, visible)...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)

	cancel := func() {
		ctxCancel()
		allocCancel()
	}

	// an empty Run starts the browser process, surfacing launch
	// failures here instead of on the first navigation
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		return nil, err
	}

	return &Session{
		engine:  engine,
		visible: visible,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

func attempt(ctx context.Context, engine Engine, visible bool) (*Session, *AttemptFailure) {
	var execPath string

	switch engine {
	case EngineChromeForTesting:
		bin, err := EnsureChromeForTesting(ctx)
		if err != nil {
			return nil, &AttemptFailure{Engine: engine, Kind: FailureProvisioning, Err: err}
		}
		execPath = bin
	default:
		bin, ok := findBinary(engine)
		if !ok {
			return nil, &AttemptFailure{
				Engine: engine,
				Kind:   FailureBinaryMissing,
				Err:    fmt.Errorf("no executable found for %s (candidates: %v)", engine, engineBinaries[engine]),
			}
		}
		execPath = bin
	}

	session, err := launch(ctx, engine, execPath, visible)
	if err != nil {
		return nil, &AttemptFailure{Engine: engine, Kind: FailureLaunchFailed, Err: err}
	}
	return session, nil
}

// Acquire obtains a session, trying the preferred engine first and
// then the fixed fallback order (skipping the engine already tried).
// visible=true opens an on-screen window, used for manual login.
// Exhausting every candidate returns *EngineUnavailableError with the
// full attempt chain attached.
func Acquire(ctx context.Context, preferred Engine, visible bool) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Acquire")
	defer span.End()
	span.SetAttributes(
		attribute.String("preferred", string(preferred)),
		attribute.Bool("visible", visible),
	)

	var order []Engine
	if preferred != EngineAuto && preferred != "" {
		order = append(order, preferred)
	}
	for _, e := range FallbackOrder {
		if e == preferred {
			continue
		}
		order = append(order, e)
	}

	var attempts []AttemptFailure
	for _, engine := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slog.InfoContext(ctx, "trying browser engine", "engine", engine)
		session, failure := attempt(ctx, engine, visible)
		if failure != nil {
			slog.WarnContext(ctx, "browser engine failed",
				"engine", engine, "kind", failure.Kind, "err", failure.Err)
			span.AddEvent("attempt failed", trace.WithAttributes(
				attribute.String("engine", string(engine)),
				attribute.String("kind", string(failure.Kind)),
			))
			attempts = append(attempts, *failure)
			continue
		}

		slog.InfoContext(ctx, "browser session acquired", "engine", engine)
		span.SetAttributes(attribute.String("engine", string(engine)))
		return session, nil
	}

	err := &EngineUnavailableError{Attempts: attempts}
	span.RecordError(err)
	span.SetStatus(codes.Error, "all browser attempts failed")
	return nil, err
}

// IsEngineUnavailable reports whether err is the exhausted-candidates
// failure, which is fatal to a run.
func IsEngineUnavailable(err error) bool {
	var target *EngineUnavailableError
	return errors.As(err, &target)
}
