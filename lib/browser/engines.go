package browser

import (
	"fmt"
	"os"
	"os/exec"
)

// Engine identifies a browser automation backend. Every engine here is
// chromium-family because sessions are driven over the Chrome DevTools
// Protocol; no separate driver binary is involved.
type Engine string

const (
	// pick the first engine of the fallback order that launches
	EngineAuto Engine = "auto"
	// system Chrome install
	EngineChrome Engine = "chrome"
	// Chrome for Testing, downloaded into a local cache on demand
	EngineChromeForTesting Engine = "chrome-for-testing"
	// system Chromium-family alternates
	EngineChromium Engine = "chromium"
	// Microsoft Edge
	EngineEdge Engine = "edge"
)

// FallbackOrder is the fixed order engines are tried in when the
// preferred one fails (the preferred engine is skipped if it already
// had its attempt).
var FallbackOrder = []Engine{
	EngineChrome,
	EngineChromeForTesting,
	EngineChromium,
	EngineEdge,
}

func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineAuto, EngineChrome, EngineChromeForTesting, EngineChromium, EngineEdge:
		return Engine(s), nil
	}
	return "", fmt.Errorf("unknown browser engine %q", s)
}

// LocateBinary resolves the executable a system-installed engine
// would launch, without launching it. EngineChromeForTesting reports
// only what is already in the local cache.
func LocateBinary(engine Engine) (string, bool) {
	if engine == EngineChromeForTesting {
		return cachedChromeForTesting()
	}
	return findBinary(engine)
}

var engineBinaries = map[Engine][]string{
	EngineChrome:   {"google-chrome", "google-chrome-stable", "chrome"},
	EngineChromium: {"chromium", "chromium-browser", "brave-browser"},
	EngineEdge:     {"microsoft-edge", "microsoft-edge-stable", "msedge"},
}

// findBinary resolves the executable for a system-installed engine.
// CHROME_PATH overrides the Chrome lookup, mirroring the portal
// tooling this replaces.
func findBinary(engine Engine) (string, bool) {
	if engine == EngineChrome {
		if p := os.Getenv("CHROME_PATH"); p != "" {
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}
	for _, cand := range engineBinaries[engine] {
		if p, err := exec.LookPath(cand); err == nil {
			return p, true
		}
	}
	return "", false
}
