package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEngine(t *testing.T) {
	for _, s := range []string{"auto", "chrome", "chrome-for-testing", "chromium", "edge"} {
		e, err := ParseEngine(s)
		require.NoError(t, err)
		require.Equal(t, Engine(s), e)
	}

	_, err := ParseEngine("firefox")
	require.Error(t, err)
}

func TestEngineUnavailableError(t *testing.T) {
	err := &EngineUnavailableError{Attempts: []AttemptFailure{
		{Engine: EngineChrome, Kind: FailureBinaryMissing, Err: errors.New("not on PATH")},
		{Engine: EngineEdge, Kind: FailureLaunchFailed, Err: errors.New("exit status 1")},
	}}

	require.Contains(t, err.Error(), "no browser engine could be launched")
	require.Contains(t, err.Error(), "chrome: binary_missing")
	require.Contains(t, err.Error(), "edge: launch_failed")

	require.True(t, IsEngineUnavailable(err))
	require.False(t, IsEngineUnavailable(errors.New("other")))
}

func TestFallbackOrderSkipsPreferred(t *testing.T) {
	// mirrors the ordering logic in Acquire
	preferred := EngineChromium
	var order []Engine
	order = append(order, preferred)
	for _, e := range FallbackOrder {
		if e == preferred {
			continue
		}
		order = append(order, e)
	}
	require.Equal(t, []Engine{EngineChromium, EngineChrome, EngineChromeForTesting, EngineEdge}, order)
}
