package main

import (
	"context"

	"tbnreports/cmd/tbnreport/commands"
	"tbnreports/lib/osutil"
	"tbnreports/lib/telemetry"
)

func main() {
	ctx := osutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "tbnreport")
	telemetry.InstrumentPerfStats(ctx)
	telemetry.InitSlog(true)
	defer telemetry.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
