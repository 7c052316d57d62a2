package commands

import (
	"os"

	"tbnreports/lib/browser"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enginesCmd)
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "Shows which browser engines are installed, in fallback order.",
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Engine", "Binary"})
		for _, engine := range browser.FallbackOrder {
			bin, ok := browser.LocateBinary(engine)
			if !ok {
				bin = "(not found)"
			}
			t.AppendRow(table.Row{string(engine), bin})
		}
		t.Render()
	},
}
