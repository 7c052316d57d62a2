package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tbnreports/lib/browser"
	"tbnreports/lib/configutil"
	"tbnreports/lib/mailer"
	"tbnreports/lib/pipeline"
	"tbnreports/lib/report"
	"tbnreports/lib/scrapers/tbn"

	"github.com/spf13/cobra"
)

type Config struct {
	Username string            `json:"username"`
	Password string            `json:"password"`
	SMTP     mailer.SMTPConfig `json:"smtp"`
}

var (
	runYears    *string
	runEmail    *string
	runEngine   *string
	runPastData *string
	runOut      *string
	runManual   *bool
	runVisible  *bool
	runSendmail *bool
)

func init() {
	runYears = runCmd.Flags().String("years", "", "Years to scrape, e.g. \"2025\" or \"2021-2024, 2026\".")
	runEmail = runCmd.Flags().String("email", "", "Recipient list, comma or semicolon separated.")
	runEngine = runCmd.Flags().String("engine", "auto", "Browser engine: auto, chrome, chrome-for-testing, chromium, edge.")
	runPastData = runCmd.Flags().String("past-data", "", "Raw data export (.json or .csv) from a previous run to diff against.")
	runOut = runCmd.Flags().String("out", "", "Directory to write artifacts to. Defaults to a temp directory.")
	runManual = runCmd.Flags().Bool("manual", false, "Log in by hand in a visible browser instead of using configured credentials.")
	runVisible = runCmd.Flags().Bool("visible", false, "Run the browser with a visible window.")
	runSendmail = runCmd.Flags().Bool("sendmail", false, "Deliver through the local sendmail binary instead of SMTP.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run --years <list> --email <recipients>",
	Short: "Scrapes the requested years and emails the spreadsheets.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		engine, err := browser.ParseEngine(*runEngine)
		if err != nil {
			fatal("bad engine flag", err)
		}

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			fatal("failed to read config", err)
		}

		var sink mailer.Sink
		if *runSendmail {
			sink = mailer.NewSendmailSink(cfg.SMTP.From)
		} else {
			if *runEmail != "" {
				if err := cfg.SMTP.Validate(); err != nil {
					fatal("email delivery requested but smtp is not configured", err)
				}
			}
			sink = mailer.NewSMTPSink(cfg.SMTP)
		}

		var prior *pipeline.PriorUpload
		if *runPastData != "" {
			data, err := os.ReadFile(*runPastData)
			if err != nil {
				fatal("failed to read past data file", err)
			}
			prior = &pipeline.PriorUpload{
				Filename: filepath.Base(*runPastData),
				Data:     data,
			}
		}

		runner := pipeline.New(sink, tbn.SlogProgress{})
		result, err := runner.Run(ctx, pipeline.Request{
			YearsText:      *runYears,
			EmailsText:     *runEmail,
			Engine:         engine,
			Visible:        *runVisible,
			Manual:         *runManual,
			ManualContinue: promptContinue,
			Credentials: pipeline.Credentials{
				Username: cfg.Username,
				Password: cfg.Password,
			},
			Endpoints: tbn.EndpointsFromEnv(),
			Prior:     prior,
			OutDir:    *runOut,
		})
		if err != nil {
			fatal("report run failed", err)
		}

		for _, yr := range result.Years {
			if yr.Err != nil {
				fmt.Printf("\n%d: FAILED: %v\n", yr.Year, yr.Err)
				continue
			}
			if yr.NoData {
				fmt.Printf("\n%d: no data scraped\n", yr.Year)
				continue
			}
			fmt.Printf("\n%d:\n", yr.Year)
			report.WriteMonthlySummary(os.Stdout, yr.Monthly)
		}
		fmt.Println()
		report.WriteYearSummary(os.Stdout, result.Summaries())
		fmt.Printf("\nartifacts: %s\n", result.OutDir)

		if result.DeliveryErr != nil {
			fatal("artifacts were produced but not delivered", result.DeliveryErr)
		}
	},
}

// promptContinue blocks until the operator confirms the manual login
// is done, or the run is cancelled.
func promptContinue(ctx context.Context) error {
	fmt.Println("Log in in the opened browser window, then press Enter here to continue.")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
