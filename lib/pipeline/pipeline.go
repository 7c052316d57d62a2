// Package pipeline runs a full report job end to end: validate
// inputs, acquire a browser, authenticate, scrape each requested year,
// render artifacts and deliver them. Years fail independently; one bad
// year never takes down the rest of the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"tbnreports/lib/browser"
	"tbnreports/lib/mailer"
	"tbnreports/lib/report"
	"tbnreports/lib/scrapers/tbn"
	"tbnreports/lib/textutil"

	random "github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("tbnreports/lib/pipeline")

type Credentials struct {
	Username string
	Password string
}

// PriorUpload is previously exported raw data to diff the fresh scrape
// against. The filename decides the parse format.
type PriorUpload struct {
	Filename string
	Data     []byte
}

// Request describes one report run.
type Request struct {
	YearsText  string
	EmailsText string

	Engine  browser.Engine
	Visible bool

	// Manual switches to operator-driven login; ManualContinue must
	// then block until the operator has finished.
	Manual         bool
	ManualContinue tbn.ContinueSignal

	Credentials Credentials
	Endpoints   tbn.Endpoints
	Prior       *PriorUpload

	// OutDir persists artifacts there; empty means a fresh temp dir.
	OutDir string
}

// YearResult is the outcome for one requested year. Err is set when
// the year failed; NoData means the scrape succeeded but every month
// was empty, so no artifacts were produced for it.
type YearResult struct {
	Year    int
	Err     error
	NoData  bool
	Dataset report.YearDataset
	Totals  report.MonthlyDays
	Monthly []report.MonthSummary
	Excel   []byte
	Raw     []byte
}

// Result is the outcome of a whole run.
type Result struct {
	RunID       string
	OutDir      string
	Recipients  []string
	Years       []YearResult
	Delivered   bool
	DeliveryErr error
}

// Summaries returns the cross-year totals for the years that produced
// data.
func (r *Result) Summaries() []report.YearSummary {
	var out []report.YearSummary
	for _, yr := range r.Years {
		if yr.Err != nil || yr.NoData {
			continue
		}
		moves := 0
		for _, m := range yr.Monthly {
			moves += m.TotalMoves
		}
		out = append(out, report.YearSummary{Year: yr.Year, TotalMoves: moves})
	}
	return out
}

type Runner struct {
	sink     mailer.Sink
	progress tbn.ProgressSink
}

func New(sink mailer.Sink, progress tbn.ProgressSink) *Runner {
	if progress == nil {
		progress = tbn.NopProgress{}
	}
	return &Runner{sink: sink, progress: progress}
}

// yearScraper is the slice of the portal client the run loop needs.
type yearScraper interface {
	ScrapeYear(ctx context.Context, year int, progress tbn.ProgressSink) (report.YearDataset, error)
}

// Run executes the request. Input validation and authentication
// failures abort with an error; per-year scrape failures and delivery
// failures are recorded on the Result instead.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline:Run")
	defer span.End()

	years, recipients, err := parseInputs(req)
	if err != nil {
		return nil, err
	}

	var priorRecords []report.Row
	if req.Prior != nil {
		priorRecords, err = report.ParsePriorUpload(req.Prior.Data, req.Prior.Filename)
		if err != nil {
			return nil, err
		}
	}

	span.SetAttributes(
		attribute.IntSlice("years", years),
		attribute.Int("recipients", len(recipients)),
	)

	client, err := r.connect(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "could not establish portal session")
		return nil, err
	}
	defer client.Close()

	return r.run(ctx, req, client, years, recipients, priorRecords)
}

// parseInputs validates the request's years and recipients. An empty
// recipient list is fine and means "no email delivery"; validation
// only rejects a list that was given and is wrong.
func parseInputs(req Request) (years []int, recipients []string, err error) {
	years = textutil.ParseYears(req.YearsText)
	if len(years) == 0 {
		return nil, nil, &InvalidYearInputError{Input: req.YearsText}
	}

	if strings.TrimSpace(req.EmailsText) == "" {
		return years, nil, nil
	}
	recipients, err = textutil.ValidateEmails(req.EmailsText)
	if err != nil {
		return nil, nil, &InvalidEmailInputError{Input: req.EmailsText, Err: err}
	}
	if len(recipients) == 0 {
		return nil, nil, &InvalidEmailInputError{Input: req.EmailsText, Err: fmt.Errorf("no recipients")}
	}
	return years, recipients, nil
}

func (r *Runner) connect(ctx context.Context, req Request) (*tbn.Client, error) {
	if req.Manual {
		if req.ManualContinue == nil {
			return nil, fmt.Errorf("manual login requested without a continue signal")
		}
		return tbn.ManualLogin(ctx, req.Endpoints, req.Engine, req.ManualContinue)
	}

	session, err := browser.Acquire(ctx, req.Engine, req.Visible)
	if err != nil {
		return nil, err
	}
	client := tbn.NewClient(session, req.Endpoints)
	if err := client.Login(ctx, req.Credentials.Username, req.Credentials.Password); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (r *Runner) run(ctx context.Context, req Request, scraper yearScraper, years []int, recipients []string, priorRecords []report.Row) (*Result, error) {
	runID, err := random.String(8)
	if err != nil {
		return nil, err
	}

	outDir := req.OutDir
	if outDir == "" {
		outDir, err = os.MkdirTemp("", "tbnreports-"+runID+"-")
		if err != nil {
			return nil, err
		}
	} else if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, OutDir: outDir, Recipients: recipients}
	slog.InfoContext(ctx, "starting report run",
		"run_id", runID, "years", years, "out_dir", outDir)

	var attachments []mailer.Attachment
	for _, year := range years {
		yr := r.runYear(ctx, scraper, year, priorRecords)
		result.Years = append(result.Years, yr)
		if yr.Err != nil {
			slog.ErrorContext(ctx, "year failed", "year", year, "err", yr.Err)
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			continue
		}
		if yr.NoData {
			continue
		}

		excelName := report.ExcelFilename(year)
		rawName := report.RawFilename(year)
		if err := os.WriteFile(filepath.Join(outDir, excelName), yr.Excel, 0o644); err != nil {
			slog.WarnContext(ctx, "could not persist artifact", "file", excelName, "err", err)
		}
		if err := os.WriteFile(filepath.Join(outDir, rawName), yr.Raw, 0o644); err != nil {
			slog.WarnContext(ctx, "could not persist artifact", "file", rawName, "err", err)
		}
		attachments = append(attachments,
			mailer.Attachment{Filename: excelName, Data: yr.Excel},
			mailer.Attachment{Filename: rawName, Data: yr.Raw},
		)
	}

	if len(recipients) == 0 {
		slog.InfoContext(ctx, "no recipients given, artifacts stay on disk",
			"run_id", runID, "out_dir", outDir)
		return result, nil
	}
	if len(attachments) == 0 {
		slog.WarnContext(ctx, "no artifacts produced, skipping delivery", "run_id", runID)
		return result, nil
	}

	msg := mailer.Message{
		To:          recipients,
		Subject:     emailSubject(years),
		Body:        emailBody,
		Attachments: attachments,
	}
	if err := r.sink.Send(ctx, msg); err != nil {
		// artifacts are already on disk; delivery failure does not
		// retract them
		result.DeliveryErr = err
		slog.ErrorContext(ctx, "delivery failed", "run_id", runID, "err", err)
		return result, nil
	}
	result.Delivered = true
	slog.InfoContext(ctx, "report run delivered",
		"run_id", runID, "recipients", len(recipients), "attachments", len(attachments))
	return result, nil
}

func (r *Runner) runYear(ctx context.Context, scraper yearScraper, year int, priorRecords []report.Row) YearResult {
	ctx, span := tracer.Start(ctx, "pipeline:runYear")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year))

	yr := YearResult{Year: year}

	dataset, err := scraper.ScrapeYear(ctx, year, r.progress)
	if err != nil {
		span.SetStatus(codes.Error, "scrape failed")
		yr.Err = err
		return yr
	}
	yr.Dataset = dataset

	if dataset.Empty() {
		yr.NoData = true
		slog.WarnContext(ctx, "no data scraped", "year", year)
		span.SetAttributes(attribute.Bool("no_data", true))
		return yr
	}

	totals, ada := report.Aggregate(dataset)
	yr.Totals = totals
	yr.Monthly = report.MonthlySummary(year, totals)

	var delta report.MonthlyDays
	if len(priorRecords) > 0 {
		prior := report.DatasetFromRecords(priorRecords, year)
		if !prior.Empty() {
			oldTotals, _ := report.Aggregate(prior)
			delta = report.Diff(totals, oldTotals)
		}
	}

	grid := report.BuildGrid(year, totals, ada, delta)
	yr.Excel, err = report.RenderExcel(grid)
	if err != nil {
		span.SetStatus(codes.Error, "render failed")
		yr.Err = fmt.Errorf("failed to render spreadsheet for %d: %w", year, err)
		return yr
	}
	yr.Raw, err = dataset.MarshalRecords()
	if err != nil {
		span.SetStatus(codes.Error, "raw export failed")
		yr.Err = fmt.Errorf("failed to serialize raw data for %d: %w", year, err)
		return yr
	}
	return yr
}

func emailSubject(years []int) string {
	if len(years) > 1 {
		return "TBN Daily Totals Reports"
	}
	return fmt.Sprintf("TBN Daily Totals Report – %d", years[0])
}

const emailBody = "Hi,\n\n" +
	"Attached are the updated TBN reports, including comparisons and ADA notes.\n\n" +
	"Some values may be affected by data sync or processing delays.\n\nThanks!"
