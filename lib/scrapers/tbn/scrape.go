package tbn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tbnreports/lib/report"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ProgressSink receives incremental scrape progress. Fraction is in
// [0, 1]; label is a short human description of the step just done.
type ProgressSink interface {
	Report(fraction float64, label string)
}

// NopProgress discards progress reports.
type NopProgress struct{}

func (NopProgress) Report(float64, string) {}

// SlogProgress logs progress reports at info level.
type SlogProgress struct{}

func (SlogProgress) Report(fraction float64, label string) {
	slog.Info("progress", "percent", int(fraction*100), "label", label)
}

// ScrapeMonth drives the report UI to one month and extracts its
// table. A nil record with nil error means the month rendered without
// a table (no activity). A DatePickerNotFoundError is fatal to this
// month only.
func (c *Client) ScrapeMonth(ctx context.Context, year, month int) (*report.MonthRecord, error) {
	ctx, span := tracer.Start(ctx, "client:ScrapeMonth")
	defer span.End()
	span.SetAttributes(
		attribute.Int("year", year),
		attribute.Int("month", month),
	)

	bctx := c.session.Context()

	err := chromedp.Run(bctx,
		chromedp.Navigate(c.endpoints.ReportURL),
		chromedp.Sleep(navigationSettle),
	)
	if err != nil {
		span.SetStatus(codes.Error, "failed to open report page")
		return nil, err
	}

	pickerSel, ok := waitAny(bctx, nil, datePickerSelectors, datePickerWait)
	if !ok {
		span.SetStatus(codes.Error, "date picker not found")
		return nil, &DatePickerNotFoundError{
			Year:      year,
			Month:     month,
			Attempted: datePickerSelectors,
		}
	}

	// type MM/YYYY then commit with Tab so the page re-renders
	err = chromedp.Run(bctx,
		chromedp.Clear(pickerSel, chromedp.ByQuery),
		chromedp.SendKeys(pickerSel, fmt.Sprintf("%02d/%d", month, year), chromedp.ByQuery),
		chromedp.SendKeys(pickerSel, kb.Tab, chromedp.ByQuery),
		chromedp.Sleep(pickerSettle),
	)
	if err != nil {
		span.SetStatus(codes.Error, "failed to drive date picker")
		return nil, fmt.Errorf("failed to set report month: %w", err)
	}

	var html string
	if err := chromedp.Run(bctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		span.SetStatus(codes.Error, "failed to read page markup")
		return nil, err
	}

	record, err := ExtractMonthTable(ctx, html, year, month)
	if err != nil {
		return nil, err
	}
	if record == nil {
		span.SetAttributes(attribute.Bool("empty", true))
		return nil, nil
	}
	span.SetAttributes(attribute.Int("rows", len(record.Rows)))
	return record, nil
}

// ScrapeYear collects every month of the year in order, reporting
// progress after each month. Months without a table are simply absent
// from the dataset; an unrecognized report UI skips that month. Any
// other failure aborts the year with whatever months were already
// collected.
func (c *Client) ScrapeYear(ctx context.Context, year int, progress ProgressSink) (report.YearDataset, error) {
	ctx, span := tracer.Start(ctx, "client:ScrapeYear")
	defer span.End()
	span.SetAttributes(attribute.Int("year", year))

	if progress == nil {
		progress = NopProgress{}
	}

	dataset := report.YearDataset{Year: year}
	for month := 1; month <= 12; month++ {
		if err := ctx.Err(); err != nil {
			return dataset, err
		}

		record, err := c.ScrapeMonth(ctx, year, month)
		if err != nil {
			var pickerErr *DatePickerNotFoundError
			if errors.As(err, &pickerErr) {
				slog.WarnContext(ctx, "skipping month, report UI unrecognized",
					"year", year, "month", month)
				progress.Report(float64(month)/12, fmt.Sprintf("Skipped %d-%02d", year, month))
				continue
			}
			span.SetStatus(codes.Error, "month scrape failed")
			return dataset, fmt.Errorf("failed to scrape %d-%02d: %w", year, month, err)
		}
		if record != nil {
			dataset.Months = append(dataset.Months, *record)
		}
		progress.Report(float64(month)/12, fmt.Sprintf("Scraped %d-%02d", year, month))
	}

	span.SetAttributes(attribute.Int("months", len(dataset.Months)))
	return dataset, nil
}
