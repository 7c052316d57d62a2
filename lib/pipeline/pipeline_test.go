package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tbnreports/lib/mailer"
	"tbnreports/lib/report"
	"tbnreports/lib/scrapers/tbn"

	"github.com/stretchr/testify/require"
)

type fakeScraper struct {
	failYears  map[int]error
	emptyYears map[int]bool
}

func (f *fakeScraper) ScrapeYear(ctx context.Context, year int, progress tbn.ProgressSink) (report.YearDataset, error) {
	if err := f.failYears[year]; err != nil {
		return report.YearDataset{Year: year}, err
	}
	if f.emptyYears[year] {
		return report.YearDataset{Year: year}, nil
	}
	return report.YearDataset{
		Year: year,
		Months: []report.MonthRecord{{
			Year:  year,
			Month: 3,
			Rows: []report.Row{
				{report.LabelColumn: "Motorcoach", "1": "2", "2": "4"},
				{report.LabelColumn: "TOTAL", "1": "2", "2": "4"},
			},
		}},
	}, nil
}

type recordingSink struct {
	messages []mailer.Message
	err      error
}

func (s *recordingSink) Send(ctx context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func TestRunRejectsBadYears(t *testing.T) {
	runner := New(&recordingSink{}, nil)
	_, err := runner.Run(context.Background(), Request{
		YearsText:  "yesterday",
		EmailsText: "ops@example.com",
	})

	var yearErr *InvalidYearInputError
	require.ErrorAs(t, err, &yearErr)
	require.Equal(t, "yesterday", yearErr.Input)
}

func TestRunRejectsBadEmails(t *testing.T) {
	runner := New(&recordingSink{}, nil)
	_, err := runner.Run(context.Background(), Request{
		YearsText:  "2025",
		EmailsText: "ops@example.com, not-an-address",
	})

	var emailErr *InvalidEmailInputError
	require.ErrorAs(t, err, &emailErr)
	require.Contains(t, emailErr.Error(), "not-an-address")
}

func TestRunContinuesPastFailedYear(t *testing.T) {
	sink := &recordingSink{}
	runner := New(sink, nil)
	scraper := &fakeScraper{failYears: map[int]error{
		2024: fmt.Errorf("portal hiccup"),
	}}

	outDir := t.TempDir()
	result, err := runner.run(context.Background(),
		Request{OutDir: outDir}, scraper,
		[]int{2024, 2025}, []string{"ops@example.com"}, nil)
	require.NoError(t, err)

	require.Len(t, result.Years, 2)
	require.Error(t, result.Years[0].Err)
	require.NoError(t, result.Years[1].Err)
	require.NotEmpty(t, result.Years[1].Excel)
	require.NotEmpty(t, result.Years[1].Raw)

	require.True(t, result.Delivered)
	require.Len(t, sink.messages, 1)
	msg := sink.messages[0]
	require.Equal(t, "TBN Daily Totals Reports", msg.Subject)
	require.Contains(t, msg.Body, "comparisons and ADA notes")
	require.Len(t, msg.Attachments, 2)
	require.Equal(t, report.ExcelFilename(2025), msg.Attachments[0].Filename)

	_, err = os.Stat(filepath.Join(outDir, report.RawFilename(2025)))
	require.NoError(t, err)

	summaries := result.Summaries()
	require.Len(t, summaries, 1)
	require.Equal(t, 2025, summaries[0].Year)
	require.Equal(t, 6, summaries[0].TotalMoves)
}

func TestRunReportsDeliveryFailure(t *testing.T) {
	sink := &recordingSink{err: &mailer.DeliveryError{Err: errors.New("relay down")}}
	runner := New(sink, nil)

	outDir := t.TempDir()
	result, err := runner.run(context.Background(),
		Request{OutDir: outDir}, &fakeScraper{},
		[]int{2025}, []string{"ops@example.com"}, nil)
	require.NoError(t, err)

	require.False(t, result.Delivered)
	require.Error(t, result.DeliveryErr)

	// artifacts survive a failed delivery
	_, err = os.Stat(filepath.Join(outDir, report.ExcelFilename(2025)))
	require.NoError(t, err)
}

func TestRunSkipsDeliveryWithNothingToSend(t *testing.T) {
	sink := &recordingSink{}
	runner := New(sink, nil)
	scraper := &fakeScraper{failYears: map[int]error{
		2025: fmt.Errorf("portal down"),
	}}

	result, err := runner.run(context.Background(),
		Request{OutDir: t.TempDir()}, scraper,
		[]int{2025}, []string{"ops@example.com"}, nil)
	require.NoError(t, err)
	require.False(t, result.Delivered)
	require.Empty(t, sink.messages)
}

func TestParseInputsTreatsEmailsAsOptional(t *testing.T) {
	years, recipients, err := parseInputs(Request{YearsText: "2025", EmailsText: ""})
	require.NoError(t, err)
	require.Equal(t, []int{2025}, years)
	require.Empty(t, recipients)

	years, recipients, err = parseInputs(Request{YearsText: "2024-2025", EmailsText: " a@b.com ;c@d.org "})
	require.NoError(t, err)
	require.Equal(t, []int{2024, 2025}, years)
	require.Equal(t, []string{"a@b.com", "c@d.org"}, recipients)
}

func TestRunWithoutRecipientsKeepsArtifactsOnDisk(t *testing.T) {
	sink := &recordingSink{}
	runner := New(sink, nil)

	outDir := t.TempDir()
	result, err := runner.run(context.Background(),
		Request{OutDir: outDir}, &fakeScraper{},
		[]int{2025}, nil, nil)
	require.NoError(t, err)

	require.False(t, result.Delivered)
	require.NoError(t, result.DeliveryErr)
	require.Empty(t, sink.messages)

	_, err = os.Stat(filepath.Join(outDir, report.ExcelFilename(2025)))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, report.RawFilename(2025)))
	require.NoError(t, err)
}

func TestRunSkipsYearWithoutData(t *testing.T) {
	sink := &recordingSink{}
	runner := New(sink, nil)
	scraper := &fakeScraper{emptyYears: map[int]bool{2024: true}}

	outDir := t.TempDir()
	result, err := runner.run(context.Background(),
		Request{OutDir: outDir}, scraper,
		[]int{2024, 2025}, []string{"ops@example.com"}, nil)
	require.NoError(t, err)

	require.Len(t, result.Years, 2)
	require.True(t, result.Years[0].NoData)
	require.NoError(t, result.Years[0].Err)
	require.Empty(t, result.Years[0].Excel)
	require.False(t, result.Years[1].NoData)

	// the empty year contributes no attachments and no artifact files
	require.Len(t, sink.messages, 1)
	require.Len(t, sink.messages[0].Attachments, 2)
	_, err = os.Stat(filepath.Join(outDir, report.ExcelFilename(2024)))
	require.True(t, os.IsNotExist(err))

	summaries := result.Summaries()
	require.Len(t, summaries, 1)
	require.Equal(t, 2025, summaries[0].Year)
}

func TestEmailSubject(t *testing.T) {
	require.Equal(t, "TBN Daily Totals Report – 2025", emailSubject([]int{2025}))
	require.Equal(t, "TBN Daily Totals Reports", emailSubject([]int{2024, 2025}))
}

func TestRunYearAppliesPriorDelta(t *testing.T) {
	runner := New(&recordingSink{}, nil)

	prior := []report.Row{
		{"Year": "2025", "Month": "3", report.LabelColumn: "TOTAL", "1": "5", "2": "4"},
	}
	yr := runner.runYear(context.Background(), &fakeScraper{}, 2025, prior)
	require.NoError(t, yr.Err)
	require.Equal(t, 2, yr.Totals[3][1])
	require.NotEmpty(t, yr.Excel)
}
