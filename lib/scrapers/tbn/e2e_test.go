package tbn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tbnreports/lib/browser"
	"tbnreports/lib/report"
	"tbnreports/lib/telemetry"

	"github.com/stretchr/testify/require"
)

// fakePortal is a minimal stand-in for the production portal: a
// cookie-gated report page whose month picker commits on change and
// which only has data for January and February.
func fakePortal() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<form method="POST" action="/do-login">
<input name="email" id="email" type="email">
<input name="password" id="password" type="password">
<button type="submit">Sign In</button>
</form>
</body></html>`)
	})

	mux.HandleFunc("/do-login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") == "" || r.FormValue("password") == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "tbnsession", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/salesman/reports/daily-usage", http.StatusFound)
	})

	mux.HandleFunc("/salesman/reports/daily-usage", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("tbnsession"); err != nil || c.Value != "ok" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		fmt.Fprint(w, `<html><body><div id="report">
<input class="datetimepicker-input" value="">
<script>
document.querySelector('input.datetimepicker-input')
  .addEventListener('change', function () {
    location = '/salesman/reports/daily-usage?d=' + encodeURIComponent(this.value);
  });
</script>`)

		switch r.URL.Query().Get("d") {
		case "01/2025":
			fmt.Fprint(w, `<table>
<tr><th>Vehicle Types</th><th>1</th><th>2</th></tr>
<tr><td>TOTAL</td><td>3</td><td>5</td></tr>
</table>`)
		case "02/2025":
			fmt.Fprint(w, `<table>
<tr><th>Vehicle Types</th><th>1</th></tr>
<tr><td>Wheelchair Coach</td><td>1</td></tr>
<tr><td>TOTAL</td><td>2</td></tr>
</table>`)
		}

		fmt.Fprint(w, `</div></body></html>`)
	})

	return httptest.NewServer(mux)
}

func TestScrapeAgainstFakePortal(t *testing.T) {
	cleanup := telemetry.SetupForTesting("tbn-e2e-test")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	session, err := browser.Acquire(ctx, browser.EngineAuto, false)
	if browser.IsEngineUnavailable(err) {
		t.Skip("no browser engine available:", err)
	}
	require.NoError(t, err)
	defer session.Close()

	portal := fakePortal()
	defer portal.Close()

	client := NewClient(session, Endpoints{
		LoginURL:  portal.URL + "/login",
		ReportURL: portal.URL + "/salesman/reports/daily-usage",
	})

	require.NoError(t, client.Login(ctx, "user@example.com", "hunter2"))

	dataset, err := client.ScrapeYear(ctx, 2025, NopProgress{})
	require.NoError(t, err)
	require.Len(t, dataset.Months, 2)
	require.Equal(t, 1, dataset.Months[0].Month)
	require.Equal(t, 2, dataset.Months[1].Month)

	totals, ada := report.Aggregate(dataset)
	require.Equal(t, 3, totals[1][1])
	require.Equal(t, 5, totals[1][2])
	require.Equal(t, 2, totals[2][1])
	require.Equal(t, 1, ada[2][1])
	for month := 3; month <= 12; month++ {
		require.Equal(t, 0, totals[month][1])
	}
}

func TestLoginRejectedWithoutFields(t *testing.T) {
	cleanup := telemetry.SetupForTesting("tbn-e2e-test")
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	session, err := browser.Acquire(ctx, browser.EngineAuto, false)
	if browser.IsEngineUnavailable(err) {
		t.Skip("no browser engine available:", err)
	}
	require.NoError(t, err)
	defer session.Close()

	blank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>maintenance</p></body></html>`)
	}))
	defer blank.Close()

	client := NewClient(session, Endpoints{
		LoginURL:  blank.URL + "/login",
		ReportURL: blank.URL + "/report",
	})

	err = client.Login(ctx, "user@example.com", "hunter2")
	require.Error(t, err)
	require.True(t, IsAuthenticationFailed(err))
}
