package tbn

import "os"

const (
	defaultLoginURL  = "https://portal.thebusnetwork.com/login"
	defaultReportURL = "https://portal.thebusnetwork.com/salesman/reports/daily-usage"
)

// Endpoints are the portal URLs the scraper drives. Overridable for
// staging portals and for tests that stand up a fake portal.
type Endpoints struct {
	LoginURL  string `json:"login_url"`
	ReportURL string `json:"report_url"`
}

// EndpointsFromEnv returns the production endpoints, with
// TBN_LOGIN_URL / TBN_REPORT_URL environment overrides applied.
func EndpointsFromEnv() Endpoints {
	e := Endpoints{
		LoginURL:  defaultLoginURL,
		ReportURL: defaultReportURL,
	}
	if v := os.Getenv("TBN_LOGIN_URL"); v != "" {
		e.LoginURL = v
	}
	if v := os.Getenv("TBN_REPORT_URL"); v != "" {
		e.ReportURL = v
	}
	return e
}
