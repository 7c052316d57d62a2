package mailer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildEmail(t *testing.T) {
	e, err := buildEmail("reports@example.com", Message{
		To:      []string{"ops@example.com", "boss@example.com"},
		Subject: "TBN Daily Totals Report – 2025",
		Body:    "Attached are the requested reports.",
		Attachments: []Attachment{
			{Filename: "TBN_Report_2025.xlsx", Data: []byte("fake xlsx")},
			{Filename: "TBN_RawData_2025.json", Data: []byte(`[]`)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "reports@example.com", e.From)
	require.Len(t, e.To, 2)
	require.Len(t, e.Attachments, 2)
	require.Equal(t, "TBN_Report_2025.xlsx", e.Attachments[0].Filename)

	raw, err := e.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(raw), "Subject:")
}

func TestContentType(t *testing.T) {
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		contentType("TBN_Report_2025.xlsx"))
	require.Equal(t, "application/json", contentType("TBN_RawData_2025.json"))
	require.Equal(t, "application/octet-stream", contentType("notes.txt"))
}

func TestDeliveryErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DeliveryError{Err: cause}
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "failed to deliver email")
}

func TestSMTPConfigValidate(t *testing.T) {
	err := SMTPConfig{}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "host")
	require.Contains(t, err.Error(), "port")
	require.Contains(t, err.Error(), "from")

	err = SMTPConfig{Host: "smtp.example.com", Port: 587}.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "from")
	require.NotContains(t, err.Error(), "host")

	require.NoError(t, SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "reports@example.com",
	}.Validate())
}

func TestSMTPSinkDefaultsToStartTLS(t *testing.T) {
	sink := NewSMTPSink(SMTPConfig{Host: "smtp.example.com", Port: 587})
	require.Equal(t, TLSModeStartTLS, sink.config.TLS)
}
