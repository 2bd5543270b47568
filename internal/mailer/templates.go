package mailer

import (
	"bytes"
	"html/template"
	"time"
)

const (
	testSubject   = "FilePulse - Test Email"
	reportSubject = "FilePulse Report - "
	timeLayout    = "2006-01-02 15:04:05"
)

var testTemplate = template.Must(template.New("test").Parse(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2 style="color: #2563eb;">FilePulse Test Email</h2>
    <p>This is a test email from FilePulse.</p>
    <p>If you received this, your email configuration is working correctly!</p>
    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">Sent at: {{.SentAt}}</p>
</body>
</html>`))

var reportTemplate = template.Must(template.New("report").Parse(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2 style="color: #2563eb;">FilePulse - Scheduled Report</h2>
    <p>Please find attached the latest FilePulse report.</p>
    <div style="background: #f3f4f6; padding: 15px; border-radius: 8px; margin: 20px 0;">
        <p style="margin: 5px 0;"><strong>Report:</strong> {{.Title}}</p>
        <p style="margin: 5px 0;"><strong>Generated:</strong> {{.GeneratedAt}}</p>
    </div>
    <p>This report contains folder activity analysis based on your configured thresholds.</p>
    <hr style="margin: 20px 0;">
    <p style="color: #666; font-size: 12px;">Automated email from FilePulse</p>
</body>
</html>`))

func renderTest(now time.Time) (string, error) {
	var buf bytes.Buffer
	err := testTemplate.Execute(&buf, struct{ SentAt string }{now.Format(timeLayout)})
	return buf.String(), err
}

func renderReport(title string, generatedAt time.Time) (string, error) {
	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Title       string
		GeneratedAt string
	}{title, generatedAt.Format(timeLayout)})
	return buf.String(), err
}
