package status

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email is a rendered report ready for a mailer.
type Email struct {
	Subject string
	HTML    string
	// Preview is the short inbox summary line.
	Preview string
}

var emailTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family:sans-serif;color:#1C0F13">
<div style="display:none">{{.Preview}}</div>
<div style="margin:0 auto;width:80%">
  <h2 style="text-align:center">{{.Heading}}</h2>
  <p style="text-align:center"><a href="{{.AppURL}}" style="background:#1C0F13;color:#fff;padding:8px 16px;border-radius:4px;text-decoration:none">Go to inveniam</a></p>
  <table style="margin:24px auto;text-align:center">
    <tr><th>Overdue</th><th>Today</th><th>This Week</th><th>Completed</th></tr>
    <tr>
      <td style="font-size:48px">{{len .Report.Overdue}}</td>
      <td style="font-size:48px">{{len .Report.DueToday}}</td>
      <td style="font-size:48px">{{len .Report.Upcoming}}</td>
      <td style="font-size:48px">{{len .Report.CompletedThisWeek}}</td>
    </tr>
  </table>
  {{range .Sections}}
  <div style="margin:8px 0;padding:4px;border-radius:12px;background:{{.Color}}">
    <h3>{{.Title}}</h3>
    {{if not .Tasks}}<p style="font-size:12px">{{.EmptyText}}</p>{{end}}
    {{range .Tasks}}<div><label><input type="checkbox"> {{.Text}}</label></div>
    {{end}}
  </div>
  {{end}}
</div>
</body>
</html>
`))

type emailSection struct {
	Title     string
	EmptyText string
	Color     template.CSS
	Tasks     []TaskSummary
}

// RenderEmail renders r with a link back to appURL. The heading and subject
// use the report's generation day.
func RenderEmail(r Report, appURL string) (Email, error) {
	heading := r.GeneratedAt.Format("Monday (1/02)")
	e := Email{
		Subject: "Status for " + heading,
		Preview: fmt.Sprintf("Overdue: %d, Today: %d", len(r.Overdue), len(r.DueToday)),
	}

	data := struct {
		Subject  string
		Preview  string
		Heading  string
		AppURL   string
		Report   Report
		Sections []emailSection
	}{
		Subject: e.Subject,
		Preview: e.Preview,
		Heading: heading,
		AppURL:  appURL,
		Report:  r,
		Sections: []emailSection{
			{"Overdue", "Nothing overdue", "#f9d2de", r.Overdue},
			{"Today", "Nothing due", "#edf3f3", r.DueToday},
			{"This Week", "Nothing due", "#eeeef1", r.Upcoming},
			{"Completed", "No tasks have been completed...yet!", "#fbf8ec", r.CompletedThisWeek},
		},
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return Email{}, fmt.Errorf("failed to render status email: %w", err)
	}
	e.HTML = buf.String()
	return e, nil
}
