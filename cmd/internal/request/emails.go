package request

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

type notificationData struct {
	Requester  Requester
	ApproveURL string
	DenyURL    string
	ExpiresAt  string
}

type approvalData struct {
	Requester Requester
	FileName  string
}

var notificationHTML = htmltemplate.Must(htmltemplate.New("notification").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<h2>New resume request</h2>
<table>
<tr><td><b>Name</b></td><td>{{.Requester.Name}}</td></tr>
<tr><td><b>Email</b></td><td>{{.Requester.Email}}</td></tr>
<tr><td><b>Company</b></td><td>{{.Requester.Company}}</td></tr>
<tr><td><b>Reason</b></td><td>{{.Requester.Reason}}</td></tr>
</table>
<p>
<a href="{{.ApproveURL}}">Approve and send resume</a>
&nbsp;|&nbsp;
<a href="{{.DenyURL}}">Deny</a>
</p>
<p style="color:#666">Links expire {{.ExpiresAt}}.</p>
</body></html>
`))

var notificationText = texttemplate.Must(texttemplate.New("notification").Parse(`New resume request

Name:    {{.Requester.Name}}
Email:   {{.Requester.Email}}
Company: {{.Requester.Company}}
Reason:  {{.Requester.Reason}}

Approve: {{.ApproveURL}}
Deny:    {{.DenyURL}}

Links expire {{.ExpiresAt}}.
`))

var approvalHTML = htmltemplate.Must(htmltemplate.New("approval").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<p>Hi {{.Requester.Name}},</p>
<p>Thanks for your interest. My resume is attached ({{.FileName}}).</p>
</body></html>
`))

var approvalText = texttemplate.Must(texttemplate.New("approval").Parse(`Hi {{.Requester.Name}},

Thanks for your interest. My resume is attached ({{.FileName}}).
`))

func render(html *htmltemplate.Template, text *texttemplate.Template, data any) (string, string, error) {
	var hb, tb strings.Builder
	if err := html.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err := text.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
