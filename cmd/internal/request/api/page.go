package requestapi

import (
	"html/template"
	"net/http"

	"resumegate/cmd/internal/request"
)

type pageData struct {
	Title   string
	Message string
}

var decisionPage = template.Must(template.New("decision").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:36rem;margin:4rem auto;padding:0 1rem;color:#222}
h1{font-size:1.4rem}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

func writePage(w http.ResponseWriter, status int, title, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(status)
	_ = decisionPage.Execute(w, pageData{Title: title, Message: msg})
}

// outcomePage maps a decision outcome to its status and page copy.
func outcomePage(res request.Result) (int, string, string) {
	name := res.Record.Requester.Name
	switch res.Outcome {
	case request.OutcomeApproved:
		return http.StatusOK, "Approved", "Resume sent to " + name + " (" + res.Record.Requester.Email + ")."
	case request.OutcomeDenied:
		return http.StatusOK, "Denied", "Request from " + name + " was denied. No email was sent."
	case request.OutcomeAlreadyDecided:
		return http.StatusOK, "Already " + string(res.Record.Status), "This request was already " + string(res.Record.Status) + ". Nothing changed."
	case request.OutcomeExpired:
		return http.StatusBadRequest, "Link expired", "This decision link has expired."
	case request.OutcomeNotFound:
		return http.StatusNotFound, "Not found", "This request no longer exists."
	default:
		return http.StatusInternalServerError, "Error", "Something went wrong."
	}
}
