package request

import (
	"regexp"
	"strings"
)

// Field limits applied at intake.
const (
	maxNameLen    = 200
	maxCompanyLen = 200
	maxEmailLen   = 320
	maxReasonLen  = 2000
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Intake is the raw form submission.
type Intake struct {
	Name    string
	Email   string
	Company string
	Reason  string
}

// normalize trims every field and reports the invalid ones in form order.
func (in Intake) normalize() (Requester, []string) {
	r := Requester{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Company: strings.TrimSpace(in.Company),
		Reason:  strings.TrimSpace(in.Reason),
	}

	var bad []string
	if r.Name == "" || len(r.Name) > maxNameLen {
		bad = append(bad, "name")
	}
	if r.Email == "" || len(r.Email) > maxEmailLen || !emailPattern.MatchString(r.Email) {
		bad = append(bad, "email")
	}
	if r.Company == "" || len(r.Company) > maxCompanyLen {
		bad = append(bad, "company")
	}
	if r.Reason == "" || len(r.Reason) > maxReasonLen {
		bad = append(bad, "reason")
	}
	return r, bad
}
