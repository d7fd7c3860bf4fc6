// Package extract pulls a company name out of a classified email. The
// precedence is fixed: sender display name, then sender domain, then the
// first named-entity candidate in document order, then "Unknown".
package extract

import (
	"regexp"
	"strings"

	prose "github.com/jdkato/prose/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unknown is the company name used when no candidate is found.
const Unknown = "Unknown"

var (
	// "Acme Recruiting <jobs@acme.com>" -> "Acme Recruiting"
	displayNameRe = regexp.MustCompile(`^(.+?)\s*<.*?>`)
	// "jobs@mail.acme.com" -> "mail.acme.com"
	domainRe = regexp.MustCompile(`@([A-Za-z0-9.-]+)`)

	titleCaser = cases.Title(language.English)
)

// CompanyName returns the best company-name candidate for an email. The
// subject and body are expected in their normalized form.
func CompanyName(from, subject, body string) string {
	if m := displayNameRe.FindStringSubmatch(from); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return strings.Trim(name, `"`)
		}
	}

	if name := fromDomain(from); name != "" {
		return name
	}

	if name := firstEntity(subject + " " + body); name != "" {
		return name
	}

	return Unknown
}

// fromDomain derives a name from the sender's domain: the label left of the
// public suffix, title-cased ("jobs@mail.acme.com" -> "Acme").
func fromDomain(from string) string {
	m := domainRe.FindStringSubmatch(from)
	if m == nil {
		return ""
	}
	labels := strings.Split(strings.Trim(m[1], "."), ".")
	if len(labels) < 2 {
		return ""
	}
	label := labels[len(labels)-2]
	if label == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(label))
}

// firstEntity returns the first named-entity candidate in document order,
// or "" when the text yields none. Ties between multiple candidates are
// broken by document order, nothing else.
func firstEntity(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return ""
	}
	for _, ent := range doc.Entities() {
		if name := strings.TrimSpace(ent.Text); name != "" {
			return name
		}
	}
	return ""
}
