// Package normalize turns raw email subject/body text into the canonical
// classification-ready form and derives ProcessedRecords from EmailRecords.
// The transform is deterministic: the same EmailRecord always yields the
// same ProcessedRecord.
package normalize

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/jobtrail/jobtrail/internal/model"
)

// Normalizer holds the lemmatizer dictionary, loaded once per process.
type Normalizer struct {
	lem *golem.Lemmatizer
}

// New loads the English lemmatizer dictionary.
func New() (*Normalizer, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, eris.Wrap(err, "normalize: load lemmatizer")
	}
	return &Normalizer{lem: lem}, nil
}

// Refine strips markup, URLs, email addresses, digits and punctuation from
// raw text, collapses whitespace, and reduces each remaining token to its
// dictionary form. Empty input yields empty output.
func (n *Normalizer) Refine(raw string) string {
	text := stripMarkup(raw)

	text = urlRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, "")
	text = emailRe.ReplaceAllString(text, "")
	text = digitRe.ReplaceAllString(text, "")
	text = nonLetterRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	tokens := strings.Fields(text)
	for i, tok := range tokens {
		tokens[i] = n.lem.Lemma(tok)
	}
	return strings.Join(tokens, " ")
}

// Process derives the ProcessedRecord for a raw email: normalized subject
// and body, the composed classifier input, and the UTC-parsed date (epoch
// sentinel when the header is unparsable).
func (n *Normalizer) Process(rec model.EmailRecord) model.ProcessedRecord {
	subject := n.Refine(rec.Subject)
	body := n.Refine(rec.Body)
	return model.ProcessedRecord{
		MessageID:  rec.MessageID,
		From:       rec.From,
		To:         rec.To,
		Subject:    subject,
		Body:       body,
		Date:       rec.Date,
		Text:       ComposeText(rec.From, subject, body),
		ParsedDate: ParseDate(rec.Date),
	}
}

// ComposeText builds the classifier input from sender, normalized subject
// and normalized body. The template is part of the contract with the
// zero-shot adapter; changing it requires re-validating the hypotheses.
func ComposeText(from, subject, body string) string {
	return from + ". " + subject + `. The email: "` + body + `" -end of the email. `
}

// SortByParsedDate orders records ascending by their parsed timestamp,
// stably, so same-timestamp records keep their arrival order. Downstream
// dedup and reconciliation assume this ordering.
func SortByParsedDate(records []model.ProcessedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ParsedDate.Before(records[j].ParsedDate)
	})
}

// stripMarkup returns the text content of HTML input, or the trimmed input
// when it contains no parseable tags. Inputs like "a < b" that merely
// mention angle brackets parse to zero element nodes and are treated as
// plain text.
func stripMarkup(raw string) string {
	if !strings.Contains(raw, "<") {
		return strings.TrimSpace(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	body := doc.Find("body")
	if body.Length() == 0 || body.Find("*").Length() == 0 {
		return strings.TrimSpace(raw)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			if t := strings.TrimSpace(node.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, node := range body.Nodes {
		walk(node)
	}
	return strings.Join(parts, "\n")
}
