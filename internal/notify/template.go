package notify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/avenir/tender-board/internal/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// strictPolicy strips all markup. Spreadsheet cells are untrusted input and
// must never inject HTML into outbound mail.
var strictPolicy = bluemonday.StrictPolicy()

// templateFields exposes the opportunity fields addressable from rule
// templates as {{field}}.
func templateFields(opp models.Opportunity) map[string]string {
	return map[string]string{
		"ref_no":             opp.RefNo,
		"tender_name":        opp.TenderName,
		"client_name":        opp.ClientName,
		"internal_lead":      opp.InternalLead,
		"group":              opp.GroupClassification,
		"classification":     opp.OpportunityClassification,
		"country":            opp.Country,
		"value":              strconv.FormatFloat(opp.Value, 'f', -1, 64),
		"probability":        strconv.FormatFloat(opp.Probability, 'f', -1, 64),
		"stage":              opp.CanonicalStage,
		"avenir_status":      opp.AvenirStatus,
		"tender_result":      opp.TenderResult,
		"date_received":      opp.DateReceivedDisplay,
		"remarks":            opp.RemarksReason,
		"comments":           opp.Comments,
	}
}

// Render substitutes {{field}} placeholders with sanitized values from the
// opportunity. Unknown placeholders render as empty strings rather than
// leaking the raw template text.
func Render(template string, opp models.Opportunity) string {
	fields := templateFields(opp)
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		return strictPolicy.Sanitize(fields[strings.ToLower(name)])
	})
}

// BuildHTML wraps a rendered body in the minimal mail document.
func BuildHTML(body string) string {
	paragraphs := strings.Split(body, "\n")
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", p)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// HTMLToText derives the plain-text alternative part from the HTML body.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strictPolicy.Sanitize(html)
	}

	var lines []string
	doc.Find("p, h1, h2, h3, li, td").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(lines, "\n")
}
