package notify

import (
	"strings"
	"testing"

	"github.com/avenir/tender-board/internal/models"
)

var sampleTender = models.Opportunity{
	RefNo:               "AV-2024-017",
	TenderName:          "Substation Upgrade",
	ClientName:          "Acme Power",
	GroupClassification: "Energy",
	Country:             "UAE",
	Value:               1250000,
	Probability:         75,
	CanonicalStage:      "In Progress",
	DateReceivedDisplay: "1 Jan 2022",
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			"basic substitution",
			"New tender {{ref_no}} from {{client_name}}",
			"New tender AV-2024-017 from Acme Power",
		},
		{
			"whitespace inside braces",
			"{{ tender_name }} in {{ country }}",
			"Substation Upgrade in UAE",
		},
		{
			"numeric fields",
			"Value {{value}} at {{probability}}%",
			"Value 1250000 at 75%",
		},
		{
			"unknown placeholder renders empty",
			"Hello {{nonsense}}!",
			"Hello !",
		},
		{
			"case insensitive field name",
			"{{REF_NO}}",
			"AV-2024-017",
		},
		{
			"no placeholders",
			"plain text",
			"plain text",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.template, sampleTender); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderSanitizesCellValues(t *testing.T) {
	tender := sampleTender
	tender.TenderName = `<script>alert("x")</script>Upgrade`

	got := Render("{{tender_name}}", tender)
	if strings.Contains(got, "<script>") {
		t.Errorf("markup not stripped: %q", got)
	}
	if !strings.Contains(got, "Upgrade") {
		t.Errorf("text content lost: %q", got)
	}
}

func TestBuildHTML(t *testing.T) {
	got := BuildHTML("line one\n\nline two")
	if got != "<html><body><p>line one</p><p>line two</p></body></html>" {
		t.Errorf("got %q", got)
	}
}

func TestHTMLToText(t *testing.T) {
	html := "<html><body><p>New tender AV-001</p><p>Value 1000</p></body></html>"
	got := HTMLToText(html)
	want := "New tender AV-001\nValue 1000"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
