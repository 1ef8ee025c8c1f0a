// Package report renders a signal detection record as markdown or HTML.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"gosdt/domain/sdt"
)

// Markdown renders the counts and statistics of r as a markdown document.
func Markdown(title string, r sdt.Record) string {
	if strings.TrimSpace(title) == "" {
		title = "Signal detection summary"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Trials\n\n")
	b.WriteString("| | Signal present | Signal absent |\n")
	b.WriteString("|---|---:|---:|\n")
	fmt.Fprintf(&b, "| Responded yes | %s (hits) | %s (false alarms) |\n", FormatFloat(r.Hits()), FormatFloat(r.FalseAlarms()))
	fmt.Fprintf(&b, "| Responded no | %s (misses) | %s (correct rejections) |\n\n", FormatFloat(r.Misses()), FormatFloat(r.CorrectRejections()))

	b.WriteString("## Statistics\n\n")
	b.WriteString("| Measure | Value |\n")
	b.WriteString("|---|---:|\n")
	rows := []struct {
		name  string
		value float64
	}{
		{"Hit rate", r.HitRate()},
		{"False alarm rate", r.FalseAlarmRate()},
		{"z(H)", r.ZHit()},
		{"z(FA)", r.ZFalseAlarm()},
		{"d′", r.DPrime()},
		{"c", r.Criterion()},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", row.name, FormatFloat(row.value))
	}

	if math.IsInf(r.ZHit(), 0) || math.IsInf(r.ZFalseAlarm(), 0) {
		b.WriteString("\n> A rate of exactly 0 or 1 makes its z-score infinite.\n")
	}
	return b.String()
}

// HTML renders Markdown(title, r) to an HTML fragment. The title is rendered as plain text.
func HTML(title string, r sdt.Record) []byte {
	return ToHTML(Markdown(EscapeMarkdown(title), r))
}

const markdownPunctuation = "\\`*_{}[]()#+-.!:|&<>~^"

// EscapeMarkdown backslash-escapes markdown punctuation so s renders literally.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(markdownPunctuation, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ToHTML converts markdown with tables enabled to HTML. Raw HTML in the input is dropped.
func ToHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(md), p, renderer)
}

// FormatFloat prints finite values with up to six decimals and infinities as ±Inf.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	s := fmt.Sprintf("%.6f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
