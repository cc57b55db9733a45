package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const deadlineScanSelector = "li, p, span, div, h3, h4"

var deadlineLabelRe = regexp.MustCompile(`(?i)^.*?(application\s+)?deadline\s*:?\s*`)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"Jan 2, 2006",
	"Jan 02, 2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
	"Mon, Jan 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan, 2006",
	"2006/01/02",
	// Slash dates are month first, the way JavaScript Date reads them.
	"01/02/2006",
	"1/2/2006",
}

// ExtractDeadline scans the document for the tightest element mentioning
// "Deadline" and parses the date that follows the label. The raw text found is
// returned for logging even when it does not parse.
func ExtractDeadline(doc *goquery.Document) (deadline time.Time, raw string, ok bool) {
	best := ""
	doc.Find(deadlineScanSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, "Deadline") {
			return
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	})
	if best == "" {
		return time.Time{}, "", false
	}

	// Keep only the line carrying the label.
	for _, line := range strings.Split(best, "\n") {
		if strings.Contains(line, "Deadline") {
			best = line
			break
		}
	}
	raw = strings.TrimSpace(deadlineLabelRe.ReplaceAllString(strings.TrimSpace(best), ""))
	if t, ok := ParseDeadline(raw); ok {
		return t, raw, true
	}
	return time.Time{}, raw, false
}

// ParseDeadline tries the date layouts job boards commonly print, on the whole
// text and on its leading words.
func ParseDeadline(raw string) (time.Time, bool) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	candidates := []string{strings.Join(fields, " ")}
	for n := 5; n >= 1; n-- {
		if n < len(fields) {
			candidates = append(candidates, strings.Join(fields[:n], " "))
		}
	}
	for _, c := range candidates {
		c = strings.TrimRight(c, ".,;")
		for _, layout := range deadlineLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
