package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/connecta/gig-scraper/pkg/utils"
)

// listing holds the fields read for one job before defaults are applied.
type listing struct {
	Link        string
	Title       string
	Company     string
	Location    string
	Description string
	JobType     string

	Deadline      time.Time
	DeadlineRaw   string
	DeadlineFound bool
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// ExtractLinks returns the absolute, de-duplicated hrefs matched by selector in
// document order.
func ExtractLinks(html string, baseURL string, selector string) ([]string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	seen := make(map[string]struct{})
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	})
	return out, nil
}

// extractDetail reads a detail page.
func extractDetail(html string, p SiteProfile) (listing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return listing{}, err
	}
	l := listing{
		Title:       firstText(doc.Selection, p.Fields.Title),
		Company:     firstText(doc.Selection, p.Fields.Company),
		Location:    firstText(doc.Selection, p.Fields.Location),
		Description: firstHTML(doc.Selection, p.Fields.Description),
		JobType:     firstText(doc.Selection, p.Fields.JobType),
	}
	if !p.Defaults.SkipDeadlineScan {
		l.Deadline, l.DeadlineRaw, l.DeadlineFound = ExtractDeadline(doc)
	}
	return l, nil
}

// extractListItems reads every row of a list-only page. Rows without a title
// or link are skipped.
func extractListItems(html string, p SiteProfile) ([]listing, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var out []listing
	doc.Find(p.ItemSelector).Each(func(_ int, row *goquery.Selection) {
		if sel := p.ItemSkipSelector; sel != "" && (row.Is(sel) || row.Find(sel).Length() > 0) {
			return
		}
		title := firstText(row, p.Fields.Title)
		href := firstAttr(row, p.Fields.Link, "href")
		if title == "" || href == "" {
			return
		}
		link, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		out = append(out, listing{
			Link:     link,
			Title:    title,
			Company:  firstText(row, p.Fields.Company),
			Location: firstText(row, p.Fields.Location),
			JobType:  firstText(row, p.Fields.JobType),
		})
	})
	return out, nil
}

func firstText(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(root.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func firstHTML(root *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		h, err := root.Find(sel).First().Html()
		if err == nil && strings.TrimSpace(h) != "" {
			return h
		}
	}
	return ""
}

func firstAttr(root *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := root.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
