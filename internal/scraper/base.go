package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/connecta/gig-scraper/internal/entity"
)

const (
	DefaultDescriptionLength = 2000
	defaultDeadlineDays      = 14
)

var (
	trailingNumberRe = regexp.MustCompile(`/(\d+)/?$`)
	tagRe            = regexp.MustCompile(`<[^>]*>`)
	inlineSpaceRe    = regexp.MustCompile(`[ \t\f\v\r]+`)
	blankLinesRe     = regexp.MustCompile(`\n\s*\n`)
)

// NormalizeJobType maps free text such as "Full Time" or "Gig work" onto a JobType.
// Anything unrecognised is full-time.
func NormalizeJobType(raw string) entity.JobType {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "full"):
		return entity.JobTypeFullTime
	case strings.Contains(s, "part"):
		return entity.JobTypePartTime
	case strings.Contains(s, "contract"):
		return entity.JobTypeContract
	case strings.Contains(s, "freelance"), strings.Contains(s, "gig"):
		return entity.JobTypeFreelance
	default:
		return entity.JobTypeFullTime
	}
}

// GenerateID derives the external id of a listing from its URL: a trailing
// numeric path segment, else the last non-empty segment, else the URL itself.
func GenerateID(rawURL string) string {
	if m := trailingNumberRe.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	if u, err := url.Parse(rawURL); err == nil {
		parts := strings.Split(u.Path, "/")
		for i := len(parts) - 1; i >= 0; i-- {
			if p := strings.TrimSpace(parts[i]); p != "" {
				return p
			}
		}
	}
	return rawURL
}

// CleanDescription strips tags, collapses whitespace and blank lines and
// truncates to maxLength runes. maxLength <= 0 means DefaultDescriptionLength.
// Entities are left as-is.
func CleanDescription(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultDescriptionLength
	}
	s := tagRe.ReplaceAllString(text, "")
	s = inlineSpaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n")
	s = strings.TrimSpace(s)

	if r := []rune(s); len(r) > maxLength {
		s = strings.TrimSpace(string(r[:maxLength]))
	}
	return s
}

// DefaultDeadline is used when a listing does not expose one.
func DefaultDeadline(now time.Time) time.Time {
	return now.AddDate(0, 0, defaultDeadlineDays)
}

func locationType(location string) string {
	if strings.Contains(strings.ToLower(location), "remote") {
		return "remote"
	}
	return "onsite"
}

func jobScope(location string) string {
	l := strings.ToLower(location)
	if strings.Contains(l, "nigeria") || strings.Contains(l, "lagos") {
		return "local"
	}
	return "international"
}

func pickNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
