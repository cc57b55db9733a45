package usecase

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
	"github.com/connecta/gig-scraper/pkg/utils"
)

const minDescriptionLength = 20

var spamKeywords = []string{
	"click here now",
	"make money fast",
	"100% free",
	"act now",
	"limited time offer",
	"no experience needed earn $$$",
	"work from home earn thousands",
}

// ValidationResult is the outcome of checking one gig.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// InvalidGig pairs a rejected gig with the reasons it failed.
type InvalidGig struct {
	Gig    entity.Gig
	Errors []string
}

// BatchResult partitions a batch into accepted and rejected gigs.
type BatchResult struct {
	Valid   []entity.Gig
	Invalid []InvalidGig
}

// JobValidator rejects malformed and spam-like listings before they reach the backend.
type JobValidator struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewJobValidator(logger *zap.Logger) *JobValidator {
	return &JobValidator{logger: logger, now: time.Now}
}

// Validate runs every check on gig and collects all failures.
func (v *JobValidator) Validate(gig entity.Gig) ValidationResult {
	var errs []string

	if isBlank(gig.Title) {
		errs = append(errs, "Title is required and cannot be empty")
	}
	if isBlank(gig.Company) {
		errs = append(errs, "Company name is required and cannot be empty")
	}
	if len([]rune(strings.TrimSpace(gig.Description))) < minDescriptionLength {
		errs = append(errs, "Description must be at least 20 characters long")
	}
	if !utils.IsHTTPURL(gig.ApplyURL) {
		errs = append(errs, "Valid apply URL is required")
	}
	if isBlank(gig.ExternalID) {
		errs = append(errs, "External ID is required")
	}
	if isBlank(gig.Source) {
		errs = append(errs, "Source is required")
	}

	if containsSpam(gig.Title) || containsSpam(gig.Description) {
		errs = append(errs, "Content appears to be spam or low quality")
	}

	if gig.Deadline != "" {
		deadline, ok := parseTimestamp(gig.Deadline)
		switch {
		case !ok:
			errs = append(errs, "Invalid deadline date format")
		case deadline.Before(v.now()):
			errs = append(errs, "Job deadline has already passed")
		}
	}

	// A present but malformed URL is reported a second time on its own.
	if gig.ApplyURL != "" && !utils.IsHTTPURL(gig.ApplyURL) {
		errs = append(errs, "Apply URL is not valid")
	}

	if gig.Category != "" && isBlank(gig.Category) {
		errs = append(errs, "Category cannot be empty if provided")
	}

	if len(errs) > 0 {
		v.logger.Warn("job validation failed", zap.String("title", gig.Title), zap.Strings("errors", errs))
		return ValidationResult{IsValid: false, Errors: errs}
	}
	v.logger.Debug("job validation passed", zap.String("title", gig.Title))
	return ValidationResult{IsValid: true}
}

// ValidateBatch keeps the order of gigs within each partition.
func (v *JobValidator) ValidateBatch(gigs []entity.Gig) BatchResult {
	res := BatchResult{Valid: make([]entity.Gig, 0, len(gigs))}
	for _, g := range gigs {
		r := v.Validate(g)
		if r.IsValid {
			res.Valid = append(res.Valid, g)
			continue
		}
		res.Invalid = append(res.Invalid, InvalidGig{Gig: g, Errors: r.Errors})
	}
	v.logger.Info("validated jobs", zap.Int("valid", len(res.Valid)), zap.Int("total", len(gigs)))
	if len(res.Invalid) > 0 {
		v.logger.Warn("jobs failed validation", zap.Int("count", len(res.Invalid)))
	}
	return res
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func containsSpam(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
