package scraper

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SiteProfile describes one job board declaratively. A profile with a
// LinkSelector follows detail links; one without reads every field from the
// rows matched by ItemSelector on the listing page.
type SiteProfile struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	ListURL string `yaml:"list_url"`
	// Render selects the headless browser; false fetches static HTML.
	Render       bool   `yaml:"render"`
	WaitSelector string `yaml:"wait_selector"`

	LinkSelector       string `yaml:"link_selector"`
	DetailWaitSelector string `yaml:"detail_wait_selector"`

	ItemSelector     string `yaml:"item_selector"`
	ItemSkipSelector string `yaml:"item_skip_selector"`

	Fields   FieldSelectors `yaml:"fields"`
	Defaults FieldDefaults  `yaml:"defaults"`
}

// FieldSelectors lists candidate CSS selectors per field, tried in order.
type FieldSelectors struct {
	Title       []string `yaml:"title"`
	Company     []string `yaml:"company"`
	Location    []string `yaml:"location"`
	Description []string `yaml:"description"`
	JobType     []string `yaml:"job_type"`
	Link        []string `yaml:"link"`
}

type FieldDefaults struct {
	Company  string `yaml:"company"`
	Location string `yaml:"location"`
	JobType  string `yaml:"job_type"`
	Category string `yaml:"category"`
	// DeadlineDays is the horizon used when no deadline can be read.
	DeadlineDays int `yaml:"deadline_days"`
	// SkipDeadlineScan disables the deadline heuristic on detail pages.
	SkipDeadlineScan bool `yaml:"skip_deadline_scan"`
}

func (p SiteProfile) followsLinks() bool {
	return strings.TrimSpace(p.LinkSelector) != ""
}

func (p SiteProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile without name")
	}
	if strings.TrimSpace(p.ListURL) == "" {
		return fmt.Errorf("profile %s: list_url is required", p.Name)
	}
	if !p.followsLinks() && strings.TrimSpace(p.ItemSelector) == "" {
		return fmt.Errorf("profile %s: needs link_selector or item_selector", p.Name)
	}
	return nil
}

// BuiltinProfiles returns the boards scraped out of the box.
func BuiltinProfiles() []SiteProfile {
	return []SiteProfile{
		{
			Name:         "jobberman",
			BaseURL:      "https://www.jobberman.com",
			ListURL:      "https://www.jobberman.com/jobs",
			Render:       true,
			WaitSelector: "a[href*='/listings/']",
			LinkSelector: "a[href*='/listings/']",
			Fields: FieldSelectors{
				Title:       []string{"h1"},
				Company:     []string{".job-header-company"},
				Location:    []string{".job-header-location"},
				Description: []string{".job-details-content"},
			},
			Defaults: FieldDefaults{Company: "Unknown", Location: "Nigeria", JobType: "full-time", Category: "Other"},
		},
		{
			Name:         "myjobmag",
			BaseURL:      "https://www.myjobmag.com",
			ListURL:      "https://www.myjobmag.com/",
			Render:       true,
			WaitSelector: ".job-list-li, .job-info",
			LinkSelector: "li.job-list-li h2 a",
			Fields: FieldSelectors{
				Title:       []string{"h1"},
				Company:     []string{".job-key-info a[href*='/jobs-at/']"},
				Location:    []string{".job-key-info span"},
				Description: []string{".job-details"},
			},
			Defaults: FieldDefaults{Company: "Unknown", Location: "Nigeria", JobType: "full-time", Category: "General"},
		},
		{
			Name:             "weworkremotely",
			BaseURL:          "https://weworkremotely.com",
			ListURL:          "https://weworkremotely.com/",
			Render:           true,
			WaitSelector:     ".jobs article li",
			ItemSelector:     ".jobs article li",
			ItemSkipSelector: ".view-all",
			Fields: FieldSelectors{
				Title:    []string{".title"},
				Company:  []string{".company"},
				Location: []string{".region"},
				Link:     []string{"a"},
			},
			Defaults: FieldDefaults{Company: "Unknown", Location: "Remote", JobType: "contract", Category: "Remote"},
		},
	}
}

type profileFile struct {
	Profiles []SiteProfile `yaml:"profiles"`
}

// LoadProfiles merges the profiles of a YAML file over the built-ins: a file
// profile replaces the built-in of the same name, new names are appended.
// An empty path returns the built-ins.
func LoadProfiles(path string) ([]SiteProfile, error) {
	profiles := BuiltinProfiles()
	if strings.TrimSpace(path) == "" {
		return profiles, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site profiles: %w", err)
	}
	return mergeProfiles(profiles, b)
}

func mergeProfiles(base []SiteProfile, raw []byte) ([]SiteProfile, error) {
	var f profileFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse site profiles: %w", err)
	}
	out := append([]SiteProfile(nil), base...)
	for _, p := range f.Profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		replaced := false
		for i := range out {
			if out[i].Name == p.Name {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out, nil
}

// SelectProfiles keeps the named profiles in the given order. No names selects all.
func SelectProfiles(all []SiteProfile, names []string) ([]SiteProfile, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]SiteProfile, len(all))
	for _, p := range all {
		byName[p.Name] = p
	}
	out := make([]SiteProfile, 0, len(names))
	for _, n := range names {
		p, ok := byName[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown scraper %q", n)
		}
		out = append(out, p)
	}
	return out, nil
}
