package static

import (
	"context"
	"sort"
	"strings"

	"github.com/bnema/lumiere-ledger/internal/domain"
)

const (
	defaultLevel    = 1
	defaultAccuracy = 50.0
)

var coreCatalog = map[string]string{
	"math":      "Math Expert",
	"finance":   "Finance Guide",
	"cooking":   "Cooking Buddy",
	"reminders": "Reminder Manager",
	"health":    "Health Coach",
	"education": "Learning Mentor",
	"coding":    "Coding Assistant",
	"business":  "Business Strategist",
	"career":    "Career Mentor",
	"travel":    "Travel Planner",
	"language":  "Language Coach",
	"science":   "Science Explorer",
	"legal":     "Legal Navigator",
	"personal":  "Personal Companion",
}

// Catalog serves resource profiles from the built-in responder set plus configured overrides.
type Catalog struct {
	profiles map[string]domain.ResourceProfile
}

// NewCatalog seeds the core responders and layers overrides on top. Overrides may add
// new specialties; zero fields fall back to the core values.
func NewCatalog(overrides []domain.ResourceProfile) *Catalog {
	profiles := make(map[string]domain.ResourceProfile, len(coreCatalog)+len(overrides))
	for specialty, name := range coreCatalog {
		profiles[specialty] = domain.ResourceProfile{
			Specialty:   specialty,
			DisplayName: name,
			Level:       defaultLevel,
			Accuracy:    defaultAccuracy,
		}
	}

	for _, override := range overrides {
		slug := domain.NormalizeSpecialty(override.Specialty)
		profile, ok := profiles[slug]
		if !ok {
			profile = domain.ResourceProfile{Specialty: slug, Level: defaultLevel, Accuracy: defaultAccuracy}
		}
		if name := strings.TrimSpace(override.DisplayName); name != "" {
			profile.DisplayName = name
		}
		if override.Level > 0 {
			profile.Level = override.Level
		}
		if override.Accuracy > 0 {
			profile.Accuracy = override.Accuracy
		}
		if profile.DisplayName == "" {
			profile.DisplayName = slug
		}
		profiles[slug] = profile
	}

	return &Catalog{profiles: profiles}
}

func (c *Catalog) Profile(_ context.Context, specialty string) (domain.ResourceProfile, error) {
	profile, ok := c.profiles[domain.NormalizeSpecialty(specialty)]
	if !ok {
		return domain.ResourceProfile{}, domain.ErrUnknownProfile
	}
	return profile, nil
}

func (c *Catalog) List(_ context.Context) ([]domain.ResourceProfile, error) {
	out := make([]domain.ResourceProfile, 0, len(c.profiles))
	for _, profile := range c.profiles {
		out = append(out, profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Specialty < out[j].Specialty })
	return out, nil
}
