package query

import (
	"slices"

	"github.com/sakif/profile-dashboard/internal/model"
)

// Facets are the distinct values that populate the UI's filter dropdowns.
type Facets struct {
	Categories []string `json:"categories"`
	Industries []string `json:"industries"`
	Platforms  []string `json:"platforms"`
	Stages     []string `json:"stages"`
}

// CollectFacets gathers distinct non-empty values from analyzed profiles.
// Each list is sorted.
func CollectFacets(profiles []model.UserProfile) Facets {
	var categories, industries, platforms, stages set
	for i := range profiles {
		ai := profiles[i].AIProfile
		if ai == nil {
			continue
		}
		categories.add(ai.UserCategory)
		industries.add(ai.Positioning.Industry)
		platforms.add(ai.Positioning.Platform)
		stages.add(ai.BusinessPotential.Stage)
	}
	return Facets{
		Categories: categories.sorted(),
		Industries: industries.sorted(),
		Platforms:  platforms.sorted(),
		Stages:     stages.sorted(),
	}
}

type set map[string]struct{}

func (s *set) add(v string) {
	if v == "" {
		return
	}
	if *s == nil {
		*s = set{}
	}
	(*s)[v] = struct{}{}
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
