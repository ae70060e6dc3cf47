package model

import "time"

// ExclusionEntry hides one user (by email) from chart and/or list views.
// The underlying profile document is never touched.
type ExclusionEntry struct {
	Email             string    `json:"email"               bson:"email"`
	ExcludeFromCharts bool      `json:"exclude_from_charts" bson:"exclude_charts"`
	ExcludeFromList   bool      `json:"exclude_from_list"   bson:"exclude_list"`
	UpdatedAt         time.Time `json:"updated_at"          bson:"updated_at"`
}

// ExclusionConfig is the wire view of the registry: one email list per facet.
type ExclusionConfig struct {
	Charts []string `json:"charts"`
	List   []string `json:"list"`
}

// NewExclusionConfig splits entries into the two facet lists, keeping entry order.
func NewExclusionConfig(entries []ExclusionEntry) ExclusionConfig {
	cfg := ExclusionConfig{
		Charts: []string{},
		List:   []string{},
	}
	for _, e := range entries {
		if e.ExcludeFromCharts {
			cfg.Charts = append(cfg.Charts, e.Email)
		}
		if e.ExcludeFromList {
			cfg.List = append(cfg.List, e.Email)
		}
	}
	return cfg
}
