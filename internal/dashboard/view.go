package dashboard

import (
	"newsletter_dashboard/internal/loader"
	"newsletter_dashboard/internal/models"
)

// View is everything the dashboard renders for one request.
type View struct {
	Status          string                  `json:"status"`
	Loading         bool                    `json:"loading"`
	Search          string                  `json:"search"`
	Metrics         Metrics                 `json:"metrics"`
	Newsletters     []NewsletterRow         `json:"newsletters"`
	Recommendations []RecommendationCard    `json:"recommendations"`
	Errors          []CollectionUnavailable `json:"errors,omitempty"`
}

// NewsletterRow is a newsletter with its display tier.
type NewsletterRow struct {
	models.Newsletter
	Tier string `json:"tier"`
}

// RecommendationCard is a recommendation with its match rounded for display.
type RecommendationCard struct {
	models.Recommendation
	MatchPercent int `json:"matchPercent"`
}

// CollectionUnavailable names a collection whose read failed, so the page
// can tell "failed to load" apart from "nothing subscribed".
type CollectionUnavailable struct {
	Collection string `json:"collection"`
	Message    string `json:"message"`
}

// Build derives the view from a session snapshot. Metrics always cover the
// full newsletter list; only the rows are narrowed by the search term.
// A session whose load has not started yet renders as loading.
func Build(snap loader.Snapshot) View {
	v := View{
		Status:          snap.Status.String(),
		Loading:         snap.Loading() || snap.Status == loader.NotLoaded,
		Search:          snap.Search,
		Metrics:         ComputeMetrics(snap.Newsletters),
		Newsletters:     []NewsletterRow{},
		Recommendations: []RecommendationCard{},
	}

	for _, n := range Filter(snap.Newsletters, snap.Search) {
		v.Newsletters = append(v.Newsletters, NewsletterRow{Newsletter: n, Tier: models.EngagementTier(n.Engagement)})
	}
	for _, r := range snap.Recommendations {
		v.Recommendations = append(v.Recommendations, RecommendationCard{Recommendation: r, MatchPercent: Percent(r.MatchScore)})
	}
	for _, fe := range snap.FetchErrors {
		v.Errors = append(v.Errors, CollectionUnavailable{Collection: fe.Collection, Message: fe.Err.Error()})
	}
	return v
}

// WithSearch builds the view for term without touching the session's own
// search term.
func WithSearch(snap loader.Snapshot, term string) View {
	snap.Search = term
	return Build(snap)
}
