package models

import (
	"errors"
	"strings"
)

// Newsletter is a subscription record as served by the backend.
// Cost is the monthly price and only counts when Paid is set.
type Newsletter struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	Category   string  `json:"category"`
	Paid       bool    `json:"paid"`
	Cost       float64 `json:"cost"`
	Engagement float64 `json:"engagement"`
}

// Recommendation is a read-only suggestion from the recommendation service.
type Recommendation struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
	MatchScore  float64  `json:"matchScore"`
	Subscribers *int64   `json:"subscribers,omitempty"`
	URL         string   `json:"url,omitempty"`
}

var (
	ErrNameRequired      = errors.New("name is required")
	ErrAuthorRequired    = errors.New("author is required")
	ErrNegativeCost      = errors.New("cost must be non-negative")
	ErrCostOnFree        = errors.New("free newsletter cannot have a cost")
	ErrEngagementOutside = errors.New("engagement must be within [0, 1]")
)

// NewNewsletter is the payload of the add-newsletter form.
type NewNewsletter struct {
	Name       string  `json:"name"`
	Author     string  `json:"author"`
	Category   string  `json:"category"`
	Paid       bool    `json:"paid"`
	Cost       float64 `json:"cost"`
	Engagement float64 `json:"engagement"`
}

// Validate checks the form before anything is sent to the backend.
func (n *NewNewsletter) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(n.Author) == "" {
		return ErrAuthorRequired
	}
	if n.Cost < 0 {
		return ErrNegativeCost
	}
	if !n.Paid && n.Cost != 0 {
		return ErrCostOnFree
	}
	if n.Engagement < 0 || n.Engagement > 1 {
		return ErrEngagementOutside
	}
	return nil
}

// Engagement tiers used for colouring the list.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// EngagementTier buckets an engagement ratio: above 0.7 is high, below 0.5 is low.
func EngagementTier(e float64) string {
	switch {
	case e > 0.7:
		return TierHigh
	case e < 0.5:
		return TierLow
	default:
		return TierMedium
	}
}
