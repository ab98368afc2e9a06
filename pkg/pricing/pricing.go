// Package pricing holds the plan catalogue and the Custom plan price formula.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type PlanName string

const (
	PlanFree    PlanName = "Free"
	PlanStarter PlanName = "Starter"
	PlanPro     PlanName = "Pro"
	PlanCustom  PlanName = "Custom"
)

// Plan is one entry of the public price list.
type Plan struct {
	Name          PlanName `json:"name"`
	Price         float64  `json:"price"`
	Period        string   `json:"period"`
	PostsPerMonth int      `json:"postsPerMonth"`
	Description   string   `json:"description"`
	Features      []string `json:"features"`
	Popular       bool     `json:"popular"`
}

// Tier describes the Custom plan: a base quota at a base price, plus
// discounted batches of extra posts.
type Tier struct {
	BasePosts    int     `json:"basePosts"`
	BasePrice    float64 `json:"basePrice"`
	BatchSize    int     `json:"batchSize"`
	PerPostPrice float64 `json:"perPostPrice"`
	DiscountRate float64 `json:"discountRate"`
	MaxPosts     int     `json:"maxPosts"`
}

// DefaultTier starts the Custom plan at the Pro quota and price.
var DefaultTier = Tier{
	BasePosts:    60,
	BasePrice:    8.99,
	BatchSize:    30,
	PerPostPrice: 0.15,
	DiscountRate: 0.10,
	MaxPosts:     1000,
}

var ErrInvalidPosts = errors.New("invalid posts per month")

// Price returns the monthly price for the requested number of posts, rounded to cents.
func (t Tier) Price(posts int) float64 {
	if posts <= t.BasePosts || t.BatchSize <= 0 {
		return RoundCents(t.BasePrice)
	}
	extra := posts - t.BasePosts
	batches := (extra + t.BatchSize - 1) / t.BatchSize
	rate := t.PerPostPrice * (1 - t.DiscountRate)
	cost := float64(batches*t.BatchSize) * rate
	return RoundCents(t.BasePrice + cost)
}

// ValidatePosts checks a slider value: at least the base quota, a whole
// number of batches, and no more than MaxPosts when a cap is set.
func (t Tier) ValidatePosts(posts int) error {
	if posts < t.BasePosts {
		return fmt.Errorf("%w: minimum is %d", ErrInvalidPosts, t.BasePosts)
	}
	if t.BatchSize > 0 && posts%t.BatchSize != 0 {
		return fmt.Errorf("%w: must be a multiple of %d", ErrInvalidPosts, t.BatchSize)
	}
	if t.MaxPosts > 0 && posts > t.MaxPosts {
		return fmt.Errorf("%w: maximum is %d", ErrInvalidPosts, t.MaxPosts)
	}
	return nil
}

// RoundCents rounds to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Catalogue returns the plans offered on the pricing and plan selection pages.
func Catalogue(t Tier) []Plan {
	return []Plan{
		{
			Name:          PlanFree,
			Price:         0,
			Period:        "/month",
			PostsPerMonth: 5,
			Description:   "Try the writer with a handful of posts",
			Features:      []string{"5 posts per month", "Basic AI Writing", "Community support"},
		},
		{
			Name:          PlanStarter,
			Price:         5,
			Period:        "/month",
			PostsPerMonth: 30,
			Description:   "Perfect for individual creators getting started",
			Features:      []string{"Basic AI Writing", "Up to 30 posts per month", "Blog & Social Content", "Email Support"},
		},
		{
			Name:          PlanPro,
			Price:         8.99,
			Period:        "/month",
			PostsPerMonth: 60,
			Description:   "Best value for serious content creators",
			Features: []string{
				"Advanced AI Writing", "Up to 60 posts per month", "Blog, Social & News Content",
				"SEO Optimization", "Priority Support", "WordPress Integration",
			},
			Popular: true,
		},
		{
			Name:          PlanCustom,
			Price:         t.BasePrice,
			Period:        "/month",
			PostsPerMonth: t.BasePosts,
			Description:   "Pick your own monthly volume",
			Features: []string{
				"Enterprise AI Writing", "Custom post volume", "All Content Types",
				"Advanced SEO Optimization", "Dedicated Support", "Custom Integrations", "Custom AI Training",
			},
		},
	}
}

// Lookup finds a plan in the catalogue.
func Lookup(t Tier, name PlanName) (Plan, bool) {
	for _, p := range Catalogue(t) {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// ParsePlanName maps display names such as "Pro Plan" onto a plan. Unknown names fall back to Starter.
func ParsePlanName(s string) PlanName {
	switch {
	case strings.Contains(s, string(PlanStarter)):
		return PlanStarter
	case strings.Contains(s, string(PlanPro)):
		return PlanPro
	case strings.Contains(s, string(PlanCustom)):
		return PlanCustom
	case strings.Contains(s, string(PlanFree)):
		return PlanFree
	}
	return PlanStarter
}

// Selection is the plan chosen on the pricing page and carried into checkout.
type Selection struct {
	Name          PlanName `json:"name"`
	Price         string   `json:"price"`
	BillingPeriod string   `json:"period"`
	PostsPerMonth int      `json:"posts,omitempty"`
}

// MonthlyPrice resolves the amount charged per month for the selection.
func (s Selection) MonthlyPrice(t Tier) float64 {
	switch s.Name {
	case PlanStarter, PlanPro, PlanFree:
		if p, ok := Lookup(t, s.Name); ok {
			return p.Price
		}
	case PlanCustom:
		if s.PostsPerMonth > 0 {
			return t.Price(s.PostsPerMonth)
		}
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s.Price), "$"), 64)
	if err != nil {
		return 0
	}
	return RoundCents(v)
}

// PostsLimit is the quota sent with a payment; only Custom carries one.
func (s Selection) PostsLimit() int {
	if s.Name != PlanCustom {
		return 0
	}
	return s.PostsPerMonth
}
