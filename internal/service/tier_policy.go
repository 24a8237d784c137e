package service

import (
	"time"

	"github.com/intransparency/platform-api/internal/models"
)

// TierPolicy describes which analytics features a subscription tier may
// receive and the widest time range it may request.
type TierPolicy struct {
	MaxTimeRange          string
	HasEngagement         bool
	HasApplicationFunnel  bool
	HasApplicationTrends  bool
	HasRecruiterInterest  bool
	HasSkillsVsMarket     bool
	HasProjectPerformance bool
	HasCareerReadiness    bool
	HasSalaryContext      bool
}

var tierPolicies = map[models.SubscriptionTier]TierPolicy{
	models.TierFree: {
		MaxTimeRange: "1month",
	},
	models.TierPremium: {
		MaxTimeRange:          "1year",
		HasEngagement:         true,
		HasApplicationFunnel:  true,
		HasApplicationTrends:  true,
		HasRecruiterInterest:  true,
		HasSkillsVsMarket:     true,
		HasProjectPerformance: true,
		HasCareerReadiness:    true,
		HasSalaryContext:      true,
	},
}

// PolicyForTier resolves the feature policy for a tier. Unknown tiers fall
// back to the most restrictive policy.
func PolicyForTier(tier models.SubscriptionTier) TierPolicy {
	if policy, ok := tierPolicies[tier]; ok {
		return policy
	}
	return tierPolicies[models.TierFree]
}

var timeRangeMonths = map[string]int{
	"1month":  1,
	"3months": 3,
	"6months": 6,
	"1year":   12,
}

// ClampTimeRange downgrades a requested range to the policy ceiling.
// Unknown inputs collapse to "1month".
func ClampTimeRange(requested string, policy TierPolicy) string {
	reqMonths, ok := timeRangeMonths[requested]
	if !ok {
		return "1month"
	}
	maxMonths, ok := timeRangeMonths[policy.MaxTimeRange]
	if !ok {
		return "1month"
	}
	if reqMonths > maxMonths {
		return policy.MaxTimeRange
	}
	return requested
}

// ResolveWindowStart maps a time range to its calendar start date relative
// to now. Unknown ranges default to one month.
func ResolveWindowStart(now time.Time, timeRange string) time.Time {
	months, ok := timeRangeMonths[timeRange]
	if !ok {
		months = 1
	}
	return now.AddDate(0, -months, 0)
}
