package pricing

import (
	"math"
	"sort"
)

// DefaultBasePriceMinor is the system fallback when no rule matches ($25.00).
const DefaultBasePriceMinor int64 = 2500

// Quote is the resolver output. RuleID is zero when the fallback was used.
type Quote struct {
	PriceMinor int64 `json:"price_minor"`
	RuleID     int64 `json:"rule_id,omitempty"`
}

// Fallback is the pricing applied when no rule matches. Multipliers below 1
// are treated as 1.
type Fallback struct {
	BaseMinor           int64
	SurgeMultiplier     float64
	ExclusiveMultiplier float64
}

// Resolve selects the single applicable rule for a lead and computes its price.
//
// Contract:
// - only active rules are considered
// - a rule matches iff every set constraint is satisfied by the lead
// - candidates are ordered by priority descending, then id ascending; the
//   first match wins
// - price = base * exclusive_multiplier (if lead exclusive)
//           * surge_multiplier (if timing is asap); multipliers compose
//   multiplicatively
// - with no match the fallback base price is used, with the fallback's own
//   multipliers applied the same way
//
// Resolution assumes pre-validated rules (see ValidateRule); it is pure and
// deterministic for a given lead + rule set.
func Resolve(lead LeadAttributes, rules []Rule, fb Fallback) Quote {
	if fb.BaseMinor <= 0 {
		fb.BaseMinor = DefaultBasePriceMinor
	}

	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, r := range ordered {
		if !ruleMatches(r, lead) {
			continue
		}
		return Quote{
			PriceMinor: applyMultipliers(r.BasePriceMinor, r.SurgeMultiplier, r.ExclusiveMultiplier, lead),
			RuleID:     r.ID,
		}
	}

	return Quote{PriceMinor: applyMultipliers(fb.BaseMinor, fb.SurgeMultiplier, fb.ExclusiveMultiplier, lead)}
}

func ruleMatches(r Rule, lead LeadAttributes) bool {
	if r.ServiceID != "" && r.ServiceID != lead.ServiceID {
		return false
	}
	if r.Region != "" && r.Region != lead.Region {
		return false
	}
	if r.City != "" && r.City != lead.City {
		return false
	}
	if r.PostalCode != "" && r.PostalCode != lead.PostalCode {
		return false
	}
	if r.Timing != "" && r.Timing != lead.Timing {
		return false
	}
	// Budget constraints require range overlap with the lead's budget.
	if r.BudgetMin != nil {
		if lead.BudgetMax == nil || *r.BudgetMin > *lead.BudgetMax {
			return false
		}
	}
	if r.BudgetMax != nil {
		if lead.BudgetMin == nil || *r.BudgetMax < *lead.BudgetMin {
			return false
		}
	}
	if r.PropertyType != "" && r.PropertyType != lead.PropertyType {
		return false
	}
	if r.IsExclusive && !lead.IsExclusive {
		return false
	}
	return true
}

func applyMultipliers(baseMinor int64, surge, exclusive float64, lead LeadAttributes) int64 {
	m := 1.0
	if lead.IsExclusive && exclusive >= 1 {
		m *= exclusive
	}
	if lead.Timing == TimingASAP && surge >= 1 {
		m *= surge
	}
	return int64(math.Round(float64(baseMinor) * m))
}
