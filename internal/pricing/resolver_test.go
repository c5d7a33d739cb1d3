package pricing

import "testing"

func i64(v int64) *int64 { return &v }

func defaultFallback() Fallback {
	return Fallback{BaseMinor: 2500, SurgeMultiplier: 1.5, ExclusiveMultiplier: 3.0}
}

func TestResolve_FirstMatchByPriority(t *testing.T) {
	rules := []Rule{
		{ID: 1, ServiceID: "plumbing", BasePriceMinor: 3000, Priority: 5, IsActive: true},
		{ID: 2, ServiceID: "plumbing", BasePriceMinor: 4000, Priority: 10, IsActive: true},
	}
	q := Resolve(LeadAttributes{ServiceID: "plumbing"}, rules, defaultFallback())
	if q.RuleID != 2 {
		t.Fatalf("expected rule 2 (higher priority), got %d", q.RuleID)
	}
	if q.PriceMinor != 4000 {
		t.Fatalf("expected 4000, got %d", q.PriceMinor)
	}
}

func TestResolve_EqualPriorityLowerIDWins(t *testing.T) {
	rules := []Rule{
		{ID: 7, ServiceID: "plumbing", BasePriceMinor: 3000, Priority: 10, IsActive: true},
		{ID: 3, ServiceID: "plumbing", BasePriceMinor: 4000, Priority: 10, IsActive: true},
	}
	q := Resolve(LeadAttributes{ServiceID: "plumbing"}, rules, defaultFallback())
	if q.RuleID != 3 {
		t.Fatalf("expected rule 3 (lower id), got %d", q.RuleID)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	rules := []Rule{
		{ID: 1, Region: "CA", BasePriceMinor: 4000, Priority: 10, IsActive: true},
		{ID: 2, BasePriceMinor: 3500, Priority: 10, IsActive: true},
		{ID: 3, ServiceID: "plumbing", BasePriceMinor: 5000, Priority: 1, IsActive: true},
	}
	lead := LeadAttributes{ServiceID: "plumbing", Region: "CA"}

	first := Resolve(lead, rules, defaultFallback())
	for i := 0; i < 50; i++ {
		again := Resolve(lead, rules, defaultFallback())
		if again != first {
			t.Fatalf("resolution not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestResolve_InactiveRulesSkipped(t *testing.T) {
	rules := []Rule{
		{ID: 1, BasePriceMinor: 9000, Priority: 100, IsActive: false},
	}
	q := Resolve(LeadAttributes{}, rules, defaultFallback())
	if q.RuleID != 0 {
		t.Fatalf("inactive rule matched: %d", q.RuleID)
	}
	if q.PriceMinor != 2500 {
		t.Fatalf("expected fallback 2500, got %d", q.PriceMinor)
	}
}

func TestResolve_PlainBaseWhenNotExclusiveNotASAP(t *testing.T) {
	rules := []Rule{
		{ID: 1, BasePriceMinor: 4000, SurgeMultiplier: 1.5, ExclusiveMultiplier: 3.0, Priority: 1, IsActive: true},
	}
	q := Resolve(LeadAttributes{Timing: TimingFlexible}, rules, defaultFallback())
	if q.PriceMinor != 4000 {
		t.Fatalf("expected base price 4000, got %d", q.PriceMinor)
	}
}

func TestResolve_MultipliersCompose(t *testing.T) {
	rules := []Rule{
		{ID: 1, BasePriceMinor: 4000, SurgeMultiplier: 1.5, ExclusiveMultiplier: 3.0, Priority: 1, IsActive: true},
	}
	q := Resolve(LeadAttributes{Timing: TimingASAP, IsExclusive: true}, rules, defaultFallback())
	// 4000 * 3.0 * 1.5
	if q.PriceMinor != 18000 {
		t.Fatalf("expected 18000, got %d", q.PriceMinor)
	}
}

func TestResolve_SurgeOnlyForASAP(t *testing.T) {
	rules := []Rule{
		{ID: 1, BasePriceMinor: 4000, SurgeMultiplier: 1.5, Priority: 1, IsActive: true},
	}
	q := Resolve(LeadAttributes{Timing: TimingWithin24h}, rules, defaultFallback())
	if q.PriceMinor != 4000 {
		t.Fatalf("surge applied outside asap: got %d", q.PriceMinor)
	}
}

func TestResolve_RegionConstraint(t *testing.T) {
	rules := []Rule{
		{ID: 1, ServiceID: "plumbing", Region: "CA", BasePriceMinor: 4000, Priority: 10, IsActive: true},
	}

	ca := Resolve(LeadAttributes{ServiceID: "plumbing", Region: "CA"}, rules, defaultFallback())
	if ca.PriceMinor != 4000 || ca.RuleID != 1 {
		t.Fatalf("CA lead: expected 4000 via rule 1, got %+v", ca)
	}

	tx := Resolve(LeadAttributes{ServiceID: "plumbing", Region: "TX"}, rules, defaultFallback())
	if tx.PriceMinor != 2500 || tx.RuleID != 0 {
		t.Fatalf("TX lead: expected fallback 2500, got %+v", tx)
	}
}

func TestResolve_BudgetOverlap(t *testing.T) {
	rules := []Rule{
		{ID: 1, BudgetMin: i64(10000), BudgetMax: i64(50000), BasePriceMinor: 4000, Priority: 1, IsActive: true},
	}

	inRange := Resolve(LeadAttributes{BudgetMin: i64(20000), BudgetMax: i64(30000)}, rules, defaultFallback())
	if inRange.RuleID != 1 {
		t.Fatalf("overlapping budget should match, got %+v", inRange)
	}

	below := Resolve(LeadAttributes{BudgetMin: i64(1000), BudgetMax: i64(5000)}, rules, defaultFallback())
	if below.RuleID != 0 {
		t.Fatalf("non-overlapping budget matched rule %d", below.RuleID)
	}

	noBudget := Resolve(LeadAttributes{}, rules, defaultFallback())
	if noBudget.RuleID != 0 {
		t.Fatalf("lead without budget matched budget-constrained rule")
	}
}

func TestResolve_ExclusiveRuleRequiresExclusiveLead(t *testing.T) {
	rules := []Rule{
		{ID: 1, IsExclusive: true, BasePriceMinor: 6000, Priority: 10, IsActive: true},
		{ID: 2, BasePriceMinor: 3000, Priority: 1, IsActive: true},
	}

	shared := Resolve(LeadAttributes{}, rules, defaultFallback())
	if shared.RuleID != 2 {
		t.Fatalf("shared lead should skip exclusive rule, got %d", shared.RuleID)
	}

	excl := Resolve(LeadAttributes{IsExclusive: true}, rules, defaultFallback())
	if excl.RuleID != 1 {
		t.Fatalf("exclusive lead should hit exclusive rule, got %d", excl.RuleID)
	}
}

func TestResolve_FallbackAppliesMultipliers(t *testing.T) {
	q := Resolve(LeadAttributes{Timing: TimingASAP, IsExclusive: true}, nil, defaultFallback())
	// 2500 * 3.0 * 1.5
	if q.PriceMinor != 11250 {
		t.Fatalf("expected 11250, got %d", q.PriceMinor)
	}
	if q.RuleID != 0 {
		t.Fatalf("fallback quote should carry no rule id")
	}
}

func TestValidateRule_RejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		rule Rule
	}{
		{"negative base", Rule{BasePriceMinor: -1}},
		{"surge below one", Rule{SurgeMultiplier: 0.5}},
		{"exclusive below one", Rule{ExclusiveMultiplier: 0.9}},
		{"bad timing", Rule{Timing: "someday"}},
		{"inverted budget", Rule{BudgetMin: i64(5000), BudgetMax: i64(1000)}},
	}
	for _, tc := range cases {
		if err := ValidateRule(tc.rule); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}

	ok := Rule{BasePriceMinor: 4000, SurgeMultiplier: 1.5, ExclusiveMultiplier: 3.0, Timing: TimingASAP}
	if err := ValidateRule(ok); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}
