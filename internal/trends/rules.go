package trends

// Condition selects how a rule evaluates a slot's resolved KPI value.
type Condition string

const (
	// CondGreaterThanZero triggers when the value is strictly positive.
	CondGreaterThanZero Condition = "gt_zero"
	// CondAboveMean triggers when the value strictly exceeds the column mean.
	CondAboveMean Condition = "above_mean"
)

// Rule is one static scoring rule. The rule set is configuration, not
// derived data: rules never change during a run.
type Rule struct {
	Name      string
	KPI       KPI
	Condition Condition
	Weight    int
}

// DefaultRules is the standard importance rule table. Sales signals carry
// the heaviest weights, conversion next, engagement the lightest.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "high_gmv", KPI: KPIGMV, Condition: CondGreaterThanZero, Weight: 3},
		{Name: "high_orders", KPI: KPIOrderCount, Condition: CondGreaterThanZero, Weight: 3},
		{Name: "high_conversion", KPI: KPICTOR, Condition: CondAboveMean, Weight: 2},
		{Name: "high_gmv_per_view", KPI: KPIGPM, Condition: CondAboveMean, Weight: 2},
		{Name: "high_viewers", KPI: KPIViewerCount, Condition: CondAboveMean, Weight: 1},
		{Name: "high_comments", KPI: KPICommentRate, Condition: CondAboveMean, Weight: 1},
		{Name: "high_click_rate", KPI: KPILiveCTR, Condition: CondAboveMean, Weight: 1},
		{Name: "new_followers", KPI: KPINewFollowers, Condition: CondGreaterThanZero, Weight: 2},
	}
}
