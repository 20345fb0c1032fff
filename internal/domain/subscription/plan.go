package subscription

import (
	"github.com/shopspring/decimal"
)

// PlanCode identifies a subscription plan
type PlanCode string

const (
	PlanFree   PlanCode = "free"
	PlanGrower PlanCode = "grower"
	PlanPro    PlanCode = "pro"
)

// Unlimited marks a plan without a product cap
const Unlimited = -1

// Plan is a static catalog entry
type Plan struct {
	Code         PlanCode        `json:"code"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	MaxProducts  int             `json:"max_products"`
	Features     []string        `json:"features"`
	rank         int
}

// AllowsProducts reports whether n products fit within the plan
func (p Plan) AllowsProducts(n int64) bool {
	return p.MaxProducts == Unlimited || n <= int64(p.MaxProducts)
}

// IsUpgradeFrom reports whether p ranks above other
func (p Plan) IsUpgradeFrom(other Plan) bool {
	return p.rank > other.rank
}

var plans = []Plan{
	{
		Code:         PlanFree,
		Name:         "Free",
		MonthlyPrice: decimal.Zero,
		MaxProducts:  5,
		Features:     []string{"storefront", "orders"},
		rank:         0,
	},
	{
		Code:         PlanGrower,
		Name:         "Grower",
		MonthlyPrice: decimal.RequireFromString("19.00"),
		MaxProducts:  50,
		Features:     []string{"storefront", "orders", "blog", "events", "inventory_export"},
		rank:         1,
	},
	{
		Code:         PlanPro,
		Name:         "Pro",
		MonthlyPrice: decimal.RequireFromString("49.00"),
		MaxProducts:  Unlimited,
		Features:     []string{"storefront", "orders", "blog", "events", "inventory_export", "priority_support"},
		rank:         2,
	},
}

// Plans returns the plan catalog in ascending order
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// FindPlan looks up a plan by code
func FindPlan(code PlanCode) (Plan, bool) {
	for _, p := range plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}

// FreePlan returns the implicit plan of farmers without a subscription
func FreePlan() Plan {
	p, _ := FindPlan(PlanFree)
	return p
}
