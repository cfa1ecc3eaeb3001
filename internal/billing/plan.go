package billing

// Plan is a server-owned credit tier. Amounts are resolved from the client's
// plan code only; prices and credit are never trusted from the request.
type Plan struct {
	Name          string
	CreditSeconds int64
	Price         int64
	Currency      string
	ValidityDays  int
}

// Client plan codes. The code is what checkout pages submit; the mapping to
// credit and price lives here.
const (
	PlanCodeHour     = "6015"
	PlanCodeFourHour = "24030"
)

var plans = map[string]Plan{
	PlanCodeHour:     {Name: "MONTH_60", CreditSeconds: 3600, Price: 600, Currency: "INR", ValidityDays: 15},
	PlanCodeFourHour: {Name: "MONTH_240", CreditSeconds: 14400, Price: 2200, Currency: "INR", ValidityDays: 30},
}

// PlanByCode resolves a client plan code. Unknown codes report ok=false and
// are rejected deterministically at the boundary.
func PlanByCode(code string) (Plan, bool) {
	plan, ok := plans[code]
	return plan, ok
}
