package domain

// Budgets maps a canonical expense category to its monthly spend limit.
// A limit of 0 means the category is untracked and never alerts.
// Loaded once at startup and treated as read-only afterwards.
type Budgets map[string]float64

// DefaultBudgets returns the built-in monthly limits.
func DefaultBudgets() Budgets {
	return Budgets{
		"Food":           5000,
		"Health/medical": 3000,
		"Home expenses":  500,
		"Cabs/Petrol":    1500,
		"Personal":       4000,
		"Utilities":      500,
		"NSCI":           1500,
		"Party & Leisure": 3000,
		"Trip":           0,
	}
}

// For returns the limit for a category, 0 when unconfigured.
func (b Budgets) For(category string) float64 {
	return b[category]
}

// Total is the sum of all configured limits.
func (b Budgets) Total() float64 {
	var total float64
	for _, limit := range b {
		total += limit
	}
	return total
}
