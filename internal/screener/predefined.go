package screener

// Predefined screening strategies. These are the same abstraction as
// custom screens, just constructed from a compiled table instead of a
// stored record.
var predefined = map[string]Definition{
	"value": {
		Key:         "value",
		Name:        "Value Screen",
		Description: "Traditional value investing criteria",
		Logic:       LogicAnd,
		Criteria: []Criterion{
			{Field: "price_to_book", Operator: OpLess, Value: 5},
			{Field: "ev_ebitda", Operator: OpLess, Value: 12},
			{Field: "roe", Operator: OpGreater, Value: 15},
			{Field: "debt_equity", Operator: OpLess, Value: 1.5},
			{Field: "interest_coverage", Operator: OpGreater, Value: 3},
			{Field: "market_cap", Operator: OpGreater, Value: 500},
		},
	},
	"growth": {
		Key:         "growth",
		Name:        "Growth Screen",
		Description: "High-growth companies with sustainable metrics",
		Logic:       LogicAnd,
		Criteria: []Criterion{
			{Field: "revenue_cagr_3y", Operator: OpGreater, Value: 20},
			{Field: "opm", Operator: OpGreater, Value: 20},
			{Field: "debt_equity", Operator: OpLess, Value: 1},
			{Field: "interest_coverage", Operator: OpGreater, Value: 5},
		},
	},
	"balanced": {
		Key:         "balanced",
		Name:        "Balanced Screen",
		Description: "Reasonably-valued growth companies",
		Logic:       LogicAnd,
		Criteria: []Criterion{
			{Field: "price_to_book", Operator: OpLess, Value: 8},
			{Field: "ev_ebitda", Operator: OpLess, Value: 20},
			{Field: "roe", Operator: OpGreater, Value: 12},
			{Field: "opm", Operator: OpGreater, Value: 15},
			{Field: "debt_equity", Operator: OpLess, Value: 2},
			{Field: "interest_coverage", Operator: OpGreater, Value: 3},
		},
	},
	"quality": {
		Key:         "quality",
		Name:        "Quality Screen",
		Description: "High-quality businesses with strong fundamentals",
		Logic:       LogicAnd,
		Criteria: []Criterion{
			{Field: "roe", Operator: OpGreater, Value: 20},
			{Field: "roce", Operator: OpGreater, Value: 20},
			{Field: "opm", Operator: OpGreater, Value: 15},
			{Field: "interest_coverage", Operator: OpGreater, Value: 5},
			{Field: "debt_equity", Operator: OpLess, Value: 0.5},
			{Field: "altman_z_score", Operator: OpGreater, Value: 2.6},
		},
	},
	"turnaround": {
		Key:         "turnaround",
		Name:        "Turnaround Screen",
		Description: "Companies showing operational improvement",
		Logic:       LogicAnd,
		Criteria: []Criterion{
			{Field: "opm", Operator: OpGreater, Value: 20},
			{Field: "debt_equity", Operator: OpLess, Value: 2},
			{Field: "market_cap", Operator: OpGreater, Value: 200},
		},
	},
}

// predefinedOrder keeps listings stable.
var predefinedOrder = []string{"value", "growth", "balanced", "quality", "turnaround"}

// Get returns a predefined screen by key.
func Get(key string) (Definition, error) {
	def, ok := predefined[key]
	if !ok {
		return Definition{}, ErrScreenNotFound
	}
	return def, nil
}

// List returns the predefined screens in a stable order.
func List() []Definition {
	out := make([]Definition, 0, len(predefinedOrder))
	for _, key := range predefinedOrder {
		out = append(out, predefined[key])
	}
	return out
}
