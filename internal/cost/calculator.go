package cost

// Rates holds per-model pricing configuration.
type Rates struct {
	Models map[string]ModelRate `yaml:"models" mapstructure:"models"`
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Tokens computes the cost of one completion. Unknown models cost 0.
func (c *Calculator) Tokens(model string, input, output int64) float64 {
	if c == nil {
		return 0
	}
	rate, ok := c.rates.Models[model]
	if !ok {
		return 0
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Known reports whether the calculator has a rate for model.
func (c *Calculator) Known(model string) bool {
	if c == nil {
		return false
	}
	_, ok := c.rates.Models[model]
	return ok
}

// WithOverrides returns a copy of r with the given model rates added or
// replaced.
func (r Rates) WithOverrides(overrides map[string]ModelRate) Rates {
	out := Rates{Models: make(map[string]ModelRate, len(r.Models)+len(overrides))}
	for k, v := range r.Models {
		out.Models[k] = v
	}
	for k, v := range overrides {
		out.Models[k] = v
	}
	return out
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Models: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
			"gpt-4o":                     {Input: 2.50, Output: 10.00},
			"gpt-4o-mini":                {Input: 0.15, Output: 0.60},
			"gemini-2.5-flash":           {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":             {Input: 1.25, Output: 10.00},
		},
	}
}
