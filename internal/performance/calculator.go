package performance

// Tier is one row of the IMR glosa table.
type Tier struct {
	MinIDP   float64
	BaseRate float64
}

// tiers are evaluated top-down, first match wins; lower bounds are inclusive.
var tiers = []Tier{
	{MinIDP: 0.95, BaseRate: 0.0},
	{MinIDP: 0.85, BaseRate: 0.0295},
	{MinIDP: 0.71, BaseRate: 0.0445},
	{MinIDP: 0.56, BaseRate: 0.0546},
	{MinIDP: 0.42, BaseRate: 0.0553},
}

// bottom tier, idp < 0.42
var lowestTier = Tier{MinIDP: 0, BaseRate: 0.0560}

// DefaultFactor is used when a project has no override for a period.
const DefaultFactor = 1.0

// ComputeIDP returns the schedule performance index actual/planned.
// A zero planned value is "on target" and yields exactly 1.0.
func ComputeIDP(actual, planned float64) float64 {
	if planned == 0 {
		return 1.0
	}
	return actual / planned
}

// GlosaTier returns the tier matching idp.
func GlosaTier(idp float64) Tier {
	for _, t := range tiers {
		if idp >= t.MinIDP {
			return t
		}
	}
	return lowestTier
}

// ComputeGlosa returns the penalty fraction for idp scaled by factor.
func ComputeGlosa(idp, factor float64) float64 {
	return GlosaTier(idp).BaseRate * factor
}

// ComputeGlosaValue returns the penalty amount. No rounding.
func ComputeGlosaValue(measured, fraction float64) float64 {
	return measured * fraction
}

// FactorLookup resolves the weighting factor of a period.
type FactorLookup func(period int) float64

// FactorsFromMap builds a lookup over sparse overrides, defaulting to 1.0.
func FactorsFromMap(m map[int]float64) FactorLookup {
	return func(period int) float64 {
		if f, ok := m[period]; ok {
			return f
		}
		return DefaultFactor
	}
}

type Status string

const (
	StatusAhead      Status = "adiantado"
	StatusOnSchedule Status = "no_prazo"
	StatusLate       Status = "atrasado"
	StatusNotStarted Status = "nao_iniciado"
)

// Classify maps an IDP to the schedule status shown in reports.
func Classify(idp float64) Status {
	switch {
	case idp > 1:
		return StatusAhead
	case idp == 1:
		return StatusOnSchedule
	case idp > 0:
		return StatusLate
	default:
		return StatusNotStarted
	}
}
