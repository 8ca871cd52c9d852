package domain

// Precision selects the model tier used for LLM-backed analyses.
type Precision string

const (
	PrecisionLow    Precision = "low"
	PrecisionMedium Precision = "medium"
	PrecisionHigh   Precision = "high"
)

// ParsePrecision normalizes s to a known precision tier, defaulting to
// medium for unrecognized values.
func ParsePrecision(s string) Precision {
	switch Precision(s) {
	case PrecisionLow, PrecisionHigh:
		return Precision(s)
	default:
		return PrecisionMedium
	}
}
