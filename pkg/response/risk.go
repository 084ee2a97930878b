package response

// RiskLevel classifies the severity of a detected risk on an ordinal
// scale: none < low < medium < high < critical.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskOrdinals maps the standard levels to their position on the scale.
var riskOrdinals = map[RiskLevel]int{
	RiskNone:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// Ordinal returns the level's position on the scale, or -1 for a level
// outside the standard set. Non-standard levels are tolerated on the wire
// and simply excluded from ordinal comparison.
func (l RiskLevel) Ordinal() int {
	if ord, ok := riskOrdinals[l]; ok {
		return ord
	}
	return -1
}

// Known reports whether the level is one of the five standard levels.
func (l RiskLevel) Known() bool {
	_, ok := riskOrdinals[l]
	return ok
}

// Compare returns a negative value if l is below other on the scale, zero
// if equal, positive if above. Unknown levels compare below none.
func (l RiskLevel) Compare(other RiskLevel) int {
	return l.Ordinal() - other.Ordinal()
}
