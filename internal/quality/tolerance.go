package quality

import "github.com/shopspring/decimal"

// Verdict is the classification of one measured value.
type Verdict string

const (
	VerdictWithin        Verdict = "within"
	VerdictOut           Verdict = "out"
	VerdictNotApplicable Verdict = "not_applicable"
)

// DefaultUnit is used when a dimension has no unit string.
const DefaultUnit = "mm"

// Spec is the nominal/tolerance triple of a dimension plus its unit.
// Any missing member of the triple makes the dimension not evaluable.
type Spec struct {
	Nominal  decimal.NullDecimal
	TolPlus  decimal.NullDecimal
	TolMinus decimal.NullDecimal
	Unit     string
}

// Complete reports whether all three numeric members are present.
func (s Spec) Complete() bool {
	return s.Nominal.Valid && s.TolPlus.Valid && s.TolMinus.Valid
}

// Band returns [nominal - tolMinus, nominal + tolPlus]. Signs are not validated,
// so a negative tolerance can produce an inverted band.
func (s Spec) Band() (lo, hi decimal.Decimal, ok bool) {
	if !s.Complete() {
		return decimal.Zero, decimal.Zero, false
	}
	lo = s.Nominal.Decimal.Sub(s.TolMinus.Decimal)
	hi = s.Nominal.Decimal.Add(s.TolPlus.Decimal)
	return lo, hi, true
}

// Evaluate classifies v against the closed tolerance band.
func (s Spec) Evaluate(v decimal.Decimal) Verdict {
	lo, hi, ok := s.Band()
	if !ok {
		return VerdictNotApplicable
	}
	if v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi) {
		return VerdictWithin
	}
	return VerdictOut
}

// HasNegativeTolerance reports a tolerance below zero.
func (s Spec) HasNegativeTolerance() bool {
	return (s.TolPlus.Valid && s.TolPlus.Decimal.IsNegative()) ||
		(s.TolMinus.Valid && s.TolMinus.Decimal.IsNegative())
}

// UnitOrDefault returns the unit, falling back to millimetres.
func (s Spec) UnitOrDefault() string {
	if s.Unit == "" {
		return DefaultUnit
	}
	return s.Unit
}
