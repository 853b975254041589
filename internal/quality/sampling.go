package quality

// Origin records who declared a work order's sampling plan.
type Origin string

const (
	OriginManager  Origin = "gestor"
	OriginOperator Origin = "operador"
	// OriginInferred means nobody declared qty/freq; displayed values come from the samples.
	OriginInferred Origin = "inferida"
)

// ParseOrigin maps a stored plan_origin column to an Origin.
// Anything other than a known declaration is treated as undeclared.
func ParseOrigin(s *string) Origin {
	if s == nil {
		return OriginInferred
	}
	switch Origin(*s) {
	case OriginManager:
		return OriginManager
	case OriginOperator:
		return OriginOperator
	}
	return OriginInferred
}

// Plan is the displayable sampling plan of a work order.
// A nil Qty or Freq means "unknown".
type Plan struct {
	Qty          *int   `json:"qty"`
	Freq         *int   `json:"freq"`
	QtyInferred  bool   `json:"qtyInferred"`
	FreqInferred bool   `json:"freqInferred"`
	Origin       Origin `json:"origin"`
}

// GenerateIndices returns the sample positions freq, 2*freq, ... truncated at the
// largest multiple of freq that is <= qty. Non-positive inputs yield no indices.
func GenerateIndices(qty, freq int) []int {
	if qty <= 0 || freq <= 0 || freq > qty {
		return nil
	}
	out := make([]int, 0, qty/freq)
	for i := freq; i <= qty; i += freq {
		out = append(out, i)
	}
	return out
}

// InferPlan recovers qty (max index) and freq (gcd of all indices) from an
// existing sample set. The result is informational only.
func InferPlan(indices []int) Plan {
	p := Plan{Origin: OriginInferred}
	if len(indices) == 0 {
		return p
	}

	maxIdx := indices[0]
	g := 0
	for _, n := range indices {
		if n > maxIdx {
			maxIdx = n
		}
		g = gcd(g, n)
	}

	p.Qty = intPtr(maxIdx)
	p.QtyInferred = true
	if g != 0 {
		p.Freq = intPtr(g)
		p.FreqInferred = true
	}
	return p
}

// ResolvePlan combines the declared fields of a work order with values inferred
// from its samples. Declared values always win.
func ResolvePlan(qty, freq *int, origin *string, indices []int) Plan {
	inferred := InferPlan(indices)
	p := Plan{Origin: ParseOrigin(origin)}

	if qty != nil {
		p.Qty = intPtr(*qty)
	} else {
		p.Qty, p.QtyInferred = inferred.Qty, inferred.QtyInferred
	}
	if freq != nil {
		p.Freq = intPtr(*freq)
	} else {
		p.Freq, p.FreqInferred = inferred.Freq, inferred.FreqInferred
	}
	return p
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func intPtr(v int) *int { return &v }
