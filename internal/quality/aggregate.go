package quality

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrIncomplete is returned when a work order cannot be completed yet.
var ErrIncomplete = errors.New("incompleta")

// SampleRef identifies one sampled piece of a work order.
type SampleRef struct {
	ID    string
	Index int
}

// DimensionRef identifies one dimension of the drawing and carries its spec.
type DimensionRef struct {
	ID    string
	Label string
	Spec  Spec
}

// Reading is one stored measurement.
type Reading struct {
	ID          string
	SampleID    string
	DimensionID string
	Value       decimal.Decimal
}

// Totals is the overall progress of a work order.
type Totals struct {
	Expected int `json:"expected"`
	Measured int `json:"measured"`
	Pct      int `json:"pct"`
}

// DimensionSummary is the per-dimension quality roll-up.
type DimensionSummary struct {
	DimensionID string `json:"dimensionId"`
	Label       string `json:"label"`
	Spec        string `json:"spec"`
	Lidos       int    `json:"lidos"`
	OK          int    `json:"ok"`
	Fora        int    `json:"fora"`
	NA          int    `json:"na"`
	PctFora     int    `json:"pctFora"`
}

// QualitySummary is the overall out-of-tolerance rate.
type QualitySummary struct {
	Lidos   int `json:"lidos"`
	Fora    int `json:"fora"`
	PctFora int `json:"pctFora"`
}

// Matrix is the sample × dimension grid of a work order.
// Readings referencing an unknown sample or dimension are ignored.
type Matrix struct {
	Samples    []SampleRef
	Dimensions []DimensionRef

	cells map[cellKey]Reading
}

type cellKey struct {
	sample    string
	dimension string
}

// NewMatrix builds the grid. Samples are ordered by index, dimensions by label.
// When two readings share a cell, the later one in the slice wins.
func NewMatrix(samples []SampleRef, dims []DimensionRef, readings []Reading) *Matrix {
	m := &Matrix{
		Samples:    append([]SampleRef(nil), samples...),
		Dimensions: append([]DimensionRef(nil), dims...),
		cells:      make(map[cellKey]Reading, len(readings)),
	}
	sort.SliceStable(m.Samples, func(i, j int) bool { return m.Samples[i].Index < m.Samples[j].Index })
	sort.SliceStable(m.Dimensions, func(i, j int) bool { return m.Dimensions[i].Label < m.Dimensions[j].Label })

	knownSamples := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		knownSamples[s.ID] = struct{}{}
	}
	knownDims := make(map[string]struct{}, len(dims))
	for _, d := range dims {
		knownDims[d.ID] = struct{}{}
	}

	for _, r := range readings {
		if _, ok := knownSamples[r.SampleID]; !ok {
			continue
		}
		if _, ok := knownDims[r.DimensionID]; !ok {
			continue
		}
		m.cells[cellKey{r.SampleID, r.DimensionID}] = r
	}
	return m
}

// Reading returns the measurement stored for a cell.
func (m *Matrix) Reading(sampleID, dimensionID string) (Reading, bool) {
	r, ok := m.cells[cellKey{sampleID, dimensionID}]
	return r, ok
}

// Verdict evaluates a cell. Empty cells report ok=false.
func (m *Matrix) Verdict(sampleID string, dim DimensionRef) (Verdict, bool) {
	r, ok := m.Reading(sampleID, dim.ID)
	if !ok {
		return "", false
	}
	return dim.Spec.Evaluate(r.Value), true
}

// MeasuredCount returns how many dimensions of a sample have a value.
func (m *Matrix) MeasuredCount(sampleID string) int {
	n := 0
	for _, d := range m.Dimensions {
		if _, ok := m.cells[cellKey{sampleID, d.ID}]; ok {
			n++
		}
	}
	return n
}

// SampleComplete reports whether a sample has a value for every dimension.
func (m *Matrix) SampleComplete(sampleID string) bool {
	return len(m.Dimensions) > 0 && m.MeasuredCount(sampleID) == len(m.Dimensions)
}

// Completeness returns measured / (samples × dimensions) as a rounded percentage.
func (m *Matrix) Completeness() Totals {
	t := Totals{
		Expected: len(m.Samples) * len(m.Dimensions),
		Measured: len(m.cells),
	}
	t.Pct = Percent(t.Measured, t.Expected)
	return t
}

// SummarizeDimensions returns per-dimension counts ordered by label.
// Not-applicable readings count as read but neither ok nor out.
func (m *Matrix) SummarizeDimensions() []DimensionSummary {
	out := make([]DimensionSummary, 0, len(m.Dimensions))
	for _, d := range m.Dimensions {
		s := DimensionSummary{
			DimensionID: d.ID,
			Label:       d.Label,
			Spec:        SpecString(d.Spec),
		}
		for _, smp := range m.Samples {
			r, ok := m.cells[cellKey{smp.ID, d.ID}]
			if !ok {
				continue
			}
			s.Lidos++
			switch d.Spec.Evaluate(r.Value) {
			case VerdictWithin:
				s.OK++
			case VerdictOut:
				s.Fora++
			default:
				s.NA++
			}
		}
		s.PctFora = Percent(s.Fora, s.Lidos)
		out = append(out, s)
	}
	return out
}

// Quality rolls up all dimensions.
func (m *Matrix) Quality() QualitySummary {
	var q QualitySummary
	for _, s := range m.SummarizeDimensions() {
		q.Lidos += s.Lidos
		q.Fora += s.Fora
	}
	q.PctFora = Percent(q.Fora, q.Lidos)
	return q
}

// PendingSamples lists the indices of samples still missing a value.
func (m *Matrix) PendingSamples() []int {
	var pending []int
	for _, s := range m.Samples {
		if !m.SampleComplete(s.ID) {
			pending = append(pending, s.Index)
		}
	}
	return pending
}

// CheckComplete fails with ErrIncomplete unless every sample has a value for
// every dimension. A work order without samples or dimensions is never complete.
func (m *Matrix) CheckComplete() error {
	if len(m.Samples) == 0 {
		return fmt.Errorf("%w: nenhuma amostra", ErrIncomplete)
	}
	if len(m.Dimensions) == 0 {
		return fmt.Errorf("%w: desenho sem cotas", ErrIncomplete)
	}
	pending := m.PendingSamples()
	if len(pending) == 0 {
		return nil
	}
	parts := make([]string, len(pending))
	for i, p := range pending {
		parts[i] = fmt.Sprintf("#%d", p)
	}
	return fmt.Errorf("%w: peças pendentes %s", ErrIncomplete, strings.Join(parts, ", "))
}

// Percent returns round-half-up(100*num/den), or 0 when den <= 0.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return (200*num + den) / (2 * den)
}
