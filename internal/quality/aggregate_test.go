package quality

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func scenarioMatrix(t *testing.T) *Matrix {
	t.Helper()

	dims := []DimensionRef{
		{ID: "dim-b", Label: "B"},
		{ID: "dim-a", Label: "A", Spec: Spec{Nominal: nd("10.00"), TolPlus: nd("0.05"), TolMinus: nd("0.05")}},
	}
	var samples []SampleRef
	for _, idx := range GenerateIndices(8, 4) {
		samples = append(samples, SampleRef{ID: "s" + string(rune('0'+idx)), Index: idx})
	}
	if len(samples) != 2 {
		t.Fatalf("expected samples [4 8], got %v", samples)
	}

	readings := []Reading{
		{ID: "m1", SampleID: "s4", DimensionID: "dim-a", Value: decimal.RequireFromString("10.03")},
		{ID: "m2", SampleID: "s4", DimensionID: "dim-b", Value: decimal.RequireFromString("5.00")},
		{ID: "m3", SampleID: "s8", DimensionID: "dim-a", Value: decimal.RequireFromString("10.10")},
	}
	return NewMatrix(samples, dims, readings)
}

func TestScenarioAggregation(t *testing.T) {
	m := scenarioMatrix(t)

	totals := m.Completeness()
	if totals.Expected != 4 || totals.Measured != 3 || totals.Pct != 75 {
		t.Errorf("totals = %+v, want 3 of 4 (75%%)", totals)
	}

	sums := m.SummarizeDimensions()
	if len(sums) != 2 || sums[0].Label != "A" || sums[1].Label != "B" {
		t.Fatalf("summaries should be ordered by label, got %+v", sums)
	}
	a, b := sums[0], sums[1]
	if a.Lidos != 2 || a.OK != 1 || a.Fora != 1 || a.PctFora != 50 {
		t.Errorf("dimension A = %+v", a)
	}
	if a.Spec != "10,00mm +0,05 / -0,05" {
		t.Errorf("dimension A spec = %q", a.Spec)
	}
	if b.Lidos != 1 || b.OK != 0 || b.Fora != 0 || b.NA != 1 || b.PctFora != 0 {
		t.Errorf("dimension B = %+v", b)
	}

	err := m.CheckComplete()
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("CheckComplete() = %v, want ErrIncomplete", err)
	}
	if !strings.Contains(err.Error(), "#8") {
		t.Errorf("error should name the pending piece: %v", err)
	}

	q := m.Quality()
	if q.Lidos != 3 || q.Fora != 1 || q.PctFora != 33 {
		t.Errorf("quality = %+v", q)
	}
}

func TestSummaryInvariant(t *testing.T) {
	m := scenarioMatrix(t)
	for _, s := range m.SummarizeDimensions() {
		if s.OK+s.Fora+s.NA != s.Lidos {
			t.Errorf("%s: ok+fora+na = %d, lidos = %d", s.Label, s.OK+s.Fora+s.NA, s.Lidos)
		}
	}
}

func TestCompletenessEdges(t *testing.T) {
	dims := []DimensionRef{{ID: "d1", Label: "A"}}
	samples := []SampleRef{{ID: "s1", Index: 1}}

	if pct := NewMatrix(nil, dims, nil).Completeness().Pct; pct != 0 {
		t.Errorf("no samples: pct = %d", pct)
	}
	if pct := NewMatrix(samples, nil, nil).Completeness().Pct; pct != 0 {
		t.Errorf("no dimensions: pct = %d", pct)
	}

	full := NewMatrix(samples, dims, []Reading{{ID: "r", SampleID: "s1", DimensionID: "d1", Value: decimal.NewFromInt(1)}})
	if pct := full.Completeness().Pct; pct != 100 {
		t.Errorf("full matrix: pct = %d", pct)
	}
	if err := full.CheckComplete(); err != nil {
		t.Errorf("full matrix should be completable: %v", err)
	}
}

func TestCheckCompleteRequiresSamplesAndDimensions(t *testing.T) {
	if err := NewMatrix(nil, []DimensionRef{{ID: "d"}}, nil).CheckComplete(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("no samples: %v", err)
	}
	if err := NewMatrix([]SampleRef{{ID: "s", Index: 1}}, nil, nil).CheckComplete(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("no dimensions: %v", err)
	}
}

func TestOrphanReadingsIgnored(t *testing.T) {
	m := NewMatrix(
		[]SampleRef{{ID: "s1", Index: 1}},
		[]DimensionRef{{ID: "d1", Label: "A"}},
		[]Reading{
			{ID: "r1", SampleID: "s1", DimensionID: "d1", Value: decimal.NewFromInt(1)},
			{ID: "r2", SampleID: "s1", DimensionID: "deleted", Value: decimal.NewFromInt(2)},
			{ID: "r3", SampleID: "gone", DimensionID: "d1", Value: decimal.NewFromInt(3)},
		},
	)
	if got := m.Completeness(); got.Measured != 1 || got.Pct != 100 {
		t.Errorf("orphans should not count: %+v", got)
	}
}

func TestLastReadingWins(t *testing.T) {
	m := NewMatrix(
		[]SampleRef{{ID: "s1", Index: 1}},
		[]DimensionRef{{ID: "d1", Label: "A"}},
		[]Reading{
			{ID: "r1", SampleID: "s1", DimensionID: "d1", Value: decimal.NewFromInt(1)},
			{ID: "r1", SampleID: "s1", DimensionID: "d1", Value: decimal.NewFromInt(7)},
		},
	)
	r, ok := m.Reading("s1", "d1")
	if !ok || !r.Value.Equal(decimal.NewFromInt(7)) {
		t.Errorf("reading = %+v ok=%v", r, ok)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ num, den, want int }{
		{3, 4, 75},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 0, 0},
		{0, 7, 0},
		{7, 7, 100},
	}
	for _, tt := range tests {
		if got := Percent(tt.num, tt.den); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.num, tt.den, got, tt.want)
		}
	}
}
