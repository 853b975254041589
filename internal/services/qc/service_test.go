package qc_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/quality"
	"github.com/xelth-com/cotaqc/internal/services/qc"
	"github.com/xelth-com/cotaqc/internal/services/qc/qctest"
)

var start = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *qc.Service
	store  *qctest.Store
	blobs  *qctest.Blobs
	events *qctest.Events
}

func newFixture() *fixture {
	f := &fixture{store: qctest.NewStore(), blobs: qctest.NewBlobs(), events: &qctest.Events{}}
	clock := start
	f.svc = qc.NewService(f.store, f.blobs,
		qc.WithClock(func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		}),
		qc.WithPublisher(f.events))
	return f
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func intp(v int) *int { return &v }

// seedScenario builds drawing A(10,00 ±0,05) + B(no spec) and an OP with qty=8 freq=4.
func seedScenario(t *testing.T, f *fixture) (*models.Drawing, *models.WorkOrder) {
	t.Helper()
	ctx := context.Background()

	d, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Code: "DES-01", Name: "Flange", Image: pngBytes(t)})
	if err != nil {
		t.Fatalf("CreateDrawing: %v", err)
	}
	if _, err := f.svc.CreateDimension(ctx, d.ID, qc.DimensionInput{X: 0.2, Y: 0.3, Nominal: "10,00", TolPlus: "0,05", TolMinus: "0,05"}); err != nil {
		t.Fatalf("CreateDimension A: %v", err)
	}
	b, err := f.svc.CreateDimension(ctx, d.ID, qc.DimensionInput{X: 1.4, Y: -1})
	if err != nil {
		t.Fatalf("CreateDimension B: %v", err)
	}
	if b.Label != "B" || b.X != 1 || b.Y != 0 {
		t.Fatalf("second dimension = %+v, want label B clamped to (1,0)", b)
	}

	wo, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-77", DrawingID: d.ID, Qty: intp(8), Freq: intp(4)})
	if err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	if wo.PlanOrigin == nil || *wo.PlanOrigin != "gestor" {
		t.Fatalf("plan origin = %v, want gestor", wo.PlanOrigin)
	}
	return d, wo
}

func record(t *testing.T, f *fixture, det *qc.WorkOrderDetail, pieceIdx int, label, value string) *qc.RecordResult {
	t.Helper()
	var sampleID, dimID string
	for _, s := range det.Samples {
		if s.Index == pieceIdx {
			sampleID = s.ID
		}
	}
	for _, d := range det.Drawing.Dimensions {
		if d.Label == label {
			dimID = d.ID
		}
	}
	res, err := f.svc.RecordMeasurement(context.Background(), det.WorkOrder.ID, qc.RecordInput{SampleID: sampleID, DimensionID: dimID, Value: value})
	if err != nil {
		t.Fatalf("record %d/%s: %v", pieceIdx, label, err)
	}
	return res
}

func TestInspectionScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)

	det, err := f.svc.WorkOrderDetail(ctx, wo.ID)
	if err != nil {
		t.Fatalf("WorkOrderDetail: %v", err)
	}
	if len(det.Samples) != 2 || det.Samples[0].Index != 4 || det.Samples[1].Index != 8 {
		t.Fatalf("samples = %+v", det.Samples)
	}

	if res := record(t, f, det, 4, "A", "10,03"); res.Verdict != quality.VerdictWithin || res.Display != "10,03" {
		t.Errorf("A@4 = %+v", res)
	}
	if res := record(t, f, det, 4, "B", "5,00"); res.Verdict != quality.VerdictNotApplicable {
		t.Errorf("B@4 verdict = %q", res.Verdict)
	}
	if res := record(t, f, det, 8, "A", "10,10"); res.Verdict != quality.VerdictOut {
		t.Errorf("A@8 verdict = %q", res.Verdict)
	}

	det, err = f.svc.WorkOrderDetail(ctx, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	if det.Totals.Pct != 75 || det.ReadyToComplete {
		t.Errorf("totals = %+v ready=%v", det.Totals, det.ReadyToComplete)
	}
	if a := det.Dimensions[0]; a.Lidos != 2 || a.OK != 1 || a.Fora != 1 || a.PctFora != 50 {
		t.Errorf("summary A = %+v", a)
	}
	if det.Samples[0].Status != qc.SampleCompleted || det.Samples[1].Status != qc.SamplePending {
		t.Errorf("sample status = %s/%s", det.Samples[0].Status, det.Samples[1].Status)
	}

	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); !errors.Is(err, qc.ErrIncomplete) {
		t.Fatalf("CompleteWorkOrder = %v, want ErrIncomplete", err)
	}
	got, _ := f.store.GetWorkOrder(ctx, wo.ID)
	if got.Status != models.StatusOpen {
		t.Fatalf("status after failed completion = %q", got.Status)
	}

	record(t, f, det, 8, "B", "4,90")
	done, err := f.svc.CompleteWorkOrder(ctx, wo.ID)
	if err != nil {
		t.Fatalf("CompleteWorkOrder: %v", err)
	}
	if done.Status != models.StatusCompleted || done.CompletedAt == nil {
		t.Errorf("completed = %+v", done)
	}
	if f.events.Count(qc.EventWorkOrderCompleted) != 1 {
		t.Errorf("completion event not published")
	}

	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); !errors.Is(err, qc.ErrAlreadyCompleted) {
		t.Errorf("second completion = %v", err)
	}
	_, err = f.svc.RecordMeasurement(ctx, wo.ID, qc.RecordInput{SampleID: det.Samples[0].ID, DimensionID: det.Drawing.Dimensions[0].ID, Value: "1"})
	if !errors.Is(err, qc.ErrWorkOrderClosed) {
		t.Errorf("record on completed OP = %v", err)
	}
}

// interleavedStore runs hook just before the completion reaches the store,
// standing in for a tablet that edits the OP at that moment.
type interleavedStore struct {
	*qctest.Store
	hook func()
}

func (s *interleavedStore) CompleteWorkOrder(ctx context.Context, id string, at time.Time) error {
	if s.hook != nil {
		s.hook()
	}
	return s.Store.CompleteWorkOrder(ctx, id, at)
}

func TestCompleteRechecksCellsAtomically(t *testing.T) {
	inner := qctest.NewStore()
	st := &interleavedStore{Store: inner}
	f := &fixture{store: inner, blobs: qctest.NewBlobs(), events: &qctest.Events{}}
	f.svc = qc.NewService(st, f.blobs, qc.WithPublisher(f.events))
	ctx := context.Background()

	_, wo := seedScenario(t, f)
	det, err := f.svc.WorkOrderDetail(ctx, wo.ID)
	if err != nil {
		t.Fatal(err)
	}
	record(t, f, det, 4, "A", "10")
	record(t, f, det, 4, "B", "5")
	record(t, f, det, 8, "A", "10")
	last := record(t, f, det, 8, "B", "5")

	st.hook = func() {
		if err := inner.DeleteMeasurement(ctx, last.Measurement.ID); err != nil {
			t.Errorf("concurrent delete: %v", err)
		}
	}
	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); !errors.Is(err, qc.ErrIncomplete) {
		t.Fatalf("CompleteWorkOrder after concurrent delete = %v, want ErrIncomplete", err)
	}
	if got, _ := inner.GetWorkOrder(ctx, wo.ID); got.Status != models.StatusOpen || f.events.Count(qc.EventWorkOrderCompleted) != 0 {
		t.Fatalf("OP completed with a missing cell: %+v", got)
	}

	st.hook = nil
	record(t, f, det, 8, "B", "5")
	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); err != nil {
		t.Fatalf("CompleteWorkOrder: %v", err)
	}

	m := &models.Measurement{SampleID: det.Samples[0].ID, DimensionID: det.Drawing.Dimensions[0].ID, Value: last.Measurement.Value}
	if err := inner.UpsertMeasurement(ctx, m); !errors.Is(err, qc.ErrWorkOrderClosed) {
		t.Errorf("store write on completed OP = %v", err)
	}
	meas, _ := inner.ListMeasurements(ctx, det.Samples[0].ID)
	if err := inner.DeleteMeasurement(ctx, meas[0].ID); !errors.Is(err, qc.ErrWorkOrderClosed) {
		t.Errorf("store delete on completed OP = %v", err)
	}
}

func TestRecordMeasurementUpserts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)

	first := record(t, f, det, 4, "A", "10,03")
	second := record(t, f, det, 4, "A", "1.010,5")
	if first.Measurement.ID != second.Measurement.ID {
		t.Errorf("upsert should keep the row: %s vs %s", first.Measurement.ID, second.Measurement.ID)
	}
	if second.Display != "1010,50" {
		t.Errorf("display = %q", second.Display)
	}

	det, _ = f.svc.WorkOrderDetail(ctx, wo.ID)
	if det.Totals.Measured != 1 {
		t.Errorf("measured = %d, want 1", det.Totals.Measured)
	}

	if err := f.svc.DeleteMeasurement(ctx, wo.ID, second.Measurement.ID); err != nil {
		t.Fatalf("DeleteMeasurement: %v", err)
	}
	det, _ = f.svc.WorkOrderDetail(ctx, wo.ID)
	if det.Totals.Measured != 0 {
		t.Errorf("measured after delete = %d", det.Totals.Measured)
	}
}

func TestRecordMeasurementValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)

	in := qc.RecordInput{SampleID: det.Samples[0].ID, DimensionID: det.Drawing.Dimensions[0].ID, Value: "1,2,3"}
	var ve *qc.ValidationError
	if _, err := f.svc.RecordMeasurement(ctx, wo.ID, in); !errors.As(err, &ve) || ve.Field != "value" {
		t.Errorf("bad value = %v", err)
	}

	in.Value = ""
	if _, err := f.svc.RecordMeasurement(ctx, wo.ID, in); !errors.As(err, &ve) {
		t.Errorf("empty value = %v", err)
	}

	in.Value = "12.345.678.901"
	if _, err := f.svc.RecordMeasurement(ctx, wo.ID, in); !errors.As(err, &ve) || ve.Field != "value" {
		t.Errorf("oversized value = %v", err)
	}

	bad := in
	bad.Value, bad.DimensionID = "10", "abc"
	if _, err := f.svc.RecordMeasurement(ctx, wo.ID, bad); !errors.As(err, &ve) || ve.Field != "dimensionId" {
		t.Errorf("malformed dimension id = %v", err)
	}

	other, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-78", DrawingID: *wo.DrawingID})
	if err != nil {
		t.Fatal(err)
	}
	in.Value = "10"
	if _, err := f.svc.RecordMeasurement(ctx, other.ID, in); !errors.Is(err, qc.ErrForeignReference) {
		t.Errorf("sample of another OP = %v", err)
	}
}

func TestOperatorGeneratesSamples(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, _ := seedScenario(t, f)

	wo, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-90", DrawingID: d.ID})
	if err != nil {
		t.Fatal(err)
	}
	if wo.PlanOrigin != nil {
		t.Errorf("plan origin without params = %v", *wo.PlanOrigin)
	}

	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)
	if det.Plan.Qty != nil || det.Plan.Origin != quality.OriginInferred {
		t.Errorf("plan before samples = %+v", det.Plan)
	}
	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); !errors.Is(err, qc.ErrIncomplete) {
		t.Errorf("complete without samples = %v", err)
	}

	if _, err := f.svc.GenerateSamples(ctx, wo.ID, 3, 5); !errors.Is(err, qc.ErrEmptyPlan) {
		t.Errorf("freq > qty = %v", err)
	}
	samples, err := f.svc.GenerateSamples(ctx, wo.ID, 50, 10)
	if err != nil {
		t.Fatalf("GenerateSamples: %v", err)
	}
	if len(samples) != 5 {
		t.Errorf("samples = %d, want 5", len(samples))
	}
	if _, err := f.svc.GenerateSamples(ctx, wo.ID, 50, 10); !errors.Is(err, qc.ErrSamplesExist) {
		t.Errorf("second generation = %v", err)
	}

	det, _ = f.svc.WorkOrderDetail(ctx, wo.ID)
	if *det.Plan.Qty != 50 || *det.Plan.Freq != 10 || det.Plan.Origin != quality.OriginOperator || det.Plan.QtyInferred {
		t.Errorf("plan after generation = %+v", det.Plan)
	}
}

func TestPartialDeclarationInfersTheRest(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, _ := seedScenario(t, f)

	wo, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-91", DrawingID: d.ID, Qty: intp(12)})
	if err != nil {
		t.Fatal(err)
	}
	if *wo.PlanOrigin != "gestor" {
		t.Errorf("origin = %q", *wo.PlanOrigin)
	}
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)
	if len(det.Samples) != 0 || *det.Plan.Qty != 12 || det.Plan.Freq != nil {
		t.Errorf("plan = %+v samples=%d", det.Plan, len(det.Samples))
	}
}

func TestArchivedDrawingRejectsNewWorkOrders(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, _ := seedScenario(t, f)

	if _, err := f.svc.SetDrawingArchived(ctx, d.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-2", DrawingID: d.ID}); !errors.Is(err, qc.ErrDrawingArchived) {
		t.Errorf("CreateWorkOrder on archived drawing = %v", err)
	}
	active, _ := f.svc.ListDrawings(ctx, false)
	archived, _ := f.svc.ListDrawings(ctx, true)
	if len(active) != 0 || len(archived) != 1 {
		t.Errorf("active=%d archived=%d", len(active), len(archived))
	}
}

func TestDeleteReferencedDrawing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, wo := seedScenario(t, f)

	_, err := f.svc.DeleteDrawing(ctx, d.ID, false)
	var refErr *qc.ReferencedError
	if !errors.As(err, &refErr) || refErr.Count != 1 || !errors.Is(err, qc.ErrDrawingReferenced) {
		t.Fatalf("DeleteDrawing without confirm = %v", err)
	}

	res, err := f.svc.DeleteDrawing(ctx, d.ID, true)
	if err != nil {
		t.Fatalf("DeleteDrawing: %v", err)
	}
	if res.DetachedWorkOrders != 1 || !res.BlobRemoved {
		t.Errorf("result = %+v", res)
	}
	if f.blobs.Has(d.ImagePath) {
		t.Error("image blob should be removed")
	}
	got, _ := f.store.GetWorkOrder(ctx, wo.ID)
	if got.DrawingID != nil {
		t.Error("work order should be detached")
	}
	if dims, _ := f.store.ListDimensions(ctx, d.ID); len(dims) != 0 {
		t.Errorf("dimensions should cascade, %d left", len(dims))
	}
}

func TestDeleteDrawingBlobFailureIsWarning(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Code: "DES-9", Name: "Eixo", Image: pngBytes(t)})
	if err != nil {
		t.Fatal(err)
	}
	f.blobs.FailRemove = errors.New("bucket offline")

	res, err := f.svc.DeleteDrawing(ctx, d.ID, false)
	if err != nil {
		t.Fatalf("DeleteDrawing = %v", err)
	}
	if res.BlobRemoved {
		t.Error("BlobRemoved should be false")
	}
	if _, err := f.svc.GetDrawing(ctx, d.ID); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("drawing still present: %v", err)
	}
}

func TestCreateDrawingCleansUpOnInsertFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	img := pngBytes(t)
	first, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Code: "DES-1", Name: "A", Image: img})
	if err != nil {
		t.Fatal(err)
	}
	if first.ImageMeta.Data().Width != 64 || first.ImageMeta.Data().ThumbPath == "" {
		t.Errorf("image meta = %+v", first.ImageMeta.Data())
	}
	if !strings.HasPrefix(first.ImagePath, "desenhos/des-1_") {
		t.Errorf("image path = %q", first.ImagePath)
	}
	before := len(f.blobs.Objects)

	if _, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Code: "DES-1", Name: "B", Image: img}); !errors.Is(err, qc.ErrDuplicate) {
		t.Fatalf("duplicate code = %v", err)
	}
	if len(f.blobs.Objects) != before {
		t.Errorf("orphaned blobs left: %d -> %d", before, len(f.blobs.Objects))
	}

	var ve *qc.ValidationError
	if _, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Code: "DES-2", Name: "C", Image: []byte("not an image")}); !errors.As(err, &ve) {
		t.Errorf("bad image = %v", err)
	}
	if _, err := f.svc.CreateDrawing(ctx, qc.CreateDrawingInput{Name: "C", Image: img}); !errors.As(err, &ve) || ve.Field != "code" {
		t.Errorf("missing code = %v", err)
	}
}

func TestDimensionEditing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	d, _ := seedScenario(t, f)
	full, _ := f.svc.GetDrawing(ctx, d.ID)
	a := full.Dimensions[0]

	upd, err := f.svc.UpdateDimension(ctx, a.ID, qc.DimensionInput{Label: "c", Nominal: "25", TolPlus: "0,1", TolMinus: "-0,1", Unit: "in"})
	if err != nil {
		t.Fatalf("UpdateDimension: %v", err)
	}
	if upd.Label != "C" || upd.Unit != "in" || upd.X != a.X {
		t.Errorf("updated = %+v", upd)
	}
	if _, err := f.svc.UpdateDimension(ctx, a.ID, qc.DimensionInput{Label: "B"}); !errors.Is(err, qc.ErrDuplicate) {
		t.Errorf("duplicate label = %v", err)
	}

	moved, err := f.svc.MoveDimension(ctx, a.ID, 0.5, 2)
	if err != nil || moved.X != 0.5 || moved.Y != 1 {
		t.Errorf("moved = %+v, %v", moved, err)
	}

	if err := f.svc.DeleteDimension(ctx, a.ID); err != nil {
		t.Fatalf("DeleteDimension: %v", err)
	}
	full, _ = f.svc.GetDrawing(ctx, d.ID)
	if len(full.Dimensions) != 1 {
		t.Errorf("dimensions left = %d", len(full.Dimensions))
	}
	next, _ := f.svc.CreateDimension(ctx, d.ID, qc.DimensionInput{})
	if next.Label != "A" {
		t.Errorf("freed label not reused: %q", next.Label)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)
	record(t, f, det, 4, "A", "10,00")
	record(t, f, det, 4, "B", "1")
	record(t, f, det, 8, "A", "11")
	record(t, f, det, 8, "B", "1")
	if _, err := f.svc.CompleteWorkOrder(ctx, wo.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.CreateWorkOrder(ctx, qc.CreateWorkOrderInput{Code: "OP-2", DrawingID: *wo.DrawingID}); err != nil {
		t.Fatal(err)
	}

	dash, err := f.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.Drawings != 1 || dash.OpenWorkOrders != 1 || dash.CompletedRecent != 1 {
		t.Errorf("counts = %+v", dash)
	}
	if len(dash.RecentOpen) != 1 || dash.RecentOpen[0].Code != "OP-2" || dash.RecentOpen[0].DrawingCode != "DES-01" {
		t.Errorf("recent open = %+v", dash.RecentOpen)
	}
	if len(dash.RecentCompleted) != 1 {
		t.Fatalf("recent completed = %+v", dash.RecentCompleted)
	}
	if q := dash.RecentCompleted[0].Quality; q.Lidos != 4 || q.Fora != 1 || q.PctFora != 25 {
		t.Errorf("quality = %+v", q)
	}
	if dash.RecentCompleted[0].Totals.Pct != 100 {
		t.Errorf("progress = %+v", dash.RecentCompleted[0].Totals)
	}
}

func TestExports(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)
	record(t, f, det, 4, "A", "10,03")

	var csvBuf bytes.Buffer
	name, err := f.svc.ExportCSV(ctx, wo.ID, &csvBuf)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if name != "OP-77-medicoes.csv" {
		t.Errorf("csv name = %q", name)
	}
	if !strings.Contains(csvBuf.String(), "4;10,03;\r\n") || !strings.Contains(csvBuf.String(), "Lidos: 1 de 4 (25%)") {
		t.Errorf("csv = %q", csvBuf.String())
	}

	var xlsx bytes.Buffer
	if name, err := f.svc.ExportXLSX(ctx, wo.ID, &xlsx); err != nil || name != "OP-77-medicoes.xlsx" || xlsx.Len() == 0 {
		t.Errorf("ExportXLSX = %q, %v", name, err)
	}
	var pdf bytes.Buffer
	if name, err := f.svc.ExportPDF(ctx, wo.ID, "http://tablet.local", &pdf); err != nil || name != "OP-77-relatorio.pdf" || !bytes.HasPrefix(pdf.Bytes(), []byte("%PDF")) {
		t.Errorf("ExportPDF = %q, %v", name, err)
	}
	if name, data, err := f.svc.SampleLabels(ctx, wo.ID, "http://tablet.local"); err != nil || name != "OP-77-etiquetas.pdf" || len(data) == 0 {
		t.Errorf("SampleLabels = %q, %v", name, err)
	}

	if _, err := f.svc.ExportCSV(ctx, "missing", &csvBuf); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("missing OP = %v", err)
	}
}

func TestListWorkOrdersProgress(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, wo := seedScenario(t, f)
	det, _ := f.svc.WorkOrderDetail(ctx, wo.ID)
	record(t, f, det, 4, "A", "10")

	rows, err := f.svc.ListWorkOrders(ctx, qc.WorkOrderFilter{Status: models.StatusOpen})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Totals.Pct != 25 || *rows[0].Plan.Qty != 8 {
		t.Errorf("rows = %+v", rows)
	}
	none, _ := f.svc.ListWorkOrders(ctx, qc.WorkOrderFilter{Status: models.StatusCompleted})
	if none == nil || len(none) != 0 {
		t.Errorf("completed list = %#v", none)
	}
}
