package repository

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/cotaqc/internal/database"
	"github.com/xelth-com/cotaqc/internal/models"
	"github.com/xelth-com/cotaqc/internal/services/qc"
)

// TEST_DATABASE_DSN points the tests at an existing server; otherwise an
// embedded one is started on testPort.
const testPort = 5434

var (
	testDB     *gorm.DB
	skipReason string
)

func TestMain(m *testing.M) {
	flag.Parse()
	os.Exit(runWithDB(m))
}

func runWithDB(m *testing.M) int {
	if testing.Short() {
		skipReason = "postgres tests skipped in short mode"
		return m.Run()
	}

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dir, err := os.MkdirTemp("", "cotaqc-pg-")
		if err != nil {
			skipReason = err.Error()
			return m.Run()
		}
		defer os.RemoveAll(dir)

		pg := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			Port(testPort).
			Database("cotaqc_test").
			RuntimePath(filepath.Join(dir, "runtime")).
			DataPath(filepath.Join(dir, "data")).
			StartTimeout(time.Minute).
			Logger(io.Discard))
		if err := pg.Start(); err != nil {
			skipReason = fmt.Sprintf("embedded postgres unavailable: %v", err)
			return m.Run()
		}
		defer pg.Stop()
		dsn = fmt.Sprintf("host=localhost port=%d user=postgres password=postgres dbname=cotaqc_test sslmode=disable", testPort)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		skipReason = fmt.Sprintf("connect: %v", err)
		return m.Run()
	}
	if err := database.Migrations(db); err != nil {
		log.Printf("❌ Test migrations failed: %v", err)
		return 1
	}
	testDB = db
	return m.Run()
}

// openRepo returns a repository over empty tables.
func openRepo(t *testing.T) *Repository {
	t.Helper()
	if testDB == nil {
		t.Skip(skipReason)
	}
	err := testDB.Exec("TRUNCATE measurements, samples, work_orders, dimensions, drawings CASCADE").Error
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return New(testDB)
}

type seeded struct {
	drawing *models.Drawing
	dims    []models.Dimension
	order   *models.WorkOrder
	samples []models.Sample
}

// seed creates drawing DES-01 with dimensions A and B and OP-1 sampling
// pieces 4 and 8.
func seed(t *testing.T, r *Repository) seeded {
	t.Helper()
	ctx := context.Background()

	d := &models.Drawing{
		Code:      "DES-01",
		Name:      "Flange",
		ImagePath: "desenhos/des-01.png",
		ImageURL:  "/uploads/desenhos/des-01.png",
		ImageMeta: datatypes.NewJSONType(models.ImageMeta{Width: 40, Height: 20, ContentType: "image/png"}),
	}
	if err := r.CreateDrawing(ctx, d); err != nil {
		t.Fatalf("CreateDrawing: %v", err)
	}
	for _, label := range []string{"A", "B"} {
		dim := &models.Dimension{DrawingID: d.ID, Label: label, X: 0.5, Y: 0.5, Unit: "mm"}
		if err := r.CreateDimension(ctx, dim); err != nil {
			t.Fatalf("CreateDimension %s: %v", label, err)
		}
	}
	dims, err := r.ListDimensions(ctx, d.ID)
	if err != nil || len(dims) != 2 {
		t.Fatalf("ListDimensions = %v, %v", dims, err)
	}

	wo := &models.WorkOrder{Code: "OP-1", Status: models.StatusOpen, DrawingID: &d.ID}
	if err := r.CreateWorkOrder(ctx, wo, []int{4, 8}); err != nil {
		t.Fatalf("CreateWorkOrder: %v", err)
	}
	samples, err := r.ListSamples(ctx, wo.ID)
	if err != nil || len(samples) != 2 || samples[0].Index != 4 {
		t.Fatalf("ListSamples = %v, %v", samples, err)
	}
	return seeded{drawing: d, dims: dims, order: wo, samples: samples}
}

func measure(t *testing.T, r *Repository, sampleID, dimensionID, value string) *models.Measurement {
	t.Helper()
	m := &models.Measurement{SampleID: sampleID, DimensionID: dimensionID, Value: decimal.RequireFromString(value)}
	if err := r.UpsertMeasurement(context.Background(), m); err != nil {
		t.Fatalf("UpsertMeasurement %s: %v", value, err)
	}
	return m
}

func TestUpsertMeasurementKeepsRow(t *testing.T) {
	r := openRepo(t)
	s := seed(t, r)
	ctx := context.Background()

	first := measure(t, r, s.samples[0].ID, s.dims[0].ID, "10.02")
	if first.ID == "" {
		t.Fatal("insert did not return an id")
	}
	second := measure(t, r, s.samples[0].ID, s.dims[0].ID, "10.05")
	if second.ID != first.ID {
		t.Errorf("upsert id = %s, want %s", second.ID, first.ID)
	}

	meas, err := r.ListMeasurements(ctx, s.samples[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(meas) != 1 || !meas[0].Value.Equal(decimal.RequireFromString("10.05")) {
		t.Errorf("measurements = %+v", meas)
	}

	huge := &models.Measurement{SampleID: s.samples[0].ID, DimensionID: s.dims[1].ID, Value: decimal.New(1, 11)}
	var ve *qc.ValidationError
	if err := r.UpsertMeasurement(ctx, huge); !errors.As(err, &ve) {
		t.Errorf("overflowing value = %v, want ValidationError", err)
	}
}

func TestDeleteDrawingDetachesWorkOrders(t *testing.T) {
	r := openRepo(t)
	s := seed(t, r)
	ctx := context.Background()
	measure(t, r, s.samples[0].ID, s.dims[0].ID, "1")

	if n, err := r.CountDrawingReferences(ctx, s.drawing.ID); err != nil || n != 1 {
		t.Fatalf("CountDrawingReferences = %d, %v", n, err)
	}
	detached, err := r.DeleteDrawing(ctx, s.drawing.ID)
	if err != nil || detached != 1 {
		t.Fatalf("DeleteDrawing = %d, %v", detached, err)
	}

	wo, err := r.GetWorkOrder(ctx, s.order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if wo.DrawingID != nil || wo.Drawing != nil {
		t.Errorf("work order still points at the drawing: %v", wo.DrawingID)
	}
	if dims, _ := r.ListDimensions(ctx, s.drawing.ID); len(dims) != 0 {
		t.Errorf("dimensions left: %d", len(dims))
	}
	if meas, _ := r.ListMeasurements(ctx, s.samples[0].ID); len(meas) != 0 {
		t.Errorf("measurements left: %d", len(meas))
	}
	if samples, _ := r.ListSamples(ctx, s.order.ID); len(samples) != 2 {
		t.Errorf("samples = %d, want 2", len(samples))
	}
	if _, err := r.DeleteDrawing(ctx, s.drawing.ID); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func TestDeleteDimensionCascadesMeasurements(t *testing.T) {
	r := openRepo(t)
	s := seed(t, r)
	ctx := context.Background()
	measure(t, r, s.samples[0].ID, s.dims[0].ID, "1")
	measure(t, r, s.samples[0].ID, s.dims[1].ID, "2")

	if err := r.DeleteDimension(ctx, s.dims[0].ID); err != nil {
		t.Fatal(err)
	}
	meas, err := r.ListMeasurements(ctx, s.samples[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(meas) != 1 || meas[0].DimensionID != s.dims[1].ID {
		t.Errorf("measurements after delete = %+v", meas)
	}
}

func TestCompleteWorkOrderRechecksCells(t *testing.T) {
	r := openRepo(t)
	s := seed(t, r)
	ctx := context.Background()
	now := time.Now().UTC()

	measure(t, r, s.samples[0].ID, s.dims[0].ID, "1")
	measure(t, r, s.samples[0].ID, s.dims[1].ID, "1")
	last := measure(t, r, s.samples[1].ID, s.dims[0].ID, "1")

	if err := r.CompleteWorkOrder(ctx, s.order.ID, now); !errors.Is(err, qc.ErrIncomplete) {
		t.Fatalf("complete with a missing cell = %v", err)
	}
	if wo, _ := r.GetWorkOrder(ctx, s.order.ID); !wo.IsOpen() {
		t.Fatalf("status = %q after refused completion", wo.Status)
	}

	measure(t, r, s.samples[1].ID, s.dims[1].ID, "1")
	if err := r.CompleteWorkOrder(ctx, s.order.ID, now); err != nil {
		t.Fatalf("CompleteWorkOrder: %v", err)
	}
	wo, _ := r.GetWorkOrder(ctx, s.order.ID)
	if wo.Status != models.StatusCompleted || wo.CompletedAt == nil {
		t.Errorf("completed = %+v", wo)
	}
	if err := r.CompleteWorkOrder(ctx, s.order.ID, now); !errors.Is(err, qc.ErrAlreadyCompleted) {
		t.Errorf("second completion = %v", err)
	}

	late := &models.Measurement{SampleID: s.samples[0].ID, DimensionID: s.dims[0].ID, Value: decimal.NewFromInt(2)}
	if err := r.UpsertMeasurement(ctx, late); !errors.Is(err, qc.ErrWorkOrderClosed) {
		t.Errorf("write on completed OP = %v", err)
	}
	if err := r.DeleteMeasurement(ctx, last.ID); !errors.Is(err, qc.ErrWorkOrderClosed) {
		t.Errorf("delete on completed OP = %v", err)
	}
	if err := r.CompleteWorkOrder(ctx, "33333333-3333-3333-3333-333333333333", now); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("missing OP = %v", err)
	}
}

func TestGenerateSamplesOnlyOnce(t *testing.T) {
	r := openRepo(t)
	s := seed(t, r)
	ctx := context.Background()

	wo := &models.WorkOrder{Code: "OP-2", Status: models.StatusOpen, DrawingID: &s.drawing.ID}
	if err := r.CreateWorkOrder(ctx, wo, nil); err != nil {
		t.Fatal(err)
	}
	rows, err := r.GenerateSamples(ctx, wo.ID, []int{5, 10}, 10, 5, "operador")
	if err != nil || len(rows) != 2 {
		t.Fatalf("GenerateSamples = %v, %v", rows, err)
	}
	if _, err := r.GenerateSamples(ctx, wo.ID, []int{5, 10}, 10, 5, "operador"); !errors.Is(err, qc.ErrSamplesExist) {
		t.Errorf("second generation = %v", err)
	}
	got, _ := r.GetWorkOrder(ctx, wo.ID)
	if got.Qty == nil || *got.Qty != 10 || got.PlanOrigin == nil || *got.PlanOrigin != "operador" {
		t.Errorf("declared plan = %+v", got)
	}
}

func TestMalformedIDReadsAsMissing(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	if _, err := r.GetWorkOrder(ctx, "abc"); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("GetWorkOrder(abc) = %v", err)
	}
	if _, err := r.GetDrawing(ctx, "abc"); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("GetDrawing(abc) = %v", err)
	}
	if err := r.DeleteMeasurement(ctx, "abc"); !errors.Is(err, qc.ErrNotFound) {
		t.Errorf("DeleteMeasurement(abc) = %v", err)
	}
}

func TestDuplicateDrawingCode(t *testing.T) {
	r := openRepo(t)
	seed(t, r)
	d := &models.Drawing{Code: "DES-01", Name: "Outra", ImagePath: "x.png", ImageURL: "/x.png"}
	if err := r.CreateDrawing(context.Background(), d); !errors.Is(err, qc.ErrDuplicate) {
		t.Errorf("duplicate code = %v", err)
	}
}
