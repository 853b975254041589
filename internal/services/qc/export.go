package qc

import (
	"context"
	"fmt"
	"io"

	"github.com/xelth-com/cotaqc/internal/quality"
	"github.com/xelth-com/cotaqc/internal/services/report"
)

// OperatorLink is the tablet URL of a work order, encoded in report QR codes.
func OperatorLink(appBaseURL, workOrderID string) string {
	return fmt.Sprintf("%s/operador/op/%s", appBaseURL, workOrderID)
}

func (s *Service) buildReport(ctx context.Context, id, appBaseURL string) (*report.WorkOrderReport, error) {
	od, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	r := &report.WorkOrderReport{
		Code:        od.wo.Code,
		Status:      od.wo.Status,
		Plan:        planOf(od.wo, od.samples),
		Matrix:      od.matrix,
		CreatedAt:   od.wo.CreatedAt,
		CompletedAt: od.wo.CompletedAt,
		GeneratedAt: s.now(),
	}
	if appBaseURL != "" {
		r.Link = OperatorLink(appBaseURL, od.wo.ID)
	}
	if od.wo.Drawing != nil {
		r.DrawingCode = od.wo.Drawing.Code
		r.DrawingName = od.wo.Drawing.Name
	}
	return r, nil
}

// ExportCSV writes the measurement matrix and returns the download name.
func (s *Service) ExportCSV(ctx context.Context, id string, w io.Writer) (string, error) {
	od, err := s.loadOrder(ctx, id)
	if err != nil {
		return "", err
	}
	return quality.CSVFileName(od.wo.Code), quality.WriteCSV(w, od.matrix)
}

// ExportXLSX writes the spreadsheet export and returns the download name.
func (s *Service) ExportXLSX(ctx context.Context, id string, w io.Writer) (string, error) {
	r, err := s.buildReport(ctx, id, "")
	if err != nil {
		return "", err
	}
	return report.XLSXFileName(r.Code), report.WriteXLSX(w, r)
}

// ExportPDF writes the inspection report and returns the download name.
func (s *Service) ExportPDF(ctx context.Context, id, appBaseURL string, w io.Writer) (string, error) {
	r, err := s.buildReport(ctx, id, appBaseURL)
	if err != nil {
		return "", err
	}
	return report.PDFFileName(r.Code), report.WritePDF(w, r)
}

// SampleLabels renders QR stickers for every sampled piece of a work order.
func (s *Service) SampleLabels(ctx context.Context, id, appBaseURL string) (string, []byte, error) {
	od, err := s.loadOrder(ctx, id)
	if err != nil {
		return "", nil, err
	}
	link := OperatorLink(appBaseURL, od.wo.ID)
	labels := make([]report.SampleLabel, 0, len(od.matrix.Samples))
	for _, smp := range od.matrix.Samples {
		labels = append(labels, report.SampleLabel{
			WorkOrderCode: od.wo.Code,
			Index:         smp.Index,
			Link:          fmt.Sprintf("%s?peca=%d", link, smp.Index),
		})
	}
	data, err := report.GenerateSampleLabelsPDF(labels, report.DefaultLabelConfig())
	if err != nil {
		return "", nil, err
	}
	return od.wo.Code + "-etiquetas.pdf", data, nil
}
