package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/cotaqc/internal/quality"
)

const maxColumnsPerPage = 8

// WritePDF renders the inspection report: header with a QR link back to the
// OP, per-dimension summary and the measurement matrix (out-of-tolerance
// values in red).
func WritePDF(w io.Writer, r *WorkOrderReport) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Arial", "I", 7)
		pdf.CellFormat(0, 4, tr(fmt.Sprintf("OP %s - gerado em %s - página %d",
			r.Code, r.GeneratedAt.Format("02/01/2006 15:04"), pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentW := pageW - left - right

	if r.Link != "" {
		qrPng, err := qrcode.Encode(r.Link, qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("qr code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("qr_op", opts, bytes.NewReader(qrPng))
		pdf.ImageOptions("qr_op", pageW-right-28, 10, 28, 28, false, opts, 0, "")
	}

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentW-30, 9, tr("Relatório de inspeção - OP "+r.Code), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(contentW-30, 6, tr(fmt.Sprintf("Desenho: %s - %s", r.DrawingCode, r.DrawingName)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW-30, 6, tr("Status: "+StatusText(r.Status)), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW-30, 6, tr("Plano: "+PlanText(r.Plan)), "", 1, "L", false, 0, "")
	if r.CompletedAt != nil {
		pdf.CellFormat(contentW-30, 6, tr("Concluída em: "+r.CompletedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	}
	t := r.Matrix.Completeness()
	q := r.Matrix.Quality()
	pdf.CellFormat(contentW-30, 6, tr(fmt.Sprintf("Lidos: %d de %d (%d%%) - fora de tolerância: %d (%d%%)",
		t.Measured, t.Expected, t.Pct, q.Fora, q.PctFora)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	writeSummaryTable(pdf, tr, r.Matrix)
	pdf.Ln(6)
	writeMatrixTable(pdf, tr, r.Matrix, contentW)

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func writeSummaryTable(pdf *gofpdf.Fpdf, tr func(string) string, m *quality.Matrix) {
	widths := []float64{20, 70, 20, 20, 20, 20}
	headers := []string{"Cota", "Especificação", "Lidos", "OK", "Fora", "% Fora"}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, s := range m.SummarizeDimensions() {
		cols := []string{s.Label, s.Spec, fmt.Sprint(s.Lidos), fmt.Sprint(s.OK), fmt.Sprint(s.Fora), fmt.Sprintf("%d%%", s.PctFora)}
		for i, c := range cols {
			align := "C"
			if i == 1 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, tr(c), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeMatrixTable(pdf *gofpdf.Fpdf, tr func(string) string, m *quality.Matrix, contentW float64) {
	dims := m.Dimensions
	for start := 0; start == 0 || start < len(dims); start += maxColumnsPerPage {
		end := start + maxColumnsPerPage
		if end > len(dims) {
			end = len(dims)
		}
		chunk := dims[start:end]

		indexW := 18.0
		colW := 30.0
		if len(chunk) > 0 && indexW+colW*float64(len(chunk)) > contentW {
			colW = (contentW - indexW) / float64(len(chunk))
		}

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(68, 114, 196)
		pdf.SetTextColor(255, 255, 255)
		pdf.CellFormat(indexW, 7, tr("Peça"), "1", 0, "C", true, 0, "")
		for _, d := range chunk {
			pdf.CellFormat(colW, 7, tr("Cota "+d.Label), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for _, s := range m.Samples {
			pdf.SetTextColor(0, 0, 0)
			pdf.CellFormat(indexW, 6, fmt.Sprint(s.Index), "1", 0, "C", false, 0, "")
			for _, d := range chunk {
				text := ""
				pdf.SetTextColor(0, 0, 0)
				if rd, ok := m.Reading(s.ID, d.ID); ok {
					text = quality.FormatReport(rd.Value)
					if d.Spec.Evaluate(rd.Value) == quality.VerdictOut {
						pdf.SetTextColor(192, 0, 0)
					}
				}
				pdf.CellFormat(colW, 6, tr(text), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)

		if len(dims) == 0 {
			break
		}
	}
}
