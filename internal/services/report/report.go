package report

import (
	"fmt"
	"time"

	"github.com/xelth-com/cotaqc/internal/quality"
)

// WorkOrderReport is the data behind the PDF and XLSX inspection reports.
type WorkOrderReport struct {
	Code        string
	Status      string
	DrawingCode string
	DrawingName string
	Plan        quality.Plan
	Matrix      *quality.Matrix
	CreatedAt   time.Time
	CompletedAt *time.Time
	// Link is encoded as a QR code pointing back at the OP screen.
	Link        string
	GeneratedAt time.Time
}

// XLSXFileName is the download name of the spreadsheet export.
func XLSXFileName(code string) string {
	return code + "-medicoes.xlsx"
}

// PDFFileName is the download name of the inspection report.
func PDFFileName(code string) string {
	return code + "-relatorio.pdf"
}

// PlanText renders "qty 100 / freq 10 (declarada pelo gestor)".
func PlanText(p quality.Plan) string {
	num := func(v *int, inferred bool) string {
		if v == nil {
			return "?"
		}
		if inferred {
			return fmt.Sprintf("%d*", *v)
		}
		return fmt.Sprintf("%d", *v)
	}
	return fmt.Sprintf("qty %s / freq %s (%s)", num(p.Qty, p.QtyInferred), num(p.Freq, p.FreqInferred), OriginText(p.Origin))
}

// OriginText is the human label of a plan origin.
func OriginText(o quality.Origin) string {
	switch o {
	case quality.OriginManager:
		return "declarada pelo gestor"
	case quality.OriginOperator:
		return "declarada pelo operador"
	}
	return "inferida, sem declaração"
}

// StatusText is the human label of a work order status.
func StatusText(status string) string {
	if status == "concluida" {
		return "Concluída"
	}
	return "Aberta"
}
