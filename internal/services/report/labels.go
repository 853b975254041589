package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
)

// LabelConfig holds the sheet layout for sample labels
type LabelConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
}

// DefaultLabelConfig is a 3x8 A4 sheet.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 3, GapY: 2}
}

// SampleLabel is one sticker for a sampled piece.
type SampleLabel struct {
	WorkOrderCode string
	Index         int
	// Link is encoded in the QR code; scanning it opens the OP on that piece.
	Link string
}

// GenerateSampleLabelsPDF lays out one QR label per sampled piece so the
// operator can tag the pieces pulled from the line.
func GenerateSampleLabelsPDF(labels []SampleLabel, cfg LabelConfig) ([]byte, error) {
	if cfg.Cols <= 0 || cfg.Rows <= 0 {
		cfg = DefaultLabelConfig()
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, pageHeight := pdf.GetPageSize()
	availW := pageWidth - cfg.MarginLeft*2
	availH := pageHeight - cfg.MarginTop*2
	labelW := (availW - float64(cfg.Cols-1)*cfg.GapX) / float64(cfg.Cols)
	labelH := (availH - float64(cfg.Rows-1)*cfg.GapY) / float64(cfg.Rows)
	perPage := cfg.Cols * cfg.Rows

	if len(labels) == 0 {
		pdf.AddPage()
	}

	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	for i, l := range labels {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		onPage := i % perPage
		x := cfg.MarginLeft + float64(onPage%cfg.Cols)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(onPage/cfg.Cols)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(l.Link, qrcode.Low, 256)
		if err != nil {
			return nil, err
		}
		imgName := fmt.Sprintf("qr_%d", i)
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		qrSize := labelH * 0.8
		if qrSize > labelW/2 {
			qrSize = labelW / 2
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 3
		textW := labelW - qrSize - 4
		pdf.SetXY(textX, y+labelH/2-7)
		pdf.SetFontSize(8)
		pdf.CellFormat(textW, 4, tr("OP "+l.WorkOrderCode), "", 2, "L", false, 0, "")
		pdf.SetFontSize(16)
		pdf.CellFormat(textW, 8, tr(fmt.Sprintf("Peça %d", l.Index)), "", 0, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
