package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/cotaqc/internal/quality"
)

const (
	sheetMeasurements = "Medições"
	sheetSummary      = "Resumo"
)

// WriteXLSX renders the measurement matrix and the per-dimension summary.
func WriteXLSX(w io.Writer, r *WorkOrderReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheetMeasurements); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	numFmt := "#,##0.00"
	valueStyle, _ := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Border:       []excelize.Border{{Type: "bottom", Color: "CCCCCC", Style: 1}},
	})
	outStyle, _ := f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Font:         &excelize.Font{Bold: true, Color: "9C0006"},
		Fill:         excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Border:       []excelize.Border{{Type: "bottom", Color: "CCCCCC", Style: 1}},
	})

	m := r.Matrix
	sh := sheetMeasurements

	f.SetCellValue(sh, "A1", fmt.Sprintf("OP %s", r.Code))
	f.SetCellStyle(sh, "A1", "A1", titleStyle)
	f.SetRowHeight(sh, 1, 24)
	f.SetCellValue(sh, "A2", fmt.Sprintf("Desenho %s - %s", r.DrawingCode, r.DrawingName))
	f.SetCellValue(sh, "A3", PlanText(r.Plan))

	const headerRow = 5
	f.SetCellValue(sh, cell(1, headerRow), "Peça")
	f.SetCellStyle(sh, cell(1, headerRow), cell(1, headerRow), headerStyle)
	for j, d := range m.Dimensions {
		label := "Cota " + d.Label
		if spec := quality.SpecString(d.Spec); spec != "" {
			label += "\n" + spec
		}
		c := cell(j+2, headerRow)
		f.SetCellValue(sh, c, label)
		f.SetCellStyle(sh, c, c, headerStyle)
	}
	f.SetRowHeight(sh, headerRow, 32)
	lastCol, _ := excelize.ColumnNumberToName(len(m.Dimensions) + 1)
	f.SetColWidth(sh, "A", "A", 10)
	if len(m.Dimensions) > 0 {
		f.SetColWidth(sh, "B", lastCol, 22)
	}

	row := headerRow + 1
	for _, s := range m.Samples {
		f.SetCellValue(sh, cell(1, row), s.Index)
		for j, d := range m.Dimensions {
			rd, ok := m.Reading(s.ID, d.ID)
			if !ok {
				continue
			}
			c := cell(j+2, row)
			f.SetCellValue(sh, c, rd.Value.InexactFloat64())
			style := valueStyle
			if d.Spec.Evaluate(rd.Value) == quality.VerdictOut {
				style = outStyle
			}
			f.SetCellStyle(sh, c, c, style)
		}
		row++
	}

	t := m.Completeness()
	row++
	f.SetCellValue(sh, cell(1, row), "Totais")
	f.SetCellValue(sh, cell(2, row), fmt.Sprintf("Lidos: %d de %d (%d%%)", t.Measured, t.Expected, t.Pct))
	if len(m.Samples) > 0 {
		f.SetPanes(sh, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: headerRow, TopLeftCell: cell(2, headerRow+1), ActivePane: "bottomRight"})
	}

	sum := sheetSummary
	for j, h := range []string{"Cota", "Especificação", "Lidos", "OK", "Fora", "% Fora"} {
		c := cell(j+1, 1)
		f.SetCellValue(sum, c, h)
		f.SetCellStyle(sum, c, c, headerStyle)
	}
	f.SetColWidth(sum, "B", "B", 28)
	for i, s := range m.SummarizeDimensions() {
		rr := i + 2
		f.SetCellValue(sum, cell(1, rr), s.Label)
		f.SetCellValue(sum, cell(2, rr), s.Spec)
		f.SetCellValue(sum, cell(3, rr), s.Lidos)
		f.SetCellValue(sum, cell(4, rr), s.OK)
		f.SetCellValue(sum, cell(5, rr), s.Fora)
		f.SetCellValue(sum, cell(6, rr), s.PctFora)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if index, err := f.GetSheetIndex(sheetMeasurements); err == nil {
		f.SetActiveSheet(index)
	}
	_, err := f.WriteTo(w)
	return err
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
