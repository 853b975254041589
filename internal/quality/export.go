package quality

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const utf8BOM = "\ufeff"

// CSVFileName is the download name for a work order export.
func CSVFileName(code string) string {
	return code + "-medicoes.csv"
}

// WriteCSV renders the matrix for spreadsheet tools: BOM, ';' separator, CRLF,
// one row per sample, a blank line and a totals row.
func WriteCSV(w io.Writer, m *Matrix) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true

	header := make([]string, 0, len(m.Dimensions)+1)
	header = append(header, "Peça")
	for _, d := range m.Dimensions {
		header = append(header, "Cota "+d.Label)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range m.Samples {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(s.Index))
		for _, d := range m.Dimensions {
			if r, ok := m.Reading(s.ID, d.ID); ok {
				row = append(row, FormatReport(r.Value))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	t := m.Completeness()
	if err := cw.Write([]string{""}); err != nil {
		return err
	}
	if err := cw.Write([]string{"Totais", fmt.Sprintf("Lidos: %d de %d (%d%%)", t.Measured, t.Expected, t.Pct)}); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
