package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/dgallion1/teigest/internal/validate"
)

var header = []string{"항목", "수량", "비율"}

// WriteCSV writes the quality report.
func WriteCSV(w io.Writer, s Stats) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range s.Rows() {
		if err := cw.Write([]string{r.Item, strconv.Itoa(r.Count), r.Ratio}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable formats the quality report for a terminal.
func RenderTable(s Stats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{header[0], header[1], header[2]})
	for _, r := range s.Rows() {
		tw.AppendRow(table.Row{r.Item, r.Count, r.Ratio})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// WriteValidationLog writes the human-readable outcome of the well-formedness
// and RELAX NG checks.
func WriteValidationLog(w io.Writer, wellFormed, relaxNG validate.Result) error {
	_, err := fmt.Fprintf(w, "Well-formed: %s\n%s\nRELAX NG: %s\n%s\n",
		wellFormed.Status, wellFormed.Message, relaxNG.Status, relaxNG.Message)
	return err
}
